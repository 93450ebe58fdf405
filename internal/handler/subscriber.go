package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/mineos/landing/internal/handler/dto"
	"github.com/mineos/landing/internal/metrics"
	"github.com/mineos/landing/internal/middleware"
	"github.com/mineos/landing/internal/model"
	"github.com/mineos/landing/internal/schema"
	"github.com/mineos/landing/internal/service"
)

// Response messages for the subscriber endpoints.
const (
	msgAlreadySubscribed = "Email already subscribed"
	msgInternalError     = "Internal server error"
	msgBodyTooLarge      = "Request body too large"
	msgInvalidCursor     = "Invalid cursor"
)

// SubscriberHandler handles HTTP requests for subscriber operations.
type SubscriberHandler struct {
	svc     *service.SubscriberService
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewSubscriberHandler creates a new SubscriberHandler.
func NewSubscriberHandler(svc *service.SubscriberService, logger *slog.Logger, recorder metrics.Recorder) *SubscriberHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &SubscriberHandler{
		svc:     svc,
		logger:  logger,
		metrics: recorder,
	}
}

// Create handles POST /api/subscribers.
// Bodies not declared as application/json are treated as an empty object.
func (h *SubscriberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body []byte
	if isJSONRequest(r) {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeJSON(w, http.StatusRequestEntityTooLarge, dto.ErrorResponse{Message: msgBodyTooLarge})
				return
			}
			h.writeValidationError(w, schema.Issue{Message: schema.MsgInvalidJSON})
			return
		}
	}

	result := schema.ParseCreateSubscriber(body)
	if issue, bad := result.Issue(); bad {
		h.writeValidationError(w, issue)
		return
	}
	input, _ := result.Valid()

	sub, err := h.svc.Register(r.Context(), input.Email)
	if err != nil {
		if errors.Is(err, service.ErrAlreadySubscribed) {
			h.logger.Info("subscriber_conflict",
				"email", model.MaskEmail(input.Email),
				"request_id", middleware.GetRequestID(r.Context()),
			)
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{Message: msgAlreadySubscribed})
			return
		}

		h.logger.Error("internal_error",
			"operation", "register_subscriber",
			"email", model.MaskEmail(input.Email),
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Message: msgInternalError})
		return
	}

	h.logger.Info("subscriber_created",
		"subscriber_id", sub.ID,
		"email", model.MaskEmail(sub.Email),
	)

	writeJSON(w, http.StatusCreated, dto.ToSubscriberResponse(sub))
}

// List handles GET /api/admin/subscribers.
func (h *SubscriberHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 0
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	result, err := h.svc.ListSubscribers(r.Context(), service.ListSubscribersInput{
		Cursor: query.Get("cursor"),
		Limit:  limit,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCursor) {
			writeJSON(w, http.StatusBadRequest, dto.ValidationErrorResponse{Message: msgInvalidCursor, Field: "cursor"})
			return
		}
		h.logger.Error("internal_error",
			"operation", "list_subscribers",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Message: msgInternalError})
		return
	}

	writeJSON(w, http.StatusOK, dto.ToSubscriberListResponse(result.Subscribers, result.NextCursor, result.HasMore))
}

// writeValidationError writes a 400 response naming the offending field.
func (h *SubscriberHandler) writeValidationError(w http.ResponseWriter, issue schema.Issue) {
	h.metrics.IncValidationFailed()
	writeJSON(w, http.StatusBadRequest, dto.ValidationErrorResponse{
		Message: issue.Message,
		Field:   issue.Field,
	})
}

// isJSONRequest reports whether the Content-Type is application/json,
// with or without parameters.
func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}
