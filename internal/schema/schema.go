// Package schema validates raw request payloads before they reach storage.
//
// Validation never panics or returns errors for bad input. Callers get a
// Result that is either a typed value or the first violated rule.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Messages reported for rejected payloads.
const (
	MsgRequired     = "Required"
	MsgInvalidEmail = "Invalid email"
	MsgInvalidJSON  = "Invalid JSON"
)

// FieldEmail is the only field of a signup payload.
const FieldEmail = "email"

var validate = validator.New()

// emailShape narrows validator's RFC 5322 check to plain ASCII addresses
// with a dotted domain and an alphabetic TLD of two or more letters.
var emailShape = regexp.MustCompile(`^[A-Za-z0-9_'+\-.]*[A-Za-z0-9_+\-]@([A-Za-z0-9][A-Za-z0-9\-]*\.)+[A-Za-z]{2,}$`)

// CreateSubscriber is a validated signup payload.
type CreateSubscriber struct {
	Email string
}

// Issue describes the first rule a payload violated.
// Field is empty when the payload as a whole is malformed.
type Issue struct {
	Field   string
	Message string
}

// Result holds either a valid payload or an Issue.
type Result struct {
	value CreateSubscriber
	issue *Issue
}

// Valid returns the payload and true when validation succeeded.
func (r Result) Valid() (CreateSubscriber, bool) {
	return r.value, r.issue == nil
}

// Issue returns the violation and true when validation failed.
func (r Result) Issue() (Issue, bool) {
	if r.issue == nil {
		return Issue{}, false
	}
	return *r.issue, true
}

func valid(v CreateSubscriber) Result {
	return Result{value: v}
}

func invalid(field, message string) Result {
	return Result{issue: &Issue{Field: field, Message: message}}
}

// ParseCreateSubscriber checks a raw body against the signup schema:
// an object whose "email" member is a string holding a valid address.
// The email is passed through unchanged; no trimming or case folding.
// An empty body is treated as an empty object.
func ParseCreateSubscriber(body []byte) Result {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("{}")
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return invalid("", MsgInvalidJSON)
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return invalid("", expected("object", payload))
	}

	raw, present := obj[FieldEmail]
	if !present {
		return invalid(FieldEmail, MsgRequired)
	}

	email, ok := raw.(string)
	if !ok {
		return invalid(FieldEmail, expected("string", raw))
	}

	if !isEmail(email) {
		return invalid(FieldEmail, MsgInvalidEmail)
	}

	return valid(CreateSubscriber{Email: email})
}

// isEmail applies validator's email rule and then the stricter shape:
// no quoted or non-ASCII local parts, no leading dot, no "..".
func isEmail(email string) bool {
	if err := validate.Var(email, "email"); err != nil {
		return false
	}
	if strings.HasPrefix(email, ".") || strings.Contains(email, "..") {
		return false
	}
	return emailShape.MatchString(email)
}

func expected(want string, got any) string {
	return fmt.Sprintf("Expected %s, received %s", want, typeName(got))
}

// typeName names a decoded JSON value the way clients see it.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
