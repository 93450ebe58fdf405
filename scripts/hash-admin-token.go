package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mineos/landing/internal/auth"
)

type output struct {
	Token string `json:"token,omitempty"`
	Hash  string `json:"hash"`
}

// Generates an admin bearer token and the ADMIN_TOKEN_HASH value for it.
// With -stdin an existing token is read from standard input and only hashed.
func main() {
	var (
		fromStdin = flag.Bool("stdin", false, "Hash a token read from stdin instead of generating one")
		format    = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	var out output
	if *fromStdin {
		token, err := readToken()
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		if !auth.ValidateTokenFormat(token) {
			fmt.Fprintln(os.Stderr, "token must match the mla_<64 hex> format")
			os.Exit(1)
		}
		hash, err := auth.HashToken(token)
		if err != nil {
			fmt.Fprintln(os.Stderr, "hash token:", err)
			os.Exit(1)
		}
		out = output{Token: token, Hash: hash}
	} else {
		generated, err := auth.GenerateAdminToken()
		if err != nil {
			fmt.Fprintln(os.Stderr, "generate admin token:", err)
			os.Exit(1)
		}
		out = output{Token: generated.Plaintext, Hash: generated.Hash}
	}

	switch strings.ToLower(*format) {
	case "plain":
		if !*fromStdin {
			fmt.Println("token:", out.Token)
		}
		fmt.Println("ADMIN_TOKEN_HASH=" + out.Hash)
	case "json":
		if *fromStdin {
			out.Token = ""
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func readToken() (string, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return "", fmt.Errorf("empty token")
	}
	return token, nil
}
