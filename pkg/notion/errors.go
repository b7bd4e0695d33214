package notion

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrMissingAPIKey is returned by New when no integration token is configured.
	ErrMissingAPIKey = errors.New("notion api key is required")

	// ErrInvalidPageSize is returned by New when the page size is outside 1..100.
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors (bad token, bad request).
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx and other unexpected statuses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 rate limit errors.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents transport failures.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a 2xx response whose body is not a search result.
	ErrorClassDecode ErrorClass = "decode"
)

// APIError is a failed search request.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass

	// Code and Message come from the Notion error body when present.
	Code    string
	Message string

	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("notion %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, msg, e.Err)
	}
	return fmt.Sprintf("notion %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, msg)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// errorBody is the JSON body Notion sends with non-2xx responses.
type errorBody struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classifyStatus maps an HTTP status code to an ErrorClass.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == 429:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	default:
		return ErrorClassServer
	}
}
