package notion

import (
	"errors"
	"io"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		expected string
	}{
		{
			name: "client error with notion code",
			err: &APIError{
				StatusCode: 401,
				ErrorClass: ErrorClassClient,
				Code:       "unauthorized",
				Message:    "API token is invalid.",
			},
			expected: "notion client error (status 401): unauthorized: API token is invalid.",
		},
		{
			name: "server error without code",
			err: &APIError{
				StatusCode: 502,
				ErrorClass: ErrorClassServer,
				Message:    "502 Bad Gateway",
			},
			expected: "notion server error (status 502): 502 Bad Gateway",
		},
		{
			name: "network error with wrapped error",
			err: &APIError{
				ErrorClass: ErrorClassNetwork,
				Message:    "request failed",
				Err:        io.ErrUnexpectedEOF,
			},
			expected: "notion network error (status 0): request failed: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	err := &APIError{ErrorClass: ErrorClassNetwork, Err: io.ErrUnexpectedEOF}

	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("errors.Is should find the wrapped error")
	}

	var apiErr *APIError
	if !errors.As(error(err), &apiErr) {
		t.Fatal("errors.As should match *APIError")
	}
	if apiErr.ErrorClass != ErrorClassNetwork {
		t.Errorf("ErrorClass = %q, want %q", apiErr.ErrorClass, ErrorClassNetwork)
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected ErrorClass
	}{
		{400, ErrorClassClient},
		{401, ErrorClassClient},
		{404, ErrorClassClient},
		{429, ErrorClassRateLimit},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
		{302, ErrorClassServer},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.expected {
			t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.expected)
		}
	}
}
