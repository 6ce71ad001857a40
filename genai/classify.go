package genai

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// contextLengthMarkers are the body fragments OpenAI-wire proxies use for
// over-long prompts on a 400 response.
var contextLengthMarkers = []string{
	"context_length_exceeded",
	"context length",
	"maximum context",
	"too many tokens",
	"prompt is too long",
}

// ClassifyStatus maps an HTTP response outcome to the error taxonomy.
// It is a pure function of the status code, an error-body snippet, and the
// raw Retry-After header value ("" when absent). Transport-level failures
// go through ClassifyTransport instead.
func ClassifyStatus(status int, body string, retryAfter string) *Error {
	switch {
	case status == http.StatusUnauthorized:
		return &Error{Code: ErrAuthentication, Message: body, HTTPStatus: status}
	case status == http.StatusForbidden:
		return &Error{Code: ErrAuthorization, Message: body, HTTPStatus: status}
	case status == http.StatusTooManyRequests:
		return &Error{
			Code:       ErrRateLimited,
			Message:    body,
			HTTPStatus: status,
			Retryable:  true,
			RetryAfter: ParseRetryAfter(retryAfter),
		}
	case status == http.StatusBadGateway,
		status == http.StatusServiceUnavailable,
		status == http.StatusGatewayTimeout:
		return &Error{Code: ErrUpstreamUnavailable, Message: body, HTTPStatus: status, Retryable: true}
	case status == http.StatusBadRequest && hasContextLengthMarker(body):
		return &Error{Code: ErrContextTooLong, Message: body, HTTPStatus: status}
	case status >= 400 && status < 500:
		return &Error{Code: ErrRequestRejected, Message: body, HTTPStatus: status}
	default:
		return &Error{Code: ErrServer, Message: body, HTTPStatus: status, Retryable: status >= 500}
	}
}

// ClassifyTransport maps a transport-level failure (timeout, refused
// connection, handshake failure, cancellation) to the taxonomy.
func ClassifyTransport(err error) *Error {
	return &Error{
		Code:      ErrTransport,
		Message:   "transport failure",
		Retryable: true,
		Cause:     err,
	}
}

func hasContextLengthMarker(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range contextLengthMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ParseRetryAfter parses a Retry-After header value, either delay-seconds
// or an HTTP-date. Returns zero when the value is absent or unusable.
func ParseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// ReadErrorMessage extracts a human-readable message from an OpenAI-wire
// error body, falling back to the raw text when it is not the usual
// {"error": {...}} envelope.
func ReadErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil {
		return "failed to read error response"
	}

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		if errResp.Error.Type != "" {
			return fmt.Sprintf("%s (type: %s)", errResp.Error.Message, errResp.Error.Type)
		}
		return errResp.Error.Message
	}

	return strings.TrimSpace(string(data))
}
