package genai

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		retryAfter    string
		wantCode      ErrorCode
		wantRetryable bool
		wantHint      time.Duration
	}{
		{
			name:     "401 authentication",
			status:   http.StatusUnauthorized,
			body:     "invalid token",
			wantCode: ErrAuthentication,
		},
		{
			name:     "403 authorization",
			status:   http.StatusForbidden,
			body:     "access denied",
			wantCode: ErrAuthorization,
		},
		{
			name:          "429 with retry-after seconds",
			status:        http.StatusTooManyRequests,
			body:          "slow down",
			retryAfter:    "5",
			wantCode:      ErrRateLimited,
			wantRetryable: true,
			wantHint:      5 * time.Second,
		},
		{
			name:          "429 without hint",
			status:        http.StatusTooManyRequests,
			body:          "slow down",
			wantCode:      ErrRateLimited,
			wantRetryable: true,
		},
		{
			name:          "502 upstream unavailable",
			status:        http.StatusBadGateway,
			wantCode:      ErrUpstreamUnavailable,
			wantRetryable: true,
		},
		{
			name:          "503 upstream unavailable",
			status:        http.StatusServiceUnavailable,
			wantCode:      ErrUpstreamUnavailable,
			wantRetryable: true,
		},
		{
			name:          "504 upstream unavailable",
			status:        http.StatusGatewayTimeout,
			wantCode:      ErrUpstreamUnavailable,
			wantRetryable: true,
		},
		{
			name:     "400 with context length marker",
			status:   http.StatusBadRequest,
			body:     "This model's maximum context length is 8192 tokens",
			wantCode: ErrContextTooLong,
		},
		{
			name:     "400 with context_length_exceeded code",
			status:   http.StatusBadRequest,
			body:     `{"code":"context_length_exceeded"}`,
			wantCode: ErrContextTooLong,
		},
		{
			name:     "400 plain rejection",
			status:   http.StatusBadRequest,
			body:     "missing messages",
			wantCode: ErrRequestRejected,
		},
		{
			name:     "404 rejection",
			status:   http.StatusNotFound,
			wantCode: ErrRequestRejected,
		},
		{
			name:          "500 server error",
			status:        http.StatusInternalServerError,
			wantCode:      ErrServer,
			wantRetryable: true,
		},
		{
			name:          "529 server error",
			status:        529,
			wantCode:      ErrServer,
			wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ClassifyStatus(tt.status, tt.body, tt.retryAfter)
			require.NotNil(t, e)
			assert.Equal(t, tt.wantCode, e.Code)
			assert.Equal(t, tt.wantRetryable, e.Retryable)
			assert.Equal(t, tt.status, e.HTTPStatus)
			assert.Equal(t, tt.wantHint, e.RetryAfter)
		})
	}
}

func TestClassifyTransport(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	e := ClassifyTransport(cause)
	assert.Equal(t, ErrTransport, e.Code)
	assert.True(t, e.Retryable)
	assert.ErrorIs(t, e, cause)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 5*time.Second, ParseRetryAfter("5"))
	assert.Equal(t, time.Duration(0), ParseRetryAfter(""))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("soon"))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("-3"))

	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	d := ParseRetryAfter(future)
	assert.Greater(t, d, 80*time.Second)
	assert.LessOrEqual(t, d, 90*time.Second)

	past := time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat)
	assert.Equal(t, time.Duration(0), ParseRetryAfter(past))
}

func TestReadErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "openai error envelope",
			body: `{"error":{"message":"model not found","type":"invalid_request_error"}}`,
			want: "model not found (type: invalid_request_error)",
		},
		{
			name: "envelope without type",
			body: `{"error":{"message":"nope"}}`,
			want: "nope",
		},
		{
			name: "raw text fallback",
			body: "502 Bad Gateway\n",
			want: "502 Bad Gateway",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadErrorMessage(strings.NewReader(tt.body)))
		})
	}
}

// Every 4xx except 429 must be terminal, and every 5xx must be retryable,
// regardless of body content.
func TestProperty_ClassifierRetryabilityPartition(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("4xx is terminal unless rate limited", prop.ForAll(
		func(status int, body string) bool {
			e := ClassifyStatus(status, body, "")
			if status == http.StatusTooManyRequests {
				return e.Retryable && e.Code == ErrRateLimited
			}
			return !e.Retryable
		},
		gen.IntRange(400, 499),
		gen.AlphaString(),
	))

	properties.Property("5xx is retryable", prop.ForAll(
		func(status int, body string) bool {
			e := ClassifyStatus(status, body, "")
			return e.Retryable
		},
		gen.IntRange(500, 599),
		gen.AlphaString(),
	))

	properties.Property("classification is deterministic", prop.ForAll(
		func(status int, body string) bool {
			a := ClassifyStatus(status, body, "")
			b := ClassifyStatus(status, body, "")
			return a.Code == b.Code && a.Retryable == b.Retryable
		},
		gen.IntRange(100, 599),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
