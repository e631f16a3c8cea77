package testutils

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/medihort/medihort-ai/internal/domain/plant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HTTPAssertions provides HTTP-specific assertions
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates HTTP assertions for t
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// StatusCode asserts the response status
func (ha *HTTPAssertions) StatusCode(resp *http.Response, expectedCode int, msgAndArgs ...interface{}) {
	ha.t.Helper()
	assert.Equal(ha.t, expectedCode, resp.StatusCode, msgAndArgs...)
}

// JSONResponse decodes the body into target
func (ha *HTTPAssertions) JSONResponse(resp *http.Response, target interface{}) {
	ha.t.Helper()
	assert.Contains(ha.t, resp.Header.Get("Content-Type"), "application/json")
	body, err := io.ReadAll(resp.Body)
	require.NoError(ha.t, err)
	require.NoError(ha.t, json.Unmarshal(body, target), string(body))
}

// ErrorEnvelope asserts the API error shape {"error":{"code","message"}}
func (ha *HTTPAssertions) ErrorEnvelope(resp *http.Response, expectedCode int, messageContains string) {
	ha.t.Helper()
	ha.StatusCode(resp, expectedCode)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	ha.JSONResponse(resp, &body)
	assert.NotEmpty(ha.t, body.Error.Code)
	assert.Contains(ha.t, body.Error.Message, messageContains)
}

// SecurityHeaders asserts the headers every page carries
func (ha *HTTPAssertions) SecurityHeaders(resp *http.Response) {
	ha.t.Helper()
	assert.Equal(ha.t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(ha.t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(ha.t, resp.Header.Get("Content-Security-Policy"))
	assert.NotEmpty(ha.t, resp.Header.Get("Referrer-Policy"))
}

// SessionCookie asserts the named cookie is set HttpOnly
func (ha *HTTPAssertions) SessionCookie(resp *http.Response, name string) {
	ha.t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == name {
			assert.True(ha.t, c.HttpOnly, "session cookie must be HttpOnly")
			assert.Equal(ha.t, http.SameSiteLaxMode, c.SameSite)
			return
		}
	}
	ha.t.Errorf("cookie %q not set", name)
}

// OrderedByName asserts plants are sorted case-insensitively by name
func OrderedByName(t *testing.T, plants []*plant.Plant) {
	t.Helper()
	for i := 1; i < len(plants); i++ {
		assert.LessOrEqual(t, strings.ToLower(plants[i-1].Name), strings.ToLower(plants[i].Name),
			"%q listed before %q", plants[i-1].Name, plants[i].Name)
	}
}

// ResponseTime asserts fn completes within max
func ResponseTime(t *testing.T, max time.Duration, fn func()) time.Duration {
	t.Helper()
	start := time.Now()
	fn()
	elapsed := time.Since(start)
	assert.LessOrEqual(t, elapsed, max, "took %s, budget %s", elapsed, max)
	return elapsed
}
