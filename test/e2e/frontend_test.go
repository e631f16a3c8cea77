//go:build e2e

// Package e2e drives the HTMX front-end against a live platform API
package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/medihort/medihort-ai/internal/domain/chat"
	"github.com/medihort/medihort-ai/internal/infrastructure/http/webserver"
	"github.com/medihort/medihort-ai/test/testutils"
	"github.com/stretchr/testify/suite"
)

var (
	csrfPattern    = regexp.MustCompile(`X-CSRF-Token": "([A-Za-z0-9_-]+)"`)
	plantIDPattern = regexp.MustCompile(`/htmx/plants/([0-9a-f-]{36})/favorite`)
)

// FrontendSuite runs the web server and the API in process over SQLite
type FrontendSuite struct {
	suite.Suite
	api    *testutils.APIStack
	web    *httptest.Server
	client *http.Client
	check  *testutils.HTTPAssertions
	csrf   string
}

func TestFrontendSuite(t *testing.T) {
	suite.Run(t, new(FrontendSuite))
}

func (s *FrontendSuite) SetupTest() {
	cfg := testutils.TestConfig()
	s.api = testutils.NewAPIStack(s.T(), testutils.SetupSQLiteDatabase(s.T()), cfg)
	s.web = testutils.NewWebStack(s.T(), cfg, s.api.URL())
	s.check = testutils.NewHTTPAssertions(s.T())

	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	s.client = &http.Client{
		Jar:     jar,
		Timeout: 10 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (s *FrontendSuite) get(path string) (*http.Response, string) {
	resp, err := s.client.Get(s.web.URL + path)
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, string(body)
}

func (s *FrontendSuite) post(path string, form url.Values, htmx bool) (*http.Response, string) {
	req, err := http.NewRequest(http.MethodPost, s.web.URL+path, strings.NewReader(form.Encode()))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
		req.Header.Set("X-CSRF-Token", s.csrf)
	}

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, string(body)
}

// home loads the page and refreshes the CSRF token
func (s *FrontendSuite) home() string {
	resp, body := s.get("/")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	m := csrfPattern.FindStringSubmatch(body)
	s.Require().Len(m, 2)
	s.csrf = m[1]
	return body
}

func (s *FrontendSuite) firstPlantID(body string) string {
	m := plantIDPattern.FindStringSubmatch(body)
	s.Require().Len(m, 2, "no plant cards rendered")
	return m[1]
}

func (s *FrontendSuite) signIn() {
	resp, _ := s.post("/auth/login", url.Values{
		"email":      {testutils.DemoEmail},
		"password":   {testutils.DemoPassword},
		"csrf_token": {s.csrf},
	}, false)
	s.Require().Equal(http.StatusSeeOther, resp.StatusCode)
}

func toast(resp *http.Response) webserver.Toast {
	var trigger struct {
		ShowToast webserver.Toast `json:"showToast"`
	}
	_ = json.Unmarshal([]byte(resp.Header.Get("HX-Trigger")), &trigger)
	return trigger.ShowToast
}

func (s *FrontendSuite) TestHomeServesSeededCatalog() {
	resp, body := s.get("/")

	s.check.StatusCode(resp, http.StatusOK)
	s.check.SecurityHeaders(resp)
	s.check.SessionCookie(resp, "medihort_session")
	s.Less(strings.Index(body, "Aloe Vera"), strings.Index(body, "Ashwagandha"))
	s.Less(strings.Index(body, "Ashwagandha"), strings.Index(body, "Chamomile"))
	s.Contains(body, "Sign In")
}

func (s *FrontendSuite) TestFavoriteJourney() {
	plantID := s.firstPlantID(s.home())

	resp, _ := s.post("/htmx/plants/"+plantID+"/favorite", nil, true)
	s.check.StatusCode(resp, http.StatusNoContent)
	s.Equal(webserver.ToastAuthRequiredTitle, toast(resp).Title)

	s.signIn()
	body := s.home()
	s.Contains(body, testutils.DemoEmail)
	s.Contains(body, "Sign Out")

	resp, fragment := s.post("/htmx/plants/"+plantID+"/favorite", nil, true)
	s.check.StatusCode(resp, http.StatusOK)
	s.Contains(fragment, `aria-pressed="true"`)
	s.Equal("Added to favorites", toast(resp).Title)

	s.Contains(s.home(), "is-favorited")

	resp, fragment = s.post("/htmx/plants/"+plantID+"/favorite", nil, true)
	s.check.StatusCode(resp, http.StatusOK)
	s.Contains(fragment, `aria-pressed="false"`)
	s.Equal("Removed from favorites", toast(resp).Title)
}

func (s *FrontendSuite) TestSignOutRevokesAPIToken() {
	plantID := s.firstPlantID(s.home())
	s.signIn()
	s.home()

	resp, _ := s.post("/auth/logout", nil, true)
	s.check.StatusCode(resp, http.StatusNoContent)
	s.Equal("/", resp.Header.Get("HX-Redirect"))

	body := s.home()
	s.Contains(body, "Sign In")
	s.Contains(body, webserver.ToastSignedOut)

	resp, _ = s.post("/htmx/plants/"+plantID+"/favorite", nil, true)
	s.check.StatusCode(resp, http.StatusNoContent)
	s.Equal(webserver.ToastAuthRequiredTitle, toast(resp).Title)
}

func (s *FrontendSuite) TestInsightsGeneratedOnDemand() {
	plantID := s.firstPlantID(s.home())

	resp, dialog := s.get("/htmx/plants/" + plantID + "/dialog")
	s.check.StatusCode(resp, http.StatusOK)
	s.Contains(dialog, "Generating AI insights...")

	s.api.Model.SetReply("Aloe gel supports wound healing.")
	resp, insights := s.post("/htmx/plants/"+plantID+"/analyze", nil, true)
	s.check.StatusCode(resp, http.StatusOK)
	s.Contains(insights, "Aloe gel supports wound healing.")

	calls := s.api.Model.Calls()
	s.Require().NotEmpty(calls)
	s.Contains(calls[len(calls)-1].Messages[0].Content, "Aloe")
}

func (s *FrontendSuite) TestConsultantCarriesConversation() {
	s.home()

	s.api.Model.SetReply("Lavender tea before bed helps many people.")
	resp, body := s.post("/htmx/consultant", url.Values{"message": {"What helps me sleep?"}}, true)
	s.check.StatusCode(resp, http.StatusOK)
	s.Contains(body, "What helps me sleep?")
	s.Contains(body, "Lavender tea before bed")

	s.api.Model.SetReply("One cup is usually enough.")
	_, _ = s.post("/htmx/consultant", url.Values{"message": {"How much?"}}, true)

	calls := s.api.Model.Calls()
	s.Require().Len(calls, 2)
	last := calls[1].Messages
	s.Require().Len(last, 3)
	s.Equal(chat.RoleUser, last[0].Role)
	s.Equal(chat.RoleAssistant, last[1].Role)
	s.Equal("How much?", last[2].Content)
}

func (s *FrontendSuite) TestConsultantSocketSharesTranscript() {
	s.home()
	s.api.Model.SetReply("Ginger settles the stomach.")

	wsURL := "ws" + strings.TrimPrefix(s.web.URL, "http") + "/ws/consultant"
	dialer := websocket.Dialer{Jar: s.client.Jar, HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(wsURL, nil)
	s.Require().NoError(err)
	defer conn.Close()

	s.Require().NoError(conn.WriteJSON(map[string]string{"type": "message", "content": "Nausea remedies?"}))

	var frame struct {
		Type    string `json:"type"`
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	s.Require().NoError(conn.ReadJSON(&frame))
	s.Equal("message", frame.Type)
	s.Equal("assistant", frame.Role)
	s.Equal("Ginger settles the stomach.", frame.Content)

	s.Contains(s.home(), "Ginger settles the stomach.")
}

func (s *FrontendSuite) TestMutationsRequireCSRFToken() {
	plantID := s.firstPlantID(s.home())

	req, err := http.NewRequest(http.MethodPost, s.web.URL+"/htmx/plants/"+plantID+"/favorite", nil)
	s.Require().NoError(err)
	req.Header.Set("HX-Request", "true")
	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	resp.Body.Close()
	s.check.StatusCode(resp, http.StatusForbidden)

	resp, _ = s.post("/auth/login", url.Values{
		"email":    {testutils.DemoEmail},
		"password": {testutils.DemoPassword},
	}, false)
	s.check.StatusCode(resp, http.StatusForbidden)
}

func (s *FrontendSuite) TestAPIRejectsForgedTokens() {
	plantID := uuid.New().String()
	forge := func(method jwt.SigningMethod, key interface{}) string {
		token := jwt.NewWithClaims(method, jwt.MapClaims{
			"sub":        uuid.NewString(),
			"token_type": "access",
			"exp":        time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString(key)
		s.Require().NoError(err)
		return signed
	}

	tokens := map[string]string{
		"foreign secret": forge(jwt.SigningMethodHS256, []byte("not-the-server-secret-0123456789")),
		"alg none":       forge(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType),
		"garbage":        "not.a.jwt",
	}
	for name, token := range tokens {
		req, err := http.NewRequest(http.MethodPost, s.api.URL()+"/api/v1/favorites/"+plantID+"/toggle", nil)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		s.Require().NoError(err)
		resp.Body.Close()
		s.Equal(http.StatusUnauthorized, resp.StatusCode, name)
	}
}

func (s *FrontendSuite) TestStaticAssetsDoNotExposeTemplates() {
	resp, _ := s.get("/static/js/app.js")
	s.check.StatusCode(resp, http.StatusOK)

	resp, _ = s.get("/static/../templates/layout.html")
	s.NotEqual(http.StatusOK, resp.StatusCode)
}
