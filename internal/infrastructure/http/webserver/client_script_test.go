package webserver_test

import (
	"net/http"
	"strings"
)

// section returns the script text from start up to the next end marker
func (s *WebServerSuite) section(script, start, end string) string {
	i := strings.Index(script, start)
	s.Require().GreaterOrEqual(i, 0, "missing %q", start)
	rest := script[i+len(start):]
	j := strings.Index(rest, end)
	s.Require().GreaterOrEqual(j, 0, "missing %q after %q", end, start)
	return rest[:j]
}

func (s *WebServerSuite) TestConsultantFormMarkup() {
	_, body := s.get("/")

	s.Contains(body, `id="consultant-form"`)
	s.Contains(body, `hx-post="/htmx/consultant"`)
	s.Contains(body, `hx-disabled-elt="#consultant-form button"`)
	s.Contains(body, `<textarea name="message"`)
	s.Contains(body, `data-socket="/ws/consultant"`)
	s.Contains(body, `/static/js/app.js`)
}

func (s *WebServerSuite) TestScriptSubmitsOnEnterWithoutShift() {
	resp, script := s.get("/static/js/app.js")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	submitKey := s.section(script, "function isSubmitKey(evt) {", "}")
	s.Contains(submitKey, `evt.key === "Enter"`)
	s.Contains(submitKey, `!evt.shiftKey`)

	keydown := s.section(script, `input.addEventListener("keydown"`, "});")
	s.Contains(keydown, "isSubmitKey(evt)")
	s.Contains(keydown, "evt.preventDefault()")
	s.Contains(keydown, "form.requestSubmit()")
}

func (s *WebServerSuite) TestScriptClearsInputOnSubmitInBothTransports() {
	_, script := s.get("/static/js/app.js")

	before := s.section(script, `form.addEventListener("htmx:beforeRequest"`, "});")
	clear := strings.Index(before, `input.value = "";`)
	socketBranch := strings.Index(before, "if (socket")
	s.Require().GreaterOrEqual(clear, 0, "input is never cleared on submit")
	s.Require().GreaterOrEqual(socketBranch, 0)
	s.Less(clear, socketBranch, "the form fallback must clear the input too")

	guard := strings.Index(before, "if (!text || busy)")
	s.Require().GreaterOrEqual(guard, 0, "blank input must be a no-op")
	s.Less(guard, clear)
}

func (s *WebServerSuite) TestScriptReturnsToIdleOnBusyFrame() {
	_, script := s.get("/static/js/app.js")

	busyCase := s.section(script, `case "busy":`, "break;")
	s.Contains(busyCase, "rejectUnsent()")
	s.Contains(busyCase, "showToast(")

	reject := s.section(script, "function rejectUnsent() {", "\n        }\n")
	s.Contains(reject, "setBusy(false)")
	s.Contains(reject, "unsent.row.remove()")
}
