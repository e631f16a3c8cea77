package webserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/medihort/medihort-ai/internal/domain/chat"
	"github.com/medihort/medihort-ai/internal/domain/favorite"
	"github.com/medihort/medihort-ai/internal/domain/plant"
	"go.uber.org/zap"
)

// handleHome renders the catalog, the favorites of a signed in user and the consultant
func (s *WebServer) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	plants, err := s.api.ListPlants(ctx)
	if err != nil {
		s.logger.Error("Failed to load plants", zap.Error(err))
		session.Flash(ErrorToast(ToastErrorTitle, LoadPlantsFailed))
		plants = nil
	}

	favorites := favorite.NewSet()
	if session.SignedIn() {
		ids, err := s.api.FavoritePlantIDs(ctx, session.AccessToken)
		switch {
		case IsUnauthorized(err):
			s.logger.Info("Session token rejected, signing out", zap.String("user_id", session.UserID))
			session.SignOut()
		case err != nil:
			s.logger.Warn("Failed to load favorites", zap.Error(err))
		default:
			favorites = favorite.NewSet(ids...)
		}
	}

	data := PageData{
		Session:   session,
		Toasts:    session.PopToasts(),
		Plants:    plants,
		Favorites: favorites,
		Messages:  s.sessions.TranscriptMessages(session.ID),
	}
	s.saveSession(w, r, session)
	s.render(w, http.StatusOK, "home", data)
}

// handleAuthPage renders the sign in or sign up form
func (s *WebServer) handleAuthPage(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if session.SignedIn() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := PageData{
		Title:    "Sign In",
		Session:  session,
		Toasts:   session.PopToasts(),
		AuthMode: authMode(r.URL.Query().Get("mode")),
	}
	if data.AuthMode == "signup" {
		data.Title = "Sign Up"
	}
	s.saveSession(w, r, session)
	s.render(w, http.StatusOK, "auth", data)
}

func (s *WebServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)
	email := strings.TrimSpace(r.PostFormValue("email"))

	result, err := s.api.Login(ctx, email, r.PostFormValue("password"))
	if err != nil {
		s.renderAuthError(w, session, "signin", email, err, "Invalid email or password")
		return
	}

	session = s.sessions.Rotate(ctx, session)
	session.SignIn(result.User.ID.String(), result.User.Email, result.AccessToken)
	session.Flash(InfoToast(ToastSignedIn))
	s.saveSession(w, r, session)

	s.logger.Info("User signed in", zap.String("user_id", session.UserID))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *WebServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)
	email := strings.TrimSpace(r.PostFormValue("email"))
	name := strings.TrimSpace(r.PostFormValue("name"))

	result, err := s.api.Register(ctx, name, email, r.PostFormValue("password"))
	if err != nil {
		s.renderAuthError(w, session, "signup", email, err, "Failed to create account")
		return
	}

	session = s.sessions.Rotate(ctx, session)
	session.SignIn(result.User.ID.String(), result.User.Email, result.AccessToken)
	session.Flash(InfoToast(ToastAccountCreated))
	s.saveSession(w, r, session)

	s.logger.Info("User registered", zap.String("user_id", session.UserID))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout revokes the token and starts a fresh anonymous session
func (s *WebServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	if session.SignedIn() {
		if err := s.api.Logout(ctx, session.AccessToken); err != nil && !IsUnauthorized(err) {
			s.logger.Warn("Failed to revoke token", zap.Error(err))
		}
		s.logger.Info("User signed out", zap.String("user_id", session.UserID))
	}

	session = s.sessions.Rotate(ctx, session)
	session.Flash(InfoToast(ToastSignedOut))
	s.saveSession(w, r, session)

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleToggleFavorite flips the heart of one card. Anonymous users get a
// toast and no swap.
func (s *WebServer) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	id, ok := s.plantID(w, r)
	if !ok {
		return
	}

	if !session.SignedIn() {
		triggerToast(w, ErrorToast(ToastAuthRequiredTitle, SignInRequired))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	state, err := s.api.ToggleFavorite(ctx, session.AccessToken, id)
	if err != nil {
		if IsUnauthorized(err) {
			session.SignOut()
			s.saveSession(w, r, session)
			triggerToast(w, ErrorToast(ToastAuthRequiredTitle, SignInRequired))
		} else {
			s.logger.Error("Failed to toggle favorite", zap.String("plant_id", id.String()), zap.Error(err))
			triggerToast(w, ErrorToast(ToastErrorTitle, ErrorMessage(err, FavoriteFailed)))
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	triggerToast(w, InfoToast(state.Title))
	s.render(w, http.StatusOK, "favorite_button", FavoriteButton{PlantID: id, Favorited: state.Favorited})
}

// handlePlantDialog renders the detail dialog; insights load from it
func (s *WebServer) handlePlantDialog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := s.plantID(w, r)
	if !ok {
		return
	}

	p, err := s.api.GetPlant(ctx, id)
	if err != nil {
		s.logger.Warn("Failed to load plant", zap.String("plant_id", id.String()), zap.Error(err))
		triggerToast(w, ErrorToast(ToastErrorTitle, ErrorMessage(err, "Failed to load plant")))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.render(w, http.StatusOK, "plant_dialog", PageData{Plant: p, Insights: p.AIInsights})
}

// handleAnalyzePlant replaces the loader with insights. On failure the
// loader is removed and a toast is shown.
func (s *WebServer) handleAnalyzePlant(w http.ResponseWriter, r *http.Request) {
	id, ok := s.plantID(w, r)
	if !ok {
		return
	}

	insights, err := s.analyze(r, id)
	if err != nil {
		s.logger.Error("Failed to analyze plant", zap.String("plant_id", id.String()), zap.Error(err))
		triggerToast(w, ErrorToast(ToastErrorTitle, ErrorMessage(err, AnalyzeFailed)))
		w.WriteHeader(http.StatusOK)
		return
	}

	s.render(w, http.StatusOK, "plant_insights", PageData{Insights: insights})
}

func (s *WebServer) analyze(r *http.Request, id uuid.UUID) (string, error) {
	p, err := s.api.GetPlant(r.Context(), id)
	if err != nil {
		return "", err
	}
	insights, err := s.api.AnalyzePlant(r.Context(), plant.NewAnalysisRequest(p))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(insights) == "" {
		return "", errors.New("empty insights")
	}
	return insights, nil
}

// handleConsultant is the form fallback of the consultant socket
func (s *WebServer) handleConsultant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)
	if session.isNew {
		s.saveSession(w, r, session)
	}
	input := r.PostFormValue("message")
	if _, err := chat.NormalizeInput(input); err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	transcript, err := s.sessions.Transcript(session)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	message, history, err := transcript.Begin(input)
	switch {
	case errors.Is(err, chat.ErrBusy):
		triggerToast(w, ErrorToast(ToastErrorTitle, "A reply is still being generated"))
		w.WriteHeader(http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reply, err := s.api.Consult(ctx, message, history)
	if err != nil {
		transcript.Fail()
		s.logger.Error("Consultant request failed", zap.Error(err))
		triggerToast(w, ErrorToast(ToastErrorTitle, ErrorMessage(err, ConsultFailed)))
	} else {
		transcript.Complete(reply)
	}

	s.render(w, http.StatusOK, "consultant_messages", PageData{Messages: transcript.Messages()})
}

func (s *WebServer) renderAuthError(w http.ResponseWriter, session *Session, mode, email string, err error, fallback string) {
	status := http.StatusBadGateway
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
		status = apiErr.StatusCode
	} else {
		s.logger.Error("Authentication request failed", zap.Error(err))
	}

	s.render(w, status, "auth", PageData{
		Title:    "Sign In",
		Session:  session,
		AuthMode: mode,
		Email:    email,
		Error:    ErrorMessage(err, fallback),
	})
}

func (s *WebServer) plantID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		triggerToast(w, ErrorToast(ToastErrorTitle, "Invalid plant ID"))
		w.WriteHeader(http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (s *WebServer) saveSession(w http.ResponseWriter, r *http.Request, session *Session) {
	if err := s.sessions.Save(r.Context(), w, session); err != nil {
		s.logger.Error("Failed to save session", zap.Error(err))
	}
}

func (s *WebServer) render(w http.ResponseWriter, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	var buf strings.Builder
	if err := s.renderer.Render(&buf, name, data); err != nil {
		s.logger.Error("Template error", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

func authMode(mode string) string {
	if mode == "signup" {
		return "signup"
	}
	return "signin"
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
