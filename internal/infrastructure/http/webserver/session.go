package webserver

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/medihort/medihort-ai/internal/domain/chat"
	"github.com/medihort/medihort-ai/internal/infrastructure/config"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	"go.uber.org/zap"
)

const sessionKeyPrefix = "web_session:"

// ErrSessionRequired is returned for transcripts of sessions without a cookie
var ErrSessionRequired = errors.New("session required")

type sessionContextKey struct{}

// Session is the browser session of the front-end
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	Email       string    `json:"email,omitempty"`
	AccessToken string    `json:"access_token,omitempty"`
	CSRFToken   string    `json:"csrf_token"`
	Toasts      []Toast   `json:"toasts,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`

	isNew bool
}

// SignedIn reports whether the session carries an access token
func (s *Session) SignedIn() bool {
	return s.UserID != "" && s.AccessToken != ""
}

// SignIn stores the account and token
func (s *Session) SignIn(userID, email, accessToken string) {
	s.UserID = userID
	s.Email = email
	s.AccessToken = accessToken
}

// SignOut forgets the account
func (s *Session) SignOut() {
	s.UserID = ""
	s.Email = ""
	s.AccessToken = ""
}

// Flash queues a toast for the next rendered page
func (s *Session) Flash(t Toast) {
	s.Toasts = append(s.Toasts, t)
}

// PopToasts returns and clears the queued toasts
func (s *Session) PopToasts() []Toast {
	toasts := s.Toasts
	s.Toasts = nil
	return toasts
}

// SessionStore keeps sessions in the cache port behind an opaque cookie.
// Consultant transcripts stay in process memory and die with the session.
type SessionStore struct {
	cache  outbound.CacheRepository
	cookie string
	maxAge time.Duration
	secure bool
	logger *zap.Logger

	mu          sync.Mutex
	transcripts map[string]*transcriptEntry
	now         func() time.Time
}

// transcriptEntry lives as long as the session that owns it
type transcriptEntry struct {
	transcript *chat.Transcript
	expiresAt  time.Time
}

// NewSessionStore creates a session store over cache
func NewSessionStore(cfg config.WebConfig, cache outbound.CacheRepository, logger *zap.Logger) *SessionStore {
	name := cfg.SessionCookie
	if name == "" {
		name = "medihort_session"
	}
	maxAge := cfg.SessionMaxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}

	return &SessionStore{
		cache:       cache,
		cookie:      name,
		maxAge:      maxAge,
		secure:      cfg.SecureCookies,
		logger:      logger.Named("sessions"),
		transcripts: make(map[string]*transcriptEntry),
		now:         time.Now,
	}
}

// CookieName returns the session cookie name
func (s *SessionStore) CookieName() string {
	return s.cookie
}

// Load returns the session of the request, or a fresh unsaved one
func (s *SessionStore) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(s.cookie)
	if err == nil && cookie.Value != "" {
		session, err := s.get(r.Context(), cookie.Value)
		if err == nil {
			return session
		}
		if !errors.Is(err, outbound.ErrCacheMiss) {
			s.logger.Warn("Failed to load session", zap.Error(err))
		}
	}
	return s.New()
}

// New creates an unsaved session
func (s *SessionStore) New() *Session {
	now := s.now()
	return &Session{
		ID:        randomToken(),
		CSRFToken: randomToken(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.maxAge),
		isNew:     true,
	}
}

func (s *SessionStore) get(ctx context.Context, id string) (*Session, error) {
	data, err := s.cache.Get(ctx, sessionKeyPrefix+id)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.now().After(session.ExpiresAt) {
		return nil, outbound.ErrCacheMiss
	}
	return &session, nil
}

// Save persists the session and writes the cookie
func (s *SessionStore) Save(ctx context.Context, w http.ResponseWriter, session *Session) error {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return s.Destroy(ctx, w, session)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.cache.Set(ctx, sessionKeyPrefix+session.ID, data, ttl); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	session.isNew = false
	return nil
}

// Destroy removes the session, its transcript and the cookie
func (s *SessionStore) Destroy(ctx context.Context, w http.ResponseWriter, session *Session) error {
	s.mu.Lock()
	delete(s.transcripts, session.ID)
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	if err := s.cache.Delete(ctx, sessionKeyPrefix+session.ID); err != nil && !errors.Is(err, outbound.ErrCacheMiss) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Rotate replaces session with a fresh one carrying its queued toasts.
// The old record and transcript are dropped. Callers save the result.
func (s *SessionStore) Rotate(ctx context.Context, session *Session) *Session {
	fresh := s.New()
	fresh.Toasts = session.PopToasts()

	s.mu.Lock()
	delete(s.transcripts, session.ID)
	s.mu.Unlock()

	if !session.isNew {
		if err := s.cache.Delete(ctx, sessionKeyPrefix+session.ID); err != nil && !errors.Is(err, outbound.ErrCacheMiss) {
			s.logger.Warn("Failed to delete rotated session", zap.Error(err))
		}
	}
	return fresh
}

// TranscriptMessages returns the consultant messages of a session without creating a transcript
func (s *SessionStore) TranscriptMessages(sessionID string) []chat.Message {
	s.mu.Lock()
	entry, ok := s.transcripts[sessionID]
	s.mu.Unlock()

	if !ok || s.now().After(entry.expiresAt) {
		return nil
	}
	return entry.transcript.Messages()
}

// Transcript returns the consultant transcript of a saved session, creating
// it on first use. Unsaved sessions have no transcript.
func (s *SessionStore) Transcript(session *Session) (*chat.Transcript, error) {
	if session == nil || session.isNew {
		return nil, ErrSessionRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.transcripts[session.ID]
	if !ok || s.now().After(entry.expiresAt) {
		entry = &transcriptEntry{transcript: chat.NewTranscript(), expiresAt: session.ExpiresAt}
		s.transcripts[session.ID] = entry
	}
	return entry.transcript, nil
}

// TranscriptCount returns the number of live transcripts
func (s *SessionStore) TranscriptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transcripts)
}

// SweepTranscripts drops transcripts whose session has expired
func (s *SessionStore) SweepTranscripts() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.transcripts {
		if now.After(entry.expiresAt) {
			delete(s.transcripts, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired transcripts every interval until ctx is done
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.SweepTranscripts(); n > 0 {
				s.logger.Debug("Swept consultant transcripts", zap.Int("removed", n))
			}
		}
	}
}

// Middleware loads the session into the request context
func (s *SessionStore) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := s.Load(r)
		ctx := context.WithValue(r.Context(), sessionContextKey{}, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionFromContext returns the session loaded by the middleware
func SessionFromContext(ctx context.Context) *Session {
	session, _ := ctx.Value(sessionContextKey{}).(*Session)
	return session
}

func randomToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
