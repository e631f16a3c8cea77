package webserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/medihort/medihort-ai/internal/domain/chat"
	"github.com/medihort/medihort-ai/internal/domain/favorite"
	"github.com/medihort/medihort-ai/internal/domain/plant"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// FavoriteButton is the data of the heart toggle
type FavoriteButton struct {
	PlantID   uuid.UUID
	Favorited bool
}

// PlantCard is the data of one catalog card
type PlantCard struct {
	Plant     *plant.Plant
	Favorites favorite.Set
}

// PageData is shared by full pages and partials
type PageData struct {
	Title     string
	Session   *Session
	Toasts    []Toast
	Plants    []*plant.Plant
	Favorites favorite.Set
	Messages  []chat.Message
	Plant     *plant.Plant
	Insights  string
	AuthMode  string
	Error     string
	Email     string
}

// SignedIn reports whether the page is rendered for a signed in user
func (d PageData) SignedIn() bool {
	return d.Session != nil && d.Session.SignedIn()
}

// CSRFToken is the token HTMX sends back on unsafe requests
func (d PageData) CSRFToken() string {
	if d.Session == nil {
		return ""
	}
	return d.Session.CSRFToken
}

var templateFuncs = template.FuncMap{
	"cardUses": func(p *plant.Plant) []string {
		return p.CardUses()
	},
	"card": func(favorites favorite.Set, p *plant.Plant) PlantCard {
		return PlantCard{Plant: p, Favorites: favorites}
	},
	"favoriteButton": func(favorites favorite.Set, id uuid.UUID) FavoriteButton {
		return FavoriteButton{PlantID: id, Favorited: favorites.Has(id)}
	},
	"initial": func(s string) string {
		s = strings.TrimSpace(s)
		if s == "" {
			return "?"
		}
		return strings.ToUpper(s[:1])
	},
	"isUser": func(m chat.Message) bool {
		return m.Role == chat.RoleUser
	},
}

// Renderer executes the page templates. In development it parses from a
// directory and can be reloaded when files change.
type Renderer struct {
	mu     sync.RWMutex
	fsys   fs.FS
	tmpl   *template.Template
	logger *zap.Logger
}

// NewRenderer parses the embedded templates, or those under dir when set
func NewRenderer(dir string, logger *zap.Logger) (*Renderer, error) {
	var fsys fs.FS
	if dir != "" {
		fsys = os.DirFS(dir)
	} else {
		sub, err := fs.Sub(templatesFS, "templates")
		if err != nil {
			return nil, err
		}
		fsys = sub
	}

	r := &Renderer{fsys: fsys, logger: logger.Named("templates")}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload reparses every template. A failed parse keeps the previous set.
func (r *Renderer) Reload() error {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(r.fsys, "*.html")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	r.mu.Lock()
	r.tmpl = tmpl
	r.mu.Unlock()

	r.logger.Debug("Templates parsed", zap.Int("count", len(tmpl.Templates())))
	return nil
}

// Render executes the named template into w. Nothing is written on failure.
func (r *Renderer) Render(w io.Writer, name string, data interface{}) error {
	r.mu.RLock()
	tmpl := r.tmpl
	r.mu.RUnlock()

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// staticFiles returns the embedded static assets rooted at static/
func staticFiles() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
