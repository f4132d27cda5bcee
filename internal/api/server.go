package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lauolme/registro-app/internal/cases"
	"github.com/lauolme/registro-app/internal/dictamen"
	"github.com/lauolme/registro-app/internal/ir"
	"github.com/lauolme/registro-app/internal/rules"
)

const defaultMaxBody = 1 << 20

// Server exposes the dictamen engine over HTTP. It keeps no case state.
type Server struct {
	Engine         *dictamen.Engine
	Reload         dictamen.LoadFunc // nil disables /admin/reload
	Logger         *slog.Logger
	AllowedOrigins []string
	AdminUser      string
	AdminPassHash  string // bcrypt
	MaxBodyBytes   int64
}

func (s *Server) Routes() http.Handler {
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(s.withRequestID)
	r.Use(s.withAccessLog)
	r.Use(s.withCORS)
	r.Use(s.withBodyLimit)

	r.Route("/api/v1", func(api chi.Router) {
		// Health
		api.Get("/health", s.handleHealth)

		// Active rule set
		api.Get("/rules", s.handleRules)
		api.Get("/rules/{name}", s.handleRule)

		// Case form
		api.Get("/cases/schema", s.handleSchema)
		api.Get("/cases/demo", s.handleDemos)

		// Dictamen
		api.Post("/dictamen", s.handleDictamen)
		api.Post("/dictamen/download", s.handleDownload)
		api.Post("/dictamen/verify", s.handleVerify)

		// Admin
		api.With(s.withAdmin).Post("/admin/reload", s.handleReload)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.err(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.err(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *Server) pickCORSOrigin(r *http.Request) string {
	if len(s.AllowedOrigins) == 0 {
		return ""
	}
	origin := r.Header.Get("Origin")
	for _, ao := range s.AllowedOrigins {
		if ao == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(origin, ao) {
			return origin
		}
	}
	return ""
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.Engine.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":               true,
		"timestamp":        time.Now().UTC(),
		"rule_set_version": snap.Version,
		"rules":            len(snap.Rules),
	})
}

type ruleView struct {
	Name      string       `json:"name"`
	Condition ir.Condition `json:"condition"`
	Keys      []string     `json:"keys"`
	Detail    *ir.Rule     `json:"detail,omitempty"`
}

// GET /api/v1/rules (names + condition keys; read-only, no auth)
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	snap := s.Engine.Snapshot()
	out := make([]ruleView, 0, len(snap.Rules))
	for _, rr := range snap.Rules {
		out = append(out, ruleView{Name: rr.Name, Condition: rr.Condition, Keys: rr.Condition.Keys()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":      out,
		"count":      len(out),
		"version":    snap.Version,
		"fact_keys":  rules.FactKeys(snap.Rules),
		"duplicates": rules.Duplicates(snap.Rules),
	})
}

func (s *Server) handleRule(w http.ResponseWriter, r *http.Request) {
	rr, ok := rules.Get(s.Engine.Snapshot().Rules, chi.URLParam(r, "name"))
	if !ok {
		s.err(w, http.StatusNotFound, "rule not found")
		return
	}
	writeJSON(w, http.StatusOK, ruleView{Name: rr.Name, Condition: rr.Condition, Keys: rr.Condition.Keys(), Detail: &rr})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"fields":   cases.Schema(),
		"defaults": cases.Defaults(),
	})
}

func (s *Server) handleDemos(w http.ResponseWriter, r *http.Request) {
	ds := cases.Demos()
	writeJSON(w, http.StatusOK, map[string]any{"items": ds, "count": len(ds)})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.Reload == nil {
		s.err(w, http.StatusNotImplemented, "reload not configured")
		return
	}
	snap, err := s.Engine.Reload(s.Reload)
	if err != nil {
		s.err(w, http.StatusInternalServerError, "reload failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"version": snap.Version,
		"rules":   len(snap.Rules),
		"source":  snap.Source,
	})
}

func (s *Server) err(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
