package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/lauolme/registro-app/internal/cases"
	"github.com/lauolme/registro-app/internal/integrity"
	"github.com/lauolme/registro-app/internal/ir"
	"github.com/lauolme/registro-app/internal/reporting"
)

// readFacts decodes the request body (a flat JSON object, order kept). With
// ?demo=<id> the body is overlaid onto that demo case; an empty body is allowed.
func (s *Server) readFacts(w http.ResponseWriter, r *http.Request) (ir.FactSet, bool) {
	var base ir.FactSet
	if name := r.URL.Query().Get("demo"); name != "" {
		d, ok := cases.Find(name)
		if !ok {
			s.err(w, http.StatusNotFound, "unknown demo case")
			return nil, false
		}
		base = d.FactSet()
	}
	var facts ir.FactSet
	if err := decodeBody(r.Body, &facts); err != nil && !errors.Is(err, io.EOF) {
		s.badBody(w, "invalid facts", err)
		return nil, false
	}
	return base.Merge(facts), true
}

var errTrailingData = errors.New("unexpected data after JSON value")

// decodeBody decodes exactly one JSON value from body. An empty body yields io.EOF.
func decodeBody(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				return err
			}
		}
		return errTrailingData
	}
	return nil
}

func (s *Server) badBody(w http.ResponseWriter, what string, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		s.err(w, http.StatusRequestEntityTooLarge, "body too large")
		return
	}
	s.err(w, http.StatusBadRequest, what+": "+err.Error())
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) (ir.Dictamen, bool) {
	facts, ok := s.readFacts(w, r)
	if !ok {
		return ir.Dictamen{}, false
	}
	d, err := s.Engine.Generate(facts)
	if err != nil {
		var te *reporting.TemplateError
		if errors.As(err, &te) {
			s.err(w, http.StatusUnprocessableEntity, err.Error())
			return ir.Dictamen{}, false
		}
		s.err(w, http.StatusInternalServerError, err.Error())
		return ir.Dictamen{}, false
	}
	s.Logger.Debug("dictamen generated",
		"request_id", requestID(r.Context()),
		"triggered", d.Triggered,
		"sha256", d.Digest,
	)
	return d, true
}

// POST /api/v1/dictamen
func (s *Server) handleDictamen(w http.ResponseWriter, r *http.Request) {
	d, ok := s.generate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// POST /api/v1/dictamen/download
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	d, ok := s.generate(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="dictamen.md"`)
	w.Header().Set("X-Dictamen-SHA256", d.Digest)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(d.Text))
}

type verifyReq struct {
	Text   string `json:"text"`
	Digest string `json:"sha256"`
}

// POST /api/v1/dictamen/verify
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var in verifyReq
	if err := decodeBody(r.Body, &in); err != nil {
		s.badBody(w, "invalid json", err)
		return
	}
	if in.Digest == "" {
		s.err(w, http.StatusBadRequest, "sha256 required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":  integrity.Verify(in.Text, in.Digest),
		"sha256": integrity.Digest(in.Text),
	})
}
