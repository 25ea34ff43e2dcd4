package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/texcv/internal/artifact"
	"github.com/kalambet/texcv/internal/backend"
	"github.com/kalambet/texcv/internal/document"
	"github.com/kalambet/texcv/internal/render"
	"github.com/kalambet/texcv/internal/session"
)

type healthResponse struct {
	State          string `json:"state"`
	ActionsEnabled bool   `json:"actions_enabled"`
	CheckedAt      string `json:"checked_at,omitempty"`
}

type sessionResponse struct {
	ID        string             `json:"id"`
	CreatedAt string             `json:"created_at"`
	Health    healthResponse     `json:"health"`
	Counts    map[string]int     `json:"counts"`
	Document  *document.Document `json:"document,omitempty"`
}

type previewResponse struct {
	Handle  string `json:"handle"`
	DocType string `json:"doc_type"`
	Pages   int    `json:"pages"`
	Size    int    `json:"size"`
	URL     string `json:"url"`
}

func sessionHealth(s *session.Session) healthResponse {
	h := healthResponse{
		State:          string(s.Health()),
		ActionsEnabled: s.ActionsEnabled(),
	}
	if at := s.CheckedAt(); !at.IsZero() {
		h.CheckedAt = at.UTC().Format(time.RFC3339)
	}
	return h
}

func describeSession(s *session.Session, withDocument bool) sessionResponse {
	doc := s.Document()
	resp := sessionResponse{
		ID:        s.ID,
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
		Health:    sessionHealth(s),
		Counts:    doc.Counts(),
	}
	if withDocument {
		resp.Document = &doc
	}
	return resp
}

// withSession resolves the {id} URL parameter.
func withSession(m *session.Manager, fn func(w http.ResponseWriter, r *http.Request, s *session.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		fn(w, r, s)
	}
}

func handleCreateSession(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Create(r.URL.Query().Get("template"))
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Location", "/sessions/"+s.ID)
		writeJSON(w, http.StatusCreated, describeSession(s, true))
	}
}

func handleGetSession(m *session.Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		writeJSON(w, http.StatusOK, describeSession(s, false))
	})
}

func handleEndSession(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := m.End(chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleSessionHealth(m *session.Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		writeJSON(w, http.StatusOK, sessionHealth(s))
	})
}

func handleGetDocument(m *session.Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		writeJSON(w, http.StatusOK, s.Document())
	})
}

// handlePutDocument replaces the working document with the normalized body.
func handlePutDocument(m *session.Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		raw, err := readBody(w, r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading body: %v", err)
			return
		}
		v, err := document.Parse(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.SetDocument(v))
	})
}

func handleImport(m *session.Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		raw, err := readBody(w, r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading body: %v", err)
			return
		}
		diags, err := s.Import(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"document":    s.Document(),
			"diagnostics": diags,
		})
	})
}

func handleExport(m *session.Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		data, err := s.Export()
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", "attachment; filename=document.json")
		w.Write(data)
	})
}

func handleLoadTemplate(m *session.Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		doc, err := s.LoadTemplate(r.URL.Query().Get("name"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	})
}

func handleQuickLink(m *session.Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		label := r.URL.Query().Get("label")
		if label == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "label is required")
			return
		}
		doc, added := s.AddQuickLink(label)
		writeJSON(w, http.StatusOK, map[string]any{
			"document": doc,
			"added":    added,
		})
	})
}

func handleSessionRender(m *session.Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		art, err := s.Render(r.Context(), r.URL.Query().Get("type"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeArtifact(w, art, "attachment")
	})
}

func handleSessionSource(m *session.Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		src, err := s.Source(r.Context(), r.URL.Query().Get("type"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"latex": src})
	})
}

func handlePreview(m *session.Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		h, err := s.Preview(r.Context(), r.URL.Query().Get("type"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, previewResponse{
			Handle:  h.ID,
			DocType: h.DocType,
			Pages:   h.Pages,
			Size:    h.Size(),
			URL:     "/sessions/" + s.ID + "/preview/" + h.ID,
		})
	})
}

// handleGetPreview serves the current preview inline. Replaced or released
// previews are gone.
func handleGetPreview(m *session.Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		h, ok := s.PreviewHandle(chi.URLParam(r, "handle"))
		if !ok {
			httpError(w, http.StatusNotFound, "not_found_error", "preview not found")
			return
		}
		data, err := h.Bytes()
		if errors.Is(err, artifact.ErrReleased) {
			httpError(w, http.StatusNotFound, "not_found_error", "preview released")
			return
		}
		writeArtifact(w, render.Artifact{
			DocType:     backend.DocType(h.DocType),
			Data:        data,
			ContentType: h.ContentType,
			Pages:       h.Pages,
		}, "inline")
	})
}
