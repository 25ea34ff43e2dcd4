package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/kalambet/texcv/internal/backend"
	"github.com/kalambet/texcv/internal/document"
	"github.com/kalambet/texcv/internal/render"
)

// The relay routes keep the flat {error, status, details} error body the
// browser form already understands.

func relayError(w http.ResponseWriter, code int, msg string, err error) {
	body := map[string]any{"error": msg}
	var ue *backend.UpstreamError
	switch {
	case errors.As(err, &ue):
		body["status"] = ue.Status
		body["details"] = ue.Details
	case err != nil:
		body["details"] = err.Error()
	}
	writeJSON(w, code, body)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// handleRelayRender accepts the document at the top level of the body,
// normalizes and cleans it, and streams back the rendered PDF.
func handleRelayRender(rend Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docType := r.URL.Query().Get("type")
		if _, err := backend.ParseDocType(docType); err != nil {
			relayError(w, http.StatusBadRequest, "Missing or invalid type (resume|cv)", nil)
			return
		}

		raw, err := readBody(w, r)
		if err != nil {
			relayError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		doc, err := document.Import(raw)
		if err != nil {
			relayError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}

		art, err := rend.RequestArtifact(r.Context(), doc, docType)
		if err != nil {
			if backend.IsValidation(err) {
				relayError(w, http.StatusBadRequest, err.Error(), nil)
				return
			}
			relayError(w, http.StatusBadGateway, "Backend render failed", err)
			return
		}
		writeArtifact(w, art, "attachment")
	}
}

// handleRelayGetTeX requires the body to be {"data": {...}}. A missing type
// selects the resume.
func handleRelayGetTeX(rend Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docType := r.URL.Query().Get("type")
		if docType == "" {
			docType = string(backend.Resume)
		}
		if _, err := backend.ParseDocType(docType); err != nil {
			relayError(w, http.StatusBadRequest, "Invalid type (resume|cv)", nil)
			return
		}

		raw, err := readBody(w, r)
		if err != nil {
			relayError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		v, err := document.Parse(raw)
		if err != nil {
			relayError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		obj, ok := v.(map[string]any)
		if !ok {
			relayError(w, http.StatusBadRequest, "Body must be { data: {...} }", nil)
			return
		}
		data, ok := obj["data"]
		if !ok {
			relayError(w, http.StatusBadRequest, "Body must be { data: {...} }", nil)
			return
		}

		src, err := rend.RequestSource(r.Context(), document.Normalize(data), docType)
		if errors.Is(err, backend.ErrMissingLatex) {
			relayError(w, http.StatusBadGateway, "Backend response missing latex", err)
			return
		}
		if err != nil {
			relayError(w, http.StatusBadGateway, "Backend get_tex failed", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"latex": src})
	}
}

// handleRelayHealth passes the backend health body through, or answers 503.
func handleRelayHealth(rend Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := rend.Health(r.Context())
		if err != nil {
			msg := "Backend not responding"
			var ne *backend.NetworkError
			if errors.As(err, &ne) {
				msg = ne.Err.Error()
			}
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  msg,
			})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		w.Write(report.Body)
	}
}

// writeArtifact sends a rendered document. disposition is "attachment" for
// downloads and "inline" for previews.
func writeArtifact(w http.ResponseWriter, art render.Artifact, disposition string) {
	h := w.Header()
	h.Set("Content-Type", art.ContentType)
	h.Set("Content-Disposition", disposition+"; filename="+art.Filename())
	h.Set("Cache-Control", "no-store")
	h.Set("Content-Length", strconv.Itoa(len(art.Data)))
	if art.Pages > 0 {
		h.Set("X-Page-Count", strconv.Itoa(art.Pages))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(art.Data)
}
