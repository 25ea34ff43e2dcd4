// Package api exposes texcv over HTTP and MCP: stateless relay routes under
// /api and session-scoped editing routes under /sessions.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kalambet/texcv/internal/backend"
	"github.com/kalambet/texcv/internal/document"
	"github.com/kalambet/texcv/internal/render"
	"github.com/kalambet/texcv/internal/session"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Renderer is the rendering surface used by the relay routes and MCP tools.
// *render.Gateway implements it.
type Renderer interface {
	RequestArtifact(ctx context.Context, doc document.Document, docType string) (render.Artifact, error)
	RequestSource(ctx context.Context, doc document.Document, docType string) (string, error)
	Health(ctx context.Context) (backend.HealthReport, error)
}

// Deps holds the dependencies of the HTTP handler.
type Deps struct {
	Renderer Renderer
	Sessions *session.Manager
	// Token protects the session routes when non-empty.
	Token string
}

// NewHandler returns the texcv HTTP handler.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/render", handleRelayRender(deps.Renderer))
		r.Post("/get_tex", handleRelayGetTeX(deps.Renderer))
		r.Get("/health", handleRelayHealth(deps.Renderer))
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/", handleCreateSession(deps.Sessions))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handleGetSession(deps.Sessions))
			r.Delete("/", handleEndSession(deps.Sessions))
			r.Get("/health", handleSessionHealth(deps.Sessions))

			r.Get("/document", handleGetDocument(deps.Sessions))
			r.Put("/document", handlePutDocument(deps.Sessions))
			r.Post("/import", handleImport(deps.Sessions))
			r.Get("/export", handleExport(deps.Sessions))
			r.Post("/template", handleLoadTemplate(deps.Sessions))
			r.Post("/links", handleQuickLink(deps.Sessions))

			r.Post("/render", handleSessionRender(deps.Sessions))
			r.Post("/source", handleSessionSource(deps.Sessions))
			r.Post("/preview", handlePreview(deps.Sessions))
			r.Get("/preview/{handle}", handleGetPreview(deps.Sessions))
		})
	})

	return r
}
