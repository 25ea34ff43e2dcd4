// Package render is the document-aware layer over the backend client. It
// validates the requested variant before any network call, cleans documents
// sent for rendering, and reports backend health.
package render

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/texcv/internal/artifact"
	"github.com/kalambet/texcv/internal/backend"
	"github.com/kalambet/texcv/internal/document"
	"github.com/kalambet/texcv/internal/health"
)

const maxConcurrentRenders = 2

// Backend is the subset of *backend.Client the gateway uses.
type Backend interface {
	Render(ctx context.Context, t backend.DocType, doc document.Document) (backend.Artifact, error)
	GetTeX(ctx context.Context, t backend.DocType, doc document.Document) (string, error)
	Health(ctx context.Context) (backend.HealthReport, error)
}

// Artifact is a rendered document ready to be delivered.
type Artifact struct {
	DocType     backend.DocType
	Data        []byte
	ContentType string
	// Pages is zero when the payload could not be inspected as a PDF.
	Pages int
}

// Filename is the suggested download name.
func (a Artifact) Filename() string {
	return a.DocType.Filename()
}

// Gateway issues render, source and health requests.
type Gateway struct {
	backend Backend
	logger  *slog.Logger
}

// NewGateway creates a Gateway over b.
func NewGateway(b Backend) *Gateway {
	return &Gateway{backend: b, logger: slog.Default()}
}

// WithLogger sets the gateway logger.
func (g *Gateway) WithLogger(l *slog.Logger) *Gateway {
	g.logger = l
	return g
}

// RequestArtifact renders the cleaned form of doc as docType.
func (g *Gateway) RequestArtifact(ctx context.Context, doc document.Document, docType string) (Artifact, error) {
	t, err := backend.ParseDocType(docType)
	if err != nil {
		return Artifact{}, err
	}

	art, err := g.backend.Render(ctx, t, document.Clean(doc))
	if err != nil {
		g.logger.Warn("render failed", "doc_type", t, "error", err)
		return Artifact{}, err
	}

	pages, err := artifact.PageCount(art.Data)
	if err != nil {
		g.logger.Debug("artifact is not an inspectable PDF", "doc_type", t, "error", err)
		pages = 0
	}
	g.logger.Info("rendered", "doc_type", t, "bytes", len(art.Data), "pages", pages)

	return Artifact{
		DocType:     t,
		Data:        art.Data,
		ContentType: art.ContentType,
		Pages:       pages,
	}, nil
}

// RequestArtifacts renders every docType concurrently. Results are returned in
// the order requested; the first failure cancels the rest.
func (g *Gateway) RequestArtifacts(ctx context.Context, doc document.Document, docTypes []string) ([]Artifact, error) {
	for _, dt := range docTypes {
		if _, err := backend.ParseDocType(dt); err != nil {
			return nil, err
		}
	}

	out := make([]Artifact, len(docTypes))
	g2, gctx := errgroup.WithContext(ctx)
	g2.SetLimit(maxConcurrentRenders)
	for i, dt := range docTypes {
		g2.Go(func() error {
			art, err := g.RequestArtifact(gctx, doc, dt)
			if err != nil {
				return err
			}
			out[i] = art
			return nil
		})
	}
	if err := g2.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// RequestSource returns the LaTeX source of doc as docType. The document is
// sent as given, without cleaning.
func (g *Gateway) RequestSource(ctx context.Context, doc document.Document, docType string) (string, error) {
	t, err := backend.ParseDocType(docType)
	if err != nil {
		return "", err
	}

	src, err := g.backend.GetTeX(ctx, t, doc)
	if err != nil {
		g.logger.Warn("get_tex failed", "doc_type", t, "error", err)
		return "", err
	}
	return src, nil
}

// Health returns the raw backend report.
func (g *Gateway) Health(ctx context.Context) (backend.HealthReport, error) {
	return g.backend.Health(ctx)
}

// Check implements health.Checker. Every failure maps to Unhealthy.
func (g *Gateway) Check(ctx context.Context) health.State {
	report, err := g.backend.Health(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			g.logger.Debug("health check failed", "error", err)
		}
		return health.Unhealthy
	}
	if !report.Healthy() {
		return health.Unhealthy
	}
	return health.Healthy
}

var _ health.Checker = (*Gateway)(nil)
