// Package session holds the per-user editing state: the working document, the
// backend health monitor gating render actions, and the current preview.
// Nothing in a session is shared with another session.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/texcv/internal/artifact"
	"github.com/kalambet/texcv/internal/backend"
	"github.com/kalambet/texcv/internal/document"
	"github.com/kalambet/texcv/internal/health"
	"github.com/kalambet/texcv/internal/render"
)

var (
	// ErrNotFound is returned for unknown or ended sessions.
	ErrNotFound = errors.New("session not found")
	// ErrBackendUnavailable is returned for render, preview and source
	// requests while the backend is not known to be healthy.
	ErrBackendUnavailable = errors.New("rendering backend unavailable")
)

// Gateway is the rendering surface a session drives.
type Gateway interface {
	health.Checker
	RequestArtifact(ctx context.Context, doc document.Document, docType string) (render.Artifact, error)
	RequestSource(ctx context.Context, doc document.Document, docType string) (string, error)
}

// Options configures new sessions.
type Options struct {
	HealthInterval time.Duration
	HealthTimeout  time.Duration
	IdleTimeout    time.Duration
	Logger         *slog.Logger
}

// Session is one editing session.
type Session struct {
	ID        string
	CreatedAt time.Time

	gateway Gateway
	monitor *health.Monitor
	preview artifact.Slot
	logger  *slog.Logger

	stop context.CancelFunc
	done chan struct{}

	mu       sync.Mutex
	doc      document.Document
	lastUsed time.Time
	closed   bool
}

// New starts a session on doc, which is used as given. Health polling begins
// immediately and runs until Close.
func New(gw Gateway, doc document.Document, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New().String()
	logger = logger.With("session", id)

	now := time.Now()
	s := &Session{
		ID:        id,
		CreatedAt: now,
		gateway:   gw,
		monitor:   health.NewMonitor(gw, opts.HealthInterval, opts.HealthTimeout).WithLogger(logger),
		logger:    logger,
		done:      make(chan struct{}),
		doc:       doc.Clone(),
		lastUsed:  now,
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	go func() {
		defer close(s.done)
		s.monitor.Run(ctx)
	}()
	return s
}

// Document returns a copy of the working document.
func (s *Session) Document() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	return s.doc.Clone()
}

// SetDocument normalizes v and makes it the working document.
func (s *Session) SetDocument(v any) document.Document {
	return s.replace(document.Normalize(v))
}

func (s *Session) replace(doc document.Document) document.Document {
	s.mu.Lock()
	s.doc = doc
	s.lastUsed = time.Now()
	s.mu.Unlock()
	return doc.Clone()
}

// Import replaces the working document with pasted JSON. It returns the
// places where the input deviated from the canonical shape; the document is
// replaced regardless. On parse failure the document is left untouched.
func (s *Session) Import(raw []byte) ([]string, error) {
	v, err := document.Parse(raw)
	if err != nil {
		return nil, err
	}
	diags, err := document.Diagnose(v)
	if err != nil {
		s.logger.Warn("schema diagnostics unavailable", "error", err)
		diags = []string{}
	}
	s.SetDocument(v)
	return diags, nil
}

// Export returns the working document as indented JSON.
func (s *Session) Export() ([]byte, error) {
	data, err := json.MarshalIndent(s.Document(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return data, nil
}

// LoadTemplate resets the working document to a built-in template.
func (s *Session) LoadTemplate(name string) (document.Document, error) {
	doc, ok := document.FromTemplate(name)
	if !ok {
		return document.Document{}, &backend.ValidationError{Msg: fmt.Sprintf("unknown template %q (sample|blank)", name)}
	}
	return s.replace(doc), nil
}

// AddQuickLink appends an empty link labelled label unless one exists.
func (s *Session) AddQuickLink(label string) (document.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, added := document.AddQuickLink(s.doc, label)
	if added {
		s.doc = doc
	}
	s.lastUsed = time.Now()
	return s.doc.Clone(), added
}

// Health returns the monitor state.
func (s *Session) Health() health.State {
	return s.monitor.State()
}

// ActionsEnabled reports whether render, preview and source are permitted.
func (s *Session) ActionsEnabled() bool {
	return s.monitor.ActionsEnabled()
}

// CheckedAt is the time of the last completed health check.
func (s *Session) CheckedAt() time.Time {
	return s.monitor.CheckedAt()
}

// Render renders the working document as docType.
func (s *Session) Render(ctx context.Context, docType string) (render.Artifact, error) {
	doc, err := s.gate(docType)
	if err != nil {
		return render.Artifact{}, err
	}
	return s.gateway.RequestArtifact(ctx, doc, docType)
}

// Preview renders the working document and makes the result the current
// preview, releasing the previous one.
func (s *Session) Preview(ctx context.Context, docType string) (*artifact.Handle, error) {
	art, err := s.Render(ctx, docType)
	if err != nil {
		return nil, err
	}
	h := artifact.NewHandle(string(art.DocType), art.ContentType, art.Data, art.Pages)
	if !s.preview.Set(h) {
		return nil, ErrNotFound
	}
	s.logger.Debug("preview replaced", "handle", h.ID, "doc_type", art.DocType)
	return h, nil
}

// PreviewHandle returns the current preview if its ID matches.
func (s *Session) PreviewHandle(id string) (*artifact.Handle, bool) {
	return s.preview.Lookup(id)
}

// Source fetches the LaTeX source of the working document.
func (s *Session) Source(ctx context.Context, docType string) (string, error) {
	doc, err := s.gate(docType)
	if err != nil {
		return "", err
	}
	return s.gateway.RequestSource(ctx, doc, docType)
}

// gate validates docType, then checks the session is open and the backend
// healthy. It returns a snapshot of the document to send.
func (s *Session) gate(docType string) (document.Document, error) {
	if _, err := backend.ParseDocType(docType); err != nil {
		return document.Document{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return document.Document{}, ErrNotFound
	}
	if !s.monitor.ActionsEnabled() {
		return document.Document{}, ErrBackendUnavailable
	}
	s.lastUsed = time.Now()
	return s.doc.Clone(), nil
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Close stops health polling and releases the current preview. The working
// document is discarded.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.doc = document.Document{}
	s.mu.Unlock()

	s.stop()
	<-s.done
	s.preview.Close()
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
