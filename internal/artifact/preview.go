package artifact

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrReleased is returned when reading a handle that has been released.
var ErrReleased = errors.New("preview released")

// Handle is a rendered preview owned by exactly one Slot. Its bytes are
// dropped when the slot replaces it or is closed.
type Handle struct {
	ID          string
	DocType     string
	ContentType string
	Pages       int
	CreatedAt   time.Time

	mu       sync.RWMutex
	data     []byte
	released bool
}

// NewHandle wraps data in a fresh handle with a random ID.
func NewHandle(docType, contentType string, data []byte, pages int) *Handle {
	return &Handle{
		ID:          uuid.New().String(),
		DocType:     docType,
		ContentType: contentType,
		Pages:       pages,
		CreatedAt:   time.Now().UTC(),
		data:        data,
	}
}

// Bytes returns the preview content, or ErrReleased.
func (h *Handle) Bytes() ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.released {
		return nil, ErrReleased
	}
	return h.data, nil
}

// Size is the content length in bytes, zero once released.
func (h *Handle) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.data)
}

// Released reports whether the handle has been released.
func (h *Handle) Released() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.released
}

func (h *Handle) release() {
	h.mu.Lock()
	h.data = nil
	h.released = true
	h.mu.Unlock()
}

// Slot holds the current preview of a session. Setting a new handle releases
// the previous one; Close releases the current one and rejects later sets.
type Slot struct {
	mu      sync.Mutex
	current *Handle
	closed  bool
}

// Set makes h the current preview and releases the one it replaces. After
// Close, h itself is released and Set returns false.
func (s *Slot) Set(h *Handle) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		h.release()
		return false
	}
	prev := s.current
	s.current = h
	s.mu.Unlock()

	if prev != nil && prev != h {
		prev.release()
	}
	return true
}

// Current returns the current preview, or nil.
func (s *Slot) Current() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Lookup returns the current preview if its ID is id.
func (s *Slot) Lookup(id string) (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ID != id {
		return nil, false
	}
	return s.current, true
}

// Close releases the current preview. It is safe to call more than once.
func (s *Slot) Close() {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.closed = true
	s.mu.Unlock()

	if prev != nil {
		prev.release()
	}
}
