// Package artifact holds rendered documents produced for a session: PDF
// inspection and the preview slot that owns the current preview.
package artifact

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// ErrNotPDF is returned by PageCount for data that does not parse as a PDF.
var ErrNotPDF = errors.New("not a PDF document")

// PageCount returns the number of pages in a PDF.
func PageCount(data []byte) (n int, err error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return 0, ErrNotPDF
	}

	// The parser panics on some malformed trailers.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: %v", ErrNotPDF, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	return r.NumPage(), nil
}
