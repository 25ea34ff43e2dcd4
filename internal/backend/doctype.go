package backend

import "fmt"

// DocType selects the rendered variant.
type DocType string

const (
	Resume DocType = "resume"
	CV     DocType = "cv"
)

// DocTypes lists every supported variant in display order.
func DocTypes() []DocType {
	return []DocType{Resume, CV}
}

// ParseDocType accepts exactly "resume" or "cv".
func ParseDocType(s string) (DocType, error) {
	switch DocType(s) {
	case Resume, CV:
		return DocType(s), nil
	default:
		return "", &ValidationError{Msg: fmt.Sprintf("invalid doc type %q (resume|cv)", s)}
	}
}

// Filename is the suggested download name for a rendered artifact.
func (t DocType) Filename() string {
	return string(t) + "_output.pdf"
}
