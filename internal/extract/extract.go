// package extract slices the embedded search-results object out of a scraped
// results page.
//
// The page carries its data as a JavaScript literal; the item-list object is
// located between two textual landmarks rather than by parsing the page. The
// landmarks are an undocumented, versioned format, so every failure names the
// boundary that stopped matching.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrBoundaryNotFound = errors.New("boundary not found")
	ErrInvalidRange     = errors.New("invalid payload range")
	ErrMalformedPayload = errors.New("malformed payload")
)

// BeginPattern matches the item section marker; group 1 starts at the opening
// brace of the item-list object.
var BeginPattern = regexp.MustCompile(`"itemSectionRenderer":(\{"contents)`)

// EndPattern matches the tail of the item-list object followed by the
// continuation element; group 1 is the object's closing brace.
var EndPattern = regexp.MustCompile(`\],"trackingParams":"[a-zA-Z0-9=_-]*"(\})\},\{"continuationItemRenderer"`)

// Boundary names used in errors.
const (
	BoundaryBegin = "begin"
	BoundaryEnd   = "end"
)

// Error describes an extraction failure.
type Error struct {
	Kind     error
	Boundary string // set for ErrBoundaryNotFound
	Start    int    // set for ErrInvalidRange and ErrMalformedPayload
	End      int
	Err      error // decoder error for ErrMalformedPayload
}

func (e *Error) Error() string {
	switch {
	case errors.Is(e.Kind, ErrBoundaryNotFound):
		return fmt.Sprintf("%v: %s boundary did not match", e.Kind, e.Boundary)
	case errors.Is(e.Kind, ErrInvalidRange):
		return fmt.Sprintf("%v: start %d is not before end %d", e.Kind, e.Start, e.End)
	case e.Err != nil:
		return fmt.Sprintf("%v in [%d:%d]: %v", e.Kind, e.Start, e.End, e.Err)
	default:
		return e.Kind.Error()
	}
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Extractor locates the payload with a pair of boundary patterns. Each pattern
// must have one capture group; Begin's group start and End's group end delimit
// the slice.
type Extractor struct {
	Begin *regexp.Regexp
	End   *regexp.Regexp
}

// New returns an [Extractor] using [BeginPattern] and [EndPattern].
func New() *Extractor {
	return &Extractor{Begin: BeginPattern, End: EndPattern}
}

var defaultExtractor = New()

// Extract runs the default [Extractor] over text.
func Extract(text string) (any, error) {
	return defaultExtractor.Extract(text)
}

// Range returns the byte offsets [start, end) of the payload inside text.
func (x *Extractor) Range(text string) (int, int, error) {
	begin := x.Begin.FindStringSubmatchIndex(text)
	if len(begin) < 4 || begin[2] < 0 {
		return 0, 0, &Error{Kind: ErrBoundaryNotFound, Boundary: BoundaryBegin}
	}

	end := x.End.FindStringSubmatchIndex(text)
	if len(end) < 4 || end[3] < 0 {
		return 0, 0, &Error{Kind: ErrBoundaryNotFound, Boundary: BoundaryEnd}
	}

	start, stop := begin[2], end[3]
	if start >= stop {
		return 0, 0, &Error{Kind: ErrInvalidRange, Start: start, End: stop}
	}

	return start, stop, nil
}

// Extract slices the payload out of text and decodes it.
func (x *Extractor) Extract(text string) (any, error) {
	start, stop, err := x.Range(text)
	if err != nil {
		return nil, err
	}

	var v any
	if err := json.Unmarshal([]byte(text[start:stop]), &v); err != nil {
		return nil, &Error{Kind: ErrMalformedPayload, Start: start, End: stop, Err: err}
	}

	return v, nil
}
