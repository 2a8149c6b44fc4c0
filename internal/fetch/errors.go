package fetch

import (
	"errors"
	"fmt"
)

// ErrInvalidOutDir indicates the output directory does not exist or is not
// a directory. It is the only error Run returns before scheduling work.
var ErrInvalidOutDir = errors.New("invalid output directory")

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %q from %s", e.Status, e.URL)
}

// ContentTypeError reports a response whose declared media type is not an
// image.
type ContentTypeError struct {
	URL         string
	ContentType string
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("invalid image type %q from %s", e.ContentType, e.URL)
}
