package source

import (
	"errors"
	"fmt"

	dErrors "lineage/pkg/domain-errors"
)

// Sentinel errors for the two ways loading a record document can fail. Both
// abort tree construction.
var (
	// ErrSourceUnavailable covers transport failures, non-success statuses and
	// unreadable files.
	ErrSourceUnavailable = errors.New("record source unavailable")
	// ErrMalformedSource means the document is not a record collection.
	ErrMalformedSource = errors.New("record source malformed")
)

func unavailable(format string, args ...any) error {
	cause := fmt.Errorf("%w: "+format, append([]any{ErrSourceUnavailable}, args...)...)
	return dErrors.Wrap(cause, dErrors.CodeUnavailable, "record source could not be fetched")
}

func malformed(format string, args ...any) error {
	cause := fmt.Errorf("%w: "+format, append([]any{ErrMalformedSource}, args...)...)
	return dErrors.Wrap(cause, dErrors.CodeBadGateway, "record source is not a record collection")
}
