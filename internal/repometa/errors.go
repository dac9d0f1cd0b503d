package repometa

import (
	"fmt"

	foundation "git.home.luguber.info/inful/adocs/internal/foundation/errors"
)

// MetadataIncompleteError is returned when a descriptor carries no usable
// signals. It is fatal for the run.
type MetadataIncompleteError struct {
	SourceURL string
}

func (e *MetadataIncompleteError) Error() string {
	return fmt.Sprintf("metadata incomplete: no repository signals for %q", e.SourceURL)
}

// Unwrap exposes the classification used by the CLI exit code mapping.
func (e *MetadataIncompleteError) Unwrap() error {
	return foundation.NewError(foundation.CategoryMetadata, "no repository signals").
		Fatal().
		WithContext("repository", e.SourceURL).
		Build()
}
