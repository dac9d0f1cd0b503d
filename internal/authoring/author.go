// Package authoring defines the content authoring collaborator and its
// implementations: the offline static author and the Gemini author, plus
// rate limiting and caching middleware.
package authoring

import (
	"context"
	"errors"

	"git.home.luguber.info/inful/adocs/internal/repometa"
)

// ErrEmptyResponse is returned when the collaborator answered without text.
var ErrEmptyResponse = errors.New("authoring: empty response")

// Request describes one page to write. Content may only depend on the
// page's place in the structure and the shared metadata.
type Request struct {
	Slug        string
	Title       string
	Ancestors   []string // root first
	Subsections []string
	Metadata    *repometa.Metadata
}

// Draft is the collaborator's answer.
type Draft struct {
	Body string
	// Truncated is set when the collaborator reports that it stopped early,
	// for example because it hit its output token limit.
	Truncated bool
}

// Author writes page bodies. Implementations must be safe for concurrent use.
type Author interface {
	Name() string
	Write(ctx context.Context, req Request) (Draft, error)
}

// PermanentError marks failures that retrying cannot fix (bad credentials,
// blocked prompts).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// IsPermanent reports whether err is marked permanent.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

// Middleware decorates an Author.
type Middleware func(Author) Author

// Wrap applies middlewares in left-to-right order: Wrap(a, A, B) => A(B(a)).
func Wrap(inner Author, mws ...Middleware) Author {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}
