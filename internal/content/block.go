// Package content fills every structure node with a body using a bounded
// worker pool over an authoring.Author.
package content

import (
	"fmt"
	"strings"
	"time"

	foundation "git.home.luguber.info/inful/adocs/internal/foundation/errors"
)

// Status is the quality of a block.
type Status string

const (
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
	StatusStub     Status = "stub"
)

// Block is the body for one node.
type Block struct {
	Slug     string `json:"slug"`
	Body     string `json:"body"`
	Status   Status `json:"status"`
	Attempts int    `json:"attempts"`
	Err      string `json:"error,omitempty"`
}

// StubBody is the placeholder used when no content could be produced.
func StubBody(title string) string {
	return fmt.Sprintf("> **Note:** Content for %q could not be generated in this run. The structure and links below are complete; regenerate to fill this page.\n", title)
}

// ContentGenerationTimeoutError is returned when one attempt exceeds the
// request timeout.
type ContentGenerationTimeoutError struct {
	Slug    string
	Attempt int
	Timeout time.Duration
}

func (e *ContentGenerationTimeoutError) Error() string {
	return fmt.Sprintf("content for %q timed out after %s (attempt %d)", e.Slug, e.Timeout, e.Attempt)
}

func (e *ContentGenerationTimeoutError) Unwrap() error {
	return foundation.NewError(foundation.CategoryContent, "content generation timeout").
		Retryable().
		WithContext("slug", e.Slug).
		Build()
}

// ContentMalformedError is returned when the author answered with nothing usable.
type ContentMalformedError struct {
	Slug   string
	Reason string
}

func (e *ContentMalformedError) Error() string {
	return fmt.Sprintf("content for %q malformed: %s", e.Slug, e.Reason)
}

func (e *ContentMalformedError) Unwrap() error {
	return foundation.NewError(foundation.CategoryContent, "content malformed").
		Retryable().
		WithContext("slug", e.Slug).
		Build()
}

// classify checks a body and reports its status. An unclosed code fence
// means the author stopped mid block.
func classify(body string, truncated bool) Status {
	if truncated || hasOpenFence(body) {
		return StatusPartial
	}
	return StatusComplete
}

// CloseOpenFence appends the missing closing fence of a partial body.
func CloseOpenFence(body string) string {
	marker := openFence(body)
	if marker == "" {
		return body
	}
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return body + marker + "\n"
}

func hasOpenFence(body string) bool { return openFence(body) != "" }

func openFence(body string) string {
	open := ""
	for _, line := range strings.Split(body, "\n") {
		l := strings.TrimSpace(line)
		for _, marker := range []string{"```", "~~~"} {
			if !strings.HasPrefix(l, marker) {
				continue
			}
			switch {
			case open == "":
				open = marker
			case open == marker && strings.Trim(l, marker[:1]) == "":
				open = ""
			}
		}
	}
	return open
}

// Summary counts block outcomes of one Fill.
type Summary struct {
	Complete int  `json:"complete"`
	Partial  int  `json:"partial"`
	Stub     int  `json:"stub"`
	Retries  int  `json:"retries"`
	Canceled bool `json:"canceled"`
}

// Degraded reports whether any block is not complete.
func (s Summary) Degraded() bool { return s.Partial > 0 || s.Stub > 0 }

func (s *Summary) add(b Block) {
	switch b.Status {
	case StatusComplete:
		s.Complete++
	case StatusPartial:
		s.Partial++
	default:
		s.Stub++
	}
	if b.Attempts > 1 {
		s.Retries += b.Attempts - 1
	}
}
