package git

import (
	"fmt"
	"strings"

	foundation "git.home.luguber.info/inful/adocs/internal/foundation/errors"
)

// Typed clone failures enable classification without string parsing upstream.
type AuthError struct {
	URL string
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("clone auth error for %s: %v", e.URL, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

type NotFoundError struct {
	URL string
	Err error
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("clone not found %s: %v", e.URL, e.Err) }
func (e *NotFoundError) Unwrap() error { return e.Err }

type UnsupportedProtocolError struct {
	URL string
	Err error
}

func (e *UnsupportedProtocolError) Error() string {
	return fmt.Sprintf("clone unsupported protocol %s: %v", e.URL, e.Err)
}
func (e *UnsupportedProtocolError) Unwrap() error { return e.Err }

// classifyCloneError wraps go-git errors into typed failures and attaches
// the git category. Auth and not-found failures are not retryable.
func classifyCloneError(url string, err error) error {
	l := strings.ToLower(err.Error())
	var typed error
	retryable := false
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "auth fail") || strings.Contains(l, "invalid username or password"):
		typed = &AuthError{URL: url, Err: err}
	case strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist"):
		typed = &NotFoundError{URL: url, Err: err}
	case strings.Contains(l, "unsupported protocol") || strings.Contains(l, "unsupported scheme"):
		typed = &UnsupportedProtocolError{URL: url, Err: err}
	default:
		typed = err
		retryable = true
	}
	b := foundation.WrapError(typed, foundation.CategoryGit, "clone failed").WithContext("url", url)
	if retryable {
		b = b.Retryable()
	}
	return b.Build()
}
