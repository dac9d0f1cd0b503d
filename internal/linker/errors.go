package linker

import (
	"errors"
	"fmt"
	"strings"

	foundation "git.home.luguber.info/inful/adocs/internal/foundation/errors"
)

// ErrDuplicateSlug is returned when a tree holds the same slug twice.
var ErrDuplicateSlug = errors.New("duplicate slug in structure")

// Unresolved is a child reference whose target is not part of the tree.
type Unresolved struct {
	From string `json:"from"`
	Slug string `json:"slug"`
}

// StructureIntegrityError lists the nodes excluded from assembly and the
// references that could not be linked. It degrades the run to a warning.
type StructureIntegrityError struct {
	Orphans    []string
	Unresolved []Unresolved
}

func (e *StructureIntegrityError) Error() string {
	var parts []string
	if len(e.Orphans) > 0 {
		parts = append(parts, fmt.Sprintf("orphaned nodes %s", strings.Join(e.Orphans, ", ")))
	}
	for _, u := range e.Unresolved {
		parts = append(parts, fmt.Sprintf("%s references unknown %q", u.From, u.Slug))
	}
	return "structure integrity: " + strings.Join(parts, "; ")
}

func (e *StructureIntegrityError) Unwrap() error {
	return foundation.NewError(foundation.CategoryStructure, "structure integrity").
		Warning().
		WithContext("orphans", len(e.Orphans)).
		WithContext("unresolved", len(e.Unresolved)).
		Build()
}

// DanglingLink is a relative link in a rendered page whose target is not
// a generated document.
type DanglingLink struct {
	From   string `json:"from"`
	Target string `json:"target"`
}

// DanglingLinksError is returned by Verify.
type DanglingLinksError struct {
	Links []DanglingLink
}

func (e *DanglingLinksError) Error() string {
	return fmt.Sprintf("%d dangling links, first %s -> %s", len(e.Links), e.Links[0].From, e.Links[0].Target)
}

func (e *DanglingLinksError) Unwrap() error {
	return foundation.NewError(foundation.CategoryInternal, "dangling links").Fatal().Build()
}
