package authoring

import (
	"context"
	"fmt"
	"strings"
)

// StaticAuthor writes deterministic pages from metadata alone. It is the
// offline default and never fails unless the context is done.
type StaticAuthor struct{}

// NewStaticAuthor returns the offline author.
func NewStaticAuthor() *StaticAuthor { return &StaticAuthor{} }

func (*StaticAuthor) Name() string { return "static" }

func (*StaticAuthor) Write(ctx context.Context, req Request) (Draft, error) {
	if err := ctx.Err(); err != nil {
		return Draft{}, err
	}
	m := req.Metadata
	if m == nil {
		return Draft{}, &PermanentError{Err: fmt.Errorf("no metadata for %q", req.Slug)}
	}

	var b strings.Builder
	if len(req.Ancestors) == 0 {
		fmt.Fprintf(&b, "%s\n\n", m.Overview)
		fmt.Fprintf(&b, "This documentation covers the %s project. It is organised into the sections listed below.\n", m.Name)
		return Draft{Body: b.String()}, nil
	}

	fmt.Fprintf(&b, "This section provides detailed information about %s for the %s project.\n\n",
		strings.ToLower(req.Title), m.Name)
	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "%s\n\n", m.Overview)
	b.WriteString("## Context\n\n")
	fmt.Fprintf(&b, "- **Part of**: %s\n", strings.Join(req.Ancestors, " / "))
	fmt.Fprintf(&b, "- **Business Domain**: %s\n", m.BusinessDomain)
	fmt.Fprintf(&b, "- **Architecture**: %s\n", m.ArchitectureDescription)
	if len(req.Subsections) > 0 {
		fmt.Fprintf(&b, "\nThe topic is broken down further into %s.\n", joinWords(req.Subsections))
	}
	return Draft{Body: b.String()}, nil
}

func joinWords(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
