// Package markdown wraps goldmark for the small amount of analysis the
// generator needs on authored and rendered pages.
package markdown

import (
	"bytes"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

type Link struct {
	Kind        LinkKind
	Destination string
}

// Relative reports whether the destination points at a local file.
func (l Link) Relative() bool {
	d := l.Destination
	if d == "" || strings.HasPrefix(d, "#") || strings.HasPrefix(d, "/") {
		return false
	}
	return !strings.Contains(d, "://") && !strings.HasPrefix(d, "mailto:")
}

// Target returns the destination without its fragment.
func (l Link) Target() string {
	d, _, _ := strings.Cut(l.Destination, "#")
	return d
}

var linkTextEscaper = strings.NewReplacer(`\`, `\\`, "[", `\[`, "]", `\]`)

// EscapeLinkText escapes s for use between the brackets of an inline link
// so titles containing brackets keep the link intact.
func EscapeLinkText(s string) string { return linkTextEscaper.Replace(s) }

// ExtractLinks parses a Markdown body and extracts link-like constructs.
// Code spans and fenced blocks are ignored.
func ExtractLinks(body []byte) []Link {
	ctx := parser.NewContext()
	root := goldmark.New().Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	links := make([]Link, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})

	// Reference definitions live in the parse context, not the AST.
	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		links = append(links, Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination())})
	}
	return links
}

// StripLeadingTitle removes a first level-one heading whose text equals
// title. Authors are asked not to emit one, but models sometimes do.
func StripLeadingTitle(body, title string) string {
	src := []byte(body)
	root := goldmark.New().Parser().Parse(text.NewReader(src))
	first := root.FirstChild()
	h, ok := first.(*gmast.Heading)
	if !ok || h.Level != 1 || h.Lines().Len() == 0 {
		return body
	}
	if !strings.EqualFold(strings.TrimSpace(headingText(h, src)), strings.TrimSpace(title)) {
		return body
	}
	// Drop everything up to the end of the heading line.
	end := h.Lines().At(h.Lines().Len() - 1).Stop
	if i := bytes.IndexByte(src[end:], '\n'); i >= 0 {
		end += i + 1
	} else {
		end = len(src)
	}
	return strings.TrimLeft(string(src[end:]), "\n")
}

func headingText(h *gmast.Heading, src []byte) string {
	var b strings.Builder
	for i := 0; i < h.Lines().Len(); i++ {
		seg := h.Lines().At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}
