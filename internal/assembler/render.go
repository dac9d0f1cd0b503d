// Package assembler renders documents from structure, content and links
// and is the only writer of the output directory.
package assembler

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/adocs/internal/content"
	"git.home.luguber.info/inful/adocs/internal/linker"
	"git.home.luguber.info/inful/adocs/internal/markdown"
	"git.home.luguber.info/inful/adocs/internal/repometa"
	"git.home.luguber.info/inful/adocs/internal/structure"
	"git.home.luguber.info/inful/adocs/internal/version"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplates = template.Must(template.New("pages").
	Funcs(template.FuncMap{
		"dest":     linker.Destination,
		"linktext": markdown.EscapeLinkText,
		"indent":   func(depth int) string { return strings.Repeat("  ", max(depth-1, 0)) },
	}).
	Option("missingkey=error").
	ParseFS(templateFS, "templates/*.tmpl"))

// PartialNotice is placed above bodies the author did not finish.
const PartialNotice = "> **Note:** This page may be incomplete. Generation stopped before the author finished it."

// Document is one rendered file.
type Document struct {
	Path   string
	Slug   string
	Body   []byte
	Status content.Status
	// Fingerprint covers everything above the footer, so it changes only
	// when the page itself changes.
	Fingerprint string
}

type pageData struct {
	Title       string
	Notice      string
	Body        string
	Links       linker.Links
	ListHeading string
}

type stackGroup struct {
	Heading string
	Items   []string
}

type footerData struct {
	Name                    string
	SourceURL               string
	Description             string
	BusinessDomain          string
	ArchitecturePattern     string
	ArchitectureDescription string
	Stack                   []stackGroup
	Generator               string
	Timestamp               string
}

// Render produces the document for one node. It has no side effects and
// returns the same bytes for the same inputs.
func Render(node structure.Node, block content.Block, links linker.Links, meta *repometa.Metadata) (Document, error) {
	page := pageData{
		Title:       node.Title,
		Body:        strings.TrimSpace(markdown.StripLeadingTitle(block.Body, node.Title)),
		Links:       links,
		ListHeading: "Subsections",
	}
	if node.IsRoot() {
		page.ListHeading = "Contents"
	}
	switch block.Status {
	case content.StatusPartial:
		page.Notice = PartialNotice
		page.Body = strings.TrimSpace(content.CloseOpenFence(page.Body))
	case content.StatusStub:
		if page.Body == "" {
			page.Body = strings.TrimSpace(content.StubBody(node.Title))
		}
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "page.md.tmpl", page); err != nil {
		return Document{}, fmt.Errorf("render %s: %w", node.Slug, err)
	}
	fingerprint := mdfp.CalculateFingerprintFromParts("", buf.String())

	footer, err := Footer(meta)
	if err != nil {
		return Document{}, err
	}
	buf.WriteString(footer)
	return Document{
		Path:        links.Path,
		Slug:        node.Slug,
		Body:        buf.Bytes(),
		Status:      block.Status,
		Fingerprint: fingerprint,
	}, nil
}

// Footer renders the repository context footer shared by every page.
func Footer(meta *repometa.Metadata) (string, error) {
	data := footerData{
		Name:                    meta.Name,
		SourceURL:               meta.SourceURL,
		Description:             meta.Description,
		BusinessDomain:          meta.BusinessDomain,
		ArchitecturePattern:     meta.ArchitecturePattern,
		ArchitectureDescription: meta.ArchitectureDescription,
		Stack: []stackGroup{
			{Heading: "Languages", Items: meta.Languages},
			{Heading: "Frontend", Items: meta.Frontend},
			{Heading: "Backend", Items: meta.Backend},
			{Heading: "Frameworks", Items: meta.Frameworks},
			{Heading: "Databases", Items: meta.Databases},
			{Heading: "DevOps", Items: meta.DevOps},
		},
		Generator: version.Generator,
		Timestamp: meta.GeneratedAt.UTC().Format(time.RFC3339),
	}
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "footer.md.tmpl", data); err != nil {
		return "", fmt.Errorf("render footer: %w", err)
	}
	return buf.String(), nil
}

// RenderAll renders every linked node. Nodes without a block get a stub.
func RenderAll(res *linker.Resolution, blocks map[string]content.Block, meta *repometa.Metadata) ([]Document, error) {
	tree := res.Tree()
	docs := make([]Document, 0, len(res.Slugs()))
	for _, slug := range res.Slugs() {
		node, _ := tree.Node(slug)
		links, _ := res.LinksOf(slug)
		block, ok := blocks[slug]
		if !ok {
			block = content.Block{Slug: slug, Status: content.StatusStub}
		}
		doc, err := Render(node, block, links, meta)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Pages indexes rendered documents by path for link verification.
func Pages(docs []Document) map[string][]byte {
	out := make(map[string][]byte, len(docs))
	for _, d := range docs {
		out[d.Path] = d.Body
	}
	return out
}
