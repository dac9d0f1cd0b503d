package authoring

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/adocs/internal/repometa"
)

// BuildPrompt renders the section prompt sent to model based authors.
func BuildPrompt(req Request) string {
	m := req.Metadata
	if m == nil {
		m = &repometa.Metadata{}
	}
	techs := m.Technologies()
	if len(techs) > 10 {
		techs = techs[:10]
	}
	subsections := "None"
	if len(req.Subsections) > 0 {
		subsections = strings.Join(req.Subsections, ", ")
	}
	location := req.Title
	if len(req.Ancestors) > 0 {
		location = strings.Join(append(append([]string{}, req.Ancestors...), req.Title), " > ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a senior technical writer documenting a software project. Write the body of the %q page.\n\n", req.Title)
	b.WriteString("## Project Context\n")
	fmt.Fprintf(&b, "- Repository: %s (%s)\n", m.Name, m.SourceURL)
	fmt.Fprintf(&b, "- Business Domain: %s\n", m.BusinessDomain)
	fmt.Fprintf(&b, "- Architecture Pattern: %s\n", m.ArchitecturePattern)
	fmt.Fprintf(&b, "- Technology Stack: %s\n", strings.Join(techs, ", "))
	fmt.Fprintf(&b, "- Overview: %s\n\n", m.Overview)
	b.WriteString("## Page\n")
	fmt.Fprintf(&b, "- Location: %s\n", location)
	fmt.Fprintf(&b, "- Subsections with their own pages: %s\n\n", subsections)
	b.WriteString("## Rules\n")
	b.WriteString("- Markdown only. Do not start with a top level heading; the title is added for you.\n")
	b.WriteString("- Use ## and ### headings, lists and fenced code blocks where useful.\n")
	b.WriteString("- Do not add links to other pages, a table of contents or a footer; navigation is generated.\n")
	b.WriteString("- Only describe what the context supports. Do not invent APIs or commands.\n")
	return b.String()
}
