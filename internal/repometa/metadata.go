// Package repometa derives the single RepositoryMetadata record of a run
// from a repository descriptor.
package repometa

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/adocs/internal/util/sets"
)

const (
	// DefaultBusinessDomain is used when no domain keyword matches.
	DefaultBusinessDomain = "Software Development"
	// DefaultArchitecturePattern is used when no architecture indicator matches.
	DefaultArchitecturePattern = "Library/Utility"

	noDescription = "No description provided."
)

// Metadata is the canonical repository record shared by every page of a
// run. It is created once by Extract and must not be mutated afterwards;
// components receive the same pointer.
type Metadata struct {
	SourceURL               string    `json:"source_url"`
	Name                    string    `json:"name"`
	Description             string    `json:"description"`
	Overview                string    `json:"overview"`
	BusinessDomain          string    `json:"business_domain"`
	ArchitecturePattern     string    `json:"architecture_pattern"`
	ArchitectureDescription string    `json:"architecture_description"`
	Languages               []string  `json:"languages"`
	Frameworks              []string  `json:"frameworks"`
	Frontend                []string  `json:"frontend"`
	Backend                 []string  `json:"backend"`
	Databases               []string  `json:"databases"`
	DevOps                  []string  `json:"devops"`
	GeneratedAt             time.Time `json:"generated_at"`
}

// Extract builds the metadata record. now becomes GeneratedAt (in UTC).
func Extract(desc Descriptor, now time.Time) (*Metadata, error) {
	if !desc.HasSignals() {
		return nil, &MetadataIncompleteError{SourceURL: desc.SourceURL}
	}

	detected := detectTechnologies(desc.Files)
	languages := sets.New(clean(desc.Languages)...)
	languages.Add(detected[CategoryLanguage]...)
	frontend := sets.New(detected[CategoryFrontend]...)
	backend := sets.New(detected[CategoryBackend]...)
	frameworks := sets.New[string]()
	for _, fw := range clean(desc.Frameworks) {
		switch c, _ := CategoryOf(fw); c {
		case CategoryFrontend:
			frontend.Add(fw)
		case CategoryBackend:
			backend.Add(fw)
		default:
			frameworks.Add(fw)
		}
	}
	frameworks.Add(sets.Sorted(frontend)...)
	frameworks.Add(sets.Sorted(backend)...)
	databases := sets.New(clean(desc.Databases)...)
	databases.Add(detected[CategoryDatabase]...)
	devops := sets.New(clean(desc.DevOps)...)
	devops.Add(detected[CategoryDevOps]...)

	text := strings.TrimSpace(desc.Description + "\n" + desc.Readme)
	domain, ok := scoreDomain(text)
	if !ok {
		domain = DefaultBusinessDomain
	}
	pattern, ok := matchArchitecture(text)
	archDesc := pattern + " architecture pattern"
	if !ok {
		pattern = DefaultArchitecturePattern
		archDesc = "General-purpose library or utility"
	}

	name := strings.TrimSpace(desc.Name)
	if name == "" {
		name = NameFromURL(desc.SourceURL)
	}
	description := strings.TrimSpace(desc.Description)
	if description == "" {
		description = noDescription
	}

	m := &Metadata{
		SourceURL:               desc.SourceURL,
		Name:                    name,
		Description:             description,
		BusinessDomain:          domain,
		ArchitecturePattern:     pattern,
		ArchitectureDescription: archDesc,
		Languages:               sets.Sorted(languages),
		Frameworks:              sets.Sorted(frameworks),
		Frontend:                sets.Sorted(frontend),
		Backend:                 sets.Sorted(backend),
		Databases:               sets.Sorted(databases),
		DevOps:                  sets.Sorted(devops),
		GeneratedAt:             now.UTC().Truncate(time.Second),
	}
	m.Overview = buildOverview(m, strings.TrimSpace(desc.Description), desc.Readme)
	return m, nil
}

// Technologies returns every technology in footer order.
func (m *Metadata) Technologies() []string {
	var all []string
	for _, l := range [][]string{m.Languages, m.Frameworks, m.Databases, m.DevOps} {
		all = append(all, l...)
	}
	return all
}

// NameFromURL derives a repository name from its URL or path.
func NameFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "Repository"
	}
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	// scp-like git@host:org/repo.git
	if i := strings.LastIndex(p, ":"); i >= 0 {
		p = p[i+1:]
	}
	name := strings.TrimSuffix(path.Base(strings.TrimRight(p, "/")), ".git")
	if name == "" || name == "." || name == "/" {
		return "Repository"
	}
	return name
}

func buildOverview(m *Metadata, description, readme string) string {
	var parts []string
	if description != "" {
		parts = append(parts, strings.TrimSuffix(description, "."))
	}
	if summary := firstParagraph(readme); summary != "" && summary != description {
		parts = append(parts, strings.TrimSuffix(summary, "."))
	}
	if techs := m.Technologies(); len(techs) > 0 {
		summary := "Built with " + strings.Join(techs[:min(5, len(techs))], ", ")
		if len(techs) > 5 {
			summary += fmt.Sprintf(" and %d other technologies", len(techs)-5)
		}
		parts = append(parts, summary)
	}
	if len(parts) == 0 {
		return m.Name + " is a software project."
	}
	return strings.Join(parts, ". ") + "."
}

// firstParagraph returns the first prose line of a README, skipping
// headings, lists, badges, html and code fences.
func firstParagraph(readme string) string {
	inFence := false
	for _, line := range strings.Split(readme, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if inFence || line == "" {
			continue
		}
		switch line[0] {
		case '#', '*', '-', '<', '!', '[', '>', '|':
			continue
		}
		return line
	}
	return ""
}

func clean(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
