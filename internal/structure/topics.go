package structure

import (
	"strings"

	"git.home.luguber.info/inful/adocs/internal/repometa"
)

// DefaultTopics is the section catalogue used when neither the descriptor
// nor the configuration names any topics. It only depends on metadata, so
// it is as stable as the metadata itself.
func DefaultTopics(meta *repometa.Metadata) []Topic {
	overview := Topic{
		Title: meta.Name + " Overview",
		Subtopics: []Topic{
			{Title: "Purpose and Scope"},
			{Title: "Key Features"},
		},
	}

	arch := Topic{Title: "Architecture", Subtopics: []Topic{
		{Title: meta.ArchitecturePattern + " Design"},
		{Title: "Components"},
	}}
	if len(meta.Databases) > 0 {
		arch.Subtopics = append(arch.Subtopics, Topic{Title: "Data Storage"})
	}

	stack := Topic{Title: "Technology Stack"}
	for _, group := range []struct {
		title string
		items []string
	}{
		{"Languages", meta.Languages},
		{"Frontend", meta.Frontend},
		{"Backend", meta.Backend},
		{"Databases", meta.Databases},
	} {
		if len(group.items) > 0 {
			stack.Subtopics = append(stack.Subtopics, Topic{Title: group.title})
		}
	}

	topics := []Topic{
		overview,
		arch,
		{Title: "Getting Started", Subtopics: []Topic{{Title: "Installation"}, {Title: "Configuration"}}},
		stack,
	}
	if domain := domainTopic(meta.BusinessDomain); domain != nil {
		topics = append(topics, *domain)
	}
	if len(meta.DevOps) > 0 {
		topics = append(topics, Topic{Title: "Deployment"})
	}
	return append(topics, Topic{Title: "Development Guide", Subtopics: []Topic{{Title: "Testing"}, {Title: "Contributing"}}})
}

var domainTopics = map[string][]string{
	"Web Development":    {"API Reference", "Routing"},
	"Data Science":       {"Data Pipeline", "Models"},
	"DevOps":             {"Operations", "Monitoring"},
	"Developer Tools":    {"Usage", "Extending"},
	"Productivity":       {"Workflows", "Integrations"},
	"E-commerce":         {"Catalog", "Checkout"},
	"Security":           {"Threat Model", "Hardening"},
	"Mobile Development": {"Platforms", "Releases"},
}

func domainTopic(domain string) *Topic {
	subs, ok := domainTopics[domain]
	if !ok {
		return nil
	}
	t := &Topic{Title: strings.TrimSpace(domain) + " Features"}
	for _, s := range subs {
		t.Subtopics = append(t.Subtopics, Topic{Title: s})
	}
	return t
}
