package config

import "strings"

// FilenameStyle selects how node slugs map to document filenames.
type FilenameStyle string

const (
	// FilenameSlug writes <slug>.md, e.g. crm-features.md.
	FilenameSlug FilenameStyle = "slug"
	// FilenameTitle keeps the title's spaces and case, e.g. "CRM Features.md".
	FilenameTitle FilenameStyle = "title"
)

// NormalizeFilenameStyle returns the typed style or empty for unknown input.
func NormalizeFilenameStyle(raw string) FilenameStyle {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(FilenameSlug):
		return FilenameSlug
	case string(FilenameTitle):
		return FilenameTitle
	default:
		return ""
	}
}

// AuthorProvider selects the authoring collaborator implementation.
type AuthorProvider string

const (
	AuthorStatic AuthorProvider = "static"
	AuthorGemini AuthorProvider = "gemini"
)

// DefaultGeminiModel is used when author.model is empty.
const DefaultGeminiModel = "gemini-2.5-flash"

// NormalizeAuthorProvider returns the typed provider or empty for unknown input.
func NormalizeAuthorProvider(raw string) AuthorProvider {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(AuthorStatic):
		return AuthorStatic
	case string(AuthorGemini):
		return AuthorGemini
	default:
		return ""
	}
}
