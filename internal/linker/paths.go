package linker

import (
	"fmt"
	"strings"
	"unicode"

	"git.home.luguber.info/inful/adocs/internal/config"
	"git.home.luguber.info/inful/adocs/internal/structure"
)

// IndexFile is the root document.
const IndexFile = "README.md"

// BaseName returns the filename a non-root node would get before
// collision handling.
func BaseName(style config.FilenameStyle, n structure.Node) string {
	if style == config.FilenameTitle {
		if name := safeTitle(n.Title); name != "" {
			return name + ".md"
		}
	}
	return n.Slug + ".md"
}

// safeTitle keeps spaces and case but replaces characters that are not
// portable in filenames.
func safeTitle(title string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return -1
		case strings.ContainsRune(`/\:*?"<>|#`, r):
			return '-'
		}
		return r
	}, title)
	return strings.Trim(strings.Join(strings.Fields(s), " "), ". ")
}

// pathSet hands out unique names, comparing case-insensitively so output
// is portable to case-folding filesystems.
type pathSet map[string]bool

func (p pathSet) claim(name string) string {
	candidate := name
	stem := strings.TrimSuffix(name, ".md")
	for i := 2; p[strings.ToLower(candidate)]; i++ {
		candidate = fmt.Sprintf("%s-%d.md", stem, i)
	}
	p[strings.ToLower(candidate)] = true
	return candidate
}

// Destination formats path for a Markdown link, using the angle bracket
// form when the path contains spaces or parentheses.
func Destination(path string) string {
	if strings.ContainsAny(path, " ()") {
		return "<" + path + ">"
	}
	return path
}
