// Package linker derives every document path and cross link from the
// structure tree. The resulting Resolution is read-only.
package linker

import (
	"maps"
	"slices"

	"git.home.luguber.info/inful/adocs/internal/config"
	"git.home.luguber.info/inful/adocs/internal/markdown"
	"git.home.luguber.info/inful/adocs/internal/structure"
)

// ContextAnchor is the in-page anchor of the repository context footer.
const ContextAnchor = "#repository-context"

// Ref is one entry in a page's navigation.
type Ref struct {
	Slug       string
	Title      string
	Path       string
	Depth      int  // nesting below the listing page, 1 for direct children
	Unresolved bool // target missing, rendered as a marker instead of a link
}

// Links is the navigation of one page.
type Links struct {
	Path        string
	Parent      *Ref // nil for the root
	Home        *Ref // nil for the root
	Subsections []Ref
	Context     string
}

// Resolution maps slugs to paths and links for one tree.
type Resolution struct {
	tree     *structure.Tree
	paths    map[string]string
	links    map[string]Links
	order    []string
	excluded []string
}

// Resolve builds the resolution. A *StructureIntegrityError is returned
// together with a usable resolution when parts of the tree are broken;
// ErrDuplicateSlug is fatal.
func Resolve(tree *structure.Tree, style config.FilenameStyle) (*Resolution, error) {
	seen := make(map[string]bool, tree.Len())
	for _, slug := range tree.Slugs() {
		if seen[slug] {
			return nil, ErrDuplicateSlug
		}
		seen[slug] = true
	}

	r := &Resolution{tree: tree, paths: map[string]string{}, links: map[string]Links{}}
	integrity := &StructureIntegrityError{}

	// Walk the consistent edges from the root. Anything not reached is an orphan.
	reached := map[string]bool{}
	var walk func(slug string)
	walk = func(slug string) {
		reached[slug] = true
		r.order = append(r.order, slug)
		n, _ := tree.Node(slug)
		for _, child := range n.ChildSlugs {
			c, ok := tree.Node(child)
			if !ok || c.ParentSlug != slug || reached[child] {
				integrity.Unresolved = append(integrity.Unresolved, Unresolved{From: slug, Slug: child})
				continue
			}
			walk(child)
		}
	}
	if root := tree.Root(); root != "" {
		walk(root)
	}
	for _, slug := range tree.Slugs() {
		if !reached[slug] {
			integrity.Orphans = append(integrity.Orphans, slug)
		}
	}
	r.excluded = integrity.Orphans

	names := pathSet{}
	for _, slug := range r.order {
		if slug == tree.Root() {
			r.paths[slug] = names.claim(IndexFile)
			continue
		}
		n, _ := tree.Node(slug)
		r.paths[slug] = names.claim(BaseName(style, n))
	}
	for _, slug := range r.order {
		r.links[slug] = r.linksFor(slug, integrity)
	}

	if len(integrity.Orphans) > 0 || len(integrity.Unresolved) > 0 {
		return r, integrity
	}
	return r, nil
}

func (r *Resolution) linksFor(slug string, integrity *StructureIntegrityError) Links {
	n, _ := r.tree.Node(slug)
	l := Links{Path: r.paths[slug], Context: ContextAnchor}
	if !n.IsRoot() {
		l.Parent = r.ref(n.ParentSlug, 0)
		l.Home = r.ref(r.tree.Root(), 0)
	}
	depthLimit := 1
	if n.IsRoot() {
		// The index lists the whole tree.
		depthLimit = -1
	}
	l.Subsections = r.listing(slug, 1, depthLimit, integrity)
	return l
}

func (r *Resolution) listing(slug string, depth, limit int, integrity *StructureIntegrityError) []Ref {
	n, _ := r.tree.Node(slug)
	var out []Ref
	for _, child := range n.ChildSlugs {
		if isUnresolved(integrity, slug, child) {
			out = append(out, Ref{Slug: child, Title: child, Depth: depth, Unresolved: true})
			continue
		}
		out = append(out, *r.ref(child, depth))
		if limit < 0 || depth < limit {
			out = append(out, r.listing(child, depth+1, limit, integrity)...)
		}
	}
	return out
}

func isUnresolved(integrity *StructureIntegrityError, from, slug string) bool {
	for _, u := range integrity.Unresolved {
		if u.From == from && u.Slug == slug {
			return true
		}
	}
	return false
}

func (r *Resolution) ref(slug string, depth int) *Ref {
	n, _ := r.tree.Node(slug)
	return &Ref{Slug: slug, Title: n.Title, Path: r.paths[slug], Depth: depth}
}

// PathOf returns the document path of slug.
func (r *Resolution) PathOf(slug string) (string, bool) {
	p, ok := r.paths[slug]
	return p, ok
}

// LinksOf returns the navigation of slug.
func (r *Resolution) LinksOf(slug string) (Links, bool) {
	l, ok := r.links[slug]
	return l, ok
}

// Paths returns a copy of the slug to path map.
func (r *Resolution) Paths() map[string]string { return maps.Clone(r.paths) }

// Slugs returns the linked slugs in pre-order.
func (r *Resolution) Slugs() []string { return append([]string(nil), r.order...) }

// Excluded returns the slugs left out of assembly.
func (r *Resolution) Excluded() []string { return append([]string(nil), r.excluded...) }

// Tree returns the resolved tree.
func (r *Resolution) Tree() *structure.Tree { return r.tree }

// Verify checks that every relative link in the rendered pages (keyed by
// path) points at a generated document.
func (r *Resolution) Verify(pages map[string][]byte) error {
	known := make(map[string]bool, len(r.paths))
	for _, p := range r.paths {
		known[p] = true
	}
	var dangling []DanglingLink
	for _, path := range slices.Sorted(maps.Keys(pages)) {
		for _, l := range markdown.ExtractLinks(pages[path]) {
			if !l.Relative() {
				continue
			}
			if !known[l.Target()] {
				dangling = append(dangling, DanglingLink{From: path, Target: l.Destination})
			}
		}
	}
	if len(dangling) > 0 {
		return &DanglingLinksError{Links: dangling}
	}
	return nil
}
