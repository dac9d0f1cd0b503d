// Package structure plans the documentation tree: which pages exist, their
// slugs and their order. Planning is pure and deterministic.
package structure

import (
	"errors"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/adocs/internal/logfields"
	"git.home.luguber.info/inful/adocs/internal/repometa"
)

// DefaultMaxDepth allows sections and one level of subsections.
const DefaultMaxDepth = 2

// ErrNoMetadata is returned when Plan is called without metadata.
var ErrNoMetadata = errors.New("structure: metadata is required")

// Topic is a requested section with optional subsections.
type Topic struct {
	Title     string
	Subtopics []Topic
}

// TopicsFromHints converts descriptor topic hints.
func TopicsFromHints(hints []repometa.TopicHint) []Topic {
	if len(hints) == 0 {
		return nil
	}
	out := make([]Topic, 0, len(hints))
	for _, h := range hints {
		out = append(out, Topic{Title: h.Title, Subtopics: TopicsFromHints(h.Subtopics)})
	}
	return out
}

// Planner builds the documentation tree.
type Planner struct {
	MaxDepth int
	Logger   *slog.Logger
}

// NewPlanner returns a planner limited to maxDepth levels below the root.
func NewPlanner(maxDepth int) *Planner {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Planner{MaxDepth: maxDepth, Logger: slog.Default()}
}

// Plan creates the tree for meta. When topics is empty DefaultTopics(meta)
// is used. Slugs are assigned in pre-order, so the same topic list always
// yields the same tree.
func (p *Planner) Plan(meta *repometa.Metadata, topics []Topic) (*Tree, error) {
	if meta == nil {
		return nil, ErrNoMetadata
	}
	if len(topics) == 0 {
		topics = DefaultTopics(meta)
	}
	maxDepth := p.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	t := newTree()
	t.add(Node{Slug: RootSlug, Title: meta.Name + " Documentation"})
	b := &builder{tree: t, slugs: newSlugger(), maxDepth: maxDepth, logger: logger}
	b.expand(RootSlug, topics, 1)
	return t, nil
}

type builder struct {
	tree     *Tree
	slugs    *slugger
	maxDepth int
	logger   *slog.Logger
}

func (b *builder) expand(parent string, topics []Topic, depth int) {
	order := 0
	for _, topic := range topics {
		title := strings.Join(strings.Fields(topic.Title), " ")
		if title == "" {
			continue
		}
		if depth > b.maxDepth {
			b.logger.Debug("Dropping topic beyond max depth", logfields.Title(title), slog.Int("depth", depth))
			continue
		}
		slug := b.slugs.next(title)
		b.tree.add(Node{Slug: slug, Title: title, ParentSlug: parent, Order: order, Depth: depth})
		b.tree.appendChild(parent, slug)
		order++
		b.expand(slug, topic.Subtopics, depth+1)
	}
}
