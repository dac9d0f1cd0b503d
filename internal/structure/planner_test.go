package structure

import (
	"bytes"
	"encoding/json"
	"slices"
	"testing"
	"time"

	"git.home.luguber.info/inful/adocs/internal/repometa"
)

func testMetadata(t *testing.T) *repometa.Metadata {
	t.Helper()
	m, err := repometa.Extract(repometa.Descriptor{
		SourceURL:   "https://github.com/acme/crm",
		Name:        "Acme CRM",
		Description: "CRM with workflow automation",
		Files:       []string{"go.mod", "docker-compose.yml", "db/postgres.sql"},
	}, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return m
}

func TestPlanDuplicateTopicsGetSuffixedSlugs(t *testing.T) {
	tree, err := NewPlanner(2).Plan(testMetadata(t), []Topic{
		{Title: "Architecture"}, {Title: "Getting Started"}, {Title: "Architecture"},
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	root, _ := tree.Node(tree.Root())
	want := []string{"architecture", "getting-started", "architecture-2"}
	if !slices.Equal(root.ChildSlugs, want) {
		t.Fatalf("child slugs = %v, want %v", root.ChildSlugs, want)
	}
	for i, slug := range want {
		n, ok := tree.Node(slug)
		if !ok || n.Order != i || n.ParentSlug != RootSlug || n.Depth != 1 {
			t.Fatalf("node %s = %+v", slug, n)
		}
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	meta := testMetadata(t)
	topics := []Topic{
		{Title: "Architecture", Subtopics: []Topic{{Title: "Overview"}, {Title: "Data Flow"}}},
		{Title: "CRM Features", Subtopics: []Topic{{Title: "Overview"}}},
	}
	a, _ := NewPlanner(2).Plan(meta, topics)
	b, _ := NewPlanner(2).Plan(meta, topics)

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if !bytes.Equal(ja, jb) {
		t.Fatalf("trees differ:\n%s\n%s", ja, jb)
	}
	if a.Hash() != b.Hash() {
		t.Fatalf("hash differs")
	}
	if got := a.Slugs(); !slices.Equal(got, []string{"index", "architecture", "overview", "data-flow", "crm-features", "overview-2"}) {
		t.Fatalf("pre-order slugs = %v", got)
	}
}

func TestPlanDefaultTopicsStableAcrossRuns(t *testing.T) {
	meta := testMetadata(t)
	first, _ := NewPlanner(2).Plan(meta, nil)
	second, _ := NewPlanner(2).Plan(meta, nil)
	if first.Hash() != second.Hash() {
		t.Fatalf("default plan is not stable")
	}
	root, _ := first.Node(RootSlug)
	if root.Title != "Acme CRM Documentation" {
		t.Fatalf("root title = %q", root.Title)
	}
	if _, ok := first.Node("acme-crm-overview"); !ok {
		t.Fatalf("overview section missing: %v", first.Slugs())
	}
	if _, ok := first.Node("productivity-features"); !ok {
		t.Fatalf("domain feature section missing: %v", first.Slugs())
	}
	if _, ok := first.Node("deployment"); !ok {
		t.Fatalf("deployment section expected for devops stack: %v", first.Slugs())
	}
}

func TestPlanRespectsMaxDepth(t *testing.T) {
	deep := []Topic{{Title: "A", Subtopics: []Topic{{Title: "B", Subtopics: []Topic{{Title: "C"}}}}}}
	tree, _ := NewPlanner(2).Plan(testMetadata(t), deep)
	if _, ok := tree.Node("c"); ok {
		t.Fatalf("depth 3 topic should be dropped")
	}
	b, _ := tree.Node("b")
	if len(b.ChildSlugs) != 0 || b.Depth != 2 {
		t.Fatalf("subsection = %+v", b)
	}

	flat, _ := NewPlanner(1).Plan(testMetadata(t), deep)
	if flat.Len() != 2 {
		t.Fatalf("max depth 1 should keep root and A, got %v", flat.Slugs())
	}
}

func TestPlanSkipsBlankTitlesAndReservesRootSlug(t *testing.T) {
	tree, _ := NewPlanner(2).Plan(testMetadata(t), []Topic{{Title: "  "}, {Title: "Index"}, {Title: "Getting   Started"}})
	root, _ := tree.Node(RootSlug)
	if !slices.Equal(root.ChildSlugs, []string{"index-2", "getting-started"}) {
		t.Fatalf("child slugs = %v", root.ChildSlugs)
	}
	gs, _ := tree.Node("getting-started")
	if gs.Title != "Getting Started" || gs.Order != 1 {
		t.Fatalf("whitespace not collapsed or order wrong: %+v", gs)
	}
}

func TestLeafTopicHasNoChildren(t *testing.T) {
	tree, _ := NewPlanner(2).Plan(testMetadata(t), []Topic{{Title: "FAQ"}})
	n, _ := tree.Node("faq")
	if n.ChildSlugs == nil || len(n.ChildSlugs) != 0 {
		t.Fatalf("leaf should have an empty, non-nil child list: %#v", n.ChildSlugs)
	}
}

func TestTreeIsFrozen(t *testing.T) {
	tree, _ := NewPlanner(2).Plan(testMetadata(t), []Topic{{Title: "A"}, {Title: "B"}})
	root, _ := tree.Node(RootSlug)
	root.ChildSlugs[0] = "mutated"
	nodes := tree.Nodes()
	nodes[0].ChildSlugs = append(nodes[0].ChildSlugs, "extra")

	again, _ := tree.Node(RootSlug)
	if !slices.Equal(again.ChildSlugs, []string{"a", "b"}) {
		t.Fatalf("tree mutated through accessor: %v", again.ChildSlugs)
	}
}

func TestAncestors(t *testing.T) {
	tree, _ := NewPlanner(2).Plan(testMetadata(t), []Topic{{Title: "CRM Features", Subtopics: []Topic{{Title: "Contacts"}}}})
	got := tree.Ancestors("contacts")
	if !slices.Equal(got, []string{"Acme CRM Documentation", "CRM Features"}) {
		t.Fatalf("ancestors = %v", got)
	}
	if len(tree.Ancestors(RootSlug)) != 0 {
		t.Fatalf("root has no ancestors")
	}
}

func TestPlanRequiresMetadata(t *testing.T) {
	if _, err := NewPlanner(2).Plan(nil, nil); err != ErrNoMetadata {
		t.Fatalf("err = %v", err)
	}
}

func TestTopicsFromHints(t *testing.T) {
	got := TopicsFromHints([]repometa.TopicHint{{Title: "A", Subtopics: []repometa.TopicHint{{Title: "B"}}}})
	if len(got) != 1 || got[0].Subtopics[0].Title != "B" {
		t.Fatalf("TopicsFromHints = %+v", got)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Getting Started":        "getting-started",
		"CRM Features":           "crm-features",
		"  API / REST  v2 ":      "api-rest-v2",
		"Überblick & Café":       "uberblick-cafe",
		"C++ Bindings":           "c-bindings",
		"!!!":                    "section",
		"Architecture Overview.": "architecture-overview",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFromRecordsKeepsOrderAndRoot(t *testing.T) {
	tree := FromRecords([]Node{
		{Slug: "index", Title: "Docs", ChildSlugs: []string{"a"}},
		{Slug: "a", Title: "A", ParentSlug: "index"},
	})
	if tree.Root() != "index" || tree.Len() != 2 {
		t.Fatalf("root=%s len=%d", tree.Root(), tree.Len())
	}
}
