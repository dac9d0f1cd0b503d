package content

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"git.home.luguber.info/inful/adocs/internal/authoring"
	"git.home.luguber.info/inful/adocs/internal/config"
	foundation "git.home.luguber.info/inful/adocs/internal/foundation/errors"
	"git.home.luguber.info/inful/adocs/internal/repometa"
	"git.home.luguber.info/inful/adocs/internal/retry"
	"git.home.luguber.info/inful/adocs/internal/structure"
)

// scriptedAuthor answers per title. Titles listed in hang block until the
// attempt context is done.
type scriptedAuthor struct {
	mu       sync.Mutex
	calls    map[string]int
	hang     map[string]bool
	bodies   map[string]string
	inFlight atomic.Int32
	peak     atomic.Int32
}

func newScripted() *scriptedAuthor {
	return &scriptedAuthor{calls: map[string]int{}, hang: map[string]bool{}, bodies: map[string]string{}}
}

func (s *scriptedAuthor) Name() string { return "scripted" }

func (s *scriptedAuthor) Write(ctx context.Context, req authoring.Request) (authoring.Draft, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	s.mu.Lock()
	s.calls[req.Title]++
	hang := s.hang[req.Title]
	body, ok := s.bodies[req.Title]
	s.mu.Unlock()
	if hang {
		<-ctx.Done()
		return authoring.Draft{}, ctx.Err()
	}
	if !ok {
		body = "Body of " + req.Title + "."
	}
	return authoring.Draft{Body: body}, nil
}

func (s *scriptedAuthor) callsFor(title string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[title]
}

func crmTree(t *testing.T) (*structure.Tree, *repometa.Metadata) {
	t.Helper()
	meta, err := repometa.Extract(repometa.Descriptor{
		SourceURL:   "https://github.com/acme/crm",
		Name:        "Acme CRM",
		Description: "CRM with workflow automation",
		Languages:   []string{"Go"},
	}, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	tree, err := structure.NewPlanner(2).Plan(meta, []structure.Topic{
		{Title: "Architecture", Subtopics: []structure.Topic{{Title: "Components"}}},
		{Title: "CRM Features", Subtopics: []structure.Topic{{Title: "Contacts"}, {Title: "Deals"}}},
		{Title: "Getting Started"},
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	return tree, meta
}

func fastPolicy() retry.Policy {
	return retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2)
}

func TestFillCoversEveryNode(t *testing.T) {
	tree, meta := crmTree(t)
	author := newScripted()
	c := &Coordinator{Author: author, Concurrency: 3, Timeout: time.Second, Policy: fastPolicy()}
	blocks, sum := c.Fill(t.Context(), tree, meta)
	if len(blocks) != tree.Len() {
		t.Fatalf("blocks = %d, want %d", len(blocks), tree.Len())
	}
	for _, slug := range tree.Slugs() {
		b := blocks[slug]
		if b.Status != StatusComplete || b.Attempts != 1 {
			t.Fatalf("block %s = %+v", slug, b)
		}
	}
	if sum.Complete != tree.Len() || sum.Degraded() || sum.Canceled {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if p := author.peak.Load(); p > 3 {
		t.Fatalf("peak concurrency %d exceeds pool size", p)
	}
}

func TestFillTimeoutTwiceYieldsStub(t *testing.T) {
	tree, meta := crmTree(t)
	author := newScripted()
	author.hang["CRM Features"] = true
	c := &Coordinator{Author: author, Concurrency: 2, Timeout: 20 * time.Millisecond, Policy: fastPolicy()}
	blocks, sum := c.Fill(t.Context(), tree, meta)

	b := blocks["crm-features"]
	if b.Status != StatusStub {
		t.Fatalf("crm-features status = %s, want stub", b.Status)
	}
	if b.Attempts != 2 || author.callsFor("CRM Features") != 2 {
		t.Fatalf("attempts = %d calls = %d, want 2", b.Attempts, author.callsFor("CRM Features"))
	}
	if !strings.Contains(b.Body, `"CRM Features"`) || !strings.Contains(b.Err, "timed out") {
		t.Fatalf("unexpected stub %+v", b)
	}
	for _, child := range []string{"contacts", "deals"} {
		if blocks[child].Status != StatusComplete {
			t.Fatalf("child %s should not depend on parent content: %+v", child, blocks[child])
		}
	}
	if sum.Stub != 1 || sum.Retries != 1 || !sum.Degraded() {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestFillEmptyBodyIsMalformed(t *testing.T) {
	tree, meta := crmTree(t)
	author := newScripted()
	author.bodies["Deals"] = "   \n"
	c := &Coordinator{Author: author, Concurrency: 1, Timeout: time.Second, Policy: fastPolicy()}
	blocks, _ := c.Fill(t.Context(), tree, meta)
	if b := blocks["deals"]; b.Status != StatusStub || !strings.Contains(b.Err, "malformed") {
		t.Fatalf("deals = %+v", b)
	}
}

func TestFillUnclosedFenceIsPartial(t *testing.T) {
	tree, meta := crmTree(t)
	author := newScripted()
	author.bodies["Components"] = "Intro\n\n```go\nfunc main() {\n"
	c := &Coordinator{Author: author, Concurrency: 2, Timeout: time.Second, Policy: fastPolicy()}
	blocks, sum := c.Fill(t.Context(), tree, meta)
	if b := blocks["components"]; b.Status != StatusPartial || b.Body == "" {
		t.Fatalf("components = %+v", b)
	}
	if sum.Partial != 1 {
		t.Fatalf("partial = %d", sum.Partial)
	}
}

type permanentAuthor struct{ calls atomic.Int32 }

func (p *permanentAuthor) Name() string { return "permanent" }
func (p *permanentAuthor) Write(context.Context, authoring.Request) (authoring.Draft, error) {
	p.calls.Add(1)
	return authoring.Draft{}, &authoring.PermanentError{Err: errors.New("invalid api key")}
}

func TestFillDoesNotRetryPermanentErrors(t *testing.T) {
	tree, meta := crmTree(t)
	author := &permanentAuthor{}
	c := &Coordinator{Author: author, Concurrency: 1, Timeout: time.Second, Policy: fastPolicy()}
	blocks, sum := c.Fill(t.Context(), tree, meta)
	if int(author.calls.Load()) != tree.Len() {
		t.Fatalf("calls = %d, want one per node (%d)", author.calls.Load(), tree.Len())
	}
	if sum.Stub != tree.Len() || blocks["index"].Attempts != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestFillCanceledStubsRemainingNodes(t *testing.T) {
	tree, meta := crmTree(t)
	author := newScripted()
	for _, slug := range tree.Slugs() {
		n, _ := tree.Node(slug)
		author.hang[n.Title] = true
	}
	ctx, cancel := context.WithCancel(t.Context())
	time.AfterFunc(20*time.Millisecond, cancel)
	c := &Coordinator{Author: author, Concurrency: 2, Timeout: time.Minute, Policy: fastPolicy()}
	blocks, sum := c.Fill(ctx, tree, meta)
	if !sum.Canceled {
		t.Fatal("expected canceled summary")
	}
	if len(blocks) != tree.Len() || sum.Stub != tree.Len() {
		t.Fatalf("blocks = %d stubs = %d, want %d", len(blocks), sum.Stub, tree.Len())
	}
}

func TestErrorTypesCarryContentCategory(t *testing.T) {
	for _, err := range []error{
		&ContentGenerationTimeoutError{Slug: "a", Attempt: 1, Timeout: time.Second},
		&ContentMalformedError{Slug: "a", Reason: "empty body"},
	} {
		if !foundation.HasCategory(err, foundation.CategoryContent) {
			t.Fatalf("%T not classified as content", err)
		}
	}
}

func TestHasOpenFence(t *testing.T) {
	cases := map[string]bool{
		"no code":                         false,
		"```\ncode\n```":                  false,
		"```go\ncode":                     true,
		"~~~\n```\n~~~":                   false,
		"```\n~~~\n":                      true,
		"text\n    ```sh\n    ls\n    ```": false,
	}
	for body, want := range cases {
		if got := hasOpenFence(body); got != want {
			t.Fatalf("hasOpenFence(%q) = %v, want %v", body, got, want)
		}
	}
}

func TestCloseOpenFence(t *testing.T) {
	if got := CloseOpenFence("```go\nx := 1"); got != "```go\nx := 1\n```\n" {
		t.Fatalf("CloseOpenFence = %q", got)
	}
	if got := CloseOpenFence("done\n"); got != "done\n" {
		t.Fatalf("complete body changed: %q", got)
	}
}
