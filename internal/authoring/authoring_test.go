package authoring

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"git.home.luguber.info/inful/adocs/internal/repometa"
	"github.com/stretchr/testify/require"
)

func meta(t *testing.T) *repometa.Metadata {
	t.Helper()
	m, err := repometa.Extract(repometa.Descriptor{
		SourceURL:   "https://github.com/acme/crm",
		Name:        "Acme CRM",
		Description: "CRM with workflow automation",
		Languages:   []string{"Go"},
	}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return m
}

type countingAuthor struct {
	calls atomic.Int32
	draft Draft
	err   error
}

func (c *countingAuthor) Name() string { return "counting" }
func (c *countingAuthor) Write(context.Context, Request) (Draft, error) {
	c.calls.Add(1)
	return c.draft, c.err
}

func TestStaticAuthorIsDeterministic(t *testing.T) {
	a := NewStaticAuthor()
	req := Request{Slug: "crm-features", Title: "CRM Features", Ancestors: []string{"Acme CRM Documentation"}, Subsections: []string{"Contacts", "Deals", "Reports"}, Metadata: meta(t)}
	first, err := a.Write(t.Context(), req)
	require.NoError(t, err)
	second, err := a.Write(t.Context(), req)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Contains(t, first.Body, "detailed information about crm features for the Acme CRM project")
	require.Contains(t, first.Body, "Contacts, Deals and Reports")
	require.False(t, strings.HasPrefix(first.Body, "# "), "title heading is added by the assembler")
}

func TestStaticAuthorRootPage(t *testing.T) {
	d, err := NewStaticAuthor().Write(t.Context(), Request{Slug: "index", Title: "Acme CRM Documentation", Metadata: meta(t)})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(d.Body, "CRM with workflow automation."))
}

func TestStaticAuthorWithoutMetadataIsPermanent(t *testing.T) {
	_, err := NewStaticAuthor().Write(t.Context(), Request{Slug: "x"})
	require.True(t, IsPermanent(err))
}

func TestStaticAuthorHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := NewStaticAuthor().Write(ctx, Request{Slug: "x", Metadata: meta(t)})
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuildPromptCarriesContext(t *testing.T) {
	p := BuildPrompt(Request{Title: "Contacts", Ancestors: []string{"Docs", "CRM Features"}, Metadata: meta(t)})
	require.Contains(t, p, `"Contacts" page`)
	require.Contains(t, p, "Location: Docs > CRM Features > Contacts")
	require.Contains(t, p, "Business Domain: Productivity")
	require.Contains(t, p, "Subsections with their own pages: None")
}

func TestCacheReusesCompleteDrafts(t *testing.T) {
	inner := &countingAuthor{draft: Draft{Body: "body"}}
	a := Wrap(inner, Cache(8))
	m := meta(t)
	req := Request{Slug: "a", Title: "A", Metadata: m}
	for range 3 {
		d, err := a.Write(t.Context(), req)
		require.NoError(t, err)
		require.Equal(t, "body", d.Body)
	}
	require.EqualValues(t, 1, inner.calls.Load())

	// A new run has a new timestamp but the same cache key.
	later := *m
	later.GeneratedAt = m.GeneratedAt.Add(time.Hour)
	_, _ = a.Write(t.Context(), Request{Slug: "a", Title: "A", Metadata: &later})
	require.EqualValues(t, 1, inner.calls.Load())
}

func TestCacheSkipsTruncatedAndErrors(t *testing.T) {
	inner := &countingAuthor{draft: Draft{Body: "cut", Truncated: true}}
	a := Wrap(inner, Cache(8))
	req := Request{Slug: "a", Metadata: meta(t)}
	_, _ = a.Write(t.Context(), req)
	_, _ = a.Write(t.Context(), req)
	require.EqualValues(t, 2, inner.calls.Load())

	failing := &countingAuthor{err: errors.New("boom")}
	b := Wrap(failing, Cache(8))
	_, _ = b.Write(t.Context(), req)
	_, _ = b.Write(t.Context(), req)
	require.EqualValues(t, 2, failing.calls.Load())
}

func TestCacheDisabled(t *testing.T) {
	inner := &countingAuthor{}
	require.Same(t, Author(inner), Cache(0)(inner))
	require.Same(t, Author(inner), RateLimit(0, 1)(inner))
}

func TestRateLimitWaitsForContext(t *testing.T) {
	inner := &countingAuthor{draft: Draft{Body: "ok"}}
	a := Wrap(inner, RateLimit(0.001, 1))
	_, err := a.Write(t.Context(), Request{})
	require.NoError(t, err, "first request uses the burst token")

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	_, err = a.Write(ctx, Request{})
	require.Error(t, err)
	require.EqualValues(t, 1, inner.calls.Load())
	require.Equal(t, "counting", a.Name())
}

func TestNewGeminiAuthorRequiresKey(t *testing.T) {
	_, err := NewGeminiAuthor(t.Context(), GeminiConfig{Model: "gemini-2.5-flash"})
	require.True(t, IsPermanent(err))
}
