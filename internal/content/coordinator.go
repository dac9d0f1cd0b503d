package content

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/adocs/internal/authoring"
	"git.home.luguber.info/inful/adocs/internal/logfields"
	"git.home.luguber.info/inful/adocs/internal/metrics"
	"git.home.luguber.info/inful/adocs/internal/repometa"
	"git.home.luguber.info/inful/adocs/internal/retry"
	"git.home.luguber.info/inful/adocs/internal/structure"
)

// DefaultTimeout bounds a single authoring attempt when none is configured.
const DefaultTimeout = 60 * time.Second

// Coordinator fans authoring requests out over a bounded pool.
type Coordinator struct {
	Author      authoring.Author
	Concurrency int
	Timeout     time.Duration // per attempt
	Policy      retry.Policy
	Recorder    metrics.Recorder
	Logger      *slog.Logger
}

// Fill produces a block for every node in tree. It never fails: nodes that
// could not be written get stub blocks. When ctx is canceled outstanding
// requests abort and Summary.Canceled is set.
func (c *Coordinator) Fill(ctx context.Context, tree *structure.Tree, meta *repometa.Metadata) (map[string]Block, Summary) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := c.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	nodes := tree.Nodes()
	concurrency := c.Concurrency
	if concurrency > len(nodes) {
		concurrency = len(nodes)
	}
	if concurrency < 1 {
		concurrency = 1
	}
	rec.SetFanoutConcurrency(concurrency)

	blocks := make(map[string]Block, len(nodes))
	tasks := make(chan structure.Node)
	var wg sync.WaitGroup
	var mu sync.Mutex
	worker := func(id int) {
		defer wg.Done()
		for n := range tasks {
			b := c.fillNode(ctx, tree, n, meta, logger.With(logfields.Worker(id)), rec)
			rec.IncContentStatus(string(b.Status))
			mu.Lock()
			blocks[n.Slug] = b
			mu.Unlock()
		}
	}
	wg.Add(concurrency)
	for i := range concurrency {
		go worker(i)
	}
dispatch:
	for _, n := range nodes {
		select {
		case <-ctx.Done():
			break dispatch
		case tasks <- n:
		}
	}
	close(tasks)
	wg.Wait()

	var sum Summary
	for _, n := range nodes {
		b, ok := blocks[n.Slug]
		if !ok {
			b = Block{Slug: n.Slug, Body: StubBody(n.Title), Status: StatusStub, Err: context.Cause(ctx).Error()}
			blocks[n.Slug] = b
			rec.IncContentStatus(string(b.Status))
		}
		sum.add(b)
	}
	sum.Canceled = ctx.Err() != nil
	return blocks, sum
}

func (c *Coordinator) fillNode(ctx context.Context, tree *structure.Tree, n structure.Node, meta *repometa.Metadata, logger *slog.Logger, rec metrics.Recorder) Block {
	req := authoring.Request{
		Slug:      n.Slug,
		Title:     n.Title,
		Ancestors: tree.Ancestors(n.Slug),
		Metadata:  meta,
	}
	for _, child := range tree.Children(n.Slug) {
		req.Subsections = append(req.Subsections, child.Title)
	}

	attempts := c.Policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	made := 0
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			rec.IncContentRetry()
			if err := c.Policy.Wait(ctx, attempt-1); err != nil {
				lastErr = err
				break
			}
		}
		made = attempt
		start := time.Now()
		draft, err := c.attempt(ctx, req, attempt)
		rec.ObserveContentRequest(time.Since(start), err == nil)
		if err == nil {
			status := classify(draft.Body, draft.Truncated)
			if status == StatusPartial {
				logger.Warn("Partial content", logfields.Slug(n.Slug), logfields.Attempt(attempt))
			}
			return Block{Slug: n.Slug, Body: draft.Body, Status: status, Attempts: attempt}
		}
		lastErr = err
		logger.Warn("Content attempt failed",
			logfields.Slug(n.Slug),
			logfields.Attempt(attempt),
			logfields.Duration(time.Since(start)),
			logfields.Error(err))
		if ctx.Err() != nil || authoring.IsPermanent(err) {
			break
		}
	}
	logger.Warn("Using stub content", logfields.Slug(n.Slug), logfields.Title(n.Title), logfields.Attempt(made))
	return Block{Slug: n.Slug, Body: StubBody(n.Title), Status: StatusStub, Attempts: made, Err: lastErr.Error()}
}

func (c *Coordinator) attempt(ctx context.Context, req authoring.Request, attempt int) (authoring.Draft, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	draft, err := c.Author.Write(actx, req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
			return authoring.Draft{}, &ContentGenerationTimeoutError{Slug: req.Slug, Attempt: attempt, Timeout: timeout}
		}
		return authoring.Draft{}, err
	}
	if strings.TrimSpace(draft.Body) == "" {
		return authoring.Draft{}, &ContentMalformedError{Slug: req.Slug, Reason: "empty body"}
	}
	return draft, nil
}
