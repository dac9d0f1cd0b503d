// Package pipeline drives one regeneration run through the states
// Planning, ContentFetch, Linking, Assembling and Done (or Failed).
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/adocs/internal/assembler"
	"git.home.luguber.info/inful/adocs/internal/authoring"
	"git.home.luguber.info/inful/adocs/internal/config"
	"git.home.luguber.info/inful/adocs/internal/content"
	foundation "git.home.luguber.info/inful/adocs/internal/foundation/errors"
	"git.home.luguber.info/inful/adocs/internal/history"
	"git.home.luguber.info/inful/adocs/internal/linker"
	"git.home.luguber.info/inful/adocs/internal/logfields"
	"git.home.luguber.info/inful/adocs/internal/manifest"
	"git.home.luguber.info/inful/adocs/internal/metrics"
	"git.home.luguber.info/inful/adocs/internal/publish"
	"git.home.luguber.info/inful/adocs/internal/repometa"
	"git.home.luguber.info/inful/adocs/internal/retry"
	"git.home.luguber.info/inful/adocs/internal/structure"
	"git.home.luguber.info/inful/adocs/internal/version"
)

// ErrStructureDrift is returned when an unchanged snapshot plans a
// different tree than a previous run did.
var ErrStructureDrift = foundation.NewError(foundation.CategoryStructure, "structure drift for unchanged snapshot").
	Fatal().
	Build()

var errContentDegraded = errors.New("content degraded")

// TimestampLayout names run directories when output.timestamped is set.
const TimestampLayout = "20060102-150405"

// Publisher uploads a finished set.
type Publisher interface {
	Publish(ctx context.Context, runID, dir string, files []string) error
}

// Notifier announces finished runs.
type Notifier interface {
	Notify(ctx context.Context, ev publish.RunEvent) error
}

// Controller runs regenerations. Collaborators other than Config and
// Author are optional.
type Controller struct {
	Config    *config.Config
	Author    authoring.Author
	History   history.Store
	Recorder  metrics.Recorder
	Publisher Publisher
	Notifier  Notifier
	Logger    *slog.Logger
	Now       func() time.Time
}

// Result is what a run produced.
type Result struct {
	RunID     string
	State     RunState
	Outcome   Outcome
	OutputDir string
	Tree      *structure.Tree
	Documents []assembler.Document
	Report    *RunReport
}

// Run regenerates the documentation for desc. The returned error is non-nil
// exactly when the run ended in Failed; it carries an error category for
// exit code mapping.
func (c *Controller) Run(ctx context.Context, desc repometa.Descriptor) (*Result, error) {
	if c.Config == nil || c.Author == nil {
		return nil, foundation.InternalError("controller requires config and author").Build()
	}
	now := c.Now
	if now == nil {
		now = time.Now
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := c.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	start := now()
	id := uuid.NewString()
	rs := &runState{
		id:       id,
		logger:   logger.With(logfields.RunID(id), logfields.Repository(desc.SourceURL)),
		recorder: rec,
		history:  c.History,
		report:   newRunReport(id, desc.SourceURL, c.Author.Name(), start.UTC()),
		now:      now,
		desc:     desc,
		outDir:   c.outputDir(start),
	}
	rs.previous = c.previousFingerprints(ctx, rs)

	if c.History != nil {
		run := history.Run{ID: id, SourceURL: desc.SourceURL, State: string(StatePlanning), OutputDir: rs.outDir, StartedAt: start.UTC()}
		if err := c.History.BeginRun(ctx, run); err != nil {
			rs.logger.Warn("Failed to record run start", logfields.Error(err))
			rs.report.AddIssue(IssueHistoryFailure, StatePlanning, "warning", err.Error())
		}
	}
	rs.logger.Info("Regeneration started", "author", c.Author.Name(), logfields.Path(rs.outDir))

	stages := []stageDef{
		{StatePlanning, c.stagePlanning},
		{StateContentFetch, c.stageContentFetch},
		{StateLinking, c.stageLinking},
		{StateAssembling, c.stageAssembling},
	}
	stageErr := runStages(ctx, rs, stages)
	// The tail of the run must finish even when ctx is done.
	tail := context.WithoutCancel(ctx)

	var se *StageError
	if stageErr != nil && !errors.As(stageErr, &se) {
		se = newFatalStageError(rs.state, stageErr)
	}
	if se == nil {
		c.publish(tail, rs)
		if err := rs.transition(tail, StateDone, ""); err != nil {
			se = newFatalStageError(rs.state, err)
		}
	}
	if se != nil {
		_ = rs.transition(tail, StateFailed, se.Error())
		rs.report.Error = se.Error()
	}
	rs.report.End = now().UTC()
	rs.report.DeriveOutcome(rs.canceled || (se != nil && se.Kind == StageErrorCanceled))

	if err := rs.report.Persist(&assembler.Writer{Logger: rs.logger}, rs.outDir); err != nil {
		rs.logger.Warn("Failed to persist run report", logfields.Error(err))
	}
	c.finish(tail, rs)
	rec.ObserveRunDuration(rs.report.End.Sub(start))
	rec.IncRunOutcome(string(rs.report.Outcome))
	rs.logger.Info("Regeneration finished", logfields.State(string(rs.state)), logfields.Status(string(rs.report.Outcome)),
		logfields.Count(len(rs.docs)), logfields.Duration(rs.report.End.Sub(start)))

	res := &Result{
		RunID:     id,
		State:     rs.state,
		Outcome:   rs.report.Outcome,
		OutputDir: rs.outDir,
		Tree:      rs.tree,
		Documents: rs.docs,
		Report:    rs.report,
	}
	if se != nil {
		return res, classify(se)
	}
	return res, nil
}

// Plan extracts metadata and plans the structure without writing anything.
func (c *Controller) Plan(desc repometa.Descriptor) (*manifest.StructureManifest, error) {
	if c.Config == nil {
		return nil, foundation.InternalError("controller requires config").Build()
	}
	meta, err := repometa.Extract(desc, time.Now())
	if err != nil {
		return nil, err
	}
	tree, err := c.planner().Plan(meta, c.topics(desc))
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryStructure, "plan structure").Fatal().Build()
	}
	res, err := linker.Resolve(tree, c.Config.Output.FilenameStyle)
	var integrity *linker.StructureIntegrityError
	if err != nil && !errors.As(err, &integrity) {
		return nil, foundation.WrapError(err, foundation.CategoryStructure, "resolve structure").Fatal().Build()
	}
	return manifest.New(tree, res.Paths(), string(c.Config.Output.FilenameStyle), c.snapshotFingerprint(desc), res.Excluded()), nil
}

func (c *Controller) stagePlanning(ctx context.Context, rs *runState) error {
	meta, err := repometa.Extract(rs.desc, rs.now())
	if err != nil {
		return newFatalStageError(StatePlanning, err)
	}
	rs.meta = meta
	tree, err := c.planner().Plan(meta, c.topics(rs.desc))
	if err != nil {
		return newFatalStageError(StatePlanning, err)
	}
	rs.tree = tree
	rs.snapshot = c.snapshotFingerprint(rs.desc)
	rs.report.SnapshotFingerprint = rs.snapshot
	rs.report.StructureHash = tree.Hash()
	if err := c.checkDrift(ctx, rs); err != nil {
		return newFatalStageError(StatePlanning, err)
	}
	rs.logger.Info("Structure planned", logfields.Count(tree.Len()), "structure_hash", tree.Hash())
	return nil
}

func (c *Controller) stageContentFetch(ctx context.Context, rs *runState) error {
	coord := &content.Coordinator{
		Author:      c.Author,
		Concurrency: c.Config.Generation.Concurrency,
		Timeout:     c.Config.Generation.Timeout(),
		Policy:      retry.FromConfig(c.Config.Generation),
		Recorder:    rs.recorder,
		Logger:      rs.logger,
	}
	blocks, sum := coord.Fill(ctx, rs.tree, rs.meta)
	rs.blocks = blocks
	rs.report.Content = sum
	if sum.Canceled {
		rs.canceled = true
		rs.detached = true
		rs.logger.Warn("Content fetch canceled, continuing with stubs", logfields.Count(sum.Stub))
		return newWarnStageError(StateContentFetch,
			fmt.Errorf("content fetch canceled, %d of %d nodes stubbed: %w", sum.Stub, rs.tree.Len(), context.Cause(ctx)))
	}
	if sum.Degraded() {
		return newWarnStageError(StateContentFetch,
			fmt.Errorf("%w: %d partial, %d stub of %d nodes", errContentDegraded, sum.Partial, sum.Stub, rs.tree.Len()))
	}
	return nil
}

func (c *Controller) stageLinking(_ context.Context, rs *runState) error {
	res, err := linker.Resolve(rs.tree, c.Config.Output.FilenameStyle)
	var integrity *linker.StructureIntegrityError
	switch {
	case err == nil:
	case errors.As(err, &integrity):
		rs.resolution = res
		rs.report.Excluded = res.Excluded()
		return newWarnStageError(StateLinking, err)
	default:
		return newFatalStageError(StateLinking, err)
	}
	rs.resolution = res
	return nil
}

func (c *Controller) stageAssembling(ctx context.Context, rs *runState) error {
	docs, err := assembler.RenderAll(rs.resolution, rs.blocks, rs.meta)
	if err != nil {
		return newFatalStageError(StateAssembling, err)
	}
	if err := rs.resolution.Verify(assembler.Pages(docs)); err != nil {
		return newFatalStageError(StateAssembling, err)
	}
	man := manifest.New(rs.tree, rs.resolution.Paths(), string(c.Config.Output.FilenameStyle), rs.snapshot, rs.resolution.Excluded())
	w := &assembler.Writer{Clean: c.Config.Output.Clean, Logger: rs.logger}
	written, err := w.Write(ctx, rs.outDir, docs, man, rs.meta)
	if err != nil {
		return newFatalStageError(StateAssembling, err)
	}
	rs.docs = docs
	rs.written = written
	rs.report.Removed = written.Removed
	for _, d := range docs {
		prev, ok := rs.previous[d.Path]
		rs.report.Documents = append(rs.report.Documents, DocumentEntry{
			Path:        d.Path,
			Slug:        d.Slug,
			Status:      d.Status,
			Fingerprint: d.Fingerprint,
			Changed:     !ok || prev != d.Fingerprint,
		})
	}
	return nil
}

// publish uploads the set when a publisher is configured. Failures only
// degrade the run.
func (c *Controller) publish(ctx context.Context, rs *runState) {
	if c.Publisher == nil || rs.written == nil {
		return
	}
	files := append([]string(nil), rs.written.Written...)
	files = append(files, manifest.FileName, assembler.MetadataFile)
	if err := c.Publisher.Publish(ctx, rs.id, rs.outDir, files); err != nil {
		rs.logger.Warn("Publish failed", logfields.Error(err))
		rs.report.AddIssue(IssuePublishFailure, StateDone, "warning", err.Error())
		return
	}
	rs.report.Published = true
}

// finish records the end of the run in history and announces it.
func (c *Controller) finish(ctx context.Context, rs *runState) {
	r := rs.report
	if c.History != nil {
		run := history.Run{
			ID:                  rs.id,
			SourceURL:           rs.desc.SourceURL,
			SnapshotFingerprint: rs.snapshot,
			State:               string(rs.state),
			Outcome:             string(r.Outcome),
			OutputDir:           rs.outDir,
			Documents:           len(r.Documents),
			Stubs:               r.Stubs(),
			Error:               r.Error,
			StartedAt:           r.Start,
			FinishedAt:          r.End,
		}
		// Only runs that reached Done vouch for their structure.
		if rs.state == StateDone && rs.tree != nil {
			run.StructureHash = rs.tree.Hash()
		}
		if err := c.History.FinishRun(ctx, run); err != nil {
			rs.logger.Warn("Failed to record run result", logfields.Error(err))
		}
	}
	if c.Notifier != nil {
		ev := publish.RunEvent{
			RunID:         rs.id,
			SourceURL:     rs.desc.SourceURL,
			State:         string(rs.state),
			Outcome:       string(r.Outcome),
			StructureHash: r.StructureHash,
			OutputDir:     rs.outDir,
			Documents:     len(r.Documents),
			Stubs:         r.Stubs(),
			Changed:       r.Changed(),
			Error:         r.Error,
			Time:          r.End,
		}
		if err := c.Notifier.Notify(ctx, ev); err != nil {
			rs.logger.Warn("Failed to publish run event", logfields.Error(err))
		}
	}
}

// checkDrift compares the planned tree with earlier runs of the same snapshot.
func (c *Controller) checkDrift(ctx context.Context, rs *runState) error {
	hash := rs.tree.Hash()
	if prev, err := manifest.Load(rs.outDir); err != nil {
		rs.logger.Warn("Ignoring unreadable previous manifest", logfields.Error(err))
	} else if prev != nil && prev.SnapshotFingerprint == rs.snapshot && prev.StructureHash != hash {
		return fmt.Errorf("%w: manifest has %s, planned %s", ErrStructureDrift, prev.StructureHash, hash)
	}
	if c.History == nil {
		return nil
	}
	run, err := c.History.ByFingerprint(ctx, rs.snapshot)
	switch {
	case errors.Is(err, history.ErrRunNotFound):
		return nil
	case err != nil:
		rs.logger.Warn("History lookup failed", logfields.Error(err))
		return nil
	case run.StructureHash != hash:
		return fmt.Errorf("%w: run %s has %s, planned %s", ErrStructureDrift, run.ID, run.StructureHash, hash)
	}
	return nil
}

// previousFingerprints returns the document fingerprints of the last run
// writing to the same place.
func (c *Controller) previousFingerprints(ctx context.Context, rs *runState) map[string]string {
	dir := rs.outDir
	if c.Config.Output.Timestamped && c.History != nil {
		if run, err := c.History.Latest(ctx, rs.desc.SourceURL); err == nil && run.OutputDir != "" {
			dir = run.OutputDir
		}
	}
	prev, err := LoadReport(dir)
	if err != nil {
		rs.logger.Warn("Ignoring unreadable previous report", logfields.Error(err))
	}
	out := map[string]string{}
	if prev == nil {
		return out
	}
	for _, d := range prev.Documents {
		out[d.Path] = d.Fingerprint
	}
	return out
}

func (c *Controller) outputDir(start time.Time) string {
	dir := c.Config.Output.Directory
	if c.Config.Output.Timestamped {
		dir = filepath.Join(dir, start.UTC().Format(TimestampLayout))
	}
	return dir
}

func (c *Controller) planner() *structure.Planner {
	p := structure.NewPlanner(c.Config.Planner.MaxDepth)
	if c.Logger != nil {
		p.Logger = c.Logger
	}
	return p
}

// topics picks descriptor hints first, then configured topics. An empty
// result makes the planner fall back to the default outline.
func (c *Controller) topics(desc repometa.Descriptor) []structure.Topic {
	if t := structure.TopicsFromHints(desc.Topics); len(t) > 0 {
		return t
	}
	return topicsFromConfig(c.Config.Planner.Topics)
}

func topicsFromConfig(in []config.TopicConfig) []structure.Topic {
	if len(in) == 0 {
		return nil
	}
	out := make([]structure.Topic, 0, len(in))
	for _, t := range in {
		out = append(out, structure.Topic{Title: t.Title, Subtopics: topicsFromConfig(t.Subtopics)})
	}
	return out
}

// snapshotFingerprint identifies the inputs that determine the tree.
func (c *Controller) snapshotFingerprint(desc repometa.Descriptor) string {
	maxDepth := c.Config.Planner.MaxDepth
	if maxDepth <= 0 {
		maxDepth = structure.DefaultMaxDepth
	}
	data, _ := json.Marshal(struct {
		Descriptor string               `json:"descriptor"`
		MaxDepth   int                  `json:"max_depth"`
		Topics     []config.TopicConfig `json:"topics,omitempty"`
		Generator  string               `json:"generator"`
		Version    string               `json:"version"`
	}{desc.Fingerprint(), maxDepth, c.Config.Planner.Topics, version.Generator, version.Version})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
