package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/adocs/internal/config"
	"git.home.luguber.info/inful/adocs/internal/logfields"
	"git.home.luguber.info/inful/adocs/internal/repometa"
)

// Source is a fetched repository.
type Source struct {
	Descriptor repometa.Descriptor
	Dir        string
	Commit     string // empty for plain directories
}

// Client fetches repositories.
type Client struct {
	cfg config.SourceConfig
}

// NewClient returns a client using the given source settings.
func NewClient(cfg config.SourceConfig) *Client { return &Client{cfg: cfg} }

// Fetch clones url (or scans it directly when it is a local directory) and
// derives a descriptor. The returned cleanup removes temporary clones.
func (c *Client) Fetch(ctx context.Context, url string) (*Source, func(), error) {
	noop := func() {}
	if info, err := os.Stat(url); err == nil && info.IsDir() {
		desc, err := Scan(url, url)
		if err != nil {
			return nil, noop, err
		}
		return &Source{Descriptor: desc, Dir: url}, noop, nil
	}

	parent := c.cfg.WorkDir
	cleanup := noop
	if parent == "" {
		tmp, err := os.MkdirTemp("", "adocs-clone-*")
		if err != nil {
			return nil, noop, fmt.Errorf("create clone directory: %w", err)
		}
		parent = tmp
		cleanup = func() { _ = os.RemoveAll(tmp) }
	}
	dir := filepath.Join(parent, repometa.NameFromURL(url))
	if err := os.RemoveAll(dir); err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("failed to remove existing directory: %w", err)
	}

	opts := &git.CloneOptions{URL: url, Depth: c.cfg.Depth, Tags: git.NoTags}
	if c.cfg.Branch != "" {
		opts.ReferenceName = plumbing.ReferenceName("refs/heads/" + c.cfg.Branch)
		opts.SingleBranch = true
	}
	if c.cfg.Token != "" {
		// GitHub and GitLab accept any username with a token password.
		opts.Auth = &http.BasicAuth{Username: "token", Password: c.cfg.Token}
	}
	slog.Debug("Cloning repository", logfields.Repository(url), logfields.Path(dir), slog.Int("depth", c.cfg.Depth))
	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		cleanup()
		return nil, noop, classifyCloneError(url, err)
	}
	src := &Source{Dir: dir}
	if ref, herr := repo.Head(); herr == nil {
		src.Commit = ref.Hash().String()
		slog.Info("Repository cloned", logfields.Repository(url), slog.String("commit", src.Commit[:8]))
	}
	desc, err := Scan(dir, url)
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	src.Descriptor = desc
	return src, cleanup, nil
}

// EmbeddedDescriptors are repository files whose content is merged into
// the derived descriptor, letting projects declare their own topics.
// adocs.yaml is the configuration file, not a descriptor.
var EmbeddedDescriptors = []string{".adocs.yaml", ".adocs.yml"}

// maxFiles bounds the worktree scan of very large repositories.
const maxFiles = 5000

// Scan walks dir and builds a descriptor for sourceURL.
func Scan(dir, sourceURL string) (repometa.Descriptor, error) {
	desc := repometa.Descriptor{SourceURL: sourceURL, Name: repometa.NameFromURL(sourceURL)}
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && (name == ".git" || name == "node_modules" || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, rerr := filepath.Rel(dir, path)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)
		if len(desc.Files) < maxFiles {
			desc.Files = append(desc.Files, rel)
		}
		if desc.Readme == "" && !strings.Contains(rel, "/") && strings.HasPrefix(strings.ToLower(name), "readme") {
			// #nosec G304 -- path is inside the scanned worktree.
			data, rerr := os.ReadFile(path)
			if rerr == nil {
				desc.Readme = string(data)
			}
		}
		return nil
	})
	if err != nil {
		return desc, fmt.Errorf("scan %s: %w", dir, err)
	}

	for _, name := range EmbeddedDescriptors {
		// #nosec G304 -- fixed names inside the worktree.
		data, rerr := os.ReadFile(filepath.Join(dir, name))
		if rerr != nil {
			continue
		}
		embedded, perr := repometa.ParseDescriptor(data)
		if perr != nil {
			slog.Warn("Ignoring invalid embedded descriptor", logfields.Path(name), logfields.Error(perr))
			break
		}
		merge(&desc, embedded)
		break
	}
	return desc, nil
}

// merge copies declared fields from an embedded descriptor. The source URL
// always stays the one that was fetched.
func merge(dst *repometa.Descriptor, src repometa.Descriptor) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
	dst.Languages = append(dst.Languages, src.Languages...)
	dst.Frameworks = append(dst.Frameworks, src.Frameworks...)
	dst.Databases = append(dst.Databases, src.Databases...)
	dst.DevOps = append(dst.DevOps, src.DevOps...)
	if len(src.Topics) > 0 {
		dst.Topics = src.Topics
	}
}
