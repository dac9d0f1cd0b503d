// Package git turns a repository URL into a repometa.Descriptor by
// cloning it shallowly with go-git and scanning the worktree.
package git
