// Package workspace locates the store root and reads version-control
// context for new records.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/fyrsmithlabs/crumbs/internal/journal"
)

// Workspace is where a command runs relative to its store.
type Workspace struct {
	// Root is the directory holding the store directory.
	Root string
	// Cwd is the absolute working directory of the command.
	Cwd string
	// DirName is the store directory name under Root.
	DirName string
}

// Detect resolves the store root for cwd.
//
// The nearest enclosing git worktree wins; otherwise the nearest ancestor
// that already holds a dirName directory; otherwise cwd itself.
func Detect(cwd, dirName string) (*Workspace, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory %s: %w", cwd, err)
	}
	if dirName == "" {
		dirName = journal.DefaultDirName
	}

	ws := &Workspace{Root: abs, Cwd: abs, DirName: dirName}
	if root, ok := gitRoot(abs); ok {
		ws.Root = root
	} else if root, ok := storeAncestor(abs, dirName); ok {
		ws.Root = root
	}
	return ws, nil
}

// StoreDir returns the store directory path.
func (w *Workspace) StoreDir() string {
	return filepath.Join(w.Root, w.DirName)
}

// StoreExists reports whether the store directory is already present.
func (w *Workspace) StoreExists() bool {
	info, err := os.Stat(w.StoreDir())
	return err == nil && info.IsDir()
}

// WorkingDir returns Cwd as recorded on new records: "." for the root,
// a relative path inside it, or the absolute path outside it.
func (w *Workspace) WorkingDir() string {
	return RelativeWorkingDir(w.Root, w.Cwd)
}

// Origin returns the origin for records created in this workspace. The
// returned error explains missing git metadata; the origin is usable
// either way.
func (w *Workspace) Origin() (journal.Origin, error) {
	meta, err := ReadMetadata(w.Root)
	return journal.Origin{
		WorkingDir: w.WorkingDir(),
		Branch:     meta.Branch,
		Revision:   meta.Revision,
	}, err
}

// RelativeWorkingDir renders cwd relative to root.
func RelativeWorkingDir(root, cwd string) string {
	rel, err := filepath.Rel(root, cwd)
	if err != nil {
		return cwd
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return cwd
	}
	return rel
}

func gitRoot(dir string) (string, bool) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", false
	}
	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no worktree.
		return "", false
	}
	return wt.Filesystem.Root(), true
}

func storeAncestor(dir, dirName string) (string, bool) {
	for {
		info, err := os.Stat(filepath.Join(dir, dirName))
		if err == nil && info.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Metadata is the version-control context of a record. Either field may
// be nil.
type Metadata struct {
	Branch   *string
	Revision *string
}

// ErrNoRepository is returned when root is not inside a git repository.
var ErrNoRepository = errors.New("not a git repository")

// ReadMetadata reads the current branch and HEAD revision of the
// repository containing root. A detached HEAD reports the branch "HEAD";
// a repository without commits reports neither.
func ReadMetadata(root string) (Metadata, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Metadata{}, ErrNoRepository
		}
		return Metadata{}, fmt.Errorf("open repository at %s: %w", root, err)
	}

	head, err := repo.Head()
	if err != nil {
		return Metadata{}, fmt.Errorf("read HEAD: %w", err)
	}

	branch := "HEAD"
	if head.Name().IsBranch() {
		branch = head.Name().Short()
	}
	revision := head.Hash().String()
	return Metadata{Branch: &branch, Revision: &revision}, nil
}
