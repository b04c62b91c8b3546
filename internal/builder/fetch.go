package builder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"

	"github.com/qobs-build/mmake/internal/msg"
)

var sourceShortcuts = map[string]string{
	"gh:": "https://github.com/",
	"gl:": "https://gitlab.com/",
	"bb:": "https://bitbucket.org/",
	"sr:": "https://git.sr.ht/",
	"cb:": "https://codeberg.org/",
}

const gitPrefix = "git:"

var errIllegalSource = errors.New("empty or illegal vendored source string")

// VendorDir is where vendored sources are cloned, relative to the project.
const VendorDir = "vendor"

type gitURL struct {
	cleanURL    string
	branch      string
	commitOrTag string
}

// sourceURL expands a shortcut such as gh:owner/repo@branch#rev into a
// clonable URL with its branch and revision split off.
func sourceURL(source string) (gitURL, error) {
	if source == "" {
		return gitURL{}, errIllegalSource
	}
	if rest, ok := strings.CutPrefix(source, gitPrefix); ok {
		return parseGitURL(rest), nil
	}
	for shortcut, base := range sourceShortcuts {
		if rest, ok := strings.CutPrefix(source, shortcut); ok {
			return parseGitURL(base + rest), nil
		}
	}
	return gitURL{}, fmt.Errorf("%w: %q (use a gh:, gl:, bb:, sr:, cb: or git: prefix)", errIllegalSource, source)
}

// someone/something@master#0.1.0
// someone/something@feature-branch#12345abc
// someone/something#12345abc
func parseGitURL(rawURL string) (res gitURL) {
	base, rev, ok := strings.Cut(rawURL, "#")
	if ok {
		res.commitOrTag = rev
	}

	// an '@' before the last '/' belongs to a user name, not a branch
	res.cleanURL = base
	if at := strings.LastIndex(base, "@"); at > strings.LastIndex(base, "/") {
		res.cleanURL, res.branch = base[:at], base[at+1:]
	}

	if !strings.HasSuffix(res.cleanURL, ".git") {
		res.cleanURL += ".git"
	}
	return
}

// Fetch clones every vendored source missing from root/vendor. Sources
// already present are left alone.
func Fetch(root string, vendor map[string]string, names []string, progress io.Writer) error {
	var errs []error
	for _, name := range names {
		dir := filepath.Join(root, VendorDir, name)
		if _, err := os.Stat(dir); err == nil {
			continue
		}
		msg.Info("fetching %s from %s", name, vendor[name])
		if err := fetchSource(vendor[name], dir, progress); err != nil {
			os.RemoveAll(dir)
			errs = append(errs, fmt.Errorf("failed to fetch %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func fetchSource(source, toWhere string, progress io.Writer) error {
	u, err := sourceURL(source)
	if err != nil {
		return err
	}
	return cloneGitRepo(u, toWhere, progress)
}

// cloneGitRepo clones a Git remote into the specified directory
func cloneGitRepo(u gitURL, toWhere string, progress io.Writer) error {
	cloneOptions := &git.CloneOptions{
		URL:               u.cleanURL,
		Progress:          progress,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	}

	if u.commitOrTag == "" {
		cloneOptions.Depth = 1 // we can do a shallow clone of the latest commit
	}

	if u.branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(u.branch)
		cloneOptions.SingleBranch = true
	}

	repo, err := git.PlainClone(toWhere, cloneOptions)
	if err != nil {
		return err
	}

	if u.commitOrTag == "" {
		return nil
	}

	w, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("could not get worktree: %w", err)
	}

	revision := u.commitOrTag
	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return fmt.Errorf("could not resolve revision `%s`: %w", revision, err)
	}

	err = w.Checkout(&git.CheckoutOptions{
		Hash:  *hash,
		Force: true,
	})
	if err != nil {
		return fmt.Errorf("failed to checkout `%s`: %w", revision, err)
	}
	return nil
}
