// Package git produces changed-file sets from a local repository using
// go-git, so reviews can run against branches that have no pull request yet.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	formatdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/reviewbot/prr/internal/domain"
)

// Engine diffs two refs of a local repository.
type Engine struct {
	repoDir string
}

// NewEngine constructs a Git engine for the provided repository directory.
func NewEngine(repoDir string) *Engine {
	return &Engine{repoDir: repoDir}
}

// ChangedFiles returns the files that differ between baseRef and targetRef,
// with unified patches and the full file content as of targetRef.
func (e *Engine) ChangedFiles(ctx context.Context, baseRef, targetRef string) ([]domain.ChangedFile, error) {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	baseCommit, err := resolveCommit(repo, baseRef)
	if err != nil {
		return nil, fmt.Errorf("resolve base ref %q: %w", baseRef, err)
	}

	targetCommit, err := resolveCommit(repo, targetRef)
	if err != nil {
		return nil, fmt.Errorf("resolve target ref %q: %w", targetRef, err)
	}

	patch, err := baseCommit.PatchContext(ctx, targetCommit)
	if err != nil {
		return nil, fmt.Errorf("compute patch: %w", err)
	}

	files := make([]domain.ChangedFile, 0, len(patch.FilePatches()))
	for _, fp := range patch.FilePatches() {
		path, oldPath, status := diffPathAndStatus(fp)

		patchText, err := encodeFilePatch(fp)
		if err != nil {
			return nil, fmt.Errorf("encode patch for %s: %w", path, err)
		}

		file := domain.ChangedFile{
			Path:     path,
			OldPath:  oldPath,
			Status:   status,
			Patch:    patchText,
			IsBinary: fp.IsBinary() || IsBinaryPatch(patchText),
		}
		file.Additions, file.Deletions = countChanges(fp)

		if status != domain.FileStatusRemoved && !file.IsBinary {
			content, err := fileContentAt(targetCommit, path)
			if err != nil {
				return nil, fmt.Errorf("read %s at %s: %w", path, targetRef, err)
			}
			file.Content = content
		}

		files = append(files, file)
	}

	return files, nil
}

// ResolveSHA returns the commit hash a ref points at.
func (e *Engine) ResolveSHA(ctx context.Context, ref string) (string, error) {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}
	commit, err := resolveCommit(repo, ref)
	if err != nil {
		return "", fmt.Errorf("resolve ref %q: %w", ref, err)
	}
	return commit.Hash.String(), nil
}

// CurrentBranch returns the name of the checked-out branch.
func (e *Engine) CurrentBranch(ctx context.Context) (string, error) {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	name := head.Name()
	if name.IsBranch() {
		return name.Short(), nil
	}
	return "", fmt.Errorf("detached HEAD")
}

// resolveCommit tries the ref as given, then as a local branch, then as a
// remote-tracking branch.
func resolveCommit(repo *goGit.Repository, ref string) (*object.Commit, error) {
	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}

	var lastErr error
	for _, candidate := range candidates {
		hash, err := repo.ResolveRevision(plumbing.Revision(candidate))
		if err != nil {
			lastErr = err
			continue
		}
		return repo.CommitObject(*hash)
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("unable to resolve ref %s", ref)
}

// diffPathAndStatus returns the path, old path (for renames), and status for
// a file patch. For renamed files, path is the new path.
func diffPathAndStatus(fp formatdiff.FilePatch) (path, oldPath, status string) {
	from, to := fp.Files()

	switch {
	case from == nil && to != nil:
		return to.Path(), "", domain.FileStatusAdded
	case from != nil && to == nil:
		return from.Path(), "", domain.FileStatusRemoved
	case from != nil && to != nil:
		if from.Path() != to.Path() {
			return to.Path(), from.Path(), domain.FileStatusRenamed
		}
		return to.Path(), "", domain.FileStatusModified
	default:
		return "", "", domain.FileStatusModified
	}
}

// IsBinaryPatch checks if a patch represents a binary file. Git uses
// "Binary files ... differ" or "GIT binary patch" markers for binary content.
func IsBinaryPatch(patchText string) bool {
	return strings.Contains(patchText, "Binary files") ||
		strings.Contains(patchText, "GIT binary patch")
}

func countChanges(fp formatdiff.FilePatch) (additions, deletions int) {
	for _, chunk := range fp.Chunks() {
		lines := strings.Count(chunk.Content(), "\n")
		if !strings.HasSuffix(chunk.Content(), "\n") && chunk.Content() != "" {
			lines++
		}
		switch chunk.Type() {
		case formatdiff.Add:
			additions += lines
		case formatdiff.Delete:
			deletions += lines
		}
	}
	return additions, deletions
}

func fileContentAt(commit *object.Commit, path string) (string, error) {
	file, err := commit.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return "", nil
		}
		return "", err
	}
	return file.Contents()
}

func encodeFilePatch(fp formatdiff.FilePatch) (string, error) {
	var buf bytes.Buffer
	encoder := formatdiff.NewUnifiedEncoder(&buf, formatdiff.DefaultContextLines)
	if err := encoder.Encode(singlePatch{fp: fp}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type singlePatch struct {
	fp formatdiff.FilePatch
}

func (s singlePatch) FilePatches() []formatdiff.FilePatch {
	return []formatdiff.FilePatch{s.fp}
}

func (s singlePatch) Message() string {
	return ""
}
