package git

import (
	"errors"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	ferrors "git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

// ReadRepoHead returns the HEAD commit hash of the git working tree containing path.
// The repository root is found by walking up from path. A path outside any git
// repository, or a repository without commits, yields "" and no error.
func ReadRepoHead(path string) (string, error) {
	repository, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return "", nil
	}
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryGit, "failed to open repository").
			WithContext("path", path).
			Build()
	}

	ref, err := repository.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", nil
	}
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryGit, "failed to resolve HEAD").
			WithContext("path", path).
			Build()
	}
	return ref.Hash().String(), nil
}

// ShortHash trims a commit hash for log output.
func ShortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
