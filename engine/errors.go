package engine

import (
	"errors"
	"fmt"
	"io/fs"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/format/packfile"
	"github.com/go-git/go-git/v5/plumbing/object"
	platformerrors "github.com/jmgilman/go/errors"
)

// Kind is the engine failure taxonomy carried on PlatformErrors.
type Kind string

const (
	// KindNotARepository means the path holds no repository.
	KindNotARepository Kind = "not_a_repository"
	// KindLocked means another process holds the repository lock.
	KindLocked Kind = "locked"
	// KindCorrupted means the object store or index could not be decoded.
	KindCorrupted Kind = "corrupted"
	// KindIO means a filesystem operation failed.
	KindIO Kind = "io"
)

// kindKey is the PlatformError context field holding the Kind.
const kindKey = "kind"

var kindCodes = map[Kind]platformerrors.ErrorCode{
	KindNotARepository: platformerrors.CodeNotFound,
	KindLocked:         platformerrors.CodeConflict,
	KindCorrupted:      platformerrors.CodeInternal,
	KindIO:             platformerrors.CodeInternal,
}

// NewError builds an engine error of the given kind. cause may be nil.
func NewError(kind Kind, cause error, message string) error {
	code := kindCodes[kind]
	ctx := map[string]interface{}{kindKey: kind}

	var err platformerrors.PlatformError
	if cause == nil {
		err = platformerrors.WithContextMap(platformerrors.New(code, message), ctx)
	} else {
		err = platformerrors.WrapWithContext(cause, code, message, ctx)
	}

	if kind == KindLocked {
		return platformerrors.WithClassification(err, platformerrors.ClassificationRetryable)
	}
	return platformerrors.WithClassification(err, platformerrors.ClassificationPermanent)
}

// KindOf returns the engine failure kind of err, if it has one.
func KindOf(err error) (Kind, bool) {
	var pe platformerrors.PlatformError
	if !errors.As(err, &pe) {
		return "", false
	}
	kind, ok := pe.Context()[kindKey].(Kind)
	return kind, ok
}

// Wrap classifies err and prefixes it with context. It preserves the
// original error chain for errors.Is/errors.As. If err is nil, returns nil.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, Classify(err))
}

// Classify maps go-git and filesystem errors to platform errors. Errors that
// are already PlatformErrors and unknown errors are returned unchanged.
//
//nolint:gocyclo,cyclop // each case is a simple mapping
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var pe platformerrors.PlatformError
	if errors.As(err, &pe) {
		return err
	}

	// Not a repository
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return NewError(KindNotARepository, err, "repository does not exist")
	}

	// Store corruption
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return NewError(KindCorrupted, err, "object not found")
	}
	if errors.Is(err, plumbing.ErrInvalidType) {
		return NewError(KindCorrupted, err, "invalid object type")
	}
	var packErr *packfile.Error
	if errors.As(err, &packErr) {
		return NewError(KindCorrupted, err, "malformed packfile")
	}
	if errors.Is(err, packfile.ErrInvalidDelta) {
		return NewError(KindCorrupted, err, "invalid delta")
	}
	if errors.Is(err, index.ErrMalformedSignature) ||
		errors.Is(err, index.ErrInvalidChecksum) ||
		errors.Is(err, index.ErrUnsupportedVersion) {
		return NewError(KindCorrupted, err, "malformed index")
	}
	if errors.Is(err, object.ErrUnsupportedObject) {
		return NewError(KindCorrupted, err, "unsupported object")
	}

	// Filesystem
	if errors.Is(err, fs.ErrPermission) {
		return NewError(KindIO, err, "permission denied")
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return NewError(KindIO, err, "filesystem operation failed")
	}

	// Reference not found
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "reference not found")
	}

	if errors.Is(err, index.ErrEntryNotFound) {
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "path not found in index")
	}

	// Invalid input
	if errors.Is(err, gogit.ErrMissingAuthor) {
		return platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "author is required")
	}
	if errors.Is(err, gogit.ErrIsBareRepository) {
		return platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "repository has no worktree")
	}

	// Empty commit
	if errors.Is(err, gogit.ErrEmptyCommit) {
		return platformerrors.Wrap(err, platformerrors.CodeConflict, "cannot create empty commit: nothing staged")
	}

	return err
}
