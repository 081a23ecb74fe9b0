package dropbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"go.uber.org/zap"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// filesAPI is the subset of files.Client the archive uses.
type filesAPI interface {
	ListFolder(arg *files.ListFolderArg) (*files.ListFolderResult, error)
	ListFolderContinue(arg *files.ListFolderContinueArg) (*files.ListFolderResult, error)
	GetMetadata(arg *files.GetMetadataArg) (files.IsMetadata, error)
	CreateFolderV2(arg *files.CreateFolderArg) (*files.CreateFolderResult, error)
	MoveV2(arg *files.RelocationArg) (*files.RelocationResult, error)
	Upload(arg *files.UploadArg, content io.Reader) (*files.FileMetadata, error)
}

// Archive implements driven.Archive on Dropbox.
type Archive struct {
	api filesAPI
}

var _ driven.Archive = (*Archive)(nil)

// New creates a Dropbox archive authenticated with an access token.
func New(token string) (*Archive, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: dropbox access token is required", domain.ErrConfigInvalid)
	}
	cfg := dropbox.Config{Token: token, LogLevel: dropbox.LogOff}
	return &Archive{api: files.New(cfg)}, nil
}

// List implements driven.Archive.
func (a *Archive) List(ctx context.Context, dir string) ([]domain.ArchiveEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := a.api.ListFolder(files.NewListFolderArg(apiPath(dir)))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, WrapError(err))
	}

	var out []domain.ArchiveEntry
	for {
		for _, m := range res.Entries {
			if e, ok := toEntry(m); ok {
				out = append(out, e)
			}
		}
		if !res.HasMore {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err = a.api.ListFolderContinue(files.NewListFolderContinueArg(res.Cursor))
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", dir, WrapError(err))
		}
	}

	logger.L().Debug("listed dropbox folder", zap.String("path", dir), zap.Int("entries", len(out)))
	return out, nil
}

// Exists implements driven.Archive.
func (a *Archive) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := a.api.GetMetadata(files.NewGetMetadataArg(apiPath(p)))
	if err == nil {
		return true, nil
	}
	if err = WrapError(err); errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", p, err)
}

// CreateFolder implements driven.Archive. An existing folder is not an error.
func (a *Archive) CreateFolder(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := a.api.CreateFolderV2(files.NewCreateFolderArg(apiPath(p)))
	if err = WrapError(err); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
		return fmt.Errorf("create folder %s: %w", p, err)
	}
	return nil
}

// Move implements driven.Archive.
func (a *Archive) Move(ctx context.Context, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := a.api.MoveV2(files.NewRelocationArg(apiPath(from), apiPath(to))); err != nil {
		return fmt.Errorf("move %s: %w", from, WrapError(err))
	}
	return nil
}

// Upload implements driven.Archive. Existing files are never overwritten.
func (a *Archive) Upload(ctx context.Context, p string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := a.api.Upload(files.NewUploadArg(apiPath(p)), r); err != nil {
		return fmt.Errorf("upload %s: %w", p, WrapError(err))
	}
	return nil
}

func toEntry(m files.IsMetadata) (domain.ArchiveEntry, bool) {
	switch e := m.(type) {
	case *files.FileMetadata:
		return domain.ArchiveEntry{
			Name:     e.Name,
			Path:     e.PathDisplay,
			Size:     int64(e.Size),
			Modified: e.ServerModified,
		}, true
	case *files.FolderMetadata:
		return domain.ArchiveEntry{
			Name:     e.Name,
			Path:     e.PathDisplay,
			IsFolder: true,
		}, true
	default:
		return domain.ArchiveEntry{}, false
	}
}

// apiPath cleans p into the form the API expects. The root is "".
func apiPath(p string) string {
	p = path.Clean("/" + p)
	if p == "/" {
		return ""
	}
	return p
}
