package drive

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/connectors/google"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// Client talks to the Drive API on behalf of the document ports.
type Client struct {
	svc     *drive.Service
	limiter *google.RateLimiter
	cfg     Config

	mu      sync.Mutex
	folders map[string]string // folder name -> ID
}

var (
	_ driven.DocumentSearcher = (*Client)(nil)
	_ driven.CommentReader    = (*Client)(nil)
	_ driven.DocumentExporter = (*Client)(nil)
	_ driven.SignatureAssets  = (*Client)(nil)
)

// New creates a Drive client.
func New(svc *drive.Service, cfg Config) *Client {
	return &Client{
		svc:     svc,
		limiter: google.NewRateLimiter(google.ServiceDrive),
		cfg:     cfg.withDefaults(),
		folders: make(map[string]string),
	}
}

// Search implements driven.DocumentSearcher.
func (c *Client) Search(ctx context.Context, q domain.SearchQuery) ([]domain.DocumentCandidate, error) {
	files, err := c.listFiles(ctx, NameQuery(q.Terms, q.MimeTypes), "")
	if err != nil {
		return nil, fmt.Errorf("search %v: %w", q.Terms, err)
	}
	out := make([]domain.DocumentCandidate, len(files))
	for i, f := range files {
		out[i] = fileToCandidate(f)
	}
	return out, nil
}

// ListAll implements driven.DocumentSearcher.
func (c *Client) ListAll(ctx context.Context, mimeTypes []string) ([]domain.DocumentCandidate, error) {
	files, err := c.listFiles(ctx, NameQuery(nil, mimeTypes), "")
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]domain.DocumentCandidate, len(files))
	for i, f := range files {
		out[i] = fileToCandidate(f)
	}
	return out, nil
}

// ListComments implements driven.CommentReader. Replies are flattened
// after their parent comment.
func (c *Client) ListComments(ctx context.Context, fileID string) ([]domain.CommentEntry, error) {
	var all []*drive.Comment
	pageToken := ""
	for {
		var list *drive.CommentList
		err := c.limiter.Do(ctx, func() error {
			call := c.svc.Comments.List(fileID).
				Fields(commentFields).
				PageSize(100).
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			var err error
			list, err = call.Do()
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("list comments %s: %w", fileID, err)
		}
		all = append(all, list.Comments...)
		if list.NextPageToken == "" {
			break
		}
		pageToken = list.NextPageToken
	}

	logger.L().Debug("listed comments", zap.String("file", fileID), zap.Int("count", len(all)))
	return flattenComments(all), nil
}

// ListNoteDocuments returns the Google Docs in the notes folder.
func (c *Client) ListNoteDocuments(ctx context.Context) ([]domain.SignableDocument, error) {
	folderID, err := c.folderID(ctx, c.cfg.NotesFolder)
	if err != nil {
		return nil, err
	}
	files, err := c.listFiles(ctx, ChildrenQuery(folderID, []string{domain.MimeTypeGoogleDoc}), "modifiedTime desc")
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.cfg.NotesFolder, err)
	}
	out := make([]domain.SignableDocument, len(files))
	for i, f := range files {
		out[i] = fileToSignable(f)
	}
	return out, nil
}

// FindSignature implements driven.SignatureAssets.
func (c *Client) FindSignature(ctx context.Context, assetName string) (string, error) {
	folderID, err := c.folderID(ctx, c.cfg.SignaturesFolder)
	if err != nil {
		return "", err
	}
	q := fmt.Sprintf("name = '%s' and %s", escape(assetName), ChildrenQuery(folderID, nil))
	files, err := c.listFiles(ctx, q, "")
	if err != nil {
		return "", fmt.Errorf("find signature %s: %w", assetName, err)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("signature %s: %w", assetName, domain.ErrNotFound)
	}
	return SignatureURI(files[0].Id), nil
}

// ExportPDF implements driven.DocumentExporter.
func (c *Client) ExportPDF(ctx context.Context, fileID string) (io.ReadCloser, error) {
	var body io.ReadCloser
	err := c.limiter.Do(ctx, func() error {
		resp, err := c.svc.Files.Export(fileID, domain.MimeTypePDF).Context(ctx).Download()
		if err != nil {
			return err
		}
		body = resp.Body
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", fileID, err)
	}
	return body, nil
}

// Trash implements driven.DocumentExporter.
func (c *Client) Trash(ctx context.Context, fileID string) error {
	err := c.limiter.Do(ctx, func() error {
		_, err := c.svc.Files.Update(fileID, &drive.File{Trashed: true}).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("trash %s: %w", fileID, err)
	}
	return nil
}

// folderID resolves a folder name to its ID, caching the result.
func (c *Client) folderID(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	id, ok := c.folders[name]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	files, err := c.listFiles(ctx, FolderQuery(name), "")
	if err != nil {
		return "", fmt.Errorf("find folder %q: %w", name, err)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("folder %q: %w", name, domain.ErrNotFound)
	}
	if len(files) > 1 {
		logger.L().Warn("several folders share a name, using the first",
			zap.String("folder", name), zap.Int("count", len(files)))
	}

	c.mu.Lock()
	c.folders[name] = files[0].Id
	c.mu.Unlock()
	return files[0].Id, nil
}

// listFiles runs a files.list query across all pages. orderBy may be empty.
func (c *Client) listFiles(ctx context.Context, q, orderBy string) ([]*drive.File, error) {
	var all []*drive.File
	pageToken := ""
	for {
		var list *drive.FileList
		err := c.limiter.Do(ctx, func() error {
			call := c.svc.Files.List().
				Q(q).
				Fields(fileFields).
				PageSize(c.cfg.PageSize).
				SupportsAllDrives(true).
				IncludeItemsFromAllDrives(true).
				Context(ctx)
			if orderBy != "" {
				call = call.OrderBy(orderBy)
			}
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			var err error
			list, err = call.Do()
			return err
		})
		if err != nil {
			return nil, err
		}
		all = append(all, list.Files...)
		if list.NextPageToken == "" {
			return all, nil
		}
		pageToken = list.NextPageToken
	}
}
