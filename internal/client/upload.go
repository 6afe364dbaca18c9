package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/filesender/internal/api"
	"github.com/dmitrijs2005/filesender/internal/chunker"
	"github.com/dmitrijs2005/filesender/internal/fileset"
)

// TransferOptions are the transfer-level settings for an upload. Recipients
// and From may stay empty when uploading through a guest voucher.
type TransferOptions struct {
	From       string
	Recipients []string
	Subject    string
	Message    string
	// Expires is a Unix timestamp; 0 leaves the server default.
	Expires int64
	Options []string
}

// Upload runs the whole upload workflow: flatten the input paths, register
// the transfer, upload every file's chunks with bounded fan-out, mark each
// file and finally the transfer complete. On the first terminal failure all
// remaining work for the transfer is abandoned; partially uploaded files are
// left incomplete and never rolled back.
func (c *Client) Upload(ctx context.Context, paths []string, opts TransferOptions) (*api.Transfer, error) {
	if err := c.Prepare(ctx); err != nil {
		return nil, err
	}

	manifest, err := fileset.Flatten(paths)
	if err != nil {
		return nil, err
	}
	if len(manifest) == 0 {
		return nil, fmt.Errorf("nothing to upload in %v", paths)
	}

	files, cidToPath, err := buildManifest(manifest)
	if err != nil {
		return nil, err
	}

	transfer, err := c.CreateTransfer(ctx, &api.TransferRequest{
		Files:      files,
		Recipients: opts.Recipients,
		From:       opts.From,
		Subject:    opts.Subject,
		Message:    opts.Message,
		Expires:    opts.Expires,
		Options:    opts.Options,
	})
	if err != nil {
		return nil, err
	}

	// The round-trip token is fixed here, before any fan-out, and passed
	// down the call chain; concurrent tasks never mutate shared client
	// state.
	token := transfer.RoundTripToken
	log := c.logger.With("transfer_id", transfer.ID)
	log.Info(ctx, "transfer created", "files", len(transfer.Files), "chunk_size", c.chunkSize)

	g, gctx := errgroup.WithContext(ctx)
	sem := c.files.Semaphore()
	for _, fh := range transfer.Files {
		path, ok := localPath(fh, cidToPath, manifest)
		if !ok {
			// The server may add placeholder entries (e.g. for folders)
			// that have no local backing path.
			log.Warn(ctx, "skipping manifest entry with no local file", "name", fh.Name)
			continue
		}
		g.Go(func() error {
			if sem != nil {
				if err := sem.Acquire(gctx, 1); err != nil {
					return err
				}
				defer sem.Release(1)
			}
			return c.uploadFile(gctx, fh, path, token)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Every file handle has reported complete; only now may the transfer be
	// completed.
	done, err := c.UpdateTransfer(ctx, transfer.ID, token, api.TransferUpdate{Complete: true})
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "transfer complete")
	return done, nil
}

// uploadFile streams one file's chunks with bounded per-file fan-out, then
// marks the file complete. Chunks may be accepted by the server in any
// order; completion is signaled explicitly, never inferred from byte count.
func (c *Client) uploadFile(ctx context.Context, fh api.FileHandle, path, token string) error {
	log := c.logger.With("file", fh.Name)

	r, err := chunker.New(path, c.chunkSize)
	if err != nil {
		return err
	}
	defer r.Close()

	g, gctx := errgroup.WithContext(ctx)
	sem := c.chunks.Semaphore()

	var readErr error
	for gctx.Err() == nil {
		// Acquire before reading: at most chunk-limit payloads exist in
		// memory for this file at any moment.
		if sem != nil {
			if err := sem.Acquire(gctx, 1); err != nil {
				break
			}
		}
		ch, err := r.Next()
		if err != nil {
			if sem != nil {
				sem.Release(1)
			}
			if err != io.EOF {
				readErr = err
			}
			break
		}
		g.Go(func() error {
			defer func() {
				if sem != nil {
					sem.Release(1)
				}
			}()
			log.Debug(gctx, "uploading chunk", "offset", ch.Offset, "size", len(ch.Data))
			return c.uploadChunk(gctx, fh, token, ch)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if readErr != nil {
		return readErr
	}

	if err := c.UpdateFile(ctx, fh, token, api.FileUpdate{Complete: true}); err != nil {
		return err
	}
	log.Debug(ctx, "file complete", "size", fh.Size)
	return nil
}

// buildManifest turns the name→path map into the request manifest, stamping
// each entry with a correlation id so server-returned handles can be matched
// back to local paths even if the server rewrites names.
func buildManifest(manifest map[string]string) ([]api.File, map[string]string, error) {
	names := make([]string, 0, len(manifest))
	for name := range manifest {
		names = append(names, name)
	}
	sort.Strings(names)

	files := make([]api.File, 0, len(names))
	cidToPath := make(map[string]string, len(names))
	for _, name := range names {
		path := manifest[name]
		info, err := os.Stat(path)
		if err != nil {
			return nil, nil, fmt.Errorf("stat %s: %w", path, err)
		}
		cid := uuid.NewString()
		files = append(files, api.File{Name: name, Size: info.Size(), Cid: cid})
		cidToPath[cid] = path
	}
	return files, cidToPath, nil
}

func localPath(fh api.FileHandle, cidToPath, manifest map[string]string) (string, bool) {
	if fh.Cid != "" {
		if path, ok := cidToPath[fh.Cid]; ok {
			return path, true
		}
	}
	path, ok := manifest[fh.Name]
	return path, ok
}
