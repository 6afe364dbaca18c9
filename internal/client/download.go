package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/filesender/internal/fileset"
	"github.com/dmitrijs2005/filesender/internal/scrape"
	"github.com/dmitrijs2005/filesender/internal/transport"
)

// ListDownloads resolves a share token to the files it covers by scraping
// the transfer's download page. Downloads need no signing once a valid token
// is held.
func (c *Client) ListDownloads(ctx context.Context, token string) ([]scrape.DownloadFile, error) {
	root, err := c.siteRoot()
	if err != nil {
		return nil, err
	}
	req := transport.NewRequest(http.MethodGet, root+"/")
	req.Query.Set("s", "download")
	req.Query.Set("token", token)

	page, err := c.tr.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	return scrape.Files(bytes.NewReader(page))
}

// Download fetches every file behind a share token into outDir, with
// file-level fan-out bounded by the client's file limit. Output is flat:
// the server does not preserve the directory structure of nested uploads,
// so neither does the client.
func (c *Client) Download(ctx context.Context, token, outDir string) error {
	if err := fileset.EnsureDir(outDir); err != nil {
		return err
	}

	files, err := c.ListDownloads(ctx, token)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		c.logger.Warn(ctx, "no files listed for token")
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := c.files.Semaphore()
	for _, f := range files {
		g.Go(func() error {
			if sem != nil {
				if err := sem.Acquire(gctx, 1); err != nil {
					return err
				}
				defer sem.Release(1)
			}
			return c.DownloadFile(gctx, token, f, outDir)
		})
	}
	return g.Wait()
}

// DownloadFile streams one file's bytes into outDir. The filename comes
// from the descriptor, or failing that from the Content-Disposition header;
// absence of both is fatal for the file.
func (c *Client) DownloadFile(ctx context.Context, token string, f scrape.DownloadFile, outDir string) error {
	root, err := c.siteRoot()
	if err != nil {
		return err
	}
	req := transport.NewRequest(http.MethodGet, root+"/download.php")
	req.Query.Set("files_ids", strconv.FormatInt(f.ID, 10))
	req.Query.Set("token", token)

	resp, err := c.tr.Stream(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	name := f.Name
	if name == "" {
		name = dispositionFilename(resp.Header.Get("Content-Disposition"))
	}
	if name == "" {
		return fmt.Errorf("no filename found for file %d", f.ID)
	}
	// Server-supplied names never escape the output directory.
	name = filepath.Base(name)

	dst := filepath.Join(outDir, name)
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	c.logger.Debug(ctx, "file downloaded", "file", name, "bytes", n)
	return out.Close()
}

func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}
