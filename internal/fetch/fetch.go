package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"imgrab/internal/filename"
)

// Fetcher downloads single resources into an output directory.
type Fetcher struct {
	client *http.Client
	log    zerolog.Logger
}

func NewFetcher(client *http.Client, log zerolog.Logger) *Fetcher {
	return &Fetcher{client: client, log: log}
}

// FetchOne retrieves url, verifies the response is an image, and streams
// the body to a collision-safe file under outDir. It returns the final
// filename. On write failure a truncated file may remain on disk.
func (f *Fetcher) FetchOne(ctx context.Context, rawURL, outDir string) (string, error) {
	f.log.Debug().Str("url", rawURL).Msg("requesting")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	contentType := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.TrimSpace(contentType)
	mediaType, subtype, _ := strings.Cut(contentType, "/")
	if mediaType != "image" || subtype == "" {
		return "", &ContentTypeError{URL: rawURL, ContentType: contentType}
	}

	name, err := filename.FromContentDisposition(resp.Header.Get("Content-Disposition"), subtype)
	if err != nil {
		f.log.Debug().Str("url", rawURL).Err(err).Msg("deriving filename from url")
		name = filename.FromURL(rawURL, subtype)
	}
	name = filename.Sanitize(name)

	target, ok := filename.ResolvePath(outDir, name)
	if !ok {
		f.log.Warn().Str("path", target).Msg("rename attempts exhausted, reusing last candidate")
	}

	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", target, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", target, err)
	}

	saved := filepath.Base(target)
	f.log.Debug().Str("file", saved).Msg("saved")
	return saved, nil
}
