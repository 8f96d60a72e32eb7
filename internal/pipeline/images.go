package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"mp4creator/internal/directive"
	"mp4creator/internal/logging"
)

// maxImageBytes bounds a single downloaded asset.
const maxImageBytes = 64 << 20

// imageSources lists the URLs to download for script, in order: search hits
// for keyword markers first, then direct URL markers. Failed or empty
// searches are skipped with a warning.
func (p *Pipeline) imageSources(ctx context.Context, logger *slog.Logger, script string) []string {
	queries := dedupe(append(directive.SearchKeywords(script),
		directive.ForeignValues(script, directive.TagGiphy, directive.TagGoogle)...))
	direct := directive.ForeignValues(script, directive.TagGiphyURL, directive.TagGoogleURL)

	var sources []string
	if len(queries) > 0 && (p.images == nil || !p.images.Enabled()) {
		logging.WarnWithContext(logger, "image search disabled", "image_search_disabled",
			logging.Int("keywords", len(queries)),
			logging.String(logging.FieldImpact, "keyword markers ignored; background color used"))
		queries = nil
	}
	for _, query := range queries {
		if ctx.Err() != nil {
			return sources
		}
		hits, err := p.images.Search(ctx, query)
		if err != nil {
			logging.WarnWithContext(logger, "image search failed", "asset_skipped",
				logging.String("query", query), logging.Error(err))
			continue
		}
		if len(hits) == 0 || strings.TrimSpace(hits[0].URL) == "" {
			logging.WarnWithContext(logger, "image search returned nothing", "asset_skipped",
				logging.String("query", query))
			continue
		}
		sources = append(sources, hits[0].URL)
	}
	return append(sources, direct...)
}

// downloadImages fetches sources into dir and returns the local paths of
// the ones that arrived. Order is preserved.
func (p *Pipeline) downloadImages(ctx context.Context, logger *slog.Logger, dir string, sources []string) []string {
	paths := make([]string, 0, len(sources))
	for i, source := range sources {
		if ctx.Err() != nil {
			break
		}
		target := filepath.Join(dir, fmt.Sprintf("img-%03d%s", i, imageExtension(source)))
		if err := p.download(ctx, source, target); err != nil {
			_ = os.Remove(target)
			logging.WarnWithContext(logger, "image download failed", "asset_skipped",
				logging.String("url", source), logging.Error(err))
			continue
		}
		paths = append(paths, target)
	}
	return paths
}

func (p *Pipeline) download(ctx context.Context, source, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := p.fetcher.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	n, err := io.Copy(file, io.LimitReader(resp.Body, maxImageBytes+1))
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("empty body")
	}
	if n > maxImageBytes {
		return fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	return nil
}

func imageExtension(source string) string {
	u, err := url.Parse(source)
	if err != nil {
		return ".gif"
	}
	switch ext := strings.ToLower(path.Ext(u.Path)); ext {
	case ".gif", ".png", ".jpg", ".jpeg", ".webp":
		return ext
	default:
		return ".gif"
	}
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
