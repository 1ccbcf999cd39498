// Package imageproxy fetches remote images, optionally resizes them, and
// re-encodes them as JPEG. Results are cached in-process so repeat
// requests for the same (url, width, height, quality) tuple skip the
// upstream fetch.
package imageproxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/pokeromcodex/server/internal/cache"
)

const (
	defaultQuality = 80
	maxDimension   = 4096
	maxBodyBytes   = 16 << 20
)

// ErrBadURL is returned for requests the proxy refuses before any fetch:
// empty, unparseable, non-HTTP, or off-allowlist URLs.
var ErrBadURL = errors.New("invalid image url")

// Request describes one proxy call. Width/Height of zero mean "keep".
type Request struct {
	URL     string
	Width   int
	Height  int
	Quality int
}

// Image is an encoded proxy result.
type Image struct {
	Data        []byte
	ContentType string
}

// Proxy validates, fetches, resizes and caches remote images.
type Proxy struct {
	client       *http.Client
	log          *zap.Logger
	allowedHosts map[string]bool
	results      *cache.TTL[Image]
}

// New creates a proxy. allowedHosts limits which upstream hosts may be
// fetched; an empty list allows any host.
func New(client *http.Client, log *zap.Logger, allowedHosts []string, ttl time.Duration) *Proxy {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	hosts := make(map[string]bool, len(allowedHosts))
	for _, h := range allowedHosts {
		hosts[h] = true
	}
	return &Proxy{
		client:       client,
		log:          log,
		allowedHosts: hosts,
		results:      cache.NewTTL[Image](ttl),
	}
}

// Get returns the (possibly resized) image for req, from cache when
// fresh.
func (p *Proxy) Get(ctx context.Context, req Request) (*Image, error) {
	if err := p.validate(req); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s|%d|%d|%d", req.URL, req.Width, req.Height, req.Quality)
	if img, ok := p.results.Get(key); ok {
		return &img, nil
	}

	img, err := p.fetch(ctx, req)
	if err != nil {
		p.log.Warn("image proxy fetch failed", zap.String("url", req.URL), zap.Error(err))
		return nil, err
	}

	p.results.Set(key, *img)
	return img, nil
}

func (p *Proxy) validate(req Request) error {
	if req.URL == "" {
		return ErrBadURL
	}
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrBadURL
	}
	if len(p.allowedHosts) > 0 && !p.allowedHosts[u.Hostname()] {
		return fmt.Errorf("%w: host %q not allowed", ErrBadURL, u.Hostname())
	}
	if req.Width < 0 || req.Height < 0 || req.Width > maxDimension || req.Height > maxDimension {
		return fmt.Errorf("%w: dimensions out of range", ErrBadURL)
	}
	return nil
}

func (p *Proxy) fetch(ctx context.Context, req Request) (*Image, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: upstream status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	// Pass through untouched when no transformation was requested.
	if req.Width == 0 && req.Height == 0 && req.Quality == 0 {
		ct := resp.Header.Get("Content-Type")
		if ct == "" {
			ct = http.DetectContentType(body)
		}
		return &Image{Data: body, ContentType: ct}, nil
	}

	src, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	out := resize(src, req.Width, req.Height)

	quality := req.Quality
	if quality <= 0 || quality > 100 {
		quality = defaultQuality
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return &Image{Data: buf.Bytes(), ContentType: "image/jpeg"}, nil
}

// resize scales src to the requested box. One zero dimension preserves
// aspect ratio; both set crops to fill.
func resize(src image.Image, width, height int) image.Image {
	switch {
	case width == 0 && height == 0:
		return src
	case width > 0 && height > 0:
		return imaging.Fill(src, width, height, imaging.Center, imaging.Lanczos)
	default:
		return imaging.Resize(src, width, height, imaging.Lanczos)
	}
}
