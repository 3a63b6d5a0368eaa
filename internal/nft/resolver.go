// Package nft resolves NFT metadata URIs to renderable image URLs by
// racing public IPFS gateways, with process-wide memoization keyed on the
// original URI.
package nft

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/NileDex/moveportfolio-sub000/internal/indexer"
	"golang.org/x/sync/singleflight"
)

const (
	// candidateTimeout bounds each gateway attempt independently.
	candidateTimeout = 3 * time.Second

	// batchSize bounds concurrent resolutions during a gallery fetch.
	batchSize = 10
)

type resolved struct {
	url string
	ok  bool
}

// Resolver resolves metadata URIs to image URLs. Results are memoized for
// the resolver's lifetime; a gallery remount re-reads the memo instead of
// refetching. Construct once at startup.
type Resolver struct {
	gateways []string
	client   *http.Client

	mu    sync.RWMutex
	memo  map[string]resolved
	group singleflight.Group
}

// NewResolver creates a resolver racing the given gateway base URLs, in
// order of expected speed.
func NewResolver(gateways []string) *Resolver {
	return &Resolver{
		gateways: gateways,
		client:   &http.Client{Timeout: candidateTimeout},
		memo:     make(map[string]resolved),
	}
}

// Candidates expands uri into the ordered list of HTTP URLs to try.
// ipfs:// references map to every gateway, http(s) URLs map to themselves,
// anything else is unresolvable.
func (r *Resolver) Candidates(uri string) []string {
	switch {
	case strings.HasPrefix(uri, "ipfs://"):
		hash := strings.TrimPrefix(uri, "ipfs://")
		urls := make([]string, 0, len(r.gateways))
		for _, g := range r.gateways {
			urls = append(urls, g+hash)
		}
		return urls
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return []string{uri}
	default:
		return nil
	}
}

// Resolve returns the image URL behind the metadata uri. The first gateway
// to answer with parseable metadata carrying an image field wins. All
// candidates failing yields ("", false): no image, not an error.
func (r *Resolver) Resolve(ctx context.Context, uri string) (string, bool) {
	if uri == "" {
		return "", false
	}

	r.mu.RLock()
	res, hit := r.memo[uri]
	r.mu.RUnlock()
	if hit {
		return res.url, res.ok
	}

	v, _, _ := r.group.Do(uri, func() (any, error) {
		r.mu.RLock()
		res, hit := r.memo[uri]
		r.mu.RUnlock()
		if hit {
			return res, nil
		}

		res = r.race(ctx, r.Candidates(uri))

		// A caller-aborted race says nothing about the gateways; leave
		// the memo alone so the next caller retries.
		if !res.ok && ctx.Err() != nil {
			return res, nil
		}

		// Negative results are memoized too: a URI with no image stays
		// imageless for the session.
		r.mu.Lock()
		r.memo[uri] = res
		r.mu.Unlock()
		return res, nil
	})

	res = v.(resolved)
	return res.url, res.ok
}

// ResolveMany resolves the image URL for each ownership row, keyed by
// token_data_id. Resolutions run in batches to bound concurrent network
// load; already-memoized URIs cost nothing.
func (r *Resolver) ResolveMany(ctx context.Context, items []indexer.NftOwnership) map[string]string {
	out := make(map[string]string, len(items))
	var outMu sync.Mutex

	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for _, item := range items[start:end] {
			wg.Add(1)
			go func(item indexer.NftOwnership) {
				defer wg.Done()
				if url, ok := r.Resolve(ctx, item.TokenURI); ok {
					outMu.Lock()
					out[item.TokenDataID] = url
					outMu.Unlock()
				}
			}(item)
		}
		wg.Wait()
	}
	return out
}

// race fetches all candidates concurrently and honors the first success.
// Losing in-flight requests are left to finish and be discarded.
func (r *Resolver) race(ctx context.Context, candidates []string) resolved {
	if len(candidates) == 0 {
		return resolved{}
	}

	ch := make(chan resolved, len(candidates))
	for _, cand := range candidates {
		go func(cand string) {
			url, ok := r.fetchImageURL(ctx, cand)
			ch <- resolved{url: url, ok: ok}
		}(cand)
	}

	for range candidates {
		select {
		case res := <-ch:
			if res.ok {
				return res
			}
		case <-ctx.Done():
			return resolved{}
		}
	}
	return resolved{}
}

// metadata is the slice of an NFT metadata document the resolver reads.
type metadata struct {
	Image        string `json:"image"`
	ImageURI     string `json:"image_uri"`
	ImageUri     string `json:"imageUri"`
	AnimationURL string `json:"animation_url"`
}

func (m metadata) imageField() string {
	for _, v := range []string{m.Image, m.ImageURI, m.ImageUri, m.AnimationURL} {
		if v != "" {
			return v
		}
	}
	return ""
}

// fetchImageURL fetches one candidate metadata URL under its own timeout
// and extracts the image URL.
func (r *Resolver) fetchImageURL(ctx context.Context, url string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, candidateTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", false
	}

	var meta metadata
	if err := json.Unmarshal(body, &meta); err != nil {
		slog.Debug("metadata not parseable", "url", url)
		return "", false
	}

	img := meta.imageField()
	if img == "" {
		return "", false
	}

	// An image field that is itself an IPFS reference resolves through the
	// first (fastest) gateway.
	if strings.HasPrefix(img, "ipfs://") {
		if cands := r.Candidates(img); len(cands) > 0 {
			return cands[0], true
		}
		return "", false
	}
	return img, true
}
