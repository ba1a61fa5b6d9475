// Package resolve implements the stream resolution engine: a layered,
// best-effort pipeline that turns a page believed to embed a video into a
// deduplicated list of playable stream candidates.
package resolve

import (
	"context"
	"net/http"
	"time"

	"vixbot/internal/httputil"
)

// Fetcher retrieves raw page text with a bounded timeout. It is the leaf
// component of the pipeline: callers get a body or an error, never a hang.
type Fetcher struct {
	client  *http.Client
	referer string
}

// NewFetcher creates a Fetcher. The referer is attached to every request;
// pass "" for none. Deadlines come from per-call timeouts, not the client.
func NewFetcher(referer string) *Fetcher {
	return &Fetcher{
		client:  httputil.NewClient(0),
		referer: referer,
	}
}

// Fetch retrieves the body of url, giving up after timeout. Network errors,
// timeouts and non-2xx statuses are all reported the same way: an error the
// caller is expected to absorb.
func (f *Fetcher) Fetch(ctx context.Context, url string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return httputil.FetchText(ctx, f.client, url, f.referer)
}
