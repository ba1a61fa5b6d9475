package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"vixbot/internal/httputil"
	"vixbot/internal/media"
)

// DynamicResolver resolves a page through an external JavaScript-capable
// rendering service. It is consulted only after every static strategy has
// come up empty.
type DynamicResolver interface {
	Resolve(ctx context.Context, pageURL string) ([]media.Candidate, error)
}

// RenderService is the HTTP client for the dynamic-rendering collaborator.
// The service accepts a page URL and returns the sources its headless
// browser observed.
type RenderService struct {
	base   string
	client *http.Client
}

// NewRenderService creates a client for the resolver at base
// (e.g. "http://127.0.0.1:3001"). Request deadlines come from the caller's
// context.
func NewRenderService(base string) *RenderService {
	return &RenderService{
		base:   strings.TrimRight(base, "/"),
		client: httputil.NewClient(0),
	}
}

// Resolve calls GET {base}/resolve?url=… and maps the response sources to
// candidates. Sources without a label default to "dynamic".
func (r *RenderService) Resolve(ctx context.Context, pageURL string) ([]media.Candidate, error) {
	endpoint := fmt.Sprintf("%s/resolve?url=%s", r.base, url.QueryEscape(pageURL))

	body, err := httputil.FetchText(ctx, r.client, endpoint, "")
	if err != nil {
		return nil, fmt.Errorf("dynamic resolver: %w", err)
	}

	var payload struct {
		Sources []struct {
			Label string `json:"label"`
			URL   string `json:"url"`
		} `json:"sources"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("dynamic resolver response: %w", err)
	}

	var out []media.Candidate
	for _, s := range payload.Sources {
		if s.URL == "" {
			continue
		}
		label := s.Label
		if label == "" {
			label = "dynamic"
		}
		out = append(out, media.Candidate{URL: s.URL, Label: label})
	}
	return out, nil
}
