package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"vixbot/internal/httputil"
	"vixbot/internal/media"
)

// ErrNoCandidates is returned when every stage of the pipeline, including
// the dynamic fallback, came up empty. It is the only resolution failure
// surfaced to callers.
var ErrNoCandidates = errors.New("no stream candidates found")

// Timeouts bounds every network operation the engine performs. The dynamic
// fallback gets a longer budget than any static scrape.
type Timeouts struct {
	Page     time.Duration
	Endpoint time.Duration
	Iframe   time.Duration
	Sources  time.Duration
	Fallback time.Duration
}

// DefaultTimeouts returns the production timeout set.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Page:     12 * time.Second,
		Endpoint: 10 * time.Second,
		Iframe:   10 * time.Second,
		Sources:  8 * time.Second,
		Fallback: 40 * time.Second,
	}
}

// Engine runs the multi-stage resolution pipeline. Stages execute strictly
// in sequence; every sub-attempt failure is absorbed and logged, never
// propagated, so the pipeline degrades rather than aborts.
type Engine struct {
	fetcher  *Fetcher
	resolver DynamicResolver // nil disables the dynamic fallback
	timeouts Timeouts
}

// NewEngine creates an Engine with default timeouts.
func NewEngine(fetcher *Fetcher, resolver DynamicResolver) *Engine {
	return &Engine{
		fetcher:  fetcher,
		resolver: resolver,
		timeouts: DefaultTimeouts(),
	}
}

// WithTimeouts overrides the engine's timeouts and returns the engine.
func (e *Engine) WithTimeouts(t Timeouts) *Engine {
	e.timeouts = t
	return e
}

// collect folds one sub-attempt outcome into the accumulator. Failures are
// logged and contribute nothing; the pipeline never inspects their cause.
func collect(out *[]media.Candidate, stage, url string, o Outcome) {
	if o.Failed() {
		logrus.WithFields(logrus.Fields{"stage": stage, "url": url}).WithError(o.Err).Debug("sub-attempt absorbed")
		return
	}
	*out = append(*out, o.Candidates...)
}

// Resolve discovers playable stream candidates for a page. Static strategies
// run first and unconditionally, accumulating results; the dynamic fallback
// and the last-resort re-scan run only while nothing has been found. The
// returned slice is deduplicated by URL in first-seen order.
func (e *Engine) Resolve(ctx context.Context, pageURL string) ([]media.Candidate, error) {
	html, err := e.fetcher.Fetch(ctx, pageURL, e.timeouts.Page)
	if err != nil {
		logrus.WithField("url", pageURL).WithError(err).Warn("page fetch failed, continuing with empty body")
		html = ""
	}

	var out []media.Candidate
	out = append(out, extractTags(html, pageURL)...)
	out = append(out, scanText(html, "found-in-page")...)
	out = append(out, pairTokens(html)...)
	out = append(out, e.probeEndpoints(ctx, html, pageURL)...)
	out = append(out, e.probeIframes(ctx, html, pageURL)...)

	if len(out) == 0 {
		collect(&out, "dynamic-fallback", pageURL, e.dynamicFallback(ctx, pageURL))
	}
	if len(out) == 0 {
		// The page may have fetched fine yet matched nothing above; one
		// last pass with the endpoint heuristics against the page itself.
		out = append(out, e.Scan(ctx, pageURL)...)
	}

	out = Dedupe(out)
	if len(out) == 0 {
		return nil, ErrNoCandidates
	}
	return out, nil
}

// Scan applies the full token/endpoint heuristic to a URL: fetch it, then
// run endpoint probing, token pairing, iframe probing and a whole-body scan
// against its text. It is the generic fetch-then-extract operation used at
// both the iframe and last-resort levels; iframe recursion inside it is one
// level deep, bounding the fan-out at page -> iframe -> sources endpoint.
func (e *Engine) Scan(ctx context.Context, url string) []media.Candidate {
	var out []media.Candidate
	body, err := e.fetcher.Fetch(ctx, url, e.timeouts.Endpoint)
	if err != nil {
		collect(&out, "scan", url, failed(err))
		return out
	}

	out = append(out, e.probeEndpoints(ctx, body, url)...)
	out = append(out, pairTokens(body)...)
	out = append(out, e.probeIframes(ctx, body, url)...)
	out = append(out, scanText(body, "found-global")...)
	return Dedupe(out)
}

// probeEndpoints fetches every sources/ajax/stream endpoint referenced in
// the text and folds each endpoint's outcome into the result.
func (e *Engine) probeEndpoints(ctx context.Context, text, baseURL string) []media.Candidate {
	var out []media.Candidate
	for _, endpoint := range findEndpoints(text) {
		collect(&out, "endpoint", endpoint, e.probeEndpoint(ctx, endpoint, baseURL))
	}
	return out
}

// endpointPayload is the loose JSON shape of a sources/ajax/stream endpoint.
// The sources array mixes objects and bare strings in the wild, so elements
// stay raw until both decodings have been tried.
type endpointPayload struct {
	File    string            `json:"file"`
	Sources []json.RawMessage `json:"sources"`
}

// probeEndpoint fetches one endpoint and interprets the body three ways:
// a JSON object with a file key, a sources array of objects or strings, and
// a raw scan for media URLs when JSON parsing fails.
func (e *Engine) probeEndpoint(ctx context.Context, endpoint, baseURL string) Outcome {
	body, err := e.fetcher.Fetch(ctx, endpoint, e.timeouts.Endpoint)
	if err != nil {
		return failed(err)
	}

	var out []media.Candidate
	var payload endpointPayload
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		if payload.File != "" {
			out = append(out, media.Candidate{
				URL:   httputil.NormalizeURL(baseURL, payload.File),
				Label: "json-file",
			})
		}
		for _, raw := range payload.Sources {
			if c, ok := decodeSource(raw, baseURL); ok {
				out = append(out, c)
			}
		}
	}

	out = append(out, scanText(body, "found-in-endpoint")...)
	return success(out)
}

// decodeSource interprets one element of a sources array, which is either an
// object carrying a file/src/url key or a bare URL string.
func decodeSource(raw json.RawMessage, baseURL string) (media.Candidate, bool) {
	var obj struct {
		File  string `json:"file"`
		Src   string `json:"src"`
		URL   string `json:"url"`
		Label string `json:"label"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		src := obj.File
		if src == "" {
			src = obj.Src
		}
		if src == "" {
			src = obj.URL
		}
		if src != "" {
			label := obj.Label
			if label == "" {
				label = "source"
			}
			return media.Candidate{URL: httputil.NormalizeURL(baseURL, src), Label: label}, true
		}
		return media.Candidate{}, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return media.Candidate{URL: httputil.NormalizeURL(baseURL, s), Label: "source"}, true
	}
	return media.Candidate{}, false
}

// probeIframes walks every iframe in the page and folds each iframe's
// outcome into the result.
func (e *Engine) probeIframes(ctx context.Context, html, pageURL string) []media.Candidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []media.Candidate
	doc.Find("iframe").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" {
			return
		}
		iframeURL := httputil.NormalizeURL(pageURL, src)
		collect(&out, "iframe", iframeURL, e.probeIframe(ctx, iframeURL))
	})
	return out
}

// probeIframe resolves one iframe target. An iframe whose URL already points
// at a media file is emitted directly with no fetch; otherwise the iframe
// body gets the token-pairing heuristic and its /sources endpoints are
// probed one level down. No deeper recursion is attempted.
func (e *Engine) probeIframe(ctx context.Context, iframeURL string) Outcome {
	if isDirectMedia(iframeURL) {
		return success([]media.Candidate{{URL: iframeURL, Label: "iframe-direct"}})
	}

	body, err := e.fetcher.Fetch(ctx, iframeURL, e.timeouts.Iframe)
	if err != nil {
		return failed(err)
	}

	var out []media.Candidate
	for _, c := range pairTokens(body) {
		out = append(out, media.Candidate{URL: c.URL, Label: "iframe-found"})
	}
	out = append(out, scanText(body, "iframe-found")...)

	for _, endpoint := range findSourcesEndpoints(body) {
		sb, err := e.fetcher.Fetch(ctx, endpoint, e.timeouts.Sources)
		if err != nil {
			collect(&out, "iframe-sources", endpoint, failed(err))
			continue
		}
		out = append(out, scanText(sb, "iframe-sources")...)
	}
	return success(out)
}

// dynamicFallback asks the JavaScript-capable rendering collaborator to
// resolve the page. Any failure degrades to "no result".
func (e *Engine) dynamicFallback(ctx context.Context, pageURL string) Outcome {
	if e.resolver == nil {
		return success(nil)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeouts.Fallback)
	defer cancel()

	candidates, err := e.resolver.Resolve(ctx, pageURL)
	if err != nil {
		return failed(err)
	}
	return success(candidates)
}
