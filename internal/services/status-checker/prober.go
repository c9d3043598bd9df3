package checker

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPProber issues a HEAD request and reports the final status code after
// redirects. Any transport failure is returned as an error and means "no status".
type HTTPProber struct {
	Client    HTTPDoer
	UserAgent string
}

func (p HTTPProber) Probe(ctx context.Context, rawURL string) (int, error) {
	url := normalizeURL(rawURL)
	if url == "" {
		return 0, fmt.Errorf("empty url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func normalizeURL(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return t
	}
	l := strings.ToLower(t)
	if strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://") {
		return t
	}
	return "http://" + t
}
