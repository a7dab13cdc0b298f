package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"meetsync/internal/config"
	appLog "meetsync/internal/log"
)

// Renderer turns a URL into fully rendered page markup. Meetup pages are
// client-rendered, so a plain GET is not enough; both backends run real
// Chromium, one remote and one local.
type Renderer interface {
	Name() string
	Render(ctx context.Context, url string) (string, error)
}

// ProxyRenderer renders through a remote rendering-proxy content
// endpoint (Browserless-style API).
type ProxyRenderer struct {
	client   *resty.Client
	endpoint string
	apiKey   string
	timeout  time.Duration
}

type proxyRequest struct {
	URL         string           `json:"url"`
	GotoOptions proxyGotoOptions `json:"gotoOptions"`
}

type proxyGotoOptions struct {
	WaitUntil string `json:"waitUntil"`
	Timeout   int    `json:"timeout"`
}

func NewProxyRenderer(cfg config.RenderConfig) *ProxyRenderer {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	client := resty.New().
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second).
		SetTimeout(timeout)
	return &ProxyRenderer{
		client:   client,
		endpoint: cfg.ProxyURL,
		apiKey:   cfg.APIKey,
		timeout:  timeout,
	}
}

func (r *ProxyRenderer) Name() string { return "render-proxy" }

func (r *ProxyRenderer) Render(ctx context.Context, url string) (string, error) {
	appLog.Debug("proxy render", "url", url)

	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("token", r.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(proxyRequest{
			URL: url,
			GotoOptions: proxyGotoOptions{
				WaitUntil: "domcontentloaded",
				Timeout:   int(r.timeout / time.Millisecond),
			},
		}).
		Post(r.endpoint)
	if err != nil {
		return "", fmt.Errorf("render proxy: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("render proxy: status %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.String(), nil
}

// NewRenderer picks the backend: the proxy when an API key is
// configured, local Chromium otherwise.
func NewRenderer(cfg config.RenderConfig) Renderer {
	if cfg.APIKey != "" {
		return NewProxyRenderer(cfg)
	}
	appLog.Info("no render proxy key configured, using local chromium")
	return NewChromiumRenderer(time.Duration(cfg.TimeoutSeconds) * time.Second)
}
