package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	appLog "meetsync/internal/log"
)

const defaultRenderTimeout = 30 * time.Second

// ChromiumRenderer renders pages in a local headless Chromium via
// chromedp. It is the fallback when no rendering proxy is configured
// and needs a Chromium/Chrome binary on the host.
type ChromiumRenderer struct {
	timeout time.Duration
}

func NewChromiumRenderer(timeout time.Duration) *ChromiumRenderer {
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}
	return &ChromiumRenderer{timeout: timeout}
}

func (r *ChromiumRenderer) Name() string { return "local-chromium" }

// Render navigates to the URL, waits for the document body, and returns
// the serialized DOM. Meetup embeds its event payload in a script tag,
// so the outer HTML after domcontentloaded is sufficient.
func (r *ChromiumRenderer) Render(parentCtx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(parentCtx, r.timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
		)...,
	)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	appLog.Debug("chromium render", "url", url)

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromium render %s: %w", url, err)
	}
	return html, nil
}
