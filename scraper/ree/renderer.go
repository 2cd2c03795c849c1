package ree

import (
	"context"
	"errors"
	"fmt"
	"time"

	"energy-scraper/models"
	"energy-scraper/utils"

	"github.com/chromedp/chromedp"
)

// Renderer returns the fully rendered markup of a page once waitSelector is present
type Renderer interface {
	Render(ctx context.Context, url, waitSelector string) (string, error)
}

// ChromeRenderer renders pages in headless Chrome, one browser per call
type ChromeRenderer struct {
	timeout  time.Duration
	execPath string
	logger   *utils.Logger
}

// NewChromeRenderer creates a renderer. execPath may be empty to let chromedp find Chrome.
func NewChromeRenderer(timeout time.Duration, execPath string, logger *utils.Logger) *ChromeRenderer {
	return &ChromeRenderer{timeout: timeout, execPath: execPath, logger: logger}
}

// newContext creates a fresh chromedp context (one browser, one tab) bound to parent
func (r *ChromeRenderer) newContext(parent context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("log-level", "3"), // suppress Chrome logs
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		chromedp.WindowSize(1280, 900),
	)
	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	cancel := func() {
		cancelCtx()
		cancelAlloc()
	}
	return ctx, cancel
}

// Render navigates to url and waits up to the configured timeout for waitSelector.
// The browser is torn down before Render returns, whatever the outcome.
func (r *ChromeRenderer) Render(ctx context.Context, url, waitSelector string) (string, error) {
	browserCtx, cancel := r.newContext(ctx)
	defer cancel()

	ctx, cancelTimeout := context.WithTimeout(browserCtx, r.timeout)
	defer cancelTimeout()

	r.logger.Debug("Rendering %s", url)
	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: loading %s after %v", models.ErrRenderTimeout, url, r.timeout)
		}
		return "", fmt.Errorf("%w: %s: %w", models.ErrNavigation, url, err)
	}

	var html string
	err := chromedp.Run(ctx,
		chromedp.WaitReady(waitSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s never appeared on %s", models.ErrRenderTimeout, waitSelector, url)
		}
		return "", fmt.Errorf("capturing rendered page %s: %w", url, err)
	}
	return html, nil
}
