// Package screenshot captures page previews with a headless browser.
// Requires Chrome/Chromium on the host; callers treat failures as
// best-effort and keep going without an image.
package screenshot

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultTimeout bounds one capture, navigation included.
const DefaultTimeout = 45 * time.Second

// quality for the captured image (chromedp uses 0-100).
const quality = 80

// Capturer takes full-page screenshots.
type Capturer struct {
	Timeout time.Duration
}

// New returns a Capturer with the default timeout.
func New() *Capturer {
	return &Capturer{Timeout: DefaultTimeout}
}

// Capture navigates to url and returns a full-page screenshot.
func (c *Capturer) Capture(ctx context.Context, url string) ([]byte, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var png []byte
	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(1366, 900),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// Give late-loading hero images and fonts a moment to settle.
		chromedp.Sleep(2*time.Second),
		chromedp.FullScreenshot(&png, quality),
	)
	if err != nil {
		return nil, fmt.Errorf("screenshot capture failed: %w", err)
	}
	return png, nil
}
