// CLAUDE:SUMMARY Headless Chrome wrapper: launch, connect, render HTML to a raster screenshot.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// BrowserConfig configures the headless browser.
type BrowserConfig struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string `json:"remote_url" yaml:"remote_url"`

	// Width and Height set the render viewport. Defaults: 1024x768.
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	// CaptureTimeout bounds a single HTML-to-image capture. Default: 30s.
	CaptureTimeout time.Duration `json:"capture_timeout" yaml:"capture_timeout"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *BrowserConfig) defaults() {
	if c.Width <= 0 {
		c.Width = 1024
	}
	if c.Height <= 0 {
		c.Height = 768
	}
	if c.CaptureTimeout <= 0 {
		c.CaptureTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Browser wraps a headless Chrome used to rasterize HTML content. It is
// lazy: Chrome is launched on the first capture and reused afterwards.
type Browser struct {
	cfg     BrowserConfig
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewBrowser creates a Browser. Chrome is not launched until the first
// capture.
func NewBrowser(cfg BrowserConfig) *Browser {
	cfg.defaults()
	return &Browser{cfg: cfg}
}

func (b *Browser) connectLocked() (*rod.Browser, error) {
	if b.closed {
		return nil, fmt.Errorf("browser: closed")
	}
	if b.browser != nil {
		return b.browser, nil
	}

	wsURL := b.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(true)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		b.lnch = l
		wsURL = u
		b.cfg.Logger.Info("browser: launched local chrome", "url", wsURL)
	} else {
		b.cfg.Logger.Info("browser: connecting to remote", "url", wsURL)
	}

	rb := rod.New().ControlURL(wsURL)
	if err := rb.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	b.browser = rb
	return rb, nil
}

// Capture renders the HTML document in a fresh page and returns a full-page
// screenshot in the requested raster encoding ("png" or "jpeg").
func (b *Browser) Capture(ctx context.Context, html, encoding string) ([]byte, error) {
	b.mu.Lock()
	rb, err := b.connectLocked()
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	capCtx, cancel := context.WithTimeout(ctx, b.cfg.CaptureTimeout)
	defer cancel()

	page, err := rb.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("browser: create page: %w", err)
	}
	defer page.Close()
	page = page.Context(capCtx)

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.cfg.Width,
		Height:            b.cfg.Height,
		DeviceScaleFactor: 2,
	}); err != nil {
		return nil, fmt.Errorf("browser: viewport: %w", err)
	}

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("browser: set content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		b.cfg.Logger.Warn("browser: wait load timeout", "error", err)
	}

	req := &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng}
	if encoding == "jpeg" {
		quality := 90
		req.Format = proto.PageCaptureScreenshotFormatJpeg
		req.Quality = &quality
	}

	data, err := page.Screenshot(true, req)
	if err != nil {
		return nil, fmt.Errorf("browser: screenshot: %w", err)
	}
	return data, nil
}

// Close shuts down Chrome if it was launched.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.browser != nil {
		b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return nil
}
