// Package axdriver drives a real Chrome via Rod and exposes it as an
// exploration Driver: launch, navigate, serialize the DOM, and replay
// actions by accessible name. Stealth pages keep automation detection
// quiet on hostile frontends.
package axdriver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/uimap/explore"
	"github.com/hazyhaar/uimap/fingerprint"
	"github.com/hazyhaar/uimap/htmlsnap"
)

// Config configures the browser driver.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string `yaml:"remote_url"`

	// Headless runs Chrome without a display. Default: true.
	Headless *bool `yaml:"headless"`

	// Stealth applies anti-detection patches to every page. Default: true.
	Stealth *bool `yaml:"stealth"`

	// NavTimeout bounds navigation and page-load waits. Default: 30s.
	NavTimeout time.Duration `yaml:"nav_timeout"`

	// ActionTimeout bounds element lookup and interaction. Default: 10s.
	ActionTimeout time.Duration `yaml:"action_timeout"`

	// SettleDelay is the pause after an action before the DOM is read,
	// covering client-side rerenders that fire no load event. Default: 500ms.
	SettleDelay time.Duration `yaml:"settle_delay"`

	// FillValue is typed into text inputs during exploration. Default: "test".
	FillValue string `yaml:"fill_value"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	t := true
	if c.Headless == nil {
		c.Headless = &t
	}
	if c.Stealth == nil {
		c.Stealth = &t
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.ActionTimeout <= 0 {
		c.ActionTimeout = 10 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 500 * time.Millisecond
	}
	if c.FillValue == "" {
		c.FillValue = "test"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Driver is a Rod-backed explore.Driver over a single page. One Driver
// owns one browser context; exploration is sequential by design, so no
// locking is needed around the page handle.
type Driver struct {
	cfg  Config
	brw  *rod.Browser
	lnch *launcher.Launcher
	page *rod.Page
	log  *slog.Logger
}

var _ explore.Driver = (*Driver)(nil)

// New creates a Driver. Call Start to launch Chrome.
func New(cfg Config) *Driver {
	cfg.defaults()
	return &Driver{cfg: cfg, log: cfg.Logger}
}

// Start launches Chrome (or connects to a remote instance) and opens the
// working page on startURL. Failures here are fatal: without an initial
// page there is nothing to explore.
func (d *Driver) Start(ctx context.Context, startURL string) error {
	wsURL := d.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(*d.cfg.Headless).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("axdriver: launch: %w", err)
		}
		wsURL = u
		d.lnch = l
		d.log.Info("axdriver: launched local chrome", "url", wsURL)
	} else {
		d.log.Info("axdriver: connecting to remote", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("axdriver: connect: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		d.log.Warn("axdriver: ignore cert errors failed", "error", err)
	}
	d.brw = b

	var page *rod.Page
	var err error
	if *d.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return fmt.Errorf("axdriver: create page: %w", err)
	}
	d.page = page

	if _, err := d.Navigate(ctx, startURL); err != nil {
		return fmt.Errorf("axdriver: initial navigation: %w", err)
	}
	return nil
}

// Close shuts down the page and the browser.
func (d *Driver) Close() error {
	if d.page != nil {
		d.page.Close()
		d.page = nil
	}
	if d.brw != nil {
		d.brw.Close()
		d.brw = nil
	}
	if d.lnch != nil {
		d.lnch.Cleanup()
		d.lnch = nil
	}
	return nil
}

// CaptureSnapshot serialises the current DOM and builds the snapshot.
func (d *Driver) CaptureSnapshot(ctx context.Context) (*fingerprint.Snapshot, error) {
	page := d.page.Context(ctx)

	info, err := page.Info()
	if err != nil {
		return nil, &explore.DriverError{Op: "capture", Err: fmt.Errorf("page info: %w", err)}
	}
	res, err := page.Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return nil, &explore.DriverError{Op: "capture", Err: fmt.Errorf("get DOM: %w", err)}
	}

	snap, err := htmlsnap.ParseString(res.Value.Str(), info.URL)
	if err != nil {
		return nil, &explore.DriverError{Op: "capture", Err: err}
	}
	return snap, nil
}

// Navigate loads a URL and captures the settled page.
func (d *Driver) Navigate(ctx context.Context, url string) (*fingerprint.Snapshot, error) {
	navCtx, cancel := context.WithTimeout(ctx, d.cfg.NavTimeout)
	defer cancel()

	page := d.page.Context(navCtx)
	if err := page.Navigate(url); err != nil {
		return nil, &explore.DriverError{Op: "navigate", Err: fmt.Errorf("%s: %w", url, err)}
	}
	if err := page.WaitLoad(); err != nil {
		d.log.Warn("axdriver: wait load timeout", "url", url, "error", err)
	}
	d.settle()
	return d.CaptureSnapshot(ctx)
}

// GoBack steps back in history and captures the restored page.
func (d *Driver) GoBack(ctx context.Context) (*fingerprint.Snapshot, error) {
	navCtx, cancel := context.WithTimeout(ctx, d.cfg.NavTimeout)
	defer cancel()

	page := d.page.Context(navCtx)
	if err := page.NavigateBack(); err != nil {
		return nil, &explore.DriverError{Op: "goback", Err: err}
	}
	if err := page.WaitLoad(); err != nil {
		d.log.Warn("axdriver: wait load timeout after back", "error", err)
	}
	d.settle()
	return d.CaptureSnapshot(ctx)
}

func (d *Driver) settle() {
	time.Sleep(d.cfg.SettleDelay)
}
