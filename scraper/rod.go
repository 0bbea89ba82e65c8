package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/models"
)

// contentSelector matches the job view of both LinkedIn layouts; any h1
// is accepted so other boards and error pages do not wait for the full
// selector timeout.
const contentSelector = `[data-job-id], .job-view-layout, .jobs-search__job-details, .top-card-layout__title, h1`

// showMoreSelector is the button that expands a truncated description.
const showMoreSelector = `button.show-more-less-html__button--more, button[aria-label*="see more" i], .jobs-description__footer-button`

// RodLauncher launches Chromium through go-rod.
type RodLauncher struct {
	browserCfg config.BrowserConfig
	scraperCfg config.ScraperConfig
}

// NewRodLauncher returns a launcher for the given configuration.
func NewRodLauncher(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) *RodLauncher {
	return &RodLauncher{browserCfg: browserCfg, scraperCfg: scraperCfg}
}

// Launch starts a new Chromium process and connects to it.
func (r *RodLauncher) Launch(ctx context.Context) (Browser, error) {
	l := launcher.New().
		Context(ctx).
		Headless(r.browserCfg.Headless).
		NoSandbox(r.browserCfg.NoSandbox)

	if r.browserCfg.BrowserBin != "" {
		l = l.Bin(r.browserCfg.BrowserBin)
	}
	if r.browserCfg.Proxy != "" {
		l = l.Proxy(r.browserCfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL, "pid", l.PID())

	ws := &cdp.WebSocket{}
	if err := ws.Connect(ctx, controlURL, nil); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, categorizeError(err, models.ErrCodeBrowserCrash, "failed to connect to browser")
	}

	b, err := r.connect(ctx, ws, l)
	if err != nil {
		_ = ws.Close()
		l.Kill()
		l.Cleanup()
		return nil, err
	}
	return b, nil
}

// connect attaches rod to an open CDP connection. ctx bounds the handshake
// only: the browser, and the event hub request interception subscribes to,
// must outlive the launch deadline.
func (r *RodLauncher) connect(ctx context.Context, ws cdp.WebSocketable, l *launcher.Launcher) (*rodBrowser, error) {
	browser := rod.New().ControlURL("").Client(cdp.New().Start(ws))

	done := make(chan error, 1)
	go func() { done <- browser.Connect() }()

	select {
	case err := <-done:
		if err != nil {
			return nil, models.NewScrapeError(
				models.ErrCodeBrowserCrash,
				"failed to connect to browser",
				err,
			)
		}
	case <-ctx.Done():
		return nil, categorizeError(ctx.Err(), models.ErrCodeBrowserCrash, "timed out connecting to browser")
	}

	return &rodBrowser{
		browser:  browser,
		launcher: l,
		cfg:      r.browserCfg,
		scrape:   r.scraperCfg,
	}, nil
}

type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      config.BrowserConfig
	scrape   config.ScraperConfig
}

// NewSession opens an incognito context and a single page in it, with the
// profile's fingerprint applied before anything is loaded.
func (b *rodBrowser) NewSession(ctx context.Context, p Profile) (Session, error) {
	incognito, err := b.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("create incognito context: %w", err)
	}

	var page *rod.Page
	if b.cfg.Stealth {
		page, err = stealth.Page(incognito)
	} else {
		page, err = incognito.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	s := &rodSession{incognito: incognito, page: page, selectorTimeout: b.scrape.SelectorTimeout}
	if err := s.apply(p); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	s.router = setupHijack(page, b.scrape.BlockedResourceTypes)
	return s, nil
}

// Close disconnects and kills the process, then removes its profile dir.
func (b *rodBrowser) Close(ctx context.Context) error {
	err := b.browser.Context(ctx).Close()
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
	return err
}

type rodSession struct {
	incognito       *rod.Browser
	page            *rod.Page
	router          *rod.HijackRouter
	selectorTimeout time.Duration
}

func (s *rodSession) apply(p Profile) error {
	if p.UserAgent != "" {
		if err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      p.UserAgent,
			AcceptLanguage: p.Headers["Accept-Language"],
			Platform:       platformOf(p.UserAgent),
		}); err != nil {
			return fmt.Errorf("set user agent: %w", err)
		}
	}
	if p.Viewport.Width > 0 && p.Viewport.Height > 0 {
		if err := s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             p.Viewport.Width,
			Height:            p.Viewport.Height,
			DeviceScaleFactor: 1,
		}); err != nil {
			return fmt.Errorf("set viewport: %w", err)
		}
	}
	if len(p.Headers) > 0 {
		if err := (proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(p.Headers)}).Call(s.page); err != nil {
			return fmt.Errorf("set headers: %w", err)
		}
	}
	return nil
}

// Navigate loads url and waits for job content.
//
// The content wait is bounded by the selector timeout and is not fatal:
// pages that never render the selector are handed to extraction anyway,
// which decides whether they are usable.
func (s *rodSession) Navigate(ctx context.Context, url string) (*NavigationResult, error) {
	p := s.page.Context(ctx)

	if err := p.Navigate(url); err != nil {
		return nil, categorizeError(err, models.ErrCodeNavigation, "navigation to job page failed")
	}
	if err := p.WaitLoad(); err != nil {
		return nil, categorizeError(err, models.ErrCodeNavigation, "page did not finish loading")
	}

	status := statusCode(p)
	if status >= 400 {
		return nil, models.NewScrapeError(
			models.ErrCodeNavigation,
			fmt.Sprintf("job page answered HTTP %d", status),
			nil,
		)
	}

	if s.selectorTimeout > 0 {
		if _, err := p.Timeout(s.selectorTimeout).Element(contentSelector); err != nil {
			if ctx.Err() != nil {
				return nil, categorizeError(ctx.Err(), models.ErrCodeTimeout, "page timed out")
			}
			slog.Warn("job content selector not found, extracting anyway",
				"url", url, "timeout", s.selectorTimeout,
			)
		}
	}

	expandDescription(p)

	finalURL := url
	if info, err := p.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}
	return &NavigationResult{StatusCode: status, FinalURL: finalURL}, nil
}

func (s *rodSession) HTML(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", categorizeError(err, models.ErrCodeNavigation, "failed to extract page HTML")
	}
	return html, nil
}

// Close stops request interception and disposes of the incognito context,
// which also closes its page.
func (s *rodSession) Close(ctx context.Context) error {
	if s.router != nil {
		_ = s.router.Stop()
	}
	if err := s.page.Context(ctx).Close(); err != nil {
		slog.Debug("page close failed", "error", err)
	}
	return s.incognito.Context(ctx).Close()
}

// statusCode reads the main document's HTTP status from the navigation
// timing entry. Event listeners on the Network domain conflict with request
// hijacking, so the status is read after the fact. 0 means unknown.
func statusCode(p *rod.Page) int {
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// expandDescription clicks "show more" when the description is truncated.
// It is best-effort; the collapsed text is usually complete in the DOM anyway.
func expandDescription(p *rod.Page) {
	has, el, err := p.Has(showMoreSelector)
	if err != nil || !has {
		return
	}
	if err := el.Timeout(2*time.Second).Click(proto.InputMouseButtonLeft, 1); err != nil {
		slog.Debug("show more click failed", "error", err)
	}
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// platformOf returns the navigator.platform matching a user agent so the
// override does not contradict itself.
func platformOf(ua string) string {
	switch {
	case strings.Contains(ua, "Windows"):
		return "Win32"
	case strings.Contains(ua, "Macintosh"):
		return "MacIntel"
	case strings.Contains(ua, "Linux"):
		return "Linux x86_64"
	default:
		return ""
	}
}
