package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/use-agent/jobscout/cleaner"
	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/models"
)

// Extractor turns a rendered page into job fields.
type Extractor interface {
	ExtractJob(rawHTML string, sourceURL string) (*models.JobFields, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(rawHTML string, sourceURL string) (*models.JobFields, error)

func (f ExtractorFunc) ExtractJob(rawHTML string, sourceURL string) (*models.JobFields, error) {
	return f(rawHTML, sourceURL)
}

// Manager owns a single browser process and scrapes job pages through it.
//
// Calls to ScrapeJob are serialized: one browser backs every session and a
// relaunch on retry would otherwise pull the browser out from under a
// concurrent attempt. Navigations are spaced at least MinDelay apart, across
// calls and across retries. Every attempt gets its own isolated session,
// which is always closed before the attempt returns.
type Manager struct {
	cfg       config.ScraperConfig
	launcher  Launcher
	extractor Extractor
	clock     Clock
	policy    RetryPolicy
	gate      *gate
	profiles  *profileSource
	rng       *rand.Rand

	// slot is held by the running ScrapeJob or Cleanup call. mu guards
	// browser and shutdown so Cleanup can take the browser from a scrape
	// that overstays its deadline.
	slot     chan struct{}
	mu       sync.Mutex
	browser  Browser
	shutdown bool

	statsMu sync.Mutex
	stats   models.ScraperStats
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the wall clock used for pacing and backoff.
func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithExtractor replaces the default cleaner.
func WithExtractor(e Extractor) Option {
	return func(m *Manager) { m.extractor = e }
}

// WithRand seeds session profiles from r instead of a random source.
func WithRand(r *rand.Rand) Option {
	return func(m *Manager) { m.rng = r }
}

// NewManager creates a manager. No browser is started until the first scrape.
func NewManager(cfg config.ScraperConfig, launcher Launcher, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		launcher: launcher,
		clock:    SystemClock{},
		policy: RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.BackoffBase,
			MaxDelay:   cfg.BackoffMax,
		},
		slot: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.extractor == nil {
		m.extractor = cleaner.NewCleaner()
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	m.gate = newGate(cfg.MinDelay, m.clock)
	m.profiles = newProfileSource(m.rng, cfg.UserAgents, cfg.HumanDelayMin, cfg.HumanDelayMax)
	return m
}

// ScrapeJob scrapes the job page at url, retrying with exponential backoff
// and a fresh browser until an attempt succeeds or the retries run out.
//
// Intermediate failures are only logged. When every attempt fails the
// returned error has code RETRIES_EXHAUSTED and wraps the last attempt's
// error, and the browser is shut down so the next call starts clean.
func (m *Manager) ScrapeJob(ctx context.Context, url string) (*models.ScrapeResult, error) {
	if err := m.acquire(ctx); err != nil {
		return nil, categorizeError(err, models.ErrCodeTimeout, "gave up waiting for the scraper")
	}
	defer m.release()

	start := m.clock.Now()
	var (
		state   = StateIdle
		attempt int
		delay   time.Duration
		result  *models.ScrapeResult
		err     error
	)

	for !state.Terminal() {
		switch state {
		case StateAttempting:
			result, err = m.attempt(ctx, url, attempt)
			if err != nil {
				if ctx.Err() != nil {
					m.record(func(s *models.ScraperStats) { s.Failures++ })
					return nil, categorizeError(ctx.Err(), models.ErrCodeTimeout, "scrape canceled")
				}
				slog.Warn("scrape attempt failed",
					"url", url,
					"attempt", attempt+1,
					"maxAttempts", m.policy.Attempts(),
					"error", err,
				)
			}
		case StateBackoff:
			slog.Info("backing off before retry", "url", url, "attempt", attempt+2, "delay", delay)
			if sleepErr := m.clock.Sleep(ctx, delay); sleepErr != nil {
				m.record(func(s *models.ScraperStats) { s.Failures++ })
				return nil, categorizeError(sleepErr, models.ErrCodeTimeout, "scrape canceled")
			}
			attempt++
		}
		state, delay = m.policy.Next(state, attempt, err)
	}

	if state == StateFailed {
		m.record(func(s *models.ScraperStats) { s.Failures++ })
		// A browser that just failed every attempt is not worth keeping.
		m.terminate(ctx)
		slog.Error("scrape failed",
			"url", url,
			"attempts", attempt+1,
			"elapsed", m.clock.Now().Sub(start),
			"error", err,
		)
		return nil, models.NewScrapeError(
			models.ErrCodeRetriesExhausted,
			fmt.Sprintf("all %d attempts failed", attempt+1),
			err,
		)
	}

	result.Attempts = attempt + 1
	m.record(func(s *models.ScraperStats) { s.Successes++ })
	slog.Info("scrape succeeded",
		"url", url,
		"attempts", result.Attempts,
		"elapsed", m.clock.Now().Sub(start),
		"title", result.Title,
	)
	return result, nil
}

// attempt runs one scrape attempt in its own session. Attempts after the
// first always run on a freshly launched browser.
func (m *Manager) attempt(ctx context.Context, url string, attempt int) (*models.ScrapeResult, error) {
	m.record(func(s *models.ScraperStats) { s.Attempts++ })

	browser, err := m.ensureBrowser(ctx, attempt > 0)
	if err != nil {
		return nil, err
	}

	profile := m.profiles.next()
	sess, err := browser.NewSession(ctx, profile)
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeBrowserCrash, "failed to open browser session")
	}
	m.record(func(s *models.ScraperStats) { s.SessionsOpened++ })
	defer m.closeSession(ctx, sess)

	if profile.HumanDelay > 0 {
		if err := m.clock.Sleep(ctx, profile.HumanDelay); err != nil {
			return nil, err
		}
	}

	waited, err := m.gate.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if waited > 0 {
		slog.Debug("rate limit gate held navigation", "url", url, "waited", waited)
	}
	m.record(func(s *models.ScraperStats) { s.LastScrapeAt = m.clock.Now() })

	pageCtx, cancel := withTimeout(ctx, m.cfg.PageTimeout)
	defer cancel()

	nav, err := sess.Navigate(pageCtx, url)
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeNavigation, "navigation failed")
	}
	rawHTML, err := sess.HTML(pageCtx)
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeNavigation, "failed to read page HTML")
	}

	finalURL := nav.FinalURL
	if finalURL == "" {
		finalURL = url
	}
	fields, err := m.extractor.ExtractJob(rawHTML, finalURL)
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeExtraction, "extraction failed")
	}

	return &models.ScrapeResult{
		JobFields:  *fields,
		URL:        url,
		FinalURL:   finalURL,
		StatusCode: nav.StatusCode,
		ScrapedAt:  m.clock.Now(),
	}, nil
}

// withTimeout is context.WithTimeout where a non-positive d means no deadline.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// ensureBrowser returns the running browser, launching one if needed. With
// relaunch set, a running browser is terminated first.
func (m *Manager) ensureBrowser(ctx context.Context, relaunch bool) (Browser, error) {
	if relaunch && m.current() != nil {
		slog.Info("relaunching browser before retry")
		m.terminate(ctx)
	}
	if b := m.current(); b != nil {
		return b, nil
	}
	if m.isShutdown() {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "scraper is shut down", nil)
	}

	launchCtx, cancel := withTimeout(ctx, m.cfg.LaunchTimeout)
	defer cancel()

	b, err := m.launcher.Launch(launchCtx)
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeBrowserCrash, "failed to launch browser")
	}

	m.mu.Lock()
	if m.shutdown {
		// Cleanup gave up waiting while this launch was in flight.
		m.mu.Unlock()
		_ = within(ctx, m.cfg.CloseTimeout, b.Close)
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "scraper is shut down", nil)
	}
	m.browser = b
	m.mu.Unlock()

	m.record(func(s *models.ScraperStats) {
		s.Launches++
		s.BrowserAlive = true
	})
	return b, nil
}

func (m *Manager) current() Browser {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browser
}

func (m *Manager) isShutdown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown
}

// terminate closes the owned browser, giving up after CloseTimeout. The
// browser is forgotten either way.
func (m *Manager) terminate(ctx context.Context) error {
	m.mu.Lock()
	b := m.browser
	m.browser = nil
	m.mu.Unlock()
	if b == nil {
		return nil
	}
	m.record(func(s *models.ScraperStats) { s.BrowserAlive = false })

	if err := within(ctx, m.cfg.CloseTimeout, b.Close); err != nil {
		slog.Warn("browser did not shut down cleanly", "error", err)
		return err
	}
	return nil
}

func (m *Manager) closeSession(ctx context.Context, sess Session) {
	if err := within(ctx, m.cfg.CloseTimeout, sess.Close); err != nil {
		slog.Warn("session did not close cleanly", "error", err)
	}
	m.record(func(s *models.ScraperStats) { s.SessionsClosed++ })
}

// Cleanup terminates the browser if one is running and is safe to call any
// number of times.
//
// It waits for an in-flight scrape to finish first. If ctx ends before that
// scrape does, the browser is terminated under it anyway, the manager stops
// launching browsers, and ctx's error is returned.
func (m *Manager) Cleanup(ctx context.Context) error {
	if err := m.acquire(ctx); err != nil {
		slog.Warn("scrape still running at cleanup, terminating browser under it")
		m.mu.Lock()
		m.shutdown = true
		m.mu.Unlock()
		if termErr := m.terminate(context.WithoutCancel(ctx)); termErr != nil {
			return errors.Join(err, termErr)
		}
		return err
	}
	defer m.release()

	if m.current() == nil {
		return nil
	}
	slog.Info("shutting down browser")
	return m.terminate(ctx)
}

// Stats returns a snapshot of the manager's counters.
func (m *Manager) Stats() models.ScraperStats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.stats
}

func (m *Manager) record(fn func(*models.ScraperStats)) {
	m.statsMu.Lock()
	fn(&m.stats)
	m.statsMu.Unlock()
}

func (m *Manager) acquire(ctx context.Context) error {
	select {
	case m.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) release() {
	<-m.slot
}

// within runs fn and returns once it finishes or d elapses, whichever is
// first. fn keeps running in the background after a timeout; it receives a
// context that is canceled at that point. Cancellation of ctx does not cut
// fn short, so cleanup still happens for canceled scrapes.
func within(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	ctx = context.WithoutCancel(ctx)
	if d <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("gave up after %s: %w", d, ctx.Err())
	}
}
