package scraper

import "context"

// Launcher starts browser processes. It is the only way the manager
// obtains a Browser, which keeps the manager testable with a fake backend.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// Browser is one running browser process.
type Browser interface {
	// NewSession opens an isolated browsing context (own cookies and
	// storage) with a single page configured from p.
	NewSession(ctx context.Context, p Profile) (Session, error)

	// Close terminates the process. It must be safe to call more than once.
	Close(ctx context.Context) error
}

// Session is an isolated browsing context with one page, used for exactly
// one scrape attempt.
type Session interface {
	// Navigate loads url and waits for the job content to render. A page
	// answering with an HTTP error status is an error.
	Navigate(ctx context.Context, url string) (*NavigationResult, error)

	// HTML returns the rendered document.
	HTML(ctx context.Context) (string, error)

	// Close disposes of the page and its context.
	Close(ctx context.Context) error
}

// NavigationResult describes the main document after navigation.
type NavigationResult struct {
	StatusCode int
	FinalURL   string
}
