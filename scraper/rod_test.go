package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/models"
)

type cdpCall struct {
	SessionID string
	Method    string
	Params    string
}

// fakeCDP is an in-memory DevTools endpoint. It answers every command with
// an empty result, except the few whose results rod reads, and lets the
// test push events.
type fakeCDP struct {
	silent bool

	mu    sync.Mutex
	calls []cdpCall

	out       chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeCDP(t *testing.T) *fakeCDP {
	f := &fakeCDP{out: make(chan []byte, 1024), closed: make(chan struct{})}
	t.Cleanup(f.close)
	return f
}

var cdpResults = map[string]string{
	"Target.createBrowserContext": `{"browserContextId":"C1"}`,
	"Target.createTarget":         `{"targetId":"T1"}`,
	"Target.attachToTarget":       `{"sessionId":"S1"}`,
	"Page.navigate":               `{"frameId":"T1","errorText":"net::ERR_CONNECTION_REFUSED"}`,
}

func (f *fakeCDP) Send(data []byte) error {
	var req struct {
		ID        int             `json:"id"`
		SessionID string          `json:"sessionId"`
		Method    string          `json:"method"`
		Params    json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}

	f.mu.Lock()
	f.calls = append(f.calls, cdpCall{SessionID: req.SessionID, Method: req.Method, Params: string(req.Params)})
	f.mu.Unlock()

	if f.silent {
		return nil
	}

	result, ok := cdpResults[req.Method]
	if !ok {
		result = `{}`
	}
	f.push(fmt.Sprintf(`{"id":%d,"result":%s}`, req.ID, result))
	if req.Method == "Page.close" {
		f.push(`{"method":"Target.targetDestroyed","params":{"targetId":"T1"}}`)
	}
	return nil
}

func (f *fakeCDP) Read() ([]byte, error) {
	select {
	case msg := <-f.out:
		return msg, nil
	case <-f.closed:
		return nil, io.EOF
	}
}

func (f *fakeCDP) push(msg string) {
	select {
	case f.out <- []byte(msg):
	case <-f.closed:
	}
}

func (f *fakeCDP) close() {
	f.closeOnce.Do(func() { close(f.closed) })
}

// pause emits a Fetch.requestPaused event on the page session.
func (f *fakeCDP) pause(id, url, resourceType string) {
	f.push(fmt.Sprintf(
		`{"sessionId":"S1","method":"Fetch.requestPaused","params":{"requestId":%q,"request":{"url":%q,"method":"GET","headers":{}},"frameId":"T1","resourceType":%q}}`,
		id, url, resourceType,
	))
}

// called reports whether method was sent with params containing every
// fragment.
func (f *fakeCDP) called(method string, fragments ...string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.Method != method {
			continue
		}
		matched := true
		for _, frag := range fragments {
			if !strings.Contains(c.Params, frag) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func testRodLauncher() *RodLauncher {
	return NewRodLauncher(
		config.BrowserConfig{Stealth: false},
		config.ScraperConfig{BlockedResourceTypes: []string{"Image"}},
	)
}

func TestRodBrowser_SessionOutlivesLaunchContext(t *testing.T) {
	f := newFakeCDP(t)

	launchCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	b, err := testRodLauncher().connect(launchCtx, f, nil)
	require.NoError(t, err)
	cancel()

	ctx := context.Background()
	sess, err := b.NewSession(ctx, Profile{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) jobscout-test",
		Viewport:  Viewport{Width: 1366, Height: 768},
		Headers:   map[string]string{"Accept-Language": "en-US,en;q=0.9"},
	})
	require.NoError(t, err)

	assert.True(t, f.called("Target.createBrowserContext"))
	assert.True(t, f.called("Network.setUserAgentOverride", "jobscout-test", `"platform":"Win32"`, "en-US"))
	assert.True(t, f.called("Emulation.setDeviceMetricsOverride", `"width":1366`, `"height":768`))
	assert.True(t, f.called("Network.setExtraHTTPHeaders", "Accept-Language"))
	assert.True(t, f.called("Fetch.enable"))

	f.pause("R1", "https://www.linkedin.com/jobs/view/4107690676/", "Document")
	f.pause("R2", "https://media.licdn.com/logo.png", "Image")
	f.pause("R3", "https://px.ads.linkedin.com/collect?pid=1", "Script")

	require.Eventually(t, func() bool {
		return f.called("Fetch.continueRequest", `"R1"`) &&
			f.called("Fetch.failRequest", `"R2"`, "BlockedByClient") &&
			f.called("Fetch.failRequest", `"R3"`, "BlockedByClient")
	}, 5*time.Second, 10*time.Millisecond, "paused requests were not answered")
	assert.False(t, f.called("Fetch.continueRequest", `"R2"`))
	assert.False(t, f.called("Fetch.continueRequest", `"R3"`))

	require.NoError(t, sess.Close(ctx))
	assert.True(t, f.called("Fetch.disable"))
	assert.True(t, f.called("Page.close"))
	assert.True(t, f.called("Target.disposeBrowserContext", `"C1"`))

	require.NoError(t, b.Close(ctx))
	assert.True(t, f.called("Browser.close"))
}

func TestRodSession_NavigationErrorIsTyped(t *testing.T) {
	f := newFakeCDP(t)
	b, err := testRodLauncher().connect(context.Background(), f, nil)
	require.NoError(t, err)

	ctx := context.Background()
	sess, err := b.NewSession(ctx, Profile{UserAgent: "test-agent"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close(ctx) })

	_, err = sess.Navigate(ctx, "https://www.linkedin.com/jobs/view/4107690676/")
	require.Error(t, err)

	var se *models.ScrapeError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, models.ErrCodeNavigation, se.Code)
	assert.True(t, f.called("Page.navigate", "4107690676"))
}

func TestRodLauncher_ConnectHonorsDeadline(t *testing.T) {
	f := newFakeCDP(t)
	f.silent = true

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := testRodLauncher().connect(ctx, f, nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	var se *models.ScrapeError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, models.ErrCodeTimeout, se.Code)
}
