package browser

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"teashelf/internal/models"
)

// DefaultUserAgent resembles a common desktop browser; product pages are less
// likely to serve automation walls to it.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36"

const (
	defaultNavTimeout  = 5 * time.Second
	defaultEvalTimeout = 10 * time.Second
)

// Sub-resource classes aborted during a fetch. Only the primary document
// request goes through, which bounds bandwidth and keeps untrusted script
// from executing.
var blockedResourceTypes = map[network.ResourceType]bool{
	network.ResourceTypeImage:      true,
	network.ResourceTypeStylesheet: true,
	network.ResourceTypeFont:       true,
	network.ResourceTypeMedia:      true,
	network.ResourceTypeScript:     true,
	network.ResourceTypeXHR:        true,
	network.ResourceTypeFetch:      true,
}

// FetcherConfig tunes the per-request page fetch.
type FetcherConfig struct {
	UserAgent   string
	NavTimeout  time.Duration
	EvalTimeout time.Duration
}

// Fetcher opens one isolated tab per import request on the shared browser
// process, applies the resource-blocking policy, and navigates with a bounded
// timeout. It never closes or restarts the shared process.
type Fetcher struct {
	cfg FetcherConfig
	log *logrus.Entry
}

// NewFetcher creates a fetcher, filling zero config values with defaults.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = defaultNavTimeout
	}
	if cfg.EvalTimeout <= 0 {
		cfg.EvalTimeout = defaultEvalTimeout
	}
	return &Fetcher{
		cfg: cfg,
		log: logrus.WithField("component", "fetcher"),
	}
}

// Page is an isolated tab owned by exactly one in-flight import request. It
// must be closed by that request on every exit path.
type Page struct {
	ctx         context.Context
	cancel      context.CancelFunc
	evalTimeout time.Duration
}

// Close destroys the tab. Closing the tab never touches the shared process.
func (p *Page) Close() {
	p.cancel()
}

// HTML returns the document's outer HTML in its current state, however far
// navigation got. The caller's ctx bounds the evaluation alongside the
// fetcher's own timeout.
func (p *Page) HTML(ctx context.Context) (string, error) {
	evalCtx, cancel := context.WithTimeout(p.ctx, p.evalTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	if err := chromedp.Run(evalCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Fetch opens a new tab on the shared process handle, installs the resource
// interception policy and user agent, and navigates. A navigation timeout is
// not an error: most pages deliver meaningful markup long before resource
// idle, so the partially loaded document is returned as-is. Fetch fails only
// when the tab itself cannot be created.
func (f *Fetcher) Fetch(handle context.Context, rawURL string) (*Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(handle)
	page := &Page{ctx: tabCtx, cancel: tabCancel, evalTimeout: f.cfg.EvalTimeout}

	// The interception listener must be registered before navigation so the
	// initial request burst is covered.
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		e, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		// Each paused request is resolved in its own goroutine; resolving
		// inside the listener would deadlock the CDP event loop.
		go func() {
			c := chromedp.FromContext(tabCtx)
			execCtx := cdp.WithExecutor(tabCtx, c.Target)
			if blockedResourceTypes[e.ResourceType] {
				_ = fetch.FailRequest(e.RequestID, network.ErrorReasonAborted).Do(execCtx)
				return
			}
			_ = fetch.ContinueRequest(e.RequestID).Do(execCtx)
		}()
	})

	// First Run materializes the tab; failure here means no page context
	// could be created at all.
	if err := chromedp.Run(tabCtx,
		fetch.Enable(),
		emulation.SetUserAgentOverride(f.cfg.UserAgent),
	); err != nil {
		tabCancel()
		return nil, &models.ScrapeError{Step: "create page context", Err: err}
	}

	navCtx, navCancel := context.WithTimeout(tabCtx, f.cfg.NavTimeout)
	defer navCancel()
	if err := chromedp.Run(navCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		// Timeouts and navigation-level failures degrade: extraction runs
		// against whatever document state was reached.
		f.log.WithError(err).WithField("url", rawURL).Debug("navigation did not complete, proceeding with partial document")
	}

	return page, nil
}
