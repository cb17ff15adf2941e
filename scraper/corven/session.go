package corven

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	cdpstorage "github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"corven-stock-tracker/config"
	"corven-stock-tracker/utils"
)

const fetchTimeout = 60 * time.Second

// Session owns the single headless-browser tab used for the whole run. The
// identity provider issues its login flow through JavaScript-driven
// redirects, so a raw HTTP client cannot complete it; the same tab then
// serves every page fetch because its cookies carry the session.
type Session struct {
	cfg    *config.Config
	logger *utils.Logger

	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	tab         context.Context
	cancelTab   context.CancelFunc

	cookies []*network.Cookie
}

// NewSession prepares the browser allocator and tab context. The browser
// process itself starts lazily on the first navigation.
func NewSession(cfg *config.Config, logger *utils.Logger) *Session {
	chromeBin := findChromeBinary(cfg.ChromeBin)
	logger.Info("[corven] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	tab, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	return &Session{
		cfg:         cfg,
		logger:      logger,
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
		tab:         tab,
		cancelTab:   cancelTab,
	}
}

// Login drives the interactive login flow: load the form, fill credentials,
// submit, wait for the redirect back to the storefront, export the session
// cookies. Everything is bounded by the configured login timeout.
func (s *Session) Login(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	s.logger.Info("[corven] Starting login flow: %s", s.cfg.LoginURL)

	loginCtx, cancel := context.WithTimeout(s.tab, s.cfg.LoginTimeout())
	defer cancel()

	err := chromedp.Run(loginCtx,
		chromedp.Navigate(s.cfg.LoginURL),
		chromedp.WaitVisible(`#username`, chromedp.ByQuery),
		chromedp.SendKeys(`#username`, s.cfg.Username, chromedp.ByQuery),
		chromedp.SendKeys(`#password`, s.cfg.Password, chromedp.ByQuery),
		chromedp.Click(`input[type="submit"]`, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("%w: submit login form: %v", ErrLoginFailed, err)
	}

	if err := s.waitForRedirect(loginCtx); err != nil {
		return err
	}

	if err := s.exportCookies(loginCtx); err != nil {
		return fmt.Errorf("%w: export cookies: %v", ErrLoginFailed, err)
	}

	s.logger.Info("[corven] Login successful — %d session cookies", len(s.cookies))
	return nil
}

// waitForRedirect polls the tab URL until it lands on the storefront host.
func (s *Session) waitForRedirect(ctx context.Context) error {
	for {
		var loc string
		if err := chromedp.Run(ctx, chromedp.Location(&loc)); err != nil {
			return fmt.Errorf("%w: read location: %v", ErrLoginFailed, err)
		}
		if strings.Contains(loc, s.cfg.TargetHost) {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: no redirect to %s within timeout", ErrLoginFailed, s.cfg.TargetHost)
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (s *Session) exportCookies(ctx context.Context) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := cdpstorage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		s.cookies = cookies
		return nil
	}))
}

// Cookies returns the session cookies captured at login. The crawl itself
// keeps rendering through the browser tab; this exists for callers that want
// to reach the storefront with a plain HTTP client once authenticated.
func (s *Session) Cookies() []*network.Cookie {
	return s.cookies
}

// FetchPage navigates the tab to the given 1-based listing page, waits the
// settle time for dynamic content, and returns the rendered markup.
func (s *Session) FetchPage(ctx context.Context, page int) (string, error) {
	if s.tab == nil {
		return "", ErrSessionLost
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("fetch page %d: %w", page, err)
	}

	url := fmt.Sprintf("%s?page=%d", s.cfg.ProductsURL, page)

	fetchCtx, cancel := context.WithTimeout(s.tab, fetchTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(fetchCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(s.cfg.SettleTime()),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("fetch page %d: %w", page, err)
	}

	return html, nil
}

// Close releases the tab and the browser process. Safe to call on every exit path.
func (s *Session) Close() {
	if s.cancelTab != nil {
		s.cancelTab()
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
	}
	s.tab = nil
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
