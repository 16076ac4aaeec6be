package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ErrNoActivePage is returned by page-scoped operations before a URL has
// been opened.
var ErrNoActivePage = errors.New("no active page found, open a URL to start a session")

// Manager owns the Chromium instance and the single page every interaction
// runs against. The agent opens a page once and keeps acting on it; per-call
// page churn would lose the session state (cookies, focus, scroll) the
// interaction pipeline relies on.
type Manager struct {
	binPath   string
	headless  bool
	proxy     string
	mu        sync.Mutex
	restartMu sync.Mutex
	launcher  *launcher.Launcher
	browser   *rod.Browser
	wsURL     string
	running   bool

	pageMu sync.RWMutex
	page   *rod.Page
}

// Options configures the browser launch.
type Options struct {
	BinPath  string // empty lets the launcher locate or download Chromium
	Headless bool
	Proxy    string
}

// NewManager creates a browser manager.
func NewManager(opts Options) *Manager {
	return &Manager{
		binPath:  opts.BinPath,
		headless: opts.Headless,
		proxy:    opts.Proxy,
	}
}

// Start launches Chromium and connects via CDP.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	l := launcher.New().Headless(m.headless)
	if m.binPath != "" {
		l.Bin(m.binPath)
	}
	if m.proxy != "" {
		l.Proxy(m.proxy)
	}

	wsURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(wsURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("failed to connect to chrome: %w", err)
	}

	m.launcher = l
	m.browser = browser
	m.wsURL = wsURL
	m.running = true

	log.Printf("Chrome started with endpoint %s", wsURL)
	return nil
}

// Stop closes the current page and stops Chromium.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	m.dropPage()

	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			log.Printf("Warning: failed to close chrome: %v", err)
		}
	}

	if m.launcher != nil {
		m.launcher.Kill()
		m.launcher.Cleanup()
	}

	m.launcher = nil
	m.browser = nil
	m.wsURL = ""
	m.running = false

	log.Println("Chrome stopped")
	return nil
}

// IsRunning reports whether Chromium is running.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// GetEndpoint returns the Chrome DevTools endpoint.
func (m *Manager) GetEndpoint() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wsURL
}

// CurrentPage returns the active page, or nil when no session is open.
func (m *Manager) CurrentPage() *rod.Page {
	m.pageMu.RLock()
	defer m.pageMu.RUnlock()
	return m.page
}

// HasPage reports whether a page session is open.
func (m *Manager) HasPage() bool {
	return m.CurrentPage() != nil
}

// OpenURL navigates the current page to url, creating the page on first
// use. Subsequent interactions act on this page until ClosePage or another
// OpenURL.
func (m *Manager) OpenURL(ctx context.Context, url string, opts PageOptions) error {
	if err := m.ensureStarted(); err != nil {
		return fmt.Errorf("failed to start chrome: %w", err)
	}

	page, err := m.ensurePage(ctx)
	if err != nil {
		return err
	}

	if err := applyPageOptions(page, url, opts); err != nil {
		return err
	}

	if err := page.Context(ctx).Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	if opts.WaitForLoad {
		if err := page.Context(ctx).WaitLoad(); err != nil {
			return fmt.Errorf("failed to wait for page load: %w", err)
		}
	}

	log.Printf("Opened %s", url)
	return nil
}

// ClosePage closes the current page; the browser keeps running.
func (m *Manager) ClosePage() error {
	m.pageMu.Lock()
	defer m.pageMu.Unlock()

	if m.page == nil {
		return ErrNoActivePage
	}

	if err := m.page.Close(); err != nil {
		log.Printf("Warning: failed to close page: %v", err)
	}
	m.page = nil
	return nil
}

// PageInfo returns the current page URL and title.
func (m *Manager) PageInfo() (url, title string, err error) {
	page := m.CurrentPage()
	if page == nil {
		return "", "", ErrNoActivePage
	}

	info, err := page.Info()
	if err != nil {
		return "", "", fmt.Errorf("failed to read page info: %w", err)
	}
	return info.URL, info.Title, nil
}

func (m *Manager) ensurePage(ctx context.Context) (*rod.Page, error) {
	if page := m.CurrentPage(); page != nil {
		return page, nil
	}

	page, err := m.createPage(ctx)
	if err != nil {
		return nil, err
	}

	m.pageMu.Lock()
	defer m.pageMu.Unlock()
	if m.page != nil {
		// Lost the race; keep the existing session page.
		_ = page.Close()
		return m.page, nil
	}
	m.page = page
	return page, nil
}

func (m *Manager) createPage(ctx context.Context) (*rod.Page, error) {
	page, err := m.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		if !isConnectionError(err) {
			return nil, fmt.Errorf("failed to create page: %w", err)
		}

		if restartErr := m.restart(); restartErr != nil {
			return nil, fmt.Errorf("failed to restart chrome after connection error: %w", restartErr)
		}

		page, err = m.browser.Context(ctx).Page(proto.TargetCreateTarget{})
		if err != nil {
			return nil, fmt.Errorf("failed to create page: %w", err)
		}
	}
	return page, nil
}

// dropPage clears the page reference without closing it; browser teardown
// closes all targets anyway.
func (m *Manager) dropPage() {
	m.pageMu.Lock()
	m.page = nil
	m.pageMu.Unlock()
}

func (m *Manager) ensureStarted() error {
	if m.IsRunning() {
		return nil
	}

	m.restartMu.Lock()
	defer m.restartMu.Unlock()

	if m.IsRunning() {
		return nil
	}

	return m.Start()
}

func (m *Manager) restart() error {
	m.restartMu.Lock()
	defer m.restartMu.Unlock()

	if err := m.Stop(); err != nil {
		log.Printf("Warning: failed to stop chrome before restart: %v", err)
	}

	return m.Start()
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, net.ErrClosed) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "eof")
}
