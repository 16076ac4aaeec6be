package api

import (
	"context"
	"errors"
	"time"

	"github.com/ahrdadan/pagepilot/internal/browser"
	"github.com/ahrdadan/pagepilot/internal/dom"
	"github.com/ahrdadan/pagepilot/internal/interact"
	"github.com/gofiber/fiber/v2"
)

// BrowserControl is the browser surface the handler needs: lifecycle status
// plus the single-page session the interaction endpoints act on.
type BrowserControl interface {
	IsRunning() bool
	GetEndpoint() string
	HasPage() bool
	OpenURL(ctx context.Context, url string, opts browser.PageOptions) error
	ClosePage() error
	PageInfo() (url, title string, err error)
}

// Interactor is the interaction facade driven by the synchronous endpoints.
type Interactor interface {
	Click(ctx context.Context, selector string, waitBefore time.Duration) (interact.Outcome, error)
	EnterText(ctx context.Context, entry interact.TextEntry) (interact.Outcome, error)
	BulkEnterText(ctx context.Context, entries []interact.TextEntry) []interact.BulkResult
}

// Extractor returns page content for the agent's selector discovery loop.
type Extractor interface {
	Extract(ctx context.Context, contentType dom.ContentType) (interface{}, error)
}

// Handler handles API requests
type Handler struct {
	browser    BrowserControl
	interactor Interactor
	extractor  Extractor
}

// NewHandler creates a new handler
func NewHandler(browserControl BrowserControl, interactor Interactor, extractor Extractor) *Handler {
	return &Handler{
		browser:    browserControl,
		interactor: interactor,
		extractor:  extractor,
	}
}

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ErrorHandler is the custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(Response{
		Success: false,
		Error:   err.Error(),
	})
}

// noActivePage maps the missing-session precondition to 409. The agent is
// expected to open a URL and retry; 409 distinguishes that from a bad request.
func noActivePage() error {
	return fiber.NewError(fiber.StatusConflict, interact.ErrNoActivePage.Error())
}

// HealthCheck returns health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(Response{
		Success: true,
		Data: map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// BrowserStatus returns browser status
func (h *Handler) BrowserStatus(c *fiber.Ctx) error {
	return c.JSON(Response{
		Success: true,
		Data: map[string]interface{}{
			"running":     h.browser.IsRunning(),
			"endpoint":    h.browser.GetEndpoint(),
			"active_page": h.browser.HasPage(),
		},
	})
}

// OpenSessionRequest represents a session open request.
type OpenSessionRequest struct {
	URL         string                `json:"url" validate:"required"`
	WaitForLoad *bool                 `json:"wait_for_load,omitempty"`
	Timeout     int                   `json:"timeout"`
	UserAgent   string                `json:"user_agent,omitempty"`
	Headers     map[string]string     `json:"headers,omitempty"`
	Cookies     []browser.CookieParam `json:"cookies,omitempty"`
}

// OpenSession navigates the session page to a URL, creating the page when
// this is the first open.
// POST /pagepilot/session/open
func (h *Handler) OpenSession(c *fiber.Ctx) error {
	var req OpenSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if req.URL == "" {
		return fiber.NewError(fiber.StatusBadRequest, "URL is required")
	}

	opts := browser.DefaultPageOptions()
	if req.Timeout > 0 {
		opts.Timeout = time.Duration(req.Timeout) * time.Second
	}
	if req.WaitForLoad != nil {
		opts.WaitForLoad = *req.WaitForLoad
	}
	opts.UserAgent = req.UserAgent
	opts.Headers = req.Headers
	opts.Cookies = req.Cookies

	if err := h.browser.OpenURL(c.Context(), req.URL, opts); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(Response{
		Success: true,
		Data: map[string]interface{}{
			"url":    req.URL,
			"opened": true,
		},
	})
}

// SessionStatus returns whether a page session is open and where it is.
// GET /pagepilot/session/status
func (h *Handler) SessionStatus(c *fiber.Ctx) error {
	if !h.browser.HasPage() {
		return c.JSON(Response{
			Success: true,
			Data:    map[string]interface{}{"active": false},
		})
	}

	url, title, err := h.browser.PageInfo()
	if err != nil {
		if errors.Is(err, browser.ErrNoActivePage) {
			return c.JSON(Response{
				Success: true,
				Data:    map[string]interface{}{"active": false},
			})
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(Response{
		Success: true,
		Data: map[string]interface{}{
			"active": true,
			"url":    url,
			"title":  title,
		},
	})
}

// CloseSession closes the current page; the browser keeps running.
// POST /pagepilot/session/close
func (h *Handler) CloseSession(c *fiber.Ctx) error {
	if err := h.browser.ClosePage(); err != nil {
		if errors.Is(err, browser.ErrNoActivePage) {
			return noActivePage()
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(Response{
		Success: true,
		Data:    map[string]interface{}{"closed": true},
	})
}

// ClickRequest represents a click request
type ClickRequest struct {
	Selector   string  `json:"selector" validate:"required"`
	WaitBefore float64 `json:"wait_before,omitempty"` // seconds
}

// ClickElement clicks an element on the current page. The outcome message
// always describes what happened; a failed click is a 200 with success=false
// so the agent can read the message and adjust.
// POST /pagepilot/page/click
func (h *Handler) ClickElement(c *fiber.Ctx) error {
	var req ClickRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if req.Selector == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Selector is required")
	}

	waitBefore := time.Duration(req.WaitBefore * float64(time.Second))
	outcome, err := h.interactor.Click(c.Context(), req.Selector, waitBefore)
	if err != nil {
		if errors.Is(err, interact.ErrNoActivePage) {
			return noActivePage()
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(Response{
		Success: outcome.Success,
		Data: map[string]interface{}{
			"selector": req.Selector,
			"message":  outcome.Message,
		},
	})
}

// EnterTextRequest represents a text entry request
type EnterTextRequest struct {
	Selector string `json:"selector" validate:"required"`
	Text     string `json:"text"`
}

// EnterText enters text into an element on the current page.
// POST /pagepilot/page/enter-text
func (h *Handler) EnterText(c *fiber.Ctx) error {
	var req EnterTextRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if req.Selector == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Selector is required")
	}

	outcome, err := h.interactor.EnterText(c.Context(), interact.TextEntry{
		Selector: req.Selector,
		Text:     req.Text,
	})
	if err != nil {
		if errors.Is(err, interact.ErrNoActivePage) {
			return noActivePage()
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(Response{
		Success: outcome.Success,
		Data: map[string]interface{}{
			"selector": req.Selector,
			"message":  outcome.Message,
		},
	})
}

// BulkEnterTextRequest represents a bulk text entry request
type BulkEnterTextRequest struct {
	Entries []interact.TextEntry `json:"entries" validate:"required"`
}

// BulkEnterText enters text into several elements in order. Every entry gets
// a result; the call never aborts on a failing entry.
// POST /pagepilot/page/bulk-enter-text
func (h *Handler) BulkEnterText(c *fiber.Ctx) error {
	var req BulkEnterTextRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if len(req.Entries) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Entries are required")
	}

	if !h.browser.HasPage() {
		return noActivePage()
	}

	results := h.interactor.BulkEnterText(c.Context(), req.Entries)

	return c.JSON(Response{
		Success: true,
		Data: map[string]interface{}{
			"results": results,
			"total":   len(results),
		},
	})
}

// DOMRequest represents a DOM extraction request
type DOMRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

// ExtractDOM returns page content for the requested content type.
// POST /pagepilot/page/dom
func (h *Handler) ExtractDOM(c *fiber.Ctx) error {
	var req DOMRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if req.ContentType == "" {
		return fiber.NewError(fiber.StatusBadRequest, "content_type is required")
	}

	result, err := h.extractor.Extract(c.Context(), dom.ContentType(req.ContentType))
	if err != nil {
		if errors.Is(err, dom.ErrNoActivePage) {
			return noActivePage()
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(Response{
		Success: true,
		Data: map[string]interface{}{
			"content_type": req.ContentType,
			"content":      result,
		},
	})
}
