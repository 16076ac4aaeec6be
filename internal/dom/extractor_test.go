package dom_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ahrdadan/pagepilot/internal/dom"
	"github.com/go-rod/rod"
)

type noPages struct{}

func (noPages) CurrentPage() *rod.Page { return nil }

func TestExtractInvalidContentType(t *testing.T) {
	extractor := dom.NewExtractor(noPages{})

	_, err := extractor.Extract(context.Background(), "everything")
	if err == nil || !strings.Contains(err.Error(), "unsupported content type") {
		t.Fatalf("Expected unsupported content type error, got %v", err)
	}
}

func TestExtractNoActivePage(t *testing.T) {
	extractor := dom.NewExtractor(noPages{})

	for _, contentType := range []dom.ContentType{
		dom.ContentTypeTextOnly,
		dom.ContentTypeInputFields,
		dom.ContentTypeAllFields,
	} {
		_, err := extractor.Extract(context.Background(), contentType)
		if !errors.Is(err, dom.ErrNoActivePage) {
			t.Errorf("%s: expected ErrNoActivePage, got %v", contentType, err)
		}
	}
}
