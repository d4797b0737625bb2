// Package extractor routes stored receipt files to a format-specific text
// extractor by file extension.
package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/BradRyan1/Receipt-Processor/internal/core/domain"
	"github.com/BradRyan1/Receipt-Processor/internal/core/ports"
)

type Router struct {
	byExt map[string]ports.TextExtractor
}

func NewRouter() *Router {
	return &Router{byExt: make(map[string]ports.TextExtractor)}
}

// Register maps one or more extensions (with leading dot) to an extractor.
// Later registrations win.
func (r *Router) Register(ex ports.TextExtractor, extensions ...string) *Router {
	for _, ext := range extensions {
		r.byExt[strings.ToLower(ext)] = ex
	}
	return r
}

func (r *Router) Extract(ctx context.Context, receipt *domain.Receipt) ([]string, error) {
	ex, ok := r.byExt[strings.ToLower(receipt.Extension)]
	if !ok {
		return nil, fmt.Errorf("no extractor registered for %q", receipt.Extension)
	}
	return ex.Extract(ctx, receipt)
}
