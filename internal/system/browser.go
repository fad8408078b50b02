package system

import (
	"github.com/pkg/browser"

	"github.com/MrJi421/VOCEX/internal/domain"
	"github.com/MrJi421/VOCEX/internal/logger"
)

// Compile-time interface check.
var _ domain.Browser = (*WebSearcher)(nil)

// WebSearcher opens URLs in the system default browser.
type WebSearcher struct {
	log *logger.Logger
}

func NewWebSearcher(log *logger.Logger) *WebSearcher {
	return &WebSearcher{log: log}
}

func (w *WebSearcher) OpenURL(u string) error {
	w.log.Debug("opening %s", u)
	return browser.OpenURL(u)
}
