// Package flags provides read-only feature flags loaded from configuration.
package flags

import (
	"maps"

	"github.com/zjrosen/portal/internal/log"
)

const (
	// FlagQuotePDF enables downloading a quote as PDF from the history view.
	FlagQuotePDF = "quote-pdf"

	// FlagSessionWatch reloads sites when the session file changes on disk,
	// e.g. after `portal login` in another terminal.
	FlagSessionWatch = "session-watch"
)

// Registry holds flag values. Unknown flags are disabled.
type Registry struct {
	flags map[string]bool
}

// New copies flags into a Registry. A nil map yields an empty registry.
func New(flags map[string]bool) *Registry {
	r := &Registry{flags: make(map[string]bool, len(flags))}
	maps.Copy(r.flags, flags)
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(r.flags))
	return r
}

// Enabled reports whether name is on. Nil registries and unknown names are off.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	return r.flags[name]
}

// All returns a copy of every flag.
func (r *Registry) All() map[string]bool {
	out := make(map[string]bool)
	if r == nil {
		return out
	}
	maps.Copy(out, r.flags)
	return out
}
