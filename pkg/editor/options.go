package editor

import (
	"log/slog"

	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/ports"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger configures a logger for the Session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Session) {
		s.hooks = hooks
	}
}

// WithID sets the session id. A random UUID is used otherwise.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// WithConfirmer sets who answers promotion confirmations. The default
// declines every request.
func WithConfirmer(c ports.Confirmer) Option {
	return func(s *Session) {
		s.confirmer = c
	}
}

// WithNotifier sets where notifications go. The default logs them.
func WithNotifier(n ports.Notifier) Option {
	return func(s *Session) {
		s.notifier = n
	}
}
