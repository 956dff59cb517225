package events

import "github.com/grantcarthew/wsecho/internal/wsclient"

// RegisteringListener forwards every text frame into a Registry.
type RegisteringListener struct {
	registry *Registry
}

// NewRegisteringListener returns a listener that writes into registry.
func NewRegisteringListener(registry *Registry) *RegisteringListener {
	return &RegisteringListener{registry: registry}
}

// OnTextMessage implements wsclient.Listener.
func (l *RegisteringListener) OnTextMessage(_ *wsclient.Client, text string) {
	l.registry.Register(text)
}

var _ wsclient.Listener = (*RegisteringListener)(nil)
