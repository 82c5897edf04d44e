package viewtest

import (
	"sync"

	"budgetbuddy/internal/view"
)

// Navigator records every route it is asked to show.
type Navigator struct {
	mu     sync.Mutex
	routes []view.Route
}

func (n *Navigator) Navigate(r view.Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, r)
}

func (n *Navigator) Routes() []view.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]view.Route(nil), n.routes...)
}

// Expirer records session expiries.
type Expirer struct {
	mu       sync.Mutex
	messages []string
}

func (e *Expirer) Expire(msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.messages = append(e.messages, msg)
}

func (e *Expirer) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.messages)
}
