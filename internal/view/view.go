// Package view holds what the per-screen view models share: routes,
// transient notices, change notification and a pluggable timer source.
package view

import (
	"sync"
	"time"

	"budgetbuddy/internal/remote"
)

type Route string

const (
	RouteLogin      Route = "login"
	RouteRegister   Route = "register"
	RouteDashboard  Route = "dashboard"
	RouteAddExpense Route = "add-expense"
	RouteExpenses   Route = "expenses"
	RouteReports    Route = "reports"
)

// Navigator switches the visible screen.
type Navigator interface {
	Navigate(Route)
}

type NavigatorFunc func(Route)

func (f NavigatorFunc) Navigate(r Route) { f(r) }

type nopNavigator struct{}

func (nopNavigator) Navigate(Route) {}

// NopNavigator ignores navigation requests.
var NopNavigator Navigator = nopNavigator{}

// Timer is the part of *time.Timer the views use.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d. Tests swap in viewtest.Scheduler.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler uses the wall clock.
var RealScheduler Scheduler = realScheduler{}

// Expirer ends the session; implemented by session.Service.
type Expirer interface {
	Expire(msg string)
}

// ExpireOnUnauthorized expires the session when err is a 401. It reports
// whether it did.
func ExpireOnUnauthorized(err error, e Expirer) bool {
	if e == nil || !remote.IsUnauthorized(err) {
		return false
	}
	e.Expire("")
	return true
}

// Notifier fans change notifications out to subscribers.
type Notifier struct {
	mu    sync.Mutex
	subs  map[int]func()
	order []int
	next  int
}

// Subscribe registers fn and returns its removal function.
func (n *Notifier) Subscribe(fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func())
	}
	id := n.next
	n.next++
	n.subs[id] = fn
	n.order = append(n.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs, id)
			for i, v := range n.order {
				if v == id {
					n.order = append(n.order[:i], n.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Notify calls every subscriber. Callers must not hold their own locks.
func (n *Notifier) Notify() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.order))
	for _, id := range n.order {
		fns = append(fns, n.subs[id])
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
