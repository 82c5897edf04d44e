package view

import (
	"sync"
	"time"
)

// Transient window lengths.
const (
	NoticeDuration = 3 * time.Second
	RedirectDelay  = 2 * time.Second
)

type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
)

func (k NoticeKind) String() string {
	if k == NoticeError {
		return "error"
	}
	return "success"
}

// Notice is a short message shown to the user.
type Notice struct {
	Kind NoticeKind
	Text string
}

// Flash shows one notice at a time and hides it after a delay. A new notice
// replaces the old one and restarts the window.
type Flash struct {
	sched    Scheduler
	onChange func()

	mu      sync.Mutex
	current *Notice
	timer   Timer
	gen     int
}

// NewFlash calls onChange (if set) whenever the visible notice changes.
func NewFlash(sched Scheduler, onChange func()) *Flash {
	if sched == nil {
		sched = RealScheduler
	}
	return &Flash{sched: sched, onChange: onChange}
}

func (f *Flash) Show(kind NoticeKind, text string, d time.Duration) {
	f.mu.Lock()
	if f.timer != nil {
		f.timer.Stop()
	}
	f.gen++
	gen := f.gen
	f.current = &Notice{Kind: kind, Text: text}
	f.timer = f.sched.AfterFunc(d, func() { f.expire(gen) })
	f.mu.Unlock()
	f.changed()
}

func (f *Flash) Clear() {
	f.mu.Lock()
	if f.current == nil {
		f.mu.Unlock()
		return
	}
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.gen++
	f.current = nil
	f.mu.Unlock()
	f.changed()
}

// Current returns the visible notice, if any.
func (f *Flash) Current() (Notice, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return Notice{}, false
	}
	return *f.current, true
}

func (f *Flash) expire(gen int) {
	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		return
	}
	f.current = nil
	f.timer = nil
	f.mu.Unlock()
	f.changed()
}

func (f *Flash) changed() {
	if f.onChange != nil {
		f.onChange()
	}
}
