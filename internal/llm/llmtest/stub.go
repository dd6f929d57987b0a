// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/ashureev/chorechat/internal/llm"
)

// ErrScripted is returned by Fail replies.
var ErrScripted = errors.New("scripted upstream failure")

// Reply is one scripted answer.
type Reply struct {
	Text string
	Err  error
}

// Text scripts a successful reply.
func Text(s string) Reply { return Reply{Text: s} }

// Fail scripts an upstream failure.
func Fail() Reply { return Reply{Err: llm.ErrUpstream} }

// Stub replays scripted replies in order and repeats the last one once exhausted.
// When Route is set it is consulted first, keyed by the Purpose option.
type Stub struct {
	mu      sync.Mutex
	replies []Reply
	Route   map[string][]Reply
	calls   []Call
}

// Call records one Complete invocation.
type Call struct {
	Prompt string
	Opts   llm.Options
}

// New returns a stub that answers with replies in order.
func New(replies ...Reply) *Stub {
	return &Stub{replies: replies}
}

// Always returns a stub that answers every call with text.
func Always(text string) *Stub {
	return New(Text(text))
}

// AlwaysFail returns a stub whose every call fails upstream.
func AlwaysFail() *Stub {
	return New(Fail())
}

// Name implements llm.Client.
func (s *Stub) Name() string { return "stub" }

// Complete implements llm.Client.
func (s *Stub) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	queue := s.replies
	if routed, ok := s.Route[opts.Purpose]; ok {
		queue = routed
	}
	n := s.countLocked(opts.Purpose, hasRoute(s.Route, opts.Purpose))
	s.calls = append(s.calls, Call{Prompt: prompt, Opts: opts})

	if len(queue) == 0 {
		return "", llm.ErrEmptyResponse
	}
	r := queue[min(n, len(queue)-1)]
	if r.Err != nil {
		if errors.Is(r.Err, llm.ErrUpstream) {
			return "", r.Err
		}
		return "", errors.Join(llm.ErrUpstream, r.Err)
	}
	return r.Text, nil
}

// Calls returns a copy of all recorded calls.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount returns the number of calls, optionally filtered by purpose.
func (s *Stub) CallCount(purpose ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(purpose) == 0 {
		return len(s.calls)
	}
	return s.countLocked(purpose[0], true)
}

func (s *Stub) countLocked(purpose string, filtered bool) int {
	if !filtered {
		return len(s.calls)
	}
	n := 0
	for _, c := range s.calls {
		if c.Opts.Purpose == purpose {
			n++
		}
	}
	return n
}

func hasRoute(route map[string][]Reply, purpose string) bool {
	_, found := route[purpose]
	return found
}

var _ llm.Client = (*Stub)(nil)
