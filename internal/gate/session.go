package gate

import (
	"context"
	"sync"

	"mnm-site/internal/domain"
)

// State is the verification state of a wallet session.
type State int

const (
	StateDisconnected State = iota
	StateVerifying
	StateVerified
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateVerifying:
		return "verifying"
	case StateVerified:
		return "verified"
	default:
		return "unknown"
	}
}

// Status is a snapshot of the session.
type Status struct {
	State     State
	Address   string
	Balance   domain.WalletTokenBalance
	HasAccess bool
	Token     uint64 // generation that produced this status
}

// Session tracks one wallet connection. Every connect, account change and
// disconnect starts a new generation; results from older generations are
// dropped.
type Session struct {
	verifier *Verifier

	mu         sync.Mutex
	generation uint64
	status     Status
	listeners  []func(Status)
}

// NewSession creates a disconnected session.
func NewSession(verifier *Verifier) *Session {
	return &Session{verifier: verifier}
}

// OnChange registers a listener called after each applied transition.
// Listeners run synchronously and must not call back into the session.
func (s *Session) OnChange(fn func(Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Status returns the current status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Begin moves to Verifying for address and returns the generation token
// the result must be completed with.
func (s *Session) Begin(address string) uint64 {
	s.mu.Lock()
	s.generation++
	s.status = Status{
		State:   StateVerifying,
		Address: address,
		Balance: domain.ZeroBalance(address),
		Token:   s.generation,
	}
	st, listeners := s.status, s.listeners
	s.mu.Unlock()

	notify(listeners, st)
	return st.Token
}

// Complete applies a verification result if token is still current.
// It reports whether the result was applied.
func (s *Session) Complete(token uint64, res Result) bool {
	s.mu.Lock()
	if token != s.generation || s.status.State != StateVerifying {
		s.mu.Unlock()
		return false
	}
	s.status = Status{
		State:     StateVerified,
		Address:   s.status.Address,
		Balance:   res.Balance,
		HasAccess: res.HasAccess,
		Token:     token,
	}
	st, listeners := s.status, s.listeners
	s.mu.Unlock()

	notify(listeners, st)
	return true
}

// Disconnect clears the session.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.generation++
	s.status = Status{State: StateDisconnected, Token: s.generation}
	st, listeners := s.status, s.listeners
	s.mu.Unlock()

	notify(listeners, st)
}

// Connect begins a generation for address and runs the verification.
// Calling it again for another account supersedes the earlier run.
// It returns the status after the run, which reflects a newer generation
// if one started meanwhile.
func (s *Session) Connect(ctx context.Context, address string) Status {
	token := s.Begin(address)
	res := s.verifier.Verify(ctx, address)
	s.Complete(token, res)
	return s.Status()
}

func notify(listeners []func(Status), st Status) {
	for _, fn := range listeners {
		fn(st)
	}
}
