package oracle

import (
	"context"
	"sync"
)

// DisambiguateCall records the arguments of one MockClient invocation
type DisambiguateCall struct {
	Claim      UserClaim
	Candidates []Candidate
}

// MockClient is a scriptable Client for tests. It records every call and
// returns the configured verdict or error.
type MockClient struct {
	mu      sync.Mutex
	Verdict *Verdict
	Err     error

	// Respond, when set, runs before the scripted verdict is returned.
	// Use it to block on ctx.Done() and simulate a timeout.
	Respond func(ctx context.Context) error

	Calls []DisambiguateCall
}

// Disambiguate implements Client
func (m *MockClient) Disambiguate(ctx context.Context, claim UserClaim, candidates []Candidate) (*Verdict, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, DisambiguateCall{Claim: claim, Candidates: candidates})
	m.mu.Unlock()

	if m.Respond != nil {
		if err := m.Respond(ctx); err != nil {
			return nil, err
		}
	}

	if m.Err != nil {
		return nil, m.Err
	}

	return m.Verdict, nil
}

// CallCount returns how many times the mock was invoked
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
