// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider to feed scripted completion responses to consumers and to
// verify the requests they build.
//
// Example:
//
//	p := &mock.Provider{
//	    CompleteResponses: []*llm.CompletionResponse{{Content: `{"title":"T"}`}},
//	}
//	resp, _ := p.Complete(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/podforge/podforge/pkg/provider/llm"
)

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// Req is the request passed to Complete.
	Req llm.CompletionRequest
}

// Provider is a mock implementation of llm.Provider.
type Provider struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// CompleteResponses is the sequence of responses returned by successive
	// Complete calls. When exhausted, the last entry is repeated.
	CompleteResponses []*llm.CompletionResponse

	// CompleteErrs pairs with CompleteResponses: CompleteErrs[i], when
	// non-nil, is returned by the i-th Complete call instead of a response.
	// A shorter slice means later calls succeed.
	CompleteErrs []error

	// CompleteFunc, if non-nil, overrides the canned responses entirely.
	CompleteFunc func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)

	// --- Call records ---

	// CompleteCalls records every call to Complete in order.
	CompleteCalls []CompleteCall
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.CompleteCalls = append(p.CompleteCalls, CompleteCall{Ctx: ctx, Req: req})
	n := len(p.CompleteCalls) - 1
	fn := p.CompleteFunc
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if n < len(p.CompleteErrs) && p.CompleteErrs[n] != nil {
		return nil, p.CompleteErrs[n]
	}
	if len(p.CompleteResponses) == 0 {
		return &llm.CompletionResponse{}, nil
	}
	if n >= len(p.CompleteResponses) {
		n = len(p.CompleteResponses) - 1
	}
	return p.CompleteResponses[n], nil
}

// CountTokens implements llm.Provider with a 4-chars-per-token approximation.
func (p *Provider) CountTokens(messages []llm.Message) (int, error) {
	total := 0
	for _, m := range messages {
		total += (len(m.Content) + 3) / 4
	}
	return total, nil
}

// Calls returns the number of Complete invocations so far.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.CompleteCalls)
}
