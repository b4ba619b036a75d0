package llmgw

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedGateway is a deterministic Gateway test double. Each prompt key
// maps to a queue of responses consumed in order; it is used to prove
// bounded repair-loop behavior (exactly N sandbox invocations) without a
// real model.
type ScriptedGateway struct {
	mu      sync.Mutex
	queues  map[string][]Response
	calls   []Request
	keyFunc func(Request) string
}

// NewScriptedGateway builds a ScriptedGateway. keyFunc extracts the script
// key from a request; if nil, the full prompt is used as the key.
func NewScriptedGateway(keyFunc func(Request) string) *ScriptedGateway {
	if keyFunc == nil {
		keyFunc = func(r Request) string { return r.Prompt }
	}
	return &ScriptedGateway{
		queues:  make(map[string][]Response),
		keyFunc: keyFunc,
	}
}

// Script queues resp to be returned the next time a request with the
// given key is made.
func (g *ScriptedGateway) Script(key string, resp Response) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queues[key] = append(g.queues[key], resp)
}

// ScriptJSON is a convenience for queuing a Response whose Content is the
// given literal JSON string.
func (g *ScriptedGateway) ScriptJSON(key, jsonContent string) {
	g.Script(key, Response{Content: jsonContent, OK: true})
}

// Generate returns the next queued response for the request's key, or an
// error if the queue is empty.
func (g *ScriptedGateway) Generate(_ context.Context, req Request) (Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls = append(g.calls, req)

	key := g.keyFunc(req)
	q := g.queues[key]
	if len(q) == 0 {
		return Response{}, fmt.Errorf("llmgw: scripted gateway has no queued response for key %q", key)
	}
	resp := q[0]
	g.queues[key] = q[1:]
	return resp, nil
}

// Calls returns every request made so far, in order.
func (g *ScriptedGateway) Calls() []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Request, len(g.calls))
	copy(out, g.calls)
	return out
}

// CallCount returns the number of Generate invocations so far.
func (g *ScriptedGateway) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}
