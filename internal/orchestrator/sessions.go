package orchestrator

import (
	"sync"

	"telecaller-platform/internal/conversation"
)

// session is the live state of one active call. Webhooks for the same
// call sid serialize on mu; different calls proceed concurrently.
type session struct {
	mu sync.Mutex

	callID  string
	callSid string
	state   *conversation.State
}

type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*session // keyed by call sid
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*session)}
}

func (r *sessionRegistry) put(s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.callSid] = s
}

func (r *sessionRegistry) get(callSid string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[callSid]
	return s, ok
}

func (r *sessionRegistry) remove(callSid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, callSid)
}

func (r *sessionRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
