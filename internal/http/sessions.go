package http

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mauv0809/shuttlereg/internal/payment"
	"github.com/mauv0809/shuttlereg/internal/registration"
)

const (
	defaultSessionSize = 10000
	defaultSessionTTL  = 2 * time.Hour
)

// workflowSession serialises requests against one Workflow. order is the
// checkout most recently opened for it; only that order can confirm it.
type workflowSession struct {
	mu       sync.Mutex
	workflow *registration.Workflow
	order    *payment.Order
}

// sessionRegistry keeps one registration workflow per (actor, tournament).
// Idle sessions expire; a persisted draft survives them.
type sessionRegistry struct {
	mu          sync.Mutex
	cache       *expirable.LRU[string, *workflowSession]
	newWorkflow func() *registration.Workflow
}

func newSessionRegistry(size int, ttl time.Duration, newWorkflow func() *registration.Workflow) *sessionRegistry {
	return &sessionRegistry{
		cache:       expirable.NewLRU[string, *workflowSession](size, nil, ttl),
		newWorkflow: newWorkflow,
	}
}

func sessionKey(actor, tournamentID string) string {
	return actor + "|" + tournamentID
}

// start initializes a fresh workflow for the tournament. On success it
// replaces any existing session for the key; on failure the key is left
// without a session and the failed session is returned for its state.
func (r *sessionRegistry) start(ctx context.Context, key, tournamentID string) (*workflowSession, error) {
	sess := &workflowSession{workflow: r.newWorkflow()}
	err := sess.workflow.Initialize(ctx, tournamentID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.cache.Remove(key)
		return sess, err
	}
	r.cache.Add(key, sess)
	return sess, nil
}

func (r *sessionRegistry) get(key string) (*workflowSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Get(key)
}
