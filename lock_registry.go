package pop3sf

import "sync"

// LockMode is the mode in which a session holds a mailbox lock (§4.4).
type LockMode int

const (
	LockExclusive LockMode = iota
	LockReadOnly
)

// LockRegistry is the process-wide mailbox lock coordinator (C4): it
// enforces that for any user, either one exclusive session holds the lock
// and no read-only session does, or any number of read-only sessions hold
// it and no exclusive one does (invariant 1).
//
// Grounded on original_source/PerUserExclusivityEnsurer.py's single
// mutex-guarded client list, re-expressed per the design notes as an
// explicit value constructed once at server start and passed by reference,
// not a language-level singleton.
type LockRegistry struct {
	mu      sync.Mutex
	records map[string]*lockRecord
}

type lockRecord struct {
	exclusiveHolder string // holder id, empty if none
	readOnlyHolders map[string]struct{}
}

// NewLockRegistry constructs an empty lock registry.
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{
		records: make(map[string]*lockRecord),
	}
}

// Acquire attempts to take a lock on user in mode on behalf of holderID (a
// value unique per session, e.g. its session id). On success it returns a
// release function that must be called exactly once, from every session
// termination path, to release the lock; calling it more than once is a
// no-op. On failure it returns a nil release function and false; the
// session maps that to an IN-USE reply.
func (r *LockRegistry) Acquire(user, holderID string, mode LockMode) (release func(), ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.records[user]
	if !exists {
		rec = &lockRecord{readOnlyHolders: make(map[string]struct{})}
		r.records[user] = rec
	}

	switch mode {
	case LockExclusive:
		if rec.exclusiveHolder != "" || len(rec.readOnlyHolders) > 0 {
			return nil, false
		}
		rec.exclusiveHolder = holderID

	case LockReadOnly:
		if rec.exclusiveHolder != "" {
			return nil, false
		}
		rec.readOnlyHolders[holderID] = struct{}{}
	}

	var once sync.Once
	return func() {
		once.Do(func() { r.release(user, holderID, mode) })
	}, true
}

func (r *LockRegistry) release(user, holderID string, mode LockMode) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.records[user]
	if !exists {
		return
	}

	switch mode {
	case LockExclusive:
		if rec.exclusiveHolder == holderID {
			rec.exclusiveHolder = ""
		}
	case LockReadOnly:
		delete(rec.readOnlyHolders, holderID)
	}

	if rec.exclusiveHolder == "" && len(rec.readOnlyHolders) == 0 {
		delete(r.records, user)
	}
}
