package pop3sf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockRegistry_ExclusiveExcludesEverything(t *testing.T) {
	r := NewLockRegistry()

	release, ok := r.Acquire("alice", "session-a", LockExclusive)
	assert.True(t, ok)

	_, ok = r.Acquire("alice", "session-b", LockExclusive)
	assert.False(t, ok, "a second exclusive holder must be refused")

	_, ok = r.Acquire("alice", "session-b", LockReadOnly)
	assert.False(t, ok, "read-only must be refused while an exclusive holder exists")

	release()

	_, ok = r.Acquire("alice", "session-b", LockExclusive)
	assert.True(t, ok, "lock must be free after release")
}

func TestLockRegistry_ManyReadOnlyHoldersCoexist(t *testing.T) {
	r := NewLockRegistry()

	releaseB, ok := r.Acquire("alice", "session-b", LockReadOnly)
	assert.True(t, ok)

	releaseC, ok := r.Acquire("alice", "session-c", LockReadOnly)
	assert.True(t, ok, "a second read-only holder must be granted")

	_, ok = r.Acquire("alice", "session-d", LockExclusive)
	assert.False(t, ok, "exclusive must be refused while any read-only holder exists")

	releaseB()
	_, ok = r.Acquire("alice", "session-d", LockExclusive)
	assert.False(t, ok, "exclusive still refused while one read-only holder remains")

	releaseC()
	_, ok = r.Acquire("alice", "session-d", LockExclusive)
	assert.True(t, ok, "exclusive granted once all read-only holders released")
}

func TestLockRegistry_ReleaseIsIdempotent(t *testing.T) {
	r := NewLockRegistry()

	release, ok := r.Acquire("bob", "session-a", LockExclusive)
	assert.True(t, ok)

	assert.NotPanics(t, func() {
		release()
		release()
		release()
	})

	_, ok = r.Acquire("bob", "session-b", LockExclusive)
	assert.True(t, ok)
}

func TestLockRegistry_IndependentUsersDoNotInteract(t *testing.T) {
	r := NewLockRegistry()

	_, ok := r.Acquire("alice", "session-a", LockExclusive)
	assert.True(t, ok)

	_, ok = r.Acquire("bob", "session-b", LockExclusive)
	assert.True(t, ok, "locking one user must not affect another")
}
