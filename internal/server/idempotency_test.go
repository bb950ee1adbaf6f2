package server

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIdempotencyManager_CheckAndStore(t *testing.T) {
	im := NewIdempotencyManager(time.Minute)
	reply := Envelope{Type: OutActionResult, RequestID: "a1"}

	_, ok := im.Check("s1", "a1")
	assert.False(t, ok)

	im.Store("s1", "a1", reply)
	got, ok := im.Check("s1", "a1")
	assert.True(t, ok)
	assert.Equal(t, reply, got)

	_, ok = im.Check("s2", "a1")
	assert.False(t, ok, "request ids are scoped to their session")
}

func TestIdempotencyManager_EmptyRequestID(t *testing.T) {
	im := NewIdempotencyManager(time.Minute)
	im.Store("s1", "", Envelope{Type: OutError})

	assert.Zero(t, im.Len())
	_, ok := im.Check("s1", "")
	assert.False(t, ok)
}

func TestIdempotencyManager_Expiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	im := NewIdempotencyManager(time.Minute)
	im.now = func() time.Time { return now }

	im.Store("s1", "a1", Envelope{Type: OutActionResult})
	now = now.Add(59 * time.Second)
	_, ok := im.Check("s1", "a1")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = im.Check("s1", "a1")
	assert.False(t, ok)
}

func TestIdempotencyManager_CleanupOnOverflow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	im := NewIdempotencyManager(time.Minute)
	im.now = func() time.Time { return now }

	for i := 0; i < idempotencyCacheSize; i++ {
		im.Store("old", fmt.Sprintf("r%d", i), Envelope{})
	}
	now = now.Add(2 * time.Minute)
	im.Store("new", "r0", Envelope{})
	assert.Equal(t, 1, im.Len())
}

func TestIdempotencyManager_Forget(t *testing.T) {
	im := NewIdempotencyManager(0)
	assert.Equal(t, defaultIdempotencyTTL, im.ttl)

	im.Store("s1", "a", Envelope{})
	im.Store("s1", "b", Envelope{})
	im.Store("s2", "a", Envelope{})

	im.Forget("s1")
	assert.Equal(t, 1, im.Len())
	_, ok := im.Check("s2", "a")
	assert.True(t, ok)
}
