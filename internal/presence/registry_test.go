package presence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type handle struct{ id int }

func TestRegistry_RegisterReplacesExistingEntry(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry[*handle]()
	h1 := &handle{id: 1}
	h2 := &handle{id: 2}

	prior, replaced := reg.Register("alice", h1)
	req.False(replaced)
	req.Nil(prior)

	// Second connection for the same identity wins and returns the old handle.
	prior, replaced = reg.Register("alice", h2)
	req.True(replaced)
	req.Same(h1, prior)

	roster, _ := reg.Snapshot()
	req.Equal([]string{"alice"}, roster)
	req.Equal(1, reg.Len())

	current, ok := reg.Lookup("alice")
	req.True(ok)
	req.Same(h2, current)
}

func TestRegistry_DeregisterIsIdempotent(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry[*handle]()
	h := &handle{id: 1}

	// Deregistering an identity that was never registered is a no-op.
	req.False(reg.Deregister("ghost", h))

	reg.Register("bob", h)
	req.True(reg.Deregister("bob", h))
	req.False(reg.Deregister("bob", h))

	roster, _ := reg.Snapshot()
	req.Empty(roster)
}

func TestRegistry_StaleDeregisterDoesNotEvictReplacement(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry[*handle]()
	h1 := &handle{id: 1}
	h2 := &handle{id: 2}

	reg.Register("carol", h1)
	reg.Register("carol", h2)

	// A late disconnect from the superseded connection must not remove the
	// replacement entry.
	req.False(reg.Deregister("carol", h1))

	current, ok := reg.Lookup("carol")
	req.True(ok)
	req.Same(h2, current)
}

func TestRegistry_SnapshotTracksMutations(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry[*handle]()
	ha := &handle{id: 1}
	hb := &handle{id: 2}

	reg.Register("a", ha)
	reg.Register("b", hb)
	roster, v1 := reg.Snapshot()
	req.ElementsMatch([]string{"a", "b"}, roster)

	reg.Deregister("a", ha)
	roster, v2 := reg.Snapshot()
	req.Equal([]string{"b"}, roster)
	req.Greater(v2, v1)
}

func TestRegistry_SnapshotCountsIdentitiesNotConnections(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry[*handle]()

	// Three connection events, two distinct identities.
	reg.Register("a", &handle{id: 1})
	reg.Register("a", &handle{id: 2})
	reg.Register("b", &handle{id: 3})

	roster, _ := reg.Snapshot()
	req.Len(roster, 2)
	req.ElementsMatch([]string{"a", "b"}, roster)
}
