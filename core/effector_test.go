package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEffector(t *testing.T, kind TopologyKind, mirrors int) (*Effector, *Network) {
	t.Helper()
	n := newTestNetwork(t, kind, mirrors, 2)
	e, err := NewEffector(EffectorConfig{Network: n})
	require.NoError(t, err)
	return e, n
}

func TestEffectorRequiresNetwork(t *testing.T) {
	_, err := NewEffector(EffectorConfig{})
	require.Error(t, err)
}

func TestEffectorRejectsNegativeTime(t *testing.T) {
	e, _ := newTestEffector(t, TopologyRing, 3)

	_, err := e.SetMirrors(-1, 5)
	assert.Error(t, err)
	_, err = e.SetTopology(-1, TopologyStar)
	assert.Error(t, err)
	_, err = e.SetTargetLinksPerMirror(-1, 2)
	assert.Error(t, err)
	assert.Empty(t, e.PendingActions())
}

func TestEffectorRejectsInvalidPayloads(t *testing.T) {
	e, _ := newTestEffector(t, TopologyRing, 3)

	_, err := e.SetTopology(1, "octahedron")
	assert.Error(t, err)
	_, err = e.SetMirrors(1, -3)
	assert.Error(t, err)
	_, err = e.SetTargetLinksPerMirror(1, 0)
	assert.Error(t, err)
}

func TestEffectorReplacementIsLastWriteWins(t *testing.T) {
	e, _ := newTestEffector(t, TopologyRing, 3)

	first, err := e.SetMirrors(5, 10)
	require.NoError(t, err)
	second, err := e.SetMirrors(5, 20)
	require.NoError(t, err)

	require.Len(t, e.PendingActions(), 1)
	assert.Same(t, second, e.ActionAt(ActionMirrorChange, 5))
	assert.NotEqual(t, first.ID, second.ID)

	// The replaced action still describes what was originally asked.
	assert.Equal(t, 10, first.NewMirrors)
}

func TestEffectorKeepsOneSlotPerKind(t *testing.T) {
	e, _ := newTestEffector(t, TopologyRing, 3)

	_, err := e.SetMirrors(5, 10)
	require.NoError(t, err)
	_, err = e.SetTopology(5, TopologyStar)
	require.NoError(t, err)
	_, err = e.SetTargetLinksPerMirror(5, 3)
	require.NoError(t, err)

	assert.Len(t, e.PendingActions(), 3)
}

func TestRemoveActionIsIdentityConditional(t *testing.T) {
	e, _ := newTestEffector(t, TopologyRing, 3)

	first, err := e.SetMirrors(5, 10)
	require.NoError(t, err)
	second, err := e.SetMirrors(5, 20)
	require.NoError(t, err)

	// The stale handle must not unschedule its replacement.
	assert.False(t, e.RemoveAction(first))
	assert.Same(t, second, e.ActionAt(ActionMirrorChange, 5))

	assert.True(t, e.RemoveAction(second))
	assert.Nil(t, e.ActionAt(ActionMirrorChange, 5))
	assert.False(t, e.RemoveAction(second), "double remove must be a no-op")
	assert.False(t, e.RemoveAction(nil))
}

func TestTimeStepAppliesTopologyBeforeMirrorsBeforeLinks(t *testing.T) {
	e, n := newTestEffector(t, TopologyRing, 4)

	_, err := e.SetTargetLinksPerMirror(3, 2)
	require.NoError(t, err)
	_, err = e.SetMirrors(3, 6)
	require.NoError(t, err)
	_, err = e.SetTopology(3, TopologyNConnected)
	require.NoError(t, err)

	applied := e.TimeStep(3)
	require.Len(t, applied, 3)
	assert.Equal(t, ActionTopologyChange, applied[0].Kind)
	assert.Equal(t, ActionMirrorChange, applied[1].Kind)
	assert.Equal(t, ActionTargetLinkChange, applied[2].Kind)

	assert.Equal(t, TopologyNConnected, n.TopologyStrategy().Kind())
	assert.Equal(t, 6, n.NumMirrors())
	assert.Equal(t, 2, n.NumTargetLinksPerMirror())
	// 6 mirrors at 2 links each once all three land.
	assert.Equal(t, 6, n.NumLinks())
}

func TestTimeStepConsumesActions(t *testing.T) {
	e, _ := newTestEffector(t, TopologyRing, 3)

	_, err := e.SetMirrors(2, 5)
	require.NoError(t, err)

	require.Len(t, e.TimeStep(2), 1)
	assert.Empty(t, e.TimeStep(2), "an applied action must not fire twice")
	assert.Empty(t, e.PendingActions())
}

func TestTimeStepIgnoresOtherTicks(t *testing.T) {
	e, n := newTestEffector(t, TopologyRing, 3)

	_, err := e.SetMirrors(9, 5)
	require.NoError(t, err)

	assert.Empty(t, e.TimeStep(8))
	assert.Equal(t, 3, n.NumMirrors())
	assert.Len(t, e.TimeStep(9), 1)
	assert.Equal(t, 5, n.NumMirrors())
}

func TestPendingActionsOrderedByTime(t *testing.T) {
	e, _ := newTestEffector(t, TopologyRing, 3)

	_, err := e.SetMirrors(9, 5)
	require.NoError(t, err)
	_, err = e.SetTopology(2, TopologyStar)
	require.NoError(t, err)
	_, err = e.SetMirrors(4, 6)
	require.NoError(t, err)

	pending := e.PendingActions()
	require.Len(t, pending, 3)
	assert.Equal(t, 2, pending[0].Time)
	assert.Equal(t, 4, pending[1].Time)
	assert.Equal(t, 9, pending[2].Time)
}
