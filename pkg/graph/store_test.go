package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const relatedTo = "related_to"

func buildDiamond(t *testing.T) *Store {
	t.Helper()
	s := New()
	for _, id := range []NodeID{"a", "b", "c", "d"} {
		require.NoError(t, s.AddNode(id, map[string]any{"label": string(id)}))
	}
	require.NoError(t, s.AddEdge("a", "b", relatedTo, map[string]any{"label": relatedTo}))
	require.NoError(t, s.AddEdge("a", "c", relatedTo, map[string]any{"label": relatedTo}))
	require.NoError(t, s.AddEdge("b", "d", relatedTo, map[string]any{"label": relatedTo}))
	require.NoError(t, s.AddEdge("c", "d", relatedTo, map[string]any{"label": relatedTo}))
	return s
}

func TestAddNodeRejectsDuplicate(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode("a", nil))
	assert.ErrorIs(t, s.AddNode("a", nil), ErrNodeExists)
}

func TestAddEdgeRejectsSelfLoop(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode("a", nil))
	assert.ErrorIs(t, s.AddEdge("a", "a", relatedTo, nil), ErrSelfLoop)
}

func TestAddEdgeRejectsMissingEndpoints(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode("a", nil))
	assert.ErrorIs(t, s.AddEdge("a", "ghost", relatedTo, nil), ErrNodeNotFound)
}

func TestAddEdgeRejectsDuplicateKind(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode("a", nil))
	require.NoError(t, s.AddNode("b", nil))
	require.NoError(t, s.AddEdge("a", "b", relatedTo, nil))
	assert.ErrorIs(t, s.AddEdge("a", "b", relatedTo, nil), ErrEdgeExists)
}

func TestAddEdgeAllowsDistinctKindsBetweenSamePair(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode("a", nil))
	require.NoError(t, s.AddNode("b", nil))
	require.NoError(t, s.AddEdge("a", "b", relatedTo, nil))
	require.NoError(t, s.AddEdge("a", "b", "evolved_into", nil))
	assert.Equal(t, 2, s.OutDegree("a"))
}

func TestRemoveNodeFailsWithIncidentEdges(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode("a", nil))
	require.NoError(t, s.AddNode("b", nil))
	require.NoError(t, s.AddEdge("a", "b", relatedTo, nil))
	assert.ErrorIs(t, s.RemoveNode("a"), ErrNodeHasEdges)
}

func TestRemoveNodeCascadeCountsEdges(t *testing.T) {
	s := buildDiamond(t)
	removed, err := s.RemoveNodeCascade("a")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.False(t, s.HasNode("a"))
	assert.False(t, s.HasEdge("a", "b", relatedTo))
}

func TestShortestPathLength(t *testing.T) {
	s := buildDiamond(t)
	length, ok := s.ShortestPathLength("a", "d")
	require.True(t, ok)
	assert.Equal(t, 2, length)

	_, ok = s.ShortestPathLength("d", "a")
	assert.False(t, ok, "no path exists against the direction of the edges")
}

func TestAllSimplePathsDiamond(t *testing.T) {
	s := buildDiamond(t)
	paths := s.AllSimplePaths("a", "d", 3)
	require.Len(t, paths, 2)
	for _, p := range paths {
		assert.Equal(t, NodeID("a"), p[0])
		assert.Equal(t, NodeID("d"), p[len(p)-1])
		assert.LessOrEqual(t, len(p), 4)
	}
}

func TestDistancesRespectsMaxDistance(t *testing.T) {
	s := buildDiamond(t)
	require.NoError(t, s.AddNode("e", nil))
	require.NoError(t, s.AddEdge("c", "e", relatedTo, nil))

	dist := s.Distances("a", 2)
	assert.Equal(t, 1, dist["b"])
	assert.Equal(t, 1, dist["c"])
	assert.Equal(t, 2, dist["d"])
	assert.Equal(t, 2, dist["e"])
}

func TestDegrees(t *testing.T) {
	s := buildDiamond(t)
	assert.Equal(t, 2, s.OutDegree("a"))
	assert.Equal(t, 0, s.InDegree("a"))
	assert.Equal(t, 2, s.InDegree("d"))
	assert.Equal(t, 2, s.Degree("b"))
}

func TestNodeAttrsAreCopies(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode("a", map[string]any{"label": "Alpha"}))
	attrs, ok := s.NodeAttrs("a")
	require.True(t, ok)
	attrs["label"] = "mutated"

	again, _ := s.NodeAttrs("a")
	assert.Equal(t, "Alpha", again["label"])
}
