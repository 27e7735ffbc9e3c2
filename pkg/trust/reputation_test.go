package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeReputationNoTrusters(t *testing.T) {
	result := ComputeReputation(nil, "s")
	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, 0, result.DirectTrusters)
	assert.Equal(t, 0, result.TransitiveTrusters)
}

func TestComputeReputationDirectOnly(t *testing.T) {
	edges := []*Edge{edge("x", "s", 100), edge("y", "s", 50)}
	result := ComputeReputation(edges, "s")

	// directScore = mean(100,50)/100 = 0.75; score = 0.7*0.75 = 0.525
	assert.InDelta(t, 0.525, result.Score, 1e-9)
	assert.Equal(t, 2, result.DirectTrusters)
	assert.Equal(t, 0, result.TransitiveTrusters)
}

func TestComputeReputationIncludesTransitive(t *testing.T) {
	edges := []*Edge{
		edge("x", "s", 100), // direct truster
		edge("y", "x", 100), // transitive truster of s via x
	}
	result := ComputeReputation(edges, "s")

	assert.Equal(t, 1, result.DirectTrusters)
	assert.Equal(t, 1, result.TransitiveTrusters)
	assert.Greater(t, result.Score, 0.7) // direct component alone is 0.7
}

func TestComputeReputationScoreCappedAtOne(t *testing.T) {
	edges := make([]*Edge, 0, 50)
	for i := 0; i < 50; i++ {
		edges = append(edges, edge(string(rune('a'+i)), "s", 100))
	}
	result := ComputeReputation(edges, "s")
	assert.LessOrEqual(t, result.Score, 1.0)
}

func TestComputeReputationBoundsTransitiveDepth(t *testing.T) {
	// s <- a <- b <- c <- d: only a (direct), b, c contribute; d is at
	// depth 4 and must not be counted.
	edges := []*Edge{
		edge("a", "s", 100),
		edge("b", "a", 100),
		edge("c", "b", 100),
		edge("d", "c", 100),
	}
	result := ComputeReputation(edges, "s")

	assert.Equal(t, 1, result.DirectTrusters)
	assert.Equal(t, 2, result.TransitiveTrusters) // b and c only
}
