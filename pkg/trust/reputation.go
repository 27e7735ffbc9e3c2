package trust

import "math"

// ReputationResult is the outcome of ComputeReputation.
type ReputationResult struct {
	Score              float64
	DirectTrusters     int
	TransitiveTrusters int
}

type reputationNode struct {
	did       string
	depth     int
	pathTrust float64
}

// ComputeReputation computes subject S's reputation over edges (which
// must already be filtered to ValidEdges): a direct component from
// immediate trusters, plus a bounded transitive component from trusters
// of trusters up to MaxReputationDepth, per spec.md §4.9.4.
func ComputeReputation(edges []*Edge, subject string) ReputationResult {
	_, reverse := BuildIndexes(edges)

	direct := reverse[subject]
	directScore := 0.0
	if len(direct) > 0 {
		sum := 0
		for _, d := range direct {
			sum += d.TrustLevel
		}
		directScore = float64(sum) / float64(len(direct)) / 100
	}

	visited := map[string]bool{subject: true}
	queue := make([]reputationNode, 0, len(direct))
	for _, d := range direct {
		visited[d.DID] = true
		queue = append(queue, reputationNode{did: d.DID, depth: 1, pathTrust: 1.0})
	}

	transitiveScore := 0.0
	transitiveTrusters := make(map[string]bool)

	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		if cur.depth >= MaxReputationDepth {
			continue
		}
		for _, nb := range reverse[cur.did] {
			if visited[nb.DID] {
				continue
			}
			visited[nb.DID] = true
			contribution := cur.pathTrust * (float64(nb.TrustLevel) / 100) * math.Pow(Decay, float64(cur.depth))
			transitiveScore += contribution
			transitiveTrusters[nb.DID] = true
			queue = append(queue, reputationNode{did: nb.DID, depth: cur.depth + 1, pathTrust: contribution})
		}
	}

	score := 0.7*directScore + 0.3*math.Min(1, transitiveScore)
	if score > 1 {
		score = 1
	}

	return ReputationResult{
		Score:              score,
		DirectTrusters:     len(direct),
		TransitiveTrusters: len(transitiveTrusters),
	}
}
