package trust

import "math"

// PathHop is one step of a discovered trust path.
type PathHop struct {
	DID        string
	TrustLevel int
}

// PathResult is the outcome of FindPath.
type PathResult struct {
	From            string
	To              string
	Found           bool
	Path            []PathHop
	CumulativeTrust float64
	Hops            int
}

type queueItem struct {
	did       string
	depth     int
	parentIdx int
	edgeLevel int
	edgeDepth int
}

// FindPath performs a breadth-first search from `from` to `to` over
// edges' forward adjacency, bounded by maxDepth (spec default
// MaxPathDepth). It uses index-based dequeue (no slice-shift) and
// parent pointers, reconstructing the path only once the target is
// dequeued. BFS explores neighbors in the order edges were supplied, so
// the first discovery of the target is the reported path.
func FindPath(edges []*Edge, from, to string, maxDepth int) PathResult {
	if maxDepth <= 0 {
		maxDepth = MaxPathDepth
	}

	forward, _ := BuildIndexes(edges)

	decayPow := make([]float64, maxDepth+1)
	for d := 0; d <= maxDepth; d++ {
		decayPow[d] = math.Pow(Decay, float64(d))
	}

	queue := []queueItem{{did: from, depth: 0, parentIdx: -1, edgeLevel: -1, edgeDepth: -1}}
	visited := map[string]bool{from: true}

	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		if cur.did == to {
			return reconstructPath(queue, head, decayPow, from, to)
		}
		if cur.depth >= maxDepth {
			continue
		}
		for _, nb := range forward[cur.did] {
			if visited[nb.DID] {
				continue
			}
			visited[nb.DID] = true
			queue = append(queue, queueItem{
				did:       nb.DID,
				depth:     cur.depth + 1,
				parentIdx: head,
				edgeLevel: nb.TrustLevel,
				edgeDepth: cur.depth,
			})
		}
	}

	return PathResult{From: from, To: to, Found: false, Path: []PathHop{}, CumulativeTrust: 0, Hops: 0}
}

func reconstructPath(queue []queueItem, idx int, decayPow []float64, from, to string) PathResult {
	if queue[idx].parentIdx == -1 {
		// from == to: trivially trusts itself with no edges traversed.
		return PathResult{From: from, To: to, Found: true, Path: []PathHop{}, CumulativeTrust: 1, Hops: 0}
	}

	var reversed []PathHop
	cumulative := 1.0
	for i := idx; queue[i].parentIdx != -1; i = queue[i].parentIdx {
		reversed = append(reversed, PathHop{DID: queue[i].did, TrustLevel: queue[i].edgeLevel})
		cumulative *= (float64(queue[i].edgeLevel) / 100) * decayPow[queue[i].edgeDepth]
	}

	path := make([]PathHop, len(reversed))
	for i, hop := range reversed {
		path[len(reversed)-1-i] = hop
	}

	return PathResult{
		From:            from,
		To:              to,
		Found:           true,
		Path:            path,
		CumulativeTrust: cumulative,
		Hops:            len(path),
	}
}
