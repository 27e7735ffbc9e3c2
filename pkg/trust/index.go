package trust

// IndexEntry is one adjacency-list entry: a neighbor identifier and the
// trust level of the edge connecting to it.
type IndexEntry struct {
	DID        string
	TrustLevel int
}

// BuildIndexes constructs the forward (source -> targets) and reverse
// (target -> sources) adjacency indexes from edges in a single pass.
// Callers must pre-filter to ValidEdges; BuildIndexes does not check
// lifecycle state. Entries within each adjacency list preserve the
// order edges were given in, which callers should supply in createdAt
// ascending order for deterministic traversal.
func BuildIndexes(edges []*Edge) (forward, reverse map[string][]IndexEntry) {
	forward = make(map[string][]IndexEntry, len(edges))
	reverse = make(map[string][]IndexEntry, len(edges))

	for _, e := range edges {
		forward[e.Source] = append(forward[e.Source], IndexEntry{DID: e.Target, TrustLevel: e.TrustLevel})
		reverse[e.Target] = append(reverse[e.Target], IndexEntry{DID: e.Source, TrustLevel: e.TrustLevel})
	}
	return forward, reverse
}
