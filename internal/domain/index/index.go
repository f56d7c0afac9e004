// Package index holds the static catalog of index structures the engine offers.
package index

// Kind identifies an index structure.
type Kind string

// Index kinds.
const (
	Sequential Kind = "sequential"
	ISAM       Kind = "isam"
	Hash       Kind = "hash"
	BTree      Kind = "btree"
	RTree      Kind = "rtree"
)

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	_, ok := catalog[k]
	return ok
}

// Descriptor describes an index structure for display.
type Descriptor struct {
	Kind            Kind
	DisplayName     string
	Description     string
	ComplexityLabel string
	bestFor         []string
}

// BestForTags returns a copy of the workloads the index suits.
func (d Descriptor) BestForTags() []string {
	out := make([]string, len(d.bestFor))
	copy(out, d.bestFor)
	return out
}

var order = []Kind{Sequential, ISAM, Hash, BTree, RTree}

var catalog = map[Kind]Descriptor{
	Sequential: {
		Kind:            Sequential,
		DisplayName:     "Sequential File",
		Description:     "Sequential access ordered by primary key",
		ComplexityLabel: "O(n)",
		bestFor:         []string{"Range queries", "Sequential access", "Small files"},
	},
	ISAM: {
		Kind:            ISAM,
		DisplayName:     "ISAM (Indexed Sequential)",
		Description:     "Static index combined with sequential access",
		ComplexityLabel: "O(log n)",
		bestFor:         []string{"Frequent reads", "Static files", "Range queries"},
	},
	Hash: {
		Kind:            Hash,
		DisplayName:     "Hash Index",
		Description:     "Direct access through a hash function",
		ComplexityLabel: "O(1)",
		bestFor:         []string{"Exact match", "Fast access", "Unique keys"},
	},
	BTree: {
		Kind:            BTree,
		DisplayName:     "B+ Tree",
		Description:     "Balanced tree for efficient ordered access",
		ComplexityLabel: "O(log n)",
		bestFor:         []string{"Range queries", "Ordering", "General purpose"},
	},
	RTree: {
		Kind:            RTree,
		DisplayName:     "R-Tree",
		Description:     "Spatial index for geographic data",
		ComplexityLabel: "O(log n)",
		bestFor:         []string{"Spatial queries", "Geographic data", "Geometries"},
	},
}

// Lookup returns the descriptor for kind.
func Lookup(kind Kind) (Descriptor, bool) {
	d, ok := catalog[kind]
	return d, ok
}

// All returns every descriptor in catalog order.
func All() []Descriptor {
	out := make([]Descriptor, 0, len(order))
	for _, k := range order {
		out = append(out, catalog[k])
	}
	return out
}
