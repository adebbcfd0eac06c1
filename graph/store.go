package graph

import (
	"errors"
	"sync"

	"github.com/greenpaths/gp-routing/cost"
	. "github.com/greenpaths/gp-routing/util"
)

var (
	ErrSameLocation = errors.New("origin and destination resolve to the same node")
	ErrNoPath       = errors.New("no path between the given nodes")
)

//*******************************************
// graph store
//*******************************************

// Sole owner of graph topology and edge/node attribute tables. All
// structural mutation goes through its methods; routing reads run under
// the read lock, temporary insertions and attribute updates under the
// write lock.
type GraphStore struct {
	mu sync.RWMutex

	// held across a whole temporary insertion/rollback cycle, see
	// BeginMutation
	mutation sync.Mutex

	nodes List[Node]
	edges List[Edge]

	fwd_edgerefs List[List[EdgeRef]]
	bwd_edgerefs List[List[EdgeRef]]

	node_index *_NodeIndex
	edge_index *_EdgeIndex

	mapping *cost.CostMapping

	// counts captured when loading finished, rollback restores these
	base_node_count int
	base_edge_count int
}

// Builds a store from decoded nodes and edges; cost tables must already
// be populated. Also used by tests to assemble fixture graphs.
func NewGraphStore(nodes List[Node], edges List[Edge], mapping *cost.CostMapping) *GraphStore {
	store := &GraphStore{
		nodes:   nodes,
		edges:   edges,
		mapping: mapping,
	}
	store.fwd_edgerefs, store.bwd_edgerefs = _BuildAdjacency(nodes, edges)
	store.node_index = _BuildNodeIndex(nodes)
	store.edge_index = _BuildEdgeIndex(edges)
	store.base_node_count = nodes.Length()
	store.base_edge_count = edges.Length()
	return store
}

func (self *GraphStore) NodeCount() int {
	self.mu.RLock()
	defer self.mu.RUnlock()
	return len(self.nodes)
}
func (self *GraphStore) EdgeCount() int {
	self.mu.RLock()
	defer self.mu.RUnlock()
	return len(self.edges)
}
func (self *GraphStore) BaseNodeCount() int {
	return self.base_node_count
}
func (self *GraphStore) BaseEdgeCount() int {
	return self.base_edge_count
}

func (self *GraphStore) GetNode(node int32) Node {
	self.mu.RLock()
	defer self.mu.RUnlock()
	return self.nodes[node]
}

// Returns a copy of the edge record; the cost table of the copy must not
// be mutated by callers (UpdateEdgeAttributes is the only write path).
func (self *GraphStore) GetEdge(edge int32) Edge {
	self.mu.RLock()
	defer self.mu.RUnlock()
	return self.edges[edge]
}

func (self *GraphStore) IsNode(node int32) bool {
	self.mu.RLock()
	defer self.mu.RUnlock()
	return node >= 0 && int(node) < len(self.nodes)
}

func (self *GraphStore) CostMapping() *cost.CostMapping {
	return self.mapping
}

// Edge ids sharing the way id, for map-summary style lookups.
func (self *GraphStore) ForEachEdge(consume func(edge int32, e *Edge)) {
	self.mu.RLock()
	defer self.mu.RUnlock()
	for i := range self.edges {
		consume(int32(i), &self.edges[i])
	}
}

//*******************************************
// attribute updates
//*******************************************

type SlotValue struct {
	Slot  int
	Value float64
}

// Merges the given attribute values into one edge under the write lock,
// in a single assignment from the perspective of concurrent readers.
// aqi None clears the value (edge left outside the AQI extent).
func (self *GraphStore) UpdateEdgeAttributes(edge int32, aqi Optional[float64], costs []SlotValue) {
	self.mu.Lock()
	defer self.mu.Unlock()
	e := self.edges[edge]
	e.Aqi = aqi.Value
	e.HasAqi = aqi.HasValue()
	new_costs := make([]float64, len(e.Costs))
	copy(new_costs, e.Costs)
	for _, sv := range costs {
		new_costs[sv.Slot] = sv.Value
	}
	e.Costs = new_costs
	self.edges[edge] = e
}
