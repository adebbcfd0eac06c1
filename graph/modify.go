package graph

import (
	gpgeo "github.com/greenpaths/gp-routing/geo"
	. "github.com/greenpaths/gp-routing/util"
	"github.com/paulmach/orb"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"
)

//*******************************************
// temporary mutation
//*******************************************

// Claims the exclusive right to extend the graph. Rollback restores
// the arenas by truncating their tail, which is only correct while one
// request at a time runs its insertion/rollback cycle: interleaved
// cycles would truncate away another request's live temporary entities.
// Callers acquire this before their first temporary insertion and
// release it through EndMutation after rolling back. Read-only requests
// never touch this lock.
func (self *GraphStore) BeginMutation() {
	self.mutation.Lock()
}

func (self *GraphStore) EndMutation() {
	self.mutation.Unlock()
}

// Appends one node; the id is the current node count. The caller holds
// the mutation claim, the write lock only guards readers.
func (self *GraphStore) AddTemporaryNode(point orb.Point) int32 {
	self.mu.Lock()
	defer self.mu.Unlock()
	id := int32(len(self.nodes))
	self.nodes.Add(Node{
		Point:    point,
		PointWGS: gpgeo.ToWGS84(point),
	})
	self.fwd_edgerefs.Add(NewList[EdgeRef](2))
	self.bwd_edgerefs.Add(NewList[EdgeRef](2))
	return id
}

// Appends the buffered edges in one bulk mutation; ids are assigned
// contiguously starting at the current edge count.
func (self *GraphStore) AddTemporaryEdges(edges List[Edge]) List[int32] {
	self.mu.Lock()
	defer self.mu.Unlock()
	ids := NewList[int32](edges.Length())
	for _, edge := range edges {
		id := int32(len(self.edges))
		self.edges.Add(edge)
		self.fwd_edgerefs[edge.NodeA].Add(EdgeRef{EdgeID: id, OtherID: edge.NodeB})
		self.bwd_edgerefs[edge.NodeB].Add(EdgeRef{EdgeID: id, OtherID: edge.NodeA})
		ids.Add(id)
	}
	return ids
}

// Deletes the given temporary nodes (cascading to their incident edges)
// and the given edges. The caller holds the mutation claim, so the
// removed entities are exactly the arena tail. The post-condition that
// node and edge counts are back at their load-time values is asserted;
// a mismatch is surfaced as a critical data-integrity log but does not
// fail the request.
func (self *GraphStore) Rollback(added_nodes List[int32], added_edges List[int32]) {
	if added_nodes.Length() == 0 && added_edges.Length() == 0 {
		return
	}
	self.mu.Lock()
	defer self.mu.Unlock()

	remove_edges := NewDict[int32, bool](added_edges.Length())
	for _, edge_id := range added_edges {
		remove_edges[edge_id] = true
	}
	for _, node_id := range added_nodes {
		if int(node_id) >= len(self.nodes) {
			continue
		}
		for _, ref := range self.fwd_edgerefs[node_id] {
			remove_edges[ref.EdgeID] = true
		}
		for _, ref := range self.bwd_edgerefs[node_id] {
			remove_edges[ref.EdgeID] = true
		}
	}

	// detach adjacency entries of the removed edges from surviving nodes
	edge_ids := NewList[int32](len(remove_edges))
	for edge_id := range remove_edges {
		edge_ids.Add(edge_id)
	}
	slices.Sort(edge_ids)
	for _, edge_id := range edge_ids {
		if int(edge_id) >= len(self.edges) {
			continue
		}
		edge := self.edges[edge_id]
		_RemoveRef(&self.fwd_edgerefs[edge.NodeA], edge_id)
		_RemoveRef(&self.bwd_edgerefs[edge.NodeB], edge_id)
	}

	// temporary entities always occupy the tail of the arenas, so
	// truncating restores the exact prior index range
	min_edge := len(self.edges)
	for _, edge_id := range edge_ids {
		if int(edge_id) < min_edge {
			min_edge = int(edge_id)
		}
	}
	if edge_ids.Length() > 0 {
		self.edges = self.edges[:min_edge]
	}
	min_node := len(self.nodes)
	for _, node_id := range added_nodes {
		if int(node_id) < min_node {
			min_node = int(node_id)
		}
	}
	if added_nodes.Length() > 0 {
		self.nodes = self.nodes[:min_node]
		self.fwd_edgerefs = self.fwd_edgerefs[:min_node]
		self.bwd_edgerefs = self.bwd_edgerefs[:min_node]
	}

	if len(self.nodes) != self.base_node_count || len(self.edges) != self.base_edge_count {
		slog.Error("CRITICAL: rollback did not restore graph counts",
			"nodes", len(self.nodes), "base_nodes", self.base_node_count,
			"edges", len(self.edges), "base_edges", self.base_edge_count)
	}
}

func _RemoveRef(refs *List[EdgeRef], edge_id int32) {
	for i, ref := range *refs {
		if ref.EdgeID == edge_id {
			refs.Remove(i)
			return
		}
	}
}
