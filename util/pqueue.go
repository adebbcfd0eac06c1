package util

import (
	"container/heap"

	"golang.org/x/exp/constraints"
)

//*******************************************
// priority queue
//*******************************************

type _PQEntry[T any, P constraints.Ordered] struct {
	item     T
	priority P
}

type _PQHeap[T any, P constraints.Ordered] []_PQEntry[T, P]

func (self _PQHeap[T, P]) Len() int { return len(self) }
func (self _PQHeap[T, P]) Less(i, j int) bool {
	return self[i].priority < self[j].priority
}
func (self _PQHeap[T, P]) Swap(i, j int) {
	self[i], self[j] = self[j], self[i]
}
func (self *_PQHeap[T, P]) Push(x any) {
	*self = append(*self, x.(_PQEntry[T, P]))
}
func (self *_PQHeap[T, P]) Pop() any {
	old := *self
	n := len(old)
	entry := old[n-1]
	*self = old[:n-1]
	return entry
}

type PriorityQueue[T any, P constraints.Ordered] struct {
	entries *_PQHeap[T, P]
}

func NewPriorityQueue[T any, P constraints.Ordered](cap int) PriorityQueue[T, P] {
	entries := _PQHeap[T, P](make([]_PQEntry[T, P], 0, cap))
	return PriorityQueue[T, P]{
		entries: &entries,
	}
}

func (self *PriorityQueue[T, P]) Enqueue(item T, priority P) {
	heap.Push(self.entries, _PQEntry[T, P]{item: item, priority: priority})
}

func (self *PriorityQueue[T, P]) Dequeue() (T, bool) {
	if self.entries.Len() == 0 {
		var t T
		return t, false
	}
	entry := heap.Pop(self.entries).(_PQEntry[T, P])
	return entry.item, true
}

func (self *PriorityQueue[T, P]) Length() int {
	return self.entries.Len()
}
