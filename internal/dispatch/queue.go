// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package dispatch

// queueItem is one pending event.
type queueItem struct {
	event NotificationEvent
	rank  int
	seq   uint64
	index int
}

// less orders by severity rank descending, then alert creation, then
// enqueue sequence.
func (a *queueItem) less(b *queueItem) bool {
	if a.rank != b.rank {
		return a.rank > b.rank
	}
	if !a.event.AlertCreatedAt.Equal(b.event.AlertCreatedAt) {
		return a.event.AlertCreatedAt.Before(b.event.AlertCreatedAt)
	}
	return a.seq < b.seq
}

// priorityQueue is a binary heap of queue items. Not safe for
// concurrent use; the dispatcher guards it.
type priorityQueue struct {
	heap []*queueItem
}

func (q *priorityQueue) Len() int { return len(q.heap) }

func (q *priorityQueue) Push(item *queueItem) {
	item.index = len(q.heap)
	q.heap = append(q.heap, item)
	q.bubbleUp(item.index)
}

// Pop removes and returns the highest-priority item, or nil.
func (q *priorityQueue) Pop() *queueItem {
	n := len(q.heap)
	if n == 0 {
		return nil
	}
	top := q.heap[0]
	last := n - 1
	q.heap[0] = q.heap[last]
	q.heap[0].index = 0
	q.heap[last] = nil
	q.heap = q.heap[:last]
	if last > 0 {
		q.bubbleDown(0)
	}
	top.index = -1
	return top
}

// Peek returns the highest-priority item without removing it.
func (q *priorityQueue) Peek() *queueItem {
	if len(q.heap) == 0 {
		return nil
	}
	return q.heap[0]
}

func (q *priorityQueue) bubbleUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !q.heap[i].less(q.heap[parent]) {
			break
		}
		q.swap(i, parent)
		i = parent
	}
}

func (q *priorityQueue) bubbleDown(i int) {
	n := len(q.heap)
	for {
		best := i
		left, right := 2*i+1, 2*i+2
		if left < n && q.heap[left].less(q.heap[best]) {
			best = left
		}
		if right < n && q.heap[right].less(q.heap[best]) {
			best = right
		}
		if best == i {
			return
		}
		q.swap(i, best)
		i = best
	}
}

func (q *priorityQueue) swap(i, j int) {
	q.heap[i], q.heap[j] = q.heap[j], q.heap[i]
	q.heap[i].index = i
	q.heap[j].index = j
}
