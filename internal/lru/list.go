// Package lru provides a doubly-linked recency list for caches that need
// to walk their entries from least to most recently used.
//
// The list is not thread-safe; callers must handle synchronization.
package lru

import "iter"

// Node is an element of a List. The owning cache keeps the node next to its
// value so touching and removing are O(1).
type Node[K comparable] struct {
	Key  K
	prev *Node[K]
	next *Node[K]
	list *List[K]
}

// List orders keys by recency. The head is the most recently used, the
// tail the least.
type List[K comparable] struct {
	head *Node[K]
	tail *Node[K]
	len  int
}

// Len returns the number of nodes in the list.
func (l *List[K]) Len() int { return l.len }

// PushFront adds key as the most recently used entry.
func (l *List[K]) PushFront(key K) *Node[K] {
	n := &Node[K]{Key: key}
	l.linkFront(n)
	return n
}

// Touch marks n as the most recently used entry.
func (l *List[K]) Touch(n *Node[K]) {
	if n == nil || n.list != l || n == l.head {
		return
	}
	l.unlink(n)
	l.linkFront(n)
}

// Remove unlinks n. Removing a node twice, or a node of another list, is a
// no-op.
func (l *List[K]) Remove(n *Node[K]) {
	if n == nil || n.list != l {
		return
	}
	l.unlink(n)
}

// FromOldest iterates nodes from least to most recently used. The current
// node may be removed during iteration.
func (l *List[K]) FromOldest() iter.Seq[*Node[K]] {
	return func(yield func(*Node[K]) bool) {
		for n := l.tail; n != nil; {
			prev := n.prev
			if !yield(n) {
				return
			}
			n = prev
		}
	}
}

func (l *List[K]) linkFront(n *Node[K]) {
	n.list = l
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	} else {
		l.tail = n
	}
	l.head = n
	l.len++
}

func (l *List[K]) unlink(n *Node[K]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next, n.list = nil, nil, nil
	l.len--
}
