// Package queue provides a minimal generic FIFO.
package queue

// Queue is a first-in-first-out slice queue. The zero value is ready to use.
type Queue[T any] []T

// Push appends x at the back of q.
func (q *Queue[T]) Push(x T) {
	*q = append(*q, x)
}

// Pop removes and returns the oldest element. ok is false when q is empty.
func (q *Queue[T]) Pop() (x T, ok bool) {
	if len(*q) == 0 {
		return x, false
	}
	x = (*q)[0]
	var zero T
	(*q)[0] = zero
	*q = (*q)[1:]
	return x, true
}

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int {
	return len(*q)
}

// IsEmpty reports whether q holds no elements.
func (q *Queue[T]) IsEmpty() bool {
	return len(*q) == 0
}

// Extract removes every element matching match, preserving order, and returns
// them oldest first.
func (q *Queue[T]) Extract(match func(T) bool) []T {
	var out []T
	rest := (*q)[:0]
	for _, x := range *q {
		if match(x) {
			out = append(out, x)
			continue
		}
		rest = append(rest, x)
	}
	var zero T
	for i := len(rest); i < len(*q); i++ {
		(*q)[i] = zero
	}
	*q = rest
	return out
}

// Items returns a copy of the queued elements, oldest first.
func (q *Queue[T]) Items() []T {
	out := make([]T, len(*q))
	copy(out, *q)
	return out
}
