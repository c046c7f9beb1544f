package minirt

// queue is an unbounded FIFO queue.
//
// Pushing appends to tail; popping consumes head. When head runs out, the
// two slices swap so that the backing arrays get reused.
type queue[E any] struct {
	head, tail []E
}

func (q *queue[E]) Empty() bool {
	return len(q.head) == 0 && len(q.tail) == 0
}

func (q *queue[E]) Len() int {
	return len(q.head) + len(q.tail)
}

func (q *queue[E]) Push(v E) {
	q.tail = append(q.tail, v)
}

func (q *queue[E]) Pop() (v E) {
	if len(q.head) == 0 {
		q.head, q.tail = q.tail, q.head[:0]
	}

	q.head[0], v = v, q.head[0]
	q.head = q.head[1:]

	return v
}
