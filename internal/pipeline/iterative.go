package pipeline

// RunIterative drives the same chain as Run but with an explicit work
// stack instead of recursion, per the design note: "maintain a single
// work queue of ready nodes ... the driver pops the most-upstream ready
// node, runs one batch, and updates readiness of the immediate
// successor."
//
// The stack is worked depth-first, not breadth-first: a node that just
// produced one batch is left on the stack, merely buried under the
// successor Done's advance just pushed on top of it, so that successor
// runs to exhaustion — and so does everything beyond it — before this
// node is ever looked at again. That mirrors what Run's recursion does
// for free (n.Kernel calls n.Done, which calls Run(n.next) to
// completion, before n's own loop is allowed to continue). Popping a
// ready node and running it to local exhaustion before its successor
// gets a turn would let a fast producer overflow a downstream ring
// sized for the recursive driver's immediate-drain guarantee.
func RunIterative(head *Node) error {
	q := &iterQueue{}
	for n := head; n != nil; n = n.next {
		n.sched = q
	}
	q.push(head)

	for len(q.items) > 0 {
		n := q.items[len(q.items)-1]
		if n.err != nil {
			return n.err
		}
		if !(n.Ring.Tailroom() >= n.Threshold && n.LineOffset < n.Height) {
			q.pop()
			continue
		}
		n.beginTiming()
		if err := n.Kernel(n); err != nil {
			n.Fail(err)
			return err
		}
		if n.err != nil {
			return n.err
		}
	}
	return nil
}

// iterQueue is the "ready nodes" stack from the design note, implementing
// scheduler so that Node.Done enqueues the successor instead of
// recursing into it. Despite the name it is worked LIFO (see
// RunIterative) — queue reflects the design note's term for it, not the
// pop order.
type iterQueue struct {
	items []*Node
}

func (q *iterQueue) push(n *Node) {
	if n == nil || n.queued {
		return
	}
	n.queued = true
	q.items = append(q.items, n)
}

// pop removes and returns the top of the stack (the most recently
// pushed node), matching the depth-first order RunIterative relies on.
func (q *iterQueue) pop() *Node {
	top := len(q.items) - 1
	n := q.items[top]
	q.items = q.items[:top]
	n.queued = false
	return n
}

func (q *iterQueue) advance(n *Node) error {
	q.push(n.next)
	return nil
}
