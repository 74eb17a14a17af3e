package pipeline

// Run drives a single node: while its ring holds at least Threshold bytes
// and it has not yet produced Height lines, it invokes the node's Kernel.
// The kernel is responsible for calling n.Done() (directly, via its return
// value) once it has consumed one batch; Done recursively drives the
// successor before Run's loop checks the node's own readiness again.
//
// This is the recursive form. Because every Done call fully
// drains the rest of the chain before returning, at any moment exactly one
// kernel is executing and bytes cross each ring in FIFO order — there is
// no out-of-order delivery anywhere in the chain.
func Run(n *Node) error {
	if n.err != nil {
		return n.err
	}
	n.beginTiming()
	for n.Ring.Tailroom() >= n.Threshold && n.LineOffset < n.Height {
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
