package hdarts

// Backward propagates gradients from root (which must hold exactly one value) to every Tensor it
// was computed from, adding to their Grad. Parameters keep accumulating until ZeroGrad is called.
//
// If root does not require gradients, Backward does nothing.
func Backward(root *Tensor) error {
	if root.Size() != 1 {
		return ErrNotScalar
	}

	if !root.requiresGrad {
		return nil
	}

	// reverse topological order, built iteratively because nested graphs get deep
	var topo []*Tensor
	visited := make(map[*Tensor]bool)

	type frame struct {
		t    *Tensor
		next int
	}

	stack := []frame{{root, 0}}
	visited[root] = true
	for len(stack) != 0 {
		f := &stack[len(stack)-1]
		if f.next < len(f.t.children) {
			c := f.t.children[f.next]
			f.next++
			if c.requiresGrad && !visited[c] {
				visited[c] = true
				stack = append(stack, frame{c, 0})
			}
			continue
		}

		topo = append(topo, f.t)
		stack = stack[:len(stack)-1]
	}

	root.Grad[0] += 1
	for i := len(topo) - 1; i >= 0; i-- {
		if topo[i].backFn != nil {
			topo[i].backFn()
		}
	}

	return nil
}

// Leaves returns every parameter that root was computed from: the tensors that Backward would
// accumulate gradients into, other than intermediate results. Each is listed once.
func Leaves(root *Tensor) []*Tensor {
	var leaves []*Tensor
	visited := map[*Tensor]bool{root: true}

	stack := []*Tensor{root}
	for len(stack) != 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if t.IsParam() {
			leaves = append(leaves, t)
		}

		for _, c := range t.children {
			if c.requiresGrad && !visited[c] {
				visited[c] = true
				stack = append(stack, c)
			}
		}
	}

	return leaves
}
