package internal

type huffmanCode struct {
	code   []byte
	points []int32
}

// buildHuffman runs the two-queue construction over counts. order lists the
// leaves in non-decreasing count order; merged nodes are appended after the
// leaves and are produced in non-decreasing order too, so the two smallest
// nodes are always at one of the two queue fronts. On equal weights the
// merged queue wins.
//
// Points are internal node numbers relative to the first merged node, so the
// root is always n-2.
func buildHuffman(counts []uint64, order []int) ([]huffmanCode, error) {
	n := len(counts)
	codes := make([]huffmanCode, n)
	if n < 2 {
		return codes, nil
	}

	weight := make([]uint64, 2*n-1)
	parent := make([]int, 2*n-1)
	bit := make([]byte, 2*n-1)
	copy(weight, counts)

	leaf := 0   // front of the leaf queue, a position in order
	merged := n // front of the merged queue, a node number

	// pick pops the smaller front. limit is the next node to be created, so
	// merged < limit means the merged queue is not empty.
	pick := func(limit int) int {
		if leaf < n && (merged >= limit || weight[order[leaf]] < weight[merged]) {
			node := order[leaf]
			leaf++
			return node
		}
		node := merged
		merged++
		return node
	}

	for a := 0; a < n-1; a++ {
		node := n + a
		min1 := pick(node)
		min2 := pick(node)
		weight[node] = weight[min1] + weight[min2]
		parent[min1] = node
		parent[min2] = node
		bit[min2] = 1
	}

	root := 2*n - 2
	var code [MaxCodeLength]byte
	var point [MaxCodeLength]int32
	for i := 0; i < n; i++ {
		depth := 0
		for b := i; b != root; b = parent[b] {
			if depth == MaxCodeLength {
				return nil, ErrCodeTooLong
			}
			code[depth] = bit[b]
			point[depth] = int32(parent[b] - n)
			depth++
		}

		c := huffmanCode{
			code:   make([]byte, depth),
			points: make([]int32, depth),
		}
		for k := 0; k < depth; k++ {
			c.code[depth-1-k] = code[k]
			c.points[depth-1-k] = point[k]
		}
		codes[i] = c
	}

	return codes, nil
}

// Encode rebuilds code and points for every entry from the current index
// order. Nothing is written back unless the whole tree succeeds.
func (v *Vocabulary) Encode() error {
	n := v.Len()
	if n == 0 {
		return ErrEmptyVocab
	}

	counts := make([]uint64, n)
	for i := 0; i < n; i++ {
		counts[i] = v.Entry(i).Count
	}

	// Indices 1..n-1 are already descending; walk them backwards and slot
	// the marker in wherever its count falls.
	order := make([]int, 0, n)
	placed := false
	for i := n - 1; i >= 1; i-- {
		if !placed && counts[0] <= counts[i] {
			order = append(order, 0)
			placed = true
		}
		order = append(order, i)
	}
	if !placed {
		order = append(order, 0)
	}

	codes, err := buildHuffman(counts, order)
	if err != nil {
		return err
	}

	for i, c := range codes {
		e := v.Entry(i)
		e.Code = c.code
		e.Points = c.points
	}
	v.encoded = true
	return nil
}
