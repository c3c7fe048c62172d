package hnsw

// Stats describes the shape of the graph.
type Stats struct {
	Nodes          int
	MaxLevel       int
	EdgesPerLayer  []int
	AvgDegreeL0    float64
	EntryPoint     uint32
	M              int
	EFConstruction int
}

// Stats returns statistics about the index.
func (h *HNSW) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s := Stats{
		Nodes:          h.count,
		MaxLevel:       h.maxLevel,
		EdgesPerLayer:  make([]int, h.maxLevel+1),
		EntryPoint:     uint32(h.entryPoint),
		M:              h.opts.M,
		EFConstruction: h.opts.EFConstruction,
	}

	l0Nodes := 0
	for _, n := range h.nodes {
		if n == nil {
			continue
		}
		l0Nodes++
		for l, conns := range n.neighbors {
			if l < len(s.EdgesPerLayer) {
				s.EdgesPerLayer[l] += len(conns)
			}
		}
	}
	if l0Nodes > 0 {
		s.AvgDegreeL0 = float64(s.EdgesPerLayer[0]) / float64(l0Nodes)
	}
	return s
}
