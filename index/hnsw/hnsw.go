// Package hnsw implements the Hierarchical Navigable Small World (HNSW)
// graph for approximate nearest neighbor search.
//
// The graph references vectors by id through a vectorstore.Reader and never
// copies payloads. Build is sequential: insertion order determines layer
// assignment and graph shape, so two indexes built with equal parameters
// over the same vector population are identical.
package hnsw

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/zvecdb/zvec/core"
	"github.com/zvecdb/zvec/distance"
	"github.com/zvecdb/zvec/index"
	"github.com/zvecdb/zvec/internal/queue"
	"github.com/zvecdb/zvec/internal/visited"
	"github.com/zvecdb/zvec/vectorstore"
)

const (
	// layerNormalizationBase is the base constant for the exponential layer
	// probability distribution.
	layerNormalizationBase = 1.0

	// mmax0Multiplier is the multiplier for maximum connections at layer 0.
	mmax0Multiplier = 2

	// minimumM is the minimum usable value for M.
	minimumM = 2
)

// Compile-time check
var _ index.Index = (*HNSW)(nil)

// Options represents the options for configuring HNSW.
type Options struct {
	// Dimension of indexed vectors. Zero means take it from Vectors.
	Dimension int

	// M is the maximum number of bidirectional links per node per layer
	// (2*M at layer 0).
	M int

	// EFConstruction is the beam width used while building the graph.
	EFConstruction int

	// Metric is fixed for the lifetime of the index.
	Metric distance.Metric

	// Vectors is the store the index reads payloads from. Required.
	Vectors vectorstore.Reader
}

// DefaultOptions contains the default options for HNSW.
var DefaultOptions = Options{
	M:              index.DefaultM,
	EFConstruction: index.DefaultEFConstruction,
	Metric:         distance.MetricInnerProduct,
}

// node is a graph node. neighbors[l] is the adjacency list at layer l,
// ordered closest first, capped at M (2*M at layer 0).
type node struct {
	level     int
	neighbors [][]core.VectorID
}

// HNSW represents the Hierarchical Navigable Small World graph.
type HNSW struct {
	opts         Options
	distanceFunc distance.Func
	vectors      vectorstore.Reader

	maxConnectionsPerLayer int
	maxConnectionsLayer0   int
	layerMultiplier        float64

	mu         sync.RWMutex
	nodes      []*node // dense, indexed by VectorID
	entryPoint core.VectorID
	maxLevel   int
	count      int

	minQueuePool *sync.Pool
	maxQueuePool *sync.Pool
	visitedPool  *sync.Pool
}

// New creates a new HNSW instance.
func New(optFns ...func(o *Options)) (*HNSW, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Vectors == nil {
		return nil, fmt.Errorf("hnsw: vector store is required")
	}
	if opts.Dimension == 0 {
		opts.Dimension = opts.Vectors.Dimension()
	}
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", index.ErrInvalidParam, opts.Dimension)
	}
	if err := (index.HNSWParam{M: opts.M, EFConstruction: opts.EFConstruction, Metric: opts.Metric}).Validate(); err != nil {
		return nil, err
	}
	if opts.M < minimumM {
		opts.M = minimumM
	}

	distanceFunc, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, err
	}

	h := &HNSW{
		opts:                   opts,
		distanceFunc:           distanceFunc,
		vectors:                opts.Vectors,
		maxConnectionsPerLayer: opts.M,
		maxConnectionsLayer0:   mmax0Multiplier * opts.M,
		layerMultiplier:        layerNormalizationBase / math.Log(float64(opts.M)),
		minQueuePool: &sync.Pool{
			New: func() any { return queue.NewMin(opts.EFConstruction) },
		},
		maxQueuePool: &sync.Pool{
			New: func() any { return queue.NewMax(opts.EFConstruction) },
		},
		visitedPool: &sync.Pool{
			New: func() any { return visited.New(1024) },
		},
	}

	return h, nil
}

// Kind returns KindHNSW.
func (h *HNSW) Kind() index.Kind { return index.KindHNSW }

// Dimension returns the dimensionality of the vectors in the index.
func (h *HNSW) Dimension() int { return h.opts.Dimension }

// Metric returns the metric the index was built with.
func (h *HNSW) Metric() distance.Metric { return h.opts.Metric }

// Len returns the number of indexed vectors.
func (h *HNSW) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// levelForID derives the top layer for a new node from its id: a SplitMix64
// hash mapped through the standard exponential layer distribution with scale
// 1/ln(M). Deterministic per id, independent across ids, so identical
// populations always produce identical graphs.
func (h *HNSW) levelForID(id core.VectorID) int {
	x := uint64(id) + 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31

	const inv = 1.0 / (1 << 53)
	r := float64(x>>11) * inv
	if r == 0 {
		r = inv
	}
	return int(math.Floor(-math.Log(r) * h.layerMultiplier))
}

// Insert adds the vector with the given store id to the graph.
func (h *HNSW) Insert(ctx context.Context, id core.VectorID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	vec, ok := h.vectors.GetVector(id)
	if !ok {
		return fmt.Errorf("hnsw: vector %d not in store", id)
	}
	if len(vec) != h.opts.Dimension {
		return &index.ErrDimensionMismatch{Expected: h.opts.Dimension, Actual: len(vec)}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if int(id) < len(h.nodes) && h.nodes[id] != nil {
		return fmt.Errorf("hnsw: id %d already inserted", id)
	}

	level := h.levelForID(id)
	n := &node{
		level:     level,
		neighbors: make([][]core.VectorID, level+1),
	}

	for int(id) >= len(h.nodes) {
		h.nodes = append(h.nodes, nil)
	}
	h.nodes[id] = n

	// First node becomes the entry point at its layer.
	if h.count == 0 {
		h.entryPoint = id
		h.maxLevel = level
		h.count = 1
		return nil
	}

	currID := h.entryPoint
	currDist := h.dist(vec, currID)

	// 1. Greedy descent from the entry point's top layer down to level+1,
	// carrying a single running closest candidate.
	for l := h.maxLevel; l > level; l-- {
		currID, currDist = h.greedyStep(vec, currID, currDist, l)
	}

	// 2. Beam-search and link from min(level, maxLevel) down to 0.
	for l := min(level, h.maxLevel); l >= 0; l-- {
		results := h.searchLayer(vec, currID, currDist, l, h.opts.EFConstruction, nil)

		// The closest candidate seeds the next layer down.
		if best, ok := results.Min(); ok {
			currID = core.VectorID(best.Node)
			currDist = best.Distance
		}

		maxConns := h.maxConnectionsPerLayer
		if l == 0 {
			maxConns = h.maxConnectionsLayer0
		}

		neighbors := h.selectNeighbors(results, maxConns)

		results.Reset()
		h.maxQueuePool.Put(results)

		n.neighbors[l] = neighbors
		for _, neighborID := range neighbors {
			h.connect(neighborID, id, l)
		}
	}

	h.count++

	if level > h.maxLevel {
		h.maxLevel = level
		h.entryPoint = id
	}

	return nil
}

// greedyStep walks one layer greedily toward the query until no neighbor
// improves the current distance.
func (h *HNSW) greedyStep(query []float32, currID core.VectorID, currDist float32, level int) (core.VectorID, float32) {
	for changed := true; changed; {
		changed = false
		for _, nextID := range h.neighbors(currID, level) {
			nextDist := h.dist(query, nextID)
			if nextDist < currDist {
				currID = nextID
				currDist = nextDist
				changed = true
			}
		}
	}
	return currID, currDist
}

// searchLayer runs a beam search with width ef at the given layer, seeded at
// epID. It returns a max-ordered queue of the ef best candidates found; the
// caller must Reset and return it to maxQueuePool.
//
// filter, if non-nil, keeps nodes out of the result set but not out of the
// traversal, so filtered regions stay navigable.
func (h *HNSW) searchLayer(query []float32, epID core.VectorID, epDist float32, level, ef int, filter func(core.VectorID) bool) *queue.PriorityQueue {
	vis := h.visitedPool.Get().(*visited.Set)
	vis.Reset()
	vis.EnsureCapacity(len(h.nodes))
	defer h.visitedPool.Put(vis)

	candidates := h.minQueuePool.Get().(*queue.PriorityQueue)
	candidates.Reset()
	defer func() {
		candidates.Reset()
		h.minQueuePool.Put(candidates)
	}()

	results := h.maxQueuePool.Get().(*queue.PriorityQueue)
	results.Reset()

	vis.Visit(uint32(epID))
	candidates.Push(queue.Item{Node: uint32(epID), Distance: epDist})
	if filter == nil || filter(epID) {
		results.Push(queue.Item{Node: uint32(epID), Distance: epDist})
	}

	for candidates.Len() > 0 {
		curr, _ := candidates.Pop()

		// No unexplored candidate can improve the worst kept result.
		if results.Len() >= ef {
			if worst, ok := results.Top(); ok && curr.Distance > worst.Distance {
				break
			}
		}

		for _, nextID := range h.neighbors(core.VectorID(curr.Node), level) {
			if vis.Visited(uint32(nextID)) {
				continue
			}
			vis.Visit(uint32(nextID))

			nextDist := h.dist(query, nextID)

			// Skip obviously-bad candidates once the beam is full. Only
			// without a filter: filtered traversal stays permissive so it
			// cannot get trapped in filtered-out regions.
			if filter == nil && results.Len() >= ef {
				if worst, ok := results.Top(); ok && nextDist > worst.Distance {
					continue
				}
			}

			candidates.Push(queue.Item{Node: uint32(nextID), Distance: nextDist})

			if filter == nil || filter(nextID) {
				results.Push(queue.Item{Node: uint32(nextID), Distance: nextDist})
				if results.Len() > ef {
					results.Pop()
				}
			}
		}
	}

	return results
}

// selectNeighbors selects up to m neighbors from the candidate queue,
// closest first, pruning for diversity: a candidate is kept only if it is
// closer to the new node than to any already-selected neighbor. Consumes the
// queue's items (the caller still owns the queue).
func (h *HNSW) selectNeighbors(candidates *queue.PriorityQueue, m int) []core.VectorID {
	// Pop the max-heap worst-to-best, reverse to best-first.
	sorted := make([]queue.Item, candidates.Len())
	for i := len(sorted) - 1; i >= 0; i-- {
		sorted[i], _ = candidates.Pop()
	}

	if len(sorted) <= m {
		result := make([]core.VectorID, len(sorted))
		for i, it := range sorted {
			result[i] = core.VectorID(it.Node)
		}
		return result
	}

	result := make([]core.VectorID, 0, m)
	resultVecs := make([][]float32, 0, m)

	for _, cand := range sorted {
		if len(result) >= m {
			break
		}
		candVec, ok := h.vectors.GetVector(core.VectorID(cand.Node))
		if !ok {
			continue
		}

		keep := true
		for _, selVec := range resultVecs {
			if h.distanceFunc(candVec, selVec) < cand.Distance {
				keep = false
				break
			}
		}
		if keep {
			result = append(result, core.VectorID(cand.Node))
			resultVecs = append(resultVecs, candVec)
		}
	}

	// Fill up with the closest rejected candidates if diversity pruning left
	// fewer than m.
	if len(result) < m {
		for _, cand := range sorted {
			if len(result) >= m {
				break
			}
			id := core.VectorID(cand.Node)
			selected := false
			for _, r := range result {
				if r == id {
					selected = true
					break
				}
			}
			if !selected {
				result = append(result, id)
			}
		}
	}

	return result
}

// connect adds a back-edge from an existing node to the new node. If the
// node's degree now exceeds its per-layer cap, its worst (farthest) edge is
// dropped.
func (h *HNSW) connect(sourceID, targetID core.VectorID, level int) {
	src := h.nodes[sourceID]
	if src == nil || level > src.level {
		return
	}

	conns := src.neighbors[level]
	for _, c := range conns {
		if c == targetID {
			return
		}
	}
	conns = append(conns, targetID)

	maxConns := h.maxConnectionsPerLayer
	if level == 0 {
		maxConns = h.maxConnectionsLayer0
	}

	if len(conns) > maxConns {
		srcVec, ok := h.vectors.GetVector(sourceID)
		if ok {
			worst := 0
			worstDist := float32(math.Inf(-1))
			for i, c := range conns {
				if d := h.dist(srcVec, c); d > worstDist {
					worst = i
					worstDist = d
				}
			}
			conns = append(conns[:worst], conns[worst+1:]...)
		} else {
			conns = conns[:maxConns]
		}
	}

	src.neighbors[level] = conns
}

// Search returns up to k nearest neighbors of query.
func (h *HNSW) Search(ctx context.Context, query []float32, k int, opts *index.SearchOptions) ([]index.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}
	if len(query) != h.opts.Dimension {
		return nil, &index.ErrDimensionMismatch{Expected: h.opts.Dimension, Actual: len(query)}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	// Searching an empty index yields an empty result, not an error.
	if h.count == 0 {
		return nil, nil
	}

	ef := h.opts.EFConstruction
	if k > ef {
		ef = k
	}
	var filter func(core.VectorID) bool
	if opts != nil {
		if opts.EFSearch > ef {
			ef = opts.EFSearch
		}
		filter = opts.Filter
	}

	// 1. Greedy descent to layer 1.
	currID := h.entryPoint
	currDist := h.dist(query, currID)
	for l := h.maxLevel; l > 0; l-- {
		currID, currDist = h.greedyStep(query, currID, currDist, l)
	}

	// 2. Beam search at layer 0.
	results := h.searchLayer(query, currID, currDist, 0, ef, filter)
	defer func() {
		results.Reset()
		h.maxQueuePool.Put(results)
	}()

	out := make([]index.SearchResult, 0, results.Len())
	for results.Len() > 0 {
		item, _ := results.Pop()
		out = append(out, index.SearchResult{ID: core.VectorID(item.Node), Distance: item.Distance})
	}

	// Best first, ties broken by lower id for reproducible ordering.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID
	})

	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// neighbors returns the adjacency list of id at the given layer.
// Callers must hold the lock.
func (h *HNSW) neighbors(id core.VectorID, level int) []core.VectorID {
	if int(id) >= len(h.nodes) {
		return nil
	}
	n := h.nodes[id]
	if n == nil || level > n.level {
		return nil
	}
	return n.neighbors[level]
}

// dist computes the distance between a vector and a stored node.
func (h *HNSW) dist(v []float32, id core.VectorID) float32 {
	vec, ok := h.vectors.GetVector(id)
	if !ok {
		return math.MaxFloat32
	}
	return h.distanceFunc(v, vec)
}
