package scattershot

import (
	"sync"

	"github.com/vovakirdan/scattershot/internal/binning"
	"github.com/vovakirdan/scattershot/internal/config"
	"github.com/vovakirdan/scattershot/internal/frame"
)

// Node is a retained search state: the bin it occupies and the input history
// that reaches it.
type Node struct {
	Bin     binning.Bin
	Record  *frame.Record
	Frame   int64
	Fitness float64
	Worker  int
	Seq     int64 // order of acceptance into the frontier
}

// Outcome reports what Offer did with a node.
type Outcome int

const (
	// Rejected means the bin was occupied and the node was dropped.
	Rejected Outcome = iota
	// Accepted means the node claimed a new bin.
	Accepted
	// Replaced means the node displaced a less fit occupant.
	Replaced
)

// String returns a human-readable name for the outcome.
func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Replaced:
		return "replaced"
	default:
		return "rejected"
	}
}

// Frontier is the set of retained nodes keyed by bin, plus the best node
// seen so far. It is safe for concurrent use.
type Frontier struct {
	mu     sync.Mutex
	policy config.Policy
	nodes  []Node
	index  map[binning.Bin]int
	seq    int64

	best    Node
	hasBest bool
}

// NewFrontier creates an empty frontier with the given acceptance policy.
func NewFrontier(policy config.Policy) *Frontier {
	return &Frontier{
		policy: policy,
		index:  make(map[binning.Bin]int),
	}
}

// Seed inserts n regardless of policy. Used for the root node.
func (f *Frontier) Seed(n Node) Node {
	f.mu.Lock()
	defer f.mu.Unlock()

	n.Seq = f.seq
	f.seq++
	if i, ok := f.index[n.Bin]; ok {
		f.nodes[i] = n
		return n
	}
	f.index[n.Bin] = len(f.nodes)
	f.nodes = append(f.nodes, n)
	return n
}

// Offer applies the acceptance policy to a valid node and updates the best
// node. It returns the stored node (with Seq set), the outcome and whether
// n became the new best.
func (f *Frontier) Offer(n Node) (Node, Outcome, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	newBest := !f.hasBest || n.Fitness > f.best.Fitness

	i, occupied := f.index[n.Bin]
	outcome := Rejected
	switch {
	case !occupied:
		n.Seq = f.seq
		f.seq++
		f.index[n.Bin] = len(f.nodes)
		f.nodes = append(f.nodes, n)
		outcome = Accepted
	case f.policy == config.PolicyReplaceBetter && n.Fitness > f.nodes[i].Fitness:
		n.Seq = f.seq
		f.seq++
		f.nodes[i] = n
		outcome = Replaced
	}

	if newBest {
		f.best = n
		f.hasBest = true
	}
	return n, outcome, newBest
}

// Pick returns a uniformly random node.
func (f *Frontier) Pick(r *RNG) (Node, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.nodes) == 0 {
		return Node{}, false
	}
	return f.nodes[r.Intn(len(f.nodes))], true
}

// Get returns the node occupying bin.
func (f *Frontier) Get(bin binning.Bin) (Node, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, ok := f.index[bin]
	if !ok {
		return Node{}, false
	}
	return f.nodes[i], true
}

// Len returns the number of retained nodes.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.nodes)
}

// Nodes returns a copy of the retained nodes in insertion order.
func (f *Frontier) Nodes() []Node {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Node, len(f.nodes))
	copy(out, f.nodes)
	return out
}

// Best returns the fittest valid node offered so far.
func (f *Frontier) Best() (Node, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.best, f.hasBest
}
