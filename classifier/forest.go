package classifier

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
)

// Fixed toy training set for the fallback signal. Columns follow Stats.Features.
var (
	toySamples = [][]float64{
		{100, 10, 1},
		{500, 50, 1},
		{120, 1, 0},
		{80, 2, 1},
		{200, 20, 0},
	}
	toyLabels = []int{0, 1, 1, 0, 0}
)

const (
	leaf        = -1
	numFeatures = 3
)

// Node is one node of a flattened decision tree. Leaves have Feature == -1
// and carry the fraction of class-1 samples that reached them.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a binary decision tree stored as a node slice; node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Forest is a small bagged ensemble of decision trees.
type Forest struct {
	Version int    `json:"version"`
	Seed    uint64 `json:"seed"`
	Trees   []Tree `json:"trees"`
}

// TrainOptions controls forest construction.
type TrainOptions struct {
	Trees       int
	Seed        uint64
	MaxFeatures int
}

// DefaultTrainOptions mirrors a 10-tree forest seeded with 0 that considers
// one random feature per split.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{Trees: 10, Seed: 0, MaxFeatures: 1}
}

const forestVersion = 1

var errEmptyForest = errors.New("empty forest model")

// Default trains the fixed fallback forest. The result is identical on every call.
func Default() *Forest {
	return Train(toySamples, toyLabels, DefaultTrainOptions())
}

// Train fits a forest on samples x with binary labels y.
func Train(x [][]float64, y []int, opts TrainOptions) *Forest {
	if opts.Trees <= 0 {
		opts.Trees = 1
	}
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = 1
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	f := &Forest{Version: forestVersion, Seed: opts.Seed}
	if len(x) == 0 {
		f.Trees = []Tree{{Nodes: []Node{{Feature: leaf}}}}
		return f
	}

	for t := 0; t < opts.Trees; t++ {
		sample := make([]int, len(x))
		for i := range sample {
			sample[i] = rng.IntN(len(x))
		}
		b := &treeBuilder{x: x, y: y, rng: rng, maxFeatures: opts.MaxFeatures}
		b.grow(sample)
		f.Trees = append(f.Trees, Tree{Nodes: b.nodes})
	}
	return f
}

// Probability implements Classifier.
func (f *Forest) Probability(s Stats) float64 {
	return f.PredictProba(s.Features())
}

// PredictProba averages the class-1 leaf fractions of every tree.
func (f *Forest) PredictProba(features []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.Trees {
		sum += t.predict(features)
	}
	p := sum / float64(len(f.Trees))
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

func (f *Forest) validate() error {
	if len(f.Trees) == 0 {
		return errEmptyForest
	}
	for ti, t := range f.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d: %w", ti, errEmptyForest)
		}
		for i, n := range t.Nodes {
			if n.Feature == leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= numFeatures ||
				n.Left <= i || n.Left >= len(t.Nodes) ||
				n.Right <= i || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d: malformed node %d", ti, i)
			}
		}
	}
	return nil
}

func (t Tree) predict(features []float64) float64 {
	i := 0
	for steps := 0; steps <= len(t.Nodes) && i < len(t.Nodes); steps++ {
		n := t.Nodes[i]
		if n.Feature == leaf || n.Feature >= len(features) {
			return n.Value
		}
		if features[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return 0
}

type treeBuilder struct {
	x           [][]float64
	y           []int
	rng         *rand.Rand
	maxFeatures int
	nodes       []Node
}

type split struct {
	feature   int
	threshold float64
	impurity  float64
}

func (b *treeBuilder) grow(sample []int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: leaf, Value: b.positiveRate(sample)})

	if len(sample) < 2 || gini(b.counts(sample)) == 0 {
		return idx
	}

	best, ok := b.bestSplit(sample)
	if !ok {
		return idx
	}

	var left, right []int
	for _, s := range sample {
		if b.x[s][best.feature] <= best.threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	l := b.grow(left)
	r := b.grow(right)
	b.nodes[idx] = Node{Feature: best.feature, Threshold: best.threshold, Left: l, Right: r}
	return idx
}

// bestSplit draws features in random order and evaluates the first
// maxFeatures of them that are not constant within the sample.
func (b *treeBuilder) bestSplit(sample []int) (split, bool) {
	nFeatures := len(b.x[sample[0]])
	best := split{feature: leaf}
	examined := 0

	for _, f := range b.rng.Perm(nFeatures) {
		if examined >= b.maxFeatures {
			break
		}
		values := distinctValues(b.x, sample, f)
		if len(values) < 2 {
			continue
		}
		examined++

		for i := 0; i+1 < len(values); i++ {
			thr := (values[i] + values[i+1]) / 2
			var left, right []int
			for _, s := range sample {
				if b.x[s][f] <= thr {
					left = append(left, s)
				} else {
					right = append(right, s)
				}
			}
			n := float64(len(sample))
			imp := float64(len(left))/n*gini(b.counts(left)) + float64(len(right))/n*gini(b.counts(right))
			if best.feature == leaf || imp < best.impurity {
				best = split{feature: f, threshold: thr, impurity: imp}
			}
		}
	}
	return best, best.feature != leaf
}

func (b *treeBuilder) counts(sample []int) (neg, pos int) {
	for _, s := range sample {
		if b.y[s] == 1 {
			pos++
		} else {
			neg++
		}
	}
	return neg, pos
}

func (b *treeBuilder) positiveRate(sample []int) float64 {
	if len(sample) == 0 {
		return 0
	}
	_, pos := b.counts(sample)
	return float64(pos) / float64(len(sample))
}

func gini(neg, pos int) float64 {
	n := float64(neg + pos)
	if n == 0 {
		return 0
	}
	pn, pp := float64(neg)/n, float64(pos)/n
	return 1 - pn*pn - pp*pp
}

func distinctValues(x [][]float64, sample []int, f int) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, s := range sample {
		v := x[s][f]
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}
