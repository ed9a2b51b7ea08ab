package model

import (
	"math"
	"math/rand"
	"sort"
)

const leafNode = -1

type treeNode struct {
	feature   int
	threshold float64
	left      int
	right     int
	// probability of label 1 among the training rows that reached the node
	value float64
}

func (n treeNode) isLeaf() bool {
	return n.left == leafNode
}

// decisionTree is a binary CART classifier split on gini impurity.
type decisionTree struct {
	nodes       []treeNode
	importances []float64
}

type treeConfig struct {
	maxDepth        int // 0 means unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int
}

type treeBuilder struct {
	cfg   treeConfig
	X     [][]float64
	y     []int
	rng   *rand.Rand
	tree  *decisionTree
	total float64
}

func growTree(X [][]float64, y []int, rows []int, cfg treeConfig, rng *rand.Rand) *decisionTree {
	width := len(X[0])
	tree := &decisionTree{importances: make([]float64, width)}
	b := &treeBuilder{
		cfg:   cfg,
		X:     X,
		y:     y,
		rng:   rng,
		tree:  tree,
		total: float64(len(rows)),
	}
	b.build(rows, 0)

	sum := 0.0
	for _, v := range tree.importances {
		sum += v
	}

	if sum > 0 {
		for i := range tree.importances {
			tree.importances[i] /= sum
		}
	}

	return tree
}

func (b *treeBuilder) build(rows []int, depth int) int {
	positives := 0
	for _, r := range rows {
		positives += b.y[r]
	}

	idx := len(b.tree.nodes)
	b.tree.nodes = append(b.tree.nodes, treeNode{
		feature: leafNode,
		left:    leafNode,
		right:   leafNode,
		value:   float64(positives) / float64(len(rows)),
	})

	n := len(rows)
	if positives == 0 || positives == n {
		return idx
	}

	if n < b.cfg.minSamplesSplit || n < 2*b.cfg.minSamplesLeaf {
		return idx
	}

	if b.cfg.maxDepth > 0 && depth >= b.cfg.maxDepth {
		return idx
	}

	feature, threshold, gain, ok := b.bestSplit(rows, positives)
	if !ok {
		return idx
	}

	left := make([]int, 0, n)
	right := make([]int, 0, n)

	for _, r := range rows {
		if b.X[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	b.tree.importances[feature] += float64(n) / b.total * gain

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)

	b.tree.nodes[idx].feature = feature
	b.tree.nodes[idx].threshold = threshold
	b.tree.nodes[idx].left = l
	b.tree.nodes[idx].right = r

	return idx
}

// bestSplit scans a random subset of features and returns the split with the
// largest impurity decrease. Ties keep the first candidate examined.
func (b *treeBuilder) bestSplit(rows []int, positives int) (int, float64, float64, bool) {
	n := len(rows)
	parent := gini(positives, n)

	width := len(b.X[0])
	candidates := b.rng.Perm(width)[:b.cfg.maxFeatures]

	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 0.0

	sorted := make([]int, n)

	for _, f := range candidates {
		copy(sorted, rows)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.X[sorted[i]][f] < b.X[sorted[j]][f]
		})

		leftPos := 0
		for i := 0; i < n-1; i++ {
			leftPos += b.y[sorted[i]]

			cur := b.X[sorted[i]][f]
			next := b.X[sorted[i+1]][f]

			if cur == next {
				continue
			}

			leftN := i + 1
			rightN := n - leftN

			if leftN < b.cfg.minSamplesLeaf || rightN < b.cfg.minSamplesLeaf {
				continue
			}

			child := (float64(leftN)*gini(leftPos, leftN) + float64(rightN)*gini(positives-leftPos, rightN)) / float64(n)
			gain := parent - child

			if gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, 0, false
	}

	return bestFeature, bestThreshold, bestGain, true
}

func (t *decisionTree) probability(row []float64) float64 {
	i := 0
	for !t.nodes[i].isLeaf() {
		node := t.nodes[i]
		if row[node.feature] <= node.threshold {
			i = node.left
		} else {
			i = node.right
		}
	}

	return t.nodes[i].value
}

func (t *decisionTree) depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		if t.nodes[i].isLeaf() {
			return 0
		}

		return 1 + max(walk(t.nodes[i].left), walk(t.nodes[i].right))
	}

	return walk(0)
}

func gini(positives, n int) float64 {
	if n == 0 {
		return 0
	}

	p := float64(positives) / float64(n)

	return 1 - p*p - (1-p)*(1-p)
}

// featureCount resolves a max_features policy to a count for width features.
func featureCount(policy string, width int) int {
	var k int

	switch policy {
	case MaxFeaturesSqrt:
		k = int(math.Sqrt(float64(width)))
	case MaxFeaturesLog2:
		k = int(math.Log2(float64(width)))
	default:
		k = width
	}

	return min(max(k, 1), width)
}
