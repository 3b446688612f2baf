package model

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

const (
	// KindTrees is a gradient-boosted regression tree ensemble.
	KindTrees = "gbtree"
	// KindLinear is a (ridge) linear model.
	KindLinear = "linear"
)

// Regressor maps an aligned feature vector to a single prediction.
type Regressor interface {
	Predict(x []float64) (float64, error)
	Kind() string
}

// RegressorSpec is the serialized form of a regressor inside a bundle.
type RegressorSpec struct {
	Kind      string `json:"kind" yaml:"kind"`
	Algorithm string `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`

	// gbtree
	BaseScore float64    `json:"base_score,omitempty" yaml:"base_score,omitempty"`
	Trees     []TreeSpec `json:"trees,omitempty" yaml:"trees,omitempty"`

	// linear
	Intercept    float64   `json:"intercept,omitempty" yaml:"intercept,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty" yaml:"coefficients,omitempty"`
}

// TreeSpec is one tree as a flat node list; node 0 is the root.
type TreeSpec struct {
	Nodes []TreeNode `json:"nodes" yaml:"nodes"`
}

// TreeNode is a split or a leaf. Splits send x < Threshold to Yes, the rest to No
// and NaN to Missing.
type TreeNode struct {
	Feature   string   `json:"feature,omitempty" yaml:"feature,omitempty"`
	Threshold float64  `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Yes       int      `json:"yes,omitempty" yaml:"yes,omitempty"`
	No        int      `json:"no,omitempty" yaml:"no,omitempty"`
	Missing   *int     `json:"missing,omitempty" yaml:"missing,omitempty"`
	Leaf      *float64 `json:"leaf,omitempty" yaml:"leaf,omitempty"`
}

// NewRegressor compiles a spec against the schema it will be fed with.
func NewRegressor(spec RegressorSpec, schema *Schema) (Regressor, error) {
	switch strings.ToLower(strings.TrimSpace(spec.Kind)) {
	case KindTrees:
		return newTreeEnsemble(spec, schema)
	case KindLinear:
		return newLinear(spec, schema)
	case "":
		return nil, errors.New("regressor kind is not set")
	default:
		return nil, fmt.Errorf("unsupported regressor kind: %s", spec.Kind)
	}
}

type compiledNode struct {
	feature   int
	threshold float64
	yes       int
	no        int
	missing   int
	leaf      float64
	isLeaf    bool
}

type treeEnsemble struct {
	baseScore float64
	trees     [][]compiledNode
	width     int
}

func newTreeEnsemble(spec RegressorSpec, schema *Schema) (*treeEnsemble, error) {
	if len(spec.Trees) == 0 {
		return nil, errors.New("tree ensemble has no trees")
	}

	ens := &treeEnsemble{
		baseScore: spec.BaseScore,
		trees:     make([][]compiledNode, 0, len(spec.Trees)),
		width:     schema.Width(),
	}

	for t, tree := range spec.Trees {
		if len(tree.Nodes) == 0 {
			return nil, fmt.Errorf("tree %d has no nodes", t)
		}
		nodes := make([]compiledNode, len(tree.Nodes))
		for i, n := range tree.Nodes {
			if n.Leaf != nil {
				nodes[i] = compiledNode{leaf: *n.Leaf, isLeaf: true}
				continue
			}

			idx, ok := schema.Index(n.Feature)
			if !ok {
				return nil, incompatible("tree %d node %d splits on unknown feature %q", t, i, n.Feature)
			}

			missing := n.Yes
			if n.Missing != nil {
				missing = *n.Missing
			}

			// children must come after their parent so evaluation always terminates
			for _, child := range []int{n.Yes, n.No, missing} {
				if child <= i || child >= len(tree.Nodes) {
					return nil, fmt.Errorf("tree %d node %d has invalid child %d", t, i, child)
				}
			}

			nodes[i] = compiledNode{
				feature:   idx,
				threshold: n.Threshold,
				yes:       n.Yes,
				no:        n.No,
				missing:   missing,
			}
		}
		ens.trees = append(ens.trees, nodes)
	}

	return ens, nil
}

func (e *treeEnsemble) Kind() string { return KindTrees }

func (e *treeEnsemble) Predict(x []float64) (float64, error) {
	if len(x) != e.width {
		return 0, fmt.Errorf("expected %d features, got %d", e.width, len(x))
	}

	sum := e.baseScore
	for _, nodes := range e.trees {
		i := 0
		for !nodes[i].isLeaf {
			n := nodes[i]
			v := x[n.feature]
			switch {
			case math.IsNaN(v):
				i = n.missing
			case v < n.threshold:
				i = n.yes
			default:
				i = n.no
			}
		}
		sum += nodes[i].leaf
	}
	return sum, nil
}

type linear struct {
	intercept float64
	coef      []float64
}

func newLinear(spec RegressorSpec, schema *Schema) (*linear, error) {
	if len(spec.Coefficients) != schema.Width() {
		return nil, incompatible("linear model has %d coefficients for %d features", len(spec.Coefficients), schema.Width())
	}
	coef := make([]float64, len(spec.Coefficients))
	copy(coef, spec.Coefficients)
	return &linear{intercept: spec.Intercept, coef: coef}, nil
}

func (l *linear) Kind() string { return KindLinear }

func (l *linear) Predict(x []float64) (float64, error) {
	if len(x) != len(l.coef) {
		return 0, fmt.Errorf("expected %d features, got %d", len(l.coef), len(x))
	}
	return l.intercept + floats.Dot(l.coef, x), nil
}
