package selection

import (
	"math"

	"github.com/rxtech-lab/argo-forecast/internal/logger"
	"github.com/rxtech-lab/argo-forecast/internal/types"
	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"go.uber.org/zap"
)

// DefaultThreshold is the absolute correlation above which a later feature is dropped.
const DefaultThreshold = 0.9

// Selection is the outcome of a correlation filter.
type Selection struct {
	Candidates types.FeatureSet `json:"candidates" yaml:"candidates"`
	// Kept preserves the candidate order.
	Kept types.FeatureSet `json:"kept" yaml:"kept"`
	// Dropped maps each removed feature to the earlier feature it was too close to.
	Dropped map[types.FeatureName]types.FeatureName `json:"dropped" yaml:"dropped"`
	// Constant lists features with zero variance. Their correlation is undefined, so
	// they are kept and never cause a drop.
	Constant types.FeatureSet `json:"constant" yaml:"constant"`
	// Correlation is the absolute Pearson correlation matrix over the candidates,
	// NaN where undefined.
	Correlation [][]float64 `json:"-" yaml:"correlation"`
}

// Selector removes redundant features by pairwise correlation.
type Selector struct {
	threshold float64
	log       *logger.Logger
}

// NewSelector creates a selector. The threshold must lie in (0, 1].
func NewSelector(threshold float64, log *logger.Logger) (*Selector, error) {
	if math.IsNaN(threshold) || threshold <= 0 || threshold > 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidThreshold, "correlation threshold must be in (0, 1], got %v", threshold)
	}

	return &Selector{threshold: threshold, log: log}, nil
}

// Threshold returns the configured threshold.
func (s *Selector) Threshold() float64 {
	return s.threshold
}

// Select computes |corr| between every pair of candidates over all rows of table
// and drops the later feature of each pair whose correlation strictly exceeds the
// threshold. Each feature is compared with every earlier candidate, including ones
// that were themselves dropped, so the result depends only on candidate order.
func (s *Selector) Select(table types.FeatureTable, candidates types.FeatureSet) (*Selection, error) {
	if len(candidates) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "no candidate features to select from")
	}

	seen := make(map[types.FeatureName]bool, len(candidates))
	for _, name := range candidates {
		if seen[name] {
			return nil, errors.Newf(errors.ErrCodeDuplicateFeature, "candidate %s listed more than once", name)
		}

		seen[name] = true
	}

	if len(table) < 2 {
		return nil, errors.NewInsufficientDataError(2, len(table), "", "correlation needs at least two rows")
	}

	columns := make([][]float64, len(candidates))
	for i, name := range candidates {
		column, err := table.Column(name)
		if err != nil {
			return nil, err
		}

		columns[i] = column
	}

	corr := CorrelationMatrix(columns)

	selection := &Selection{
		Kept:        types.FeatureSet{},
		Dropped:     make(map[types.FeatureName]types.FeatureName),
		Constant:    types.FeatureSet{},
		Correlation: corr,
		Candidates:  candidates.Clone(),
	}

	for j, name := range candidates {
		if isConstant(corr, j) {
			selection.Constant = append(selection.Constant, name)
		}

		dropped := false

		for i := 0; i < j; i++ {
			c := corr[i][j]
			if math.IsNaN(c) || c <= s.threshold {
				continue
			}

			selection.Dropped[name] = candidates[i]
			dropped = true

			s.log.Debug("Dropping correlated feature",
				zap.String("feature", string(name)),
				zap.String("correlated_with", string(candidates[i])),
				zap.Float64("correlation", c),
			)

			break
		}

		if !dropped {
			selection.Kept = append(selection.Kept, name)
		}
	}

	s.log.Info("Selected features",
		zap.Strings("kept", selection.Kept.Strings()),
		zap.Int("dropped", len(selection.Dropped)),
		zap.Int("constant", len(selection.Constant)),
		zap.Float64("threshold", s.threshold),
	)

	return selection, nil
}

// isConstant reports whether feature j has undefined correlation with everything,
// which only happens when its variance is zero.
func isConstant(corr [][]float64, j int) bool {
	return math.IsNaN(corr[j][j])
}

// CorrelationMatrix returns the absolute Pearson correlation between every pair of
// equally long columns. Pairs involving a zero-variance column are NaN, including
// the diagonal entry of that column.
func CorrelationMatrix(columns [][]float64) [][]float64 {
	k := len(columns)
	means := make([]float64, k)
	norms := make([]float64, k)

	for i, col := range columns {
		sum := 0.0
		for _, v := range col {
			sum += v
		}

		means[i] = sum / float64(len(col))

		ss := 0.0
		for _, v := range col {
			d := v - means[i]
			ss += d * d
		}

		norms[i] = math.Sqrt(ss)
	}

	corr := make([][]float64, k)
	for i := range corr {
		corr[i] = make([]float64, k)
	}

	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			var c float64

			switch {
			case norms[i] == 0 || norms[j] == 0:
				c = math.NaN()
			case i == j:
				c = 1
			default:
				cov := 0.0
				for r := range columns[i] {
					cov += (columns[i][r] - means[i]) * (columns[j][r] - means[j])
				}

				c = math.Min(math.Abs(cov/(norms[i]*norms[j])), 1)
			}

			corr[i][j] = c
			corr[j][i] = c
		}
	}

	return corr
}

// Apply projects every row of table onto the kept features. Rows are copied.
func (s *Selection) Apply(table types.FeatureTable) types.FeatureTable {
	out := make(types.FeatureTable, len(table))

	for i, row := range table {
		features := make(map[types.FeatureName]float64, len(s.Kept))
		for _, name := range s.Kept {
			if v, ok := row.Features[name]; ok {
				features[name] = v
			}
		}

		row.Features = features
		out[i] = row
	}

	return out
}
