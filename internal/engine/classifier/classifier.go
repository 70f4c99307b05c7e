package classifier

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Config holds the base model and calibration hyperparameters.
type Config struct {
	C        float64 // inverse regularisation strength
	MaxIter  int
	Tol      float64 // stop when no parameter moves more than this
	Balanced bool    // weight classes inversely to their frequency
	Folds    int     // calibration cross-validation folds
}

// DefaultConfig returns the settings used for profile classification.
func DefaultConfig() Config {
	return Config{C: 1, MaxIter: 1000, Tol: 1e-6, Balanced: true, Folds: 3}
}

// Result holds the outcome of classifying a single feature vector.
type Result struct {
	Label      int
	Confidence float64
}

// Classifier is a logistic regression ensemble calibrated with Platt scaling.
// It is immutable once returned from Fit and safe for concurrent use.
type Classifier struct {
	classes []int
	width   int
	folds   []*calibratedFold
}

// Fit trains one calibrated model per cross-validation fold: the base model
// is fitted on the other folds and its sigmoids on the held-out fold. When y
// holds a single class the result predicts that class with probability 1.
func Fit(X [][]float64, y []int, cfg Config) (*Classifier, error) {
	if len(X) != len(y) {
		return nil, fmt.Errorf("classifier: %d rows but %d labels", len(X), len(y))
	}
	if len(X) == 0 {
		return nil, errors.New("classifier: no training rows")
	}
	if cfg.Folds < 2 {
		cfg.Folds = 2
	}
	width := len(X[0])
	rows := make([]sparseRow, len(X))
	for i, x := range X {
		if len(x) != width {
			return nil, fmt.Errorf("classifier: row %d has %d features, want %d", i, len(x), width)
		}
		rows[i] = toSparse(x)
	}

	classes := uniqueSorted(y)
	if len(classes) == 1 {
		// Nothing to separate: every row gets the only class seen.
		return &Classifier{classes: classes, width: width, folds: []*calibratedFold{{only: 0}}}, nil
	}
	if len(X) < cfg.Folds {
		return nil, fmt.Errorf("classifier: %d rows cannot fill %d calibration folds", len(X), cfg.Folds)
	}

	assign := stratifiedFolds(y, classes, cfg.Folds)
	folds := make([]*calibratedFold, cfg.Folds)

	var g errgroup.Group
	for f := range folds {
		g.Go(func() error {
			var trainRows, calRows []sparseRow
			var trainY, calY []int
			for i, a := range assign {
				if a == f {
					calRows = append(calRows, rows[i])
					calY = append(calY, y[i])
				} else {
					trainRows = append(trainRows, rows[i])
					trainY = append(trainY, y[i])
				}
			}
			fold, err := fitFold(trainRows, trainY, calRows, calY, classes, width, cfg)
			if err != nil {
				return fmt.Errorf("classifier: fold %d: %w", f, err)
			}
			folds[f] = fold
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Classifier{classes: classes, width: width, folds: folds}, nil
}

// Classes returns the labels in probability-column order.
func (c *Classifier) Classes() []int {
	out := make([]int, len(c.classes))
	copy(out, c.classes)
	return out
}

// PredictProba returns, per row, the calibrated probability of each class
// in Classes order. Each row sums to 1.
func (c *Classifier) PredictProba(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, x := range X {
		if len(x) != c.width {
			return nil, fmt.Errorf("classifier: row %d has %d features, want %d", i, len(x), c.width)
		}
		r := toSparse(x)
		avg := make([]float64, len(c.classes))
		for _, f := range c.folds {
			for k, p := range f.proba(r, len(c.classes)) {
				avg[k] += p
			}
		}
		for k := range avg {
			avg[k] /= float64(len(c.folds))
		}
		out[i] = avg
	}
	return out, nil
}

// Classify returns the most probable label for each row with its probability.
// Ties resolve to the lowest label.
func (c *Classifier) Classify(X [][]float64) ([]Result, error) {
	probs, err := c.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]Result, len(probs))
	for i, p := range probs {
		best := 0
		for k := 1; k < len(p); k++ {
			if p[k] > p[best] {
				best = k
			}
		}
		out[i] = Result{Label: c.classes[best], Confidence: p[best]}
	}
	return out, nil
}

// Predict returns the most probable label for each row.
func (c *Classifier) Predict(X [][]float64) ([]int, error) {
	res, err := c.Classify(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(res))
	for i, r := range res {
		out[i] = r.Label
	}
	return out, nil
}

// stratifiedFolds assigns each sample a fold so that every fold receives a
// near-equal share of each class. Within a class, earlier samples go to
// lower folds.
func stratifiedFolds(y, classes []int, k int) []int {
	pos := make(map[int]int, len(classes))
	for i, c := range classes {
		pos[c] = i
	}
	counts := make([]int, len(classes))
	for _, l := range y {
		counts[pos[l]]++
	}

	// Deal the class-sorted labels round-robin to size each fold's share.
	alloc := make([][]int, k)
	for f := range alloc {
		alloc[f] = make([]int, len(classes))
	}
	n := 0
	for ci, cnt := range counts {
		for j := 0; j < cnt; j++ {
			alloc[n%k][ci]++
			n++
		}
	}

	next := make([]int, len(classes)) // fold currently being filled per class
	used := make([]int, len(classes)) // members placed in that fold so far
	assign := make([]int, len(y))
	for i, l := range y {
		ci := pos[l]
		for used[ci] >= alloc[next[ci]][ci] {
			next[ci]++
			used[ci] = 0
		}
		assign[i] = next[ci]
		used[ci]++
	}
	return assign
}
