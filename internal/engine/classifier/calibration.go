package classifier

import (
	"errors"
	"math"
)

// errDiverged is returned when fitting produces non-finite parameters.
var errDiverged = errors.New("fit diverged to non-finite parameters")

// calibratedFold is one base model plus the sigmoids fitted on its held-out
// fold. With two global classes a single sigmoid maps the decision margin;
// otherwise each class seen in training gets its own one-vs-rest sigmoid.
type calibratedFold struct {
	base     *logistic
	binary   bool
	only     int       // global column when the fold trained on one class, else -1
	cols     []int     // global column of each base class
	sigmoids []sigmoid // per base class, or one for the binary margin
}

func fitFold(trainRows []sparseRow, trainY []int, calRows []sparseRow, calY []int, classes []int, width int, cfg Config) (*calibratedFold, error) {
	col := make(map[int]int, len(classes))
	for i, c := range classes {
		col[c] = i
	}

	seen := uniqueSorted(trainY)
	if len(seen) == 1 {
		return &calibratedFold{only: col[seen[0]]}, nil
	}

	base := fitLogistic(trainRows, trainY, width, cfg)
	if !base.finite() {
		return nil, errDiverged
	}
	fold := &calibratedFold{base: base, only: -1, cols: make([]int, len(base.classes))}
	for i, c := range base.classes {
		fold.cols[i] = col[c]
	}

	scores := make([][]float64, len(calRows))
	for i, r := range calRows {
		scores[i] = base.decision(r)
	}

	if len(classes) == 2 {
		fold.binary = true
		margin := make([]float64, len(calRows))
		positive := make([]bool, len(calRows))
		for i, s := range scores {
			margin[i] = s[1] - s[0]
			positive[i] = calY[i] == classes[1]
		}
		fold.sigmoids = []sigmoid{fitSigmoid(margin, positive)}
		return fold, fold.check()
	}

	fold.sigmoids = make([]sigmoid, len(base.classes))
	f := make([]float64, len(calRows))
	positive := make([]bool, len(calRows))
	for k, c := range base.classes {
		for i, s := range scores {
			f[i] = s[k]
			positive[i] = calY[i] == c
		}
		fold.sigmoids[k] = fitSigmoid(f, positive)
	}
	return fold, fold.check()
}

func (f *calibratedFold) check() error {
	for _, sg := range f.sigmoids {
		if math.IsNaN(sg.a) || math.IsInf(sg.a, 0) || math.IsNaN(sg.b) || math.IsInf(sg.b, 0) {
			return errDiverged
		}
	}
	return nil
}

// proba returns calibrated probabilities over all n global classes.
func (f *calibratedFold) proba(r sparseRow, n int) []float64 {
	out := make([]float64, n)
	if f.only >= 0 {
		out[f.only] = 1
		return out
	}

	s := f.base.decision(r)
	if f.binary {
		p := f.sigmoids[0].apply(s[1] - s[0])
		out[f.cols[1]] = p
		out[f.cols[0]] = 1 - p
		return out
	}

	var sum float64
	for k, sg := range f.sigmoids {
		p := sg.apply(s[k])
		out[f.cols[k]] = p
		sum += p
	}
	if sum == 0 {
		for i := range out {
			out[i] = 1 / float64(n)
		}
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
