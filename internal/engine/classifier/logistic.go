package classifier

import (
	"math"
	"sort"
)

// sparseRow is a feature vector with only its non-zero entries.
type sparseRow struct {
	idx []int
	val []float64
}

func toSparse(x []float64) sparseRow {
	var r sparseRow
	for j, v := range x {
		if v != 0 {
			r.idx = append(r.idx, j)
			r.val = append(r.val, v)
		}
	}
	return r
}

// logistic is a fitted multinomial logistic regression over a fixed class set.
type logistic struct {
	classes []int       // sorted labels
	weights [][]float64 // [class][feature]
	bias    []float64
}

// fitLogistic minimises 0.5*||W||^2 + C * sum_i w_i * CE_i with Nesterov
// accelerated gradient descent. The intercept is not penalised.
func fitLogistic(rows []sparseRow, labels []int, width int, cfg Config) *logistic {
	classes := uniqueSorted(labels)
	k := len(classes)
	pos := make(map[int]int, k)
	for i, c := range classes {
		pos[c] = i
	}
	y := make([]int, len(labels))
	for i, l := range labels {
		y[i] = pos[l]
	}
	sw := sampleWeights(y, k, cfg.Balanced)

	var total float64
	for _, w := range sw {
		total += w
	}
	// Softmax cross-entropy has curvature at most 1/2 per unit of ||x||^2;
	// rows are L2-normalised and the intercept adds 1.
	step := 1 / (1 + cfg.C*total)

	theta := newParams(k, width)
	prev := newParams(k, width)
	look := newParams(k, width)
	grad := newParams(k, width)
	probs := make([]float64, k)

	for iter := 1; iter <= cfg.MaxIter; iter++ {
		grad.zero()
		for c := 0; c < k; c++ {
			copy(grad.w[c], look.w[c])
		}
		for i, r := range rows {
			look.scores(r, probs)
			softmaxInPlace(probs)
			probs[y[i]]--
			for c := 0; c < k; c++ {
				d := cfg.C * sw[i] * probs[c]
				if d == 0 {
					continue
				}
				grad.b[c] += d
				gw := grad.w[c]
				for n, j := range r.idx {
					gw[j] += d * r.val[n]
				}
			}
		}

		prev.copyFrom(theta)
		var moved float64
		for c := 0; c < k; c++ {
			for j := range theta.w[c] {
				theta.w[c][j] = look.w[c][j] - step*grad.w[c][j]
				moved = math.Max(moved, math.Abs(theta.w[c][j]-prev.w[c][j]))
			}
			theta.b[c] = look.b[c] - step*grad.b[c]
			moved = math.Max(moved, math.Abs(theta.b[c]-prev.b[c]))
		}
		if moved < cfg.Tol {
			break
		}

		momentum := float64(iter-1) / float64(iter+2)
		for c := 0; c < k; c++ {
			for j := range theta.w[c] {
				look.w[c][j] = theta.w[c][j] + momentum*(theta.w[c][j]-prev.w[c][j])
			}
			look.b[c] = theta.b[c] + momentum*(theta.b[c]-prev.b[c])
		}
	}

	return &logistic{classes: classes, weights: theta.w, bias: theta.b}
}

// decision returns the raw per-class scores for one row.
func (m *logistic) decision(r sparseRow) []float64 {
	out := make([]float64, len(m.classes))
	for c := range m.classes {
		s := m.bias[c]
		w := m.weights[c]
		for n, j := range r.idx {
			s += w[j] * r.val[n]
		}
		out[c] = s
	}
	return out
}

func (m *logistic) finite() bool {
	for c, w := range m.weights {
		if math.IsNaN(m.bias[c]) || math.IsInf(m.bias[c], 0) {
			return false
		}
		for _, v := range w {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// sampleWeights returns per-sample weights; balanced weighting gives class c
// the weight n / (k * count_c).
func sampleWeights(y []int, k int, balanced bool) []float64 {
	w := make([]float64, len(y))
	if !balanced {
		for i := range w {
			w[i] = 1
		}
		return w
	}
	counts := make([]int, k)
	for _, c := range y {
		counts[c]++
	}
	n := float64(len(y))
	for i, c := range y {
		w[i] = n / (float64(k) * float64(counts[c]))
	}
	return w
}

type params struct {
	w [][]float64
	b []float64
}

func newParams(k, width int) *params {
	p := &params{w: make([][]float64, k), b: make([]float64, k)}
	for c := range p.w {
		p.w[c] = make([]float64, width)
	}
	return p
}

func (p *params) zero() {
	for c := range p.w {
		clear(p.w[c])
	}
	clear(p.b)
}

func (p *params) copyFrom(o *params) {
	for c := range p.w {
		copy(p.w[c], o.w[c])
	}
	copy(p.b, o.b)
}

func (p *params) scores(r sparseRow, out []float64) {
	for c := range p.w {
		s := p.b[c]
		for n, j := range r.idx {
			s += p.w[c][j] * r.val[n]
		}
		out[c] = s
	}
}

func softmaxInPlace(z []float64) {
	top := math.Inf(-1)
	for _, v := range z {
		if v > top {
			top = v
		}
	}
	var sum float64
	for i, v := range z {
		z[i] = math.Exp(v - top)
		sum += z[i]
	}
	for i := range z {
		z[i] /= sum
	}
}

func uniqueSorted(labels []int) []int {
	seen := make(map[int]bool, len(labels))
	var out []int
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Ints(out)
	return out
}
