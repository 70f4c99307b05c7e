package classifier

import "math"

// sigmoid is a fitted Platt scaling map: p = 1 / (1 + exp(a*f + b)).
type sigmoid struct {
	a, b float64
}

func (s sigmoid) apply(f float64) float64 {
	z := s.a*f + s.b
	if z >= 0 {
		e := math.Exp(-z)
		return e / (1 + e)
	}
	return 1 / (1 + math.Exp(z))
}

// fitSigmoid fits Platt's sigmoid to decision values f and binary targets,
// using smoothed targets and Newton's method with backtracking.
func fitSigmoid(f []float64, positive []bool) sigmoid {
	var prior0, prior1 float64
	for _, p := range positive {
		if p {
			prior1++
		} else {
			prior0++
		}
	}

	hi := (prior1 + 1) / (prior1 + 2)
	lo := 1 / (prior0 + 2)
	t := make([]float64, len(f))
	for i, p := range positive {
		if p {
			t[i] = hi
		} else {
			t[i] = lo
		}
	}

	const (
		maxIter = 100
		minStep = 1e-10
		sigma   = 1e-12
		eps     = 1e-5
	)

	a, b := 0.0, math.Log((prior0+1)/(prior1+1))
	fval := plattObjective(f, t, a, b)

	for iter := 0; iter < maxIter; iter++ {
		h11, h22, h21 := sigma, sigma, 0.0
		g1, g2 := 0.0, 0.0
		for i := range f {
			z := f[i]*a + b
			var p, q float64
			if z >= 0 {
				e := math.Exp(-z)
				p, q = e/(1+e), 1/(1+e)
			} else {
				e := math.Exp(z)
				p, q = 1/(1+e), e/(1+e)
			}
			d2 := p * q
			h11 += f[i] * f[i] * d2
			h22 += d2
			h21 += f[i] * d2
			d1 := t[i] - p
			g1 += f[i] * d1
			g2 += d1
		}
		if math.Abs(g1) < eps && math.Abs(g2) < eps {
			break
		}

		det := h11*h22 - h21*h21
		da := -(h22*g1 - h21*g2) / det
		db := -(-h21*g1 + h11*g2) / det
		gd := g1*da + g2*db

		step := 1.0
		for step >= minStep {
			na, nb := a+step*da, b+step*db
			nf := plattObjective(f, t, na, nb)
			if nf < fval+0.0001*step*gd {
				a, b, fval = na, nb, nf
				break
			}
			step /= 2
		}
		if step < minStep {
			break
		}
	}
	return sigmoid{a: a, b: b}
}

func plattObjective(f, t []float64, a, b float64) float64 {
	var sum float64
	for i := range f {
		z := f[i]*a + b
		if z >= 0 {
			sum += t[i]*z + math.Log1p(math.Exp(-z))
		} else {
			sum += (t[i]-1)*z + math.Log1p(math.Exp(z))
		}
	}
	return sum
}
