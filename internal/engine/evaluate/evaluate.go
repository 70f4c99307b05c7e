package evaluate

import "sort"

// Report holds held-out classification metrics. Precision, recall and F1
// are support-weighted averages over every label seen in either truth or
// predictions; a label with an undefined ratio contributes 0.
type Report struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Score compares predictions against the true labels.
func Score(truth, pred []int) Report {
	n := len(truth)
	if len(pred) < n {
		n = len(pred)
	}
	if n == 0 {
		return Report{}
	}

	type counts struct{ tp, fp, fn, support int }
	per := make(map[int]*counts)
	get := func(l int) *counts {
		c, ok := per[l]
		if !ok {
			c = &counts{}
			per[l] = c
		}
		return c
	}

	correct := 0
	for i := 0; i < n; i++ {
		t, p := truth[i], pred[i]
		get(t).support++
		if t == p {
			correct++
			get(t).tp++
			continue
		}
		get(p).fp++
		get(t).fn++
	}

	labels := make([]int, 0, len(per))
	for l := range per {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	r := Report{Accuracy: float64(correct) / float64(n), Support: n}
	for _, l := range labels {
		c := per[l]
		if c.support == 0 {
			continue
		}
		p := ratio(c.tp, c.tp+c.fp)
		rc := ratio(c.tp, c.tp+c.fn)
		f := 0.0
		if p+rc > 0 {
			f = 2 * p * rc / (p + rc)
		}
		w := float64(c.support) / float64(n)
		r.Precision += w * p
		r.Recall += w * rc
		r.F1 += w * f
	}
	return r
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
