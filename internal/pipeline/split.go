package pipeline

import (
	"math"
	"math/rand"
	"sort"
)

// split holds sample indices for training and validation, each ascending.
type split struct {
	train      []int
	val        []int
	positional bool
}

// testSize returns the number of validation samples for n samples.
func testSize(n int, frac float64) int {
	return int(math.Ceil(frac * float64(n)))
}

// canStratify reports whether a stratified split is structurally possible:
// every class needs two samples, and each side must be able to hold one
// sample of every class.
func canStratify(labels []int, frac float64) bool {
	counts := classCounts(labels)
	for _, c := range counts {
		if c < 2 {
			return false
		}
	}
	nTest := testSize(len(labels), frac)
	nTrain := len(labels) - nTest
	return len(counts) <= nTest && len(counts) <= nTrain
}

// splitSamples chooses the stratified split when possible and otherwise the
// positional split: the first (1-frac) of the samples, in the order given,
// train and the rest validate.
func splitSamples(labels []int, frac float64, seed int64) split {
	if canStratify(labels, frac) {
		return stratifiedSplit(labels, frac, seed)
	}
	return positionalSplit(len(labels), frac)
}

func positionalSplit(n int, frac float64) split {
	cut := int(float64(n) * (1 - frac))
	s := split{positional: true}
	for i := 0; i < n; i++ {
		if i < cut {
			s.train = append(s.train, i)
		} else {
			s.val = append(s.val, i)
		}
	}
	return s
}

// stratifiedSplit draws each class's validation share at random, sized by
// largest remainder so the shares add up to the validation size.
func stratifiedSplit(labels []int, frac float64, seed int64) split {
	n := len(labels)
	nTest := testSize(n, frac)

	members := make(map[int][]int)
	for i, l := range labels {
		members[l] = append(members[l], i)
	}
	classes := make([]int, 0, len(members))
	for l := range members {
		classes = append(classes, l)
	}
	sort.Ints(classes)

	quota := make(map[int]int, len(classes))
	type rem struct {
		label int
		frac  float64
	}
	rems := make([]rem, 0, len(classes))
	assigned := 0
	for _, l := range classes {
		exact := float64(nTest) * float64(len(members[l])) / float64(n)
		q := int(math.Floor(exact))
		quota[l] = q
		assigned += q
		rems = append(rems, rem{label: l, frac: exact - float64(q)})
	}
	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for i := 0; assigned < nTest && i < len(rems); i++ {
		quota[rems[i].label]++
		assigned++
	}

	rng := rand.New(rand.NewSource(seed))
	s := split{}
	for _, l := range classes {
		idx := append([]int(nil), members[l]...)
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		q := min(quota[l], len(idx)-1)
		s.val = append(s.val, idx[:q]...)
		s.train = append(s.train, idx[q:]...)
	}
	sort.Ints(s.train)
	sort.Ints(s.val)
	return s
}

func classCounts(labels []int) map[int]int {
	counts := make(map[int]int)
	for _, l := range labels {
		counts[l]++
	}
	return counts
}

func pick[T any](xs []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = xs[j]
	}
	return out
}
