package classifier

import (
	"math"
	"math/rand/v2"
	"sort"
)

// stratifiedSplit partitions row indices into train and held-out sets, holding out
// floor(fraction * n) rows of each class. Every class keeps at least one training
// row. The same seed always yields the same partition.
func stratifiedSplit(labels []float64, fraction float64, seed uint64) (train, test []int) {
	byClass := make(map[float64][]int)
	for i, label := range labels {
		byClass[label] = append(byClass[label], i)
	}

	classes := make([]float64, 0, len(byClass))
	for label := range byClass {
		classes = append(classes, label)
	}
	sort.Float64s(classes)

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for _, label := range classes {
		indices := byClass[label]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		hold := int(math.Floor(fraction * float64(len(indices))))
		if hold >= len(indices) {
			hold = len(indices) - 1
		}
		test = append(test, indices[:hold]...)
		train = append(train, indices[hold:]...)
	}

	sort.Ints(train)
	sort.Ints(test)
	return train, test
}
