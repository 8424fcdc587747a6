package bandwidth

import "math"

// EvenSplit divides total into n shares that differ by at most one unit and
// sum to exactly total. The earliest recipients absorb the remainder.
func EvenSplit(total, n int) []int {
	if n <= 0 || total < 0 {
		return nil
	}
	shares := make([]int, n)
	base, rem := total/n, total%n
	for i := range shares {
		shares[i] = base
		if i < rem {
			shares[i]++
		}
	}
	return shares
}

// Proportional gives each weight floor(w/sum * fraction * total). The shares
// never sum past fraction*total; leftover units stay unallocated.
func Proportional(total int, weights []int, fraction float64) []int {
	sum := 0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 || total < 0 {
		return nil
	}
	shares := make([]int, len(weights))
	for i, w := range weights {
		shares[i] = Share(total, w, sum, fraction)
	}
	return shares
}

// Share is floor(weight/sum * fraction * total), zero when either side is empty.
func Share(total, weight, sum int, fraction float64) int {
	if weight <= 0 || sum <= 0 || total <= 0 {
		return 0
	}
	// integer product first so exact ratios do not lose a unit to float rounding
	return int(math.Floor(float64(weight*total) * fraction / float64(sum)))
}

func Sum(shares []int) int {
	total := 0
	for _, s := range shares {
		total += s
	}
	return total
}
