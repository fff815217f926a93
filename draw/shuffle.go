package draw

import "github.com/showmanfest/luckydraw/models"

// ShuffledPick returns n distinct participants drawn uniformly from pool
// using a Fisher-Yates shuffle. randInt must return a uniform value in
// [0, bound); the stage draw passes real randomness, tests pass a stub.
// The pool itself is not modified. Panics if n exceeds the pool size;
// callers validate pool size first.
func ShuffledPick(pool []*models.Participant, n int, randInt func(bound int) int) []*models.Participant {
	shuffled := make([]*models.Participant, len(pool))
	copy(shuffled, pool)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := randInt(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	return shuffled[:n]
}
