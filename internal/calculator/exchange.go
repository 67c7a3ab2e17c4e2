package calculator

import (
	"errors"
	"math/rand"
)

// MaxExchangeAttempts bounds the rejection-sampling loop in
// GenerateExchange. For realistic group sizes a valid assignment is found
// within a handful of shuffles; the ceiling exists so that impossible
// constraint sets (e.g. two participants who are partners) fail instead
// of spinning forever.
const MaxExchangeAttempts = 100

// ErrAssignmentImpossible is returned when no constraint-satisfying
// assignment was found within MaxExchangeAttempts shuffles.
var ErrAssignmentImpossible = errors.New("no valid exchange assignment possible")

// GenerateExchange produces a giver->receiver bijection over participants
// such that nobody is assigned to themselves or to their declared partner
// (excluded[giver] == receiver).
//
// The algorithm shuffles the participants uniformly and pairs each with
// the next in shuffle order (cyclic), which yields a single-cycle
// bijection: self-assignment is impossible for two or more participants,
// so only the partner exclusion can reject a shuffle. On rejection it
// re-shuffles, up to MaxExchangeAttempts times.
//
// rng must be non-nil; injecting it keeps generation deterministic under
// test. The participant slice is not modified.
func GenerateExchange(participants []string, excluded map[string]string, rng *rand.Rand) (map[string]string, error) {
	if len(participants) < 2 {
		return nil, ErrAssignmentImpossible
	}

	order := make([]string, len(participants))
	copy(order, participants)

	for attempt := 0; attempt < MaxExchangeAttempts; attempt++ {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		assignment := make(map[string]string, len(order))
		valid := true
		for i, giver := range order {
			receiver := order[(i+1)%len(order)]
			if receiver == giver || excluded[giver] == receiver {
				valid = false
				break
			}
			assignment[giver] = receiver
		}
		if valid {
			return assignment, nil
		}
	}

	return nil, ErrAssignmentImpossible
}
