package calculator

import (
	"errors"
	"math/rand"
	"testing"
)

// checkBijection verifies the three assignment constraints: bijection,
// no self-assignment, no partner assignment.
func checkBijection(t *testing.T, participants []string, excluded map[string]string, assignment map[string]string) {
	t.Helper()

	if len(assignment) != len(participants) {
		t.Fatalf("assignment covers %d givers, want %d", len(assignment), len(participants))
	}

	receivers := make(map[string]int)
	for _, p := range participants {
		receiver, ok := assignment[p]
		if !ok {
			t.Fatalf("participant %s has no assignment", p)
		}
		if receiver == p {
			t.Errorf("participant %s assigned to themselves", p)
		}
		if excluded[p] == receiver {
			t.Errorf("participant %s assigned to excluded receiver %s", p, receiver)
		}
		receivers[receiver]++
	}

	for receiver, count := range receivers {
		if count != 1 {
			t.Errorf("receiver %s appears %d times, want 1", receiver, count)
		}
	}
}

func TestGenerateExchange(t *testing.T) {
	participants := []string{"alice", "bob", "carol", "dave", "erin"}
	excluded := map[string]string{
		"alice": "bob",
		"bob":   "alice",
	}

	// Many seeds: every draw must satisfy all constraints.
	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		assignment, err := GenerateExchange(participants, excluded, rng)
		if err != nil {
			t.Fatalf("seed %d: GenerateExchange failed: %v", seed, err)
		}
		checkBijection(t, participants, excluded, assignment)
	}
}

func TestGenerateExchangeNoExclusions(t *testing.T) {
	participants := []string{"a", "b", "c"}
	rng := rand.New(rand.NewSource(1))

	assignment, err := GenerateExchange(participants, nil, rng)
	if err != nil {
		t.Fatalf("GenerateExchange failed: %v", err)
	}
	checkBijection(t, participants, nil, assignment)
}

func TestGenerateExchangeTwoPartnersImpossible(t *testing.T) {
	// Two participants who are each other's partner: the only possible
	// bijection pairs them, so generation must fail, not hang.
	participants := []string{"alice", "bob"}
	excluded := map[string]string{
		"alice": "bob",
		"bob":   "alice",
	}

	rng := rand.New(rand.NewSource(1))
	_, err := GenerateExchange(participants, excluded, rng)
	if !errors.Is(err, ErrAssignmentImpossible) {
		t.Fatalf("expected ErrAssignmentImpossible, got %v", err)
	}
}

func TestGenerateExchangeTwoStrangers(t *testing.T) {
	participants := []string{"alice", "bob"}
	rng := rand.New(rand.NewSource(1))

	assignment, err := GenerateExchange(participants, nil, rng)
	if err != nil {
		t.Fatalf("GenerateExchange failed: %v", err)
	}
	if assignment["alice"] != "bob" || assignment["bob"] != "alice" {
		t.Errorf("two strangers must swap, got %v", assignment)
	}
}

func TestGenerateExchangeTooFewParticipants(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, participants := range [][]string{nil, {"alone"}} {
		_, err := GenerateExchange(participants, nil, rng)
		if !errors.Is(err, ErrAssignmentImpossible) {
			t.Errorf("participants %v: expected ErrAssignmentImpossible, got %v", participants, err)
		}
	}
}

func TestGenerateExchangeDoesNotMutateInput(t *testing.T) {
	participants := []string{"alice", "bob", "carol"}
	rng := rand.New(rand.NewSource(7))

	if _, err := GenerateExchange(participants, nil, rng); err != nil {
		t.Fatalf("GenerateExchange failed: %v", err)
	}
	for i, want := range []string{"alice", "bob", "carol"} {
		if participants[i] != want {
			t.Fatalf("input slice mutated: %v", participants)
		}
	}
}
