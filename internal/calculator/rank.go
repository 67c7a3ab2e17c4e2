package calculator

import (
	"sort"
)

// ProposalVotes is the minimal view of a proposal the ranker needs.
type ProposalVotes struct {
	ProposalID string
	Votes      []int // signed vote values, one per voter
}

// RankedProposal is one proposal with its computed score and rank.
type RankedProposal struct {
	ProposalID string
	Score      int
	Rank       int // 1-based; equal scores share the earlier proposal's position order
}

// Score sums a proposal's signed votes.
func Score(votes []int) int {
	total := 0
	for _, v := range votes {
		total += v
	}
	return total
}

// Rank orders proposals by score descending. The sort is stable: proposals
// with equal scores keep their input order, so callers passing proposals in
// creation order get a deterministic, creation-ordered tie break. Ranking
// is advisory; no quorum or minimum vote count is enforced.
func Rank(proposals []ProposalVotes) []RankedProposal {
	ranked := make([]RankedProposal, len(proposals))
	for i, p := range proposals {
		ranked[i] = RankedProposal{ProposalID: p.ProposalID, Score: Score(p.Votes)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
