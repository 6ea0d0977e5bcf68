package trainer

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/floats"
import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/hypernetwork/stein"

// VoteMode aggregates ensemble members into one prediction.
type VoteMode string

const (
	// Soft averages member probabilities and takes the argmax.
	Soft VoteMode = "soft"
	// Hard takes every member's argmax and the most frequent label.
	Hard VoteMode = "hard"
)

// ParseVoteMode validates a vote mode name.
func ParseVoteMode(s string) (VoteMode, error) {
	switch VoteMode(s) {
	case Soft, Hard:
		return VoteMode(s), nil
	}
	return "", errors.Errorf("unsupported vote %q (want soft or hard)", s)
}

// argmax returns the first index of the maximum.
func argmax(row []float64) int {
	return floats.MaxIdx(row)
}

// SoftVote averages the softmax of every member and returns the argmax per example.
func SoftVote(preds []*mat.Dense) []int {
	rows, classes := preds[0].Dims()
	mean := mat.NewDense(rows, classes, nil)
	for _, p := range preds {
		mean.Add(mean, stein.Softmax(p))
	}
	votes := make([]int, rows)
	for i := range votes {
		votes[i] = argmax(mean.RawRowView(i))
	}
	return votes
}

// HardVote returns the most frequent member argmax per example. Ties go to the
// lowest label.
func HardVote(preds []*mat.Dense) []int {
	rows, classes := preds[0].Dims()
	votes := make([]int, rows)
	counts := make([]int, classes)
	for i := range votes {
		for c := range counts {
			counts[c] = 0
		}
		for _, p := range preds {
			counts[argmax(p.RawRowView(i))]++
		}
		var best int
		for c, n := range counts {
			if n > counts[best] {
				best = c
			}
		}
		votes[i] = best
	}
	return votes
}

// Vote aggregates the first n members.
func Vote(preds []*mat.Dense, n int, mode VoteMode) ([]int, error) {
	if n <= 0 || n > len(preds) {
		return nil, errors.Errorf("vote over %d of %d members", n, len(preds))
	}
	switch mode {
	case Soft:
		return SoftVote(preds[:n]), nil
	case Hard:
		return HardVote(preds[:n]), nil
	}
	return nil, errors.Errorf("unsupported vote %q", mode)
}
