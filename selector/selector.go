// Copyright 2014-2016 The Zurichess Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package selector picks which of an engine's multi-PV candidate
// moves are "equally good" winning moves worth branching a line on.
package selector

import (
	"sort"

	"github.com/tacticline/morphy/line"
	"github.com/tacticline/morphy/score"
	"github.com/tacticline/morphy/uciengine"
)

// ExtractBestWinningMoves returns the subset of scores that are
// winning (per threshold) and close to the best winning score among
// them (per cpThreshold/mateThreshold). Order of the input is not
// preserved; ties on the best score are all included.
func ExtractBestWinningMoves(scores []score.Score, threshold, cpThreshold, mateThreshold int32) []score.Score {
	sorted := append([]score.Score(nil), scores...)
	sort.Slice(sorted, func(i, j int) bool { return score.Less(sorted[j], sorted[i]) })

	winning := sorted[:0:0]
	for _, s := range sorted {
		if score.IsWinning(s, threshold) {
			winning = append(winning, s)
		}
	}
	if len(winning) == 0 {
		return nil
	}

	best := winning[0]
	var out []score.Score
	for _, s := range winning {
		if score.Close(best, s, cpThreshold, mateThreshold) {
			out = append(out, s)
		}
	}
	return out
}

// cpThresholdFor mirrors Solver.calc_cp_threshold: a mate-best score
// falls back to the fixed cpClose value (mates are compared on their
// own scale, not the proportional one), otherwise the proportional
// threshold derived from the best centipawn score.
func cpThresholdFor(infos []*uciengine.Info, cpClose int32, similarityFactor float64) int32 {
	best := infos[0].Score
	for _, info := range infos[1:] {
		if score.Less(best, info.Score) {
			best = info.Score
		}
	}
	if !best.IsCP() {
		return cpClose
	}
	return score.CPCloseThreshold(best, similarityFactor)
}

// mateThresholdFor mirrors Solver.calc_mate_threshold: the mate
// closeness window shrinks as the line gets deeper, floored at 0.
func mateThresholdFor(mateClose int32, ln *line.Line) int32 {
	mt := mateClose - int32(ln.Length()/2)
	if mt < 0 {
		return 0
	}
	return mt
}

func containsScore(scores []score.Score, target score.Score) bool {
	for _, s := range scores {
		if s == target {
			return true
		}
	}
	return false
}

// ChoosePlayerCandidates selects, among infos (one per multi-PV
// slot), those whose score is among the best winning moves for ln and
// whose principal variation is non-empty, per
// Solver.extract_best_winning_moves.
func ChoosePlayerCandidates(infos []*uciengine.Info, ln *line.Line, winningThreshold, cpClose, mateClose int32, similarityFactor float64) []*uciengine.Info {
	if len(infos) == 0 {
		return nil
	}

	scores := make([]score.Score, len(infos))
	for i, info := range infos {
		scores[i] = info.Score
	}

	cpThreshold := cpThresholdFor(infos, cpClose, similarityFactor)
	mateThreshold := mateThresholdFor(mateClose, ln)
	best := ExtractBestWinningMoves(scores, winningThreshold, cpThreshold, mateThreshold)
	if len(best) == 0 {
		return nil
	}

	var out []*uciengine.Info
	for _, info := range infos {
		if len(info.PV) == 0 {
			continue
		}
		if containsScore(best, info.Score) {
			out = append(out, info)
		}
	}
	return out
}
