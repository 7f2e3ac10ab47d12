// Copyright 2014-2016 The Zurichess Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package material accounts for the fixed-piece-value material balance
// on a board and evaluates exchanges on a single square.
package material

import "github.com/notnil/chess"

// Fixed piece values used throughout the solver. The king is worthless
// for accounting purposes and is never summed.
const (
	PawnValue   = 1.0
	KnightValue = 3.0
	BishopValue = 3.0
	RookValue   = 5.0
	QueenValue  = 9.5
)

func pieceValue(t chess.PieceType) float64 {
	switch t {
	case chess.Pawn:
		return PawnValue
	case chess.Knight:
		return KnightValue
	case chess.Bishop:
		return BishopValue
	case chess.Rook:
		return RookValue
	case chess.Queen:
		return QueenValue
	default:
		return 0
	}
}

// Of sums the material value of every piece of color on board.
func Of(board *chess.Board, color chess.Color) float64 {
	var total float64
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := board.Piece(sq)
		if p.Color() != color {
			continue
		}
		total += pieceValue(p.Type())
	}
	return total
}

func other(c chess.Color) chess.Color {
	if c == chess.White {
		return chess.Black
	}
	return chess.White
}

// leastValuableAttacker returns the move, among the legal moves of the
// side to move on pos, that captures on target using the cheapest
// attacking piece, and whether any such move exists.
func leastValuableAttacker(pos *chess.Position, target chess.Square) (*chess.Move, bool) {
	board := pos.Board()
	var best *chess.Move
	bestValue := 0.0
	for _, m := range pos.ValidMoves() {
		if m.S2() != target {
			continue
		}
		v := pieceValue(board.Piece(m.S1()).Type())
		if best == nil || v < bestValue {
			best = m
			bestValue = v
		}
	}
	return best, best != nil
}

// SEE computes the static exchange evaluation of capturing move m
// played from pos: the net material swing on m's target square, to the
// mover's favor, once every recapture in increasing value order has
// been played out.
//
// This is a recursive least-valuable-attacker exchange walk, not part
// of the core search: it exists standalone for callers that need an
// exchange estimate on a single square.
func SEE(pos *chess.Position, m *chess.Move) float64 {
	next := pos.Update(m)
	if next == nil {
		panic("material: SEE called with an illegal move")
	}

	victim := next.Turn()
	gain := Of(pos.Board(), victim) - Of(next.Board(), victim)

	attacker, ok := leastValuableAttacker(next, m.S2())
	if !ok || gain == 0 {
		return gain
	}
	return gain - SEE(next, attacker)
}
