// Copyright 2014-2016 The Zurichess Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package line tracks one candidate variation from a puzzle's root
// position: the moves played so far, the engine analysis that produced
// each move, and whether the variation has closed as a solution.
package line

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"github.com/tacticline/morphy/material"
	"github.com/tacticline/morphy/uciengine"
)

// ErrCannotSolve is returned by Evaluate when a line reaches a
// position that is game-over (including claimable draws) without
// having closed as a player win. Callers outside this package should
// reach it through solver.ErrCannotSolve, which is the same value.
var ErrCannotSolve = errors.New("line: position has no winning closure")

// Category classifies how a closed line won, based on the kind of
// score that produced its final move.
type Category string

const (
	CategoryUnknown  Category = "UNKNOWN"
	CategoryMate     Category = "MATE"
	CategoryMaterial Category = "MATERIAL"
)

// Line is one variation branching from a puzzle's root position.
type Line struct {
	game        *chess.Game
	playerColor chess.Color

	initialPlayerMaterial float64
	initialCompMaterial   float64

	analysisTrace []*uciengine.Info
	closed        bool
	repeated      bool

	parent   *Line
	children []*Line
}

// New builds the root line of a puzzle from game's current position.
// The side to move in game's current position is the player.
func New(game *chess.Game) *Line {
	l := &Line{
		game:        game,
		playerColor: game.Position().Turn(),
	}
	l.initialPlayerMaterial = l.GetPlayerMaterial()
	l.initialCompMaterial = l.GetCompMaterial()
	return l
}

func other(c chess.Color) chess.Color {
	if c == chess.White {
		return chess.Black
	}
	return chess.White
}

// CopyWithMove extends l with move m, recording info as the analysis
// that selected it, and returns the new child line. It panics if l is
// already closed or if m is illegal in l's current position — both are
// programming errors, never puzzle data errors.
func (l *Line) CopyWithMove(m *chess.Move, info *uciengine.Info) *Line {
	if l.closed {
		panic("line: CopyWithMove called on a closed line")
	}
	child := l.game.Clone()
	if err := child.Move(m); err != nil {
		panic(fmt.Sprintf("line: illegal move %s: %v", m, err))
	}

	trace := make([]*uciengine.Info, len(l.analysisTrace), len(l.analysisTrace)+1)
	copy(trace, l.analysisTrace)
	trace = append(trace, info)

	cl := &Line{
		game:                  child,
		playerColor:           l.playerColor,
		initialPlayerMaterial: l.initialPlayerMaterial,
		initialCompMaterial:   l.initialCompMaterial,
		analysisTrace:         trace,
		parent:                l,
	}
	l.children = append(l.children, cl)
	return cl
}

// Closed reports whether the line has been evaluated as a finished
// solution branch.
func (l *Line) Closed() bool { return l.closed }

// Parent returns l's parent line, or nil for a root line.
func (l *Line) Parent() *Line { return l.parent }

// Children returns the lines produced by CopyWithMove from l.
func (l *Line) Children() []*Line { return l.children }

// Position returns l's current chess position.
func (l *Line) Position() *chess.Position { return l.game.Position() }

// PlayerColor returns the color the player is moving in this puzzle.
func (l *Line) PlayerColor() chess.Color { return l.playerColor }

// IsPlayerMove reports whether it is the player's turn to move.
func (l *Line) IsPlayerMove() bool {
	return l.game.Position().Turn() == l.playerColor
}

// GetPlayerMaterial returns the player's current material total.
func (l *Line) GetPlayerMaterial() float64 {
	return material.Of(l.game.Position().Board(), l.playerColor)
}

// GetCompMaterial returns the computer's current material total.
func (l *Line) GetCompMaterial() float64 {
	return material.Of(l.game.Position().Board(), other(l.playerColor))
}

// PlayerWonGame reports whether the line ends in checkmate delivered
// by the player.
func (l *Line) PlayerWonGame() bool {
	return l.game.Position().Status() == chess.Checkmate && !l.IsPlayerMove()
}

// PlayerGainedMaterial reports whether the player's material
// advantage has grown by at least a rook-for-knight swing since the
// line's root.
func (l *Line) PlayerGainedMaterial() bool {
	current := l.GetPlayerMaterial() - l.GetCompMaterial()
	initial := l.initialPlayerMaterial - l.initialCompMaterial
	return current-initial >= material.RookValue-material.KnightValue
}

// LineCategory classifies l by the kind of score that produced its
// last move. A line with no analysis yet, or whose last analysis is
// nil, is CategoryUnknown.
func (l *Line) LineCategory() Category {
	if len(l.analysisTrace) == 0 {
		return CategoryUnknown
	}
	last := l.analysisTrace[len(l.analysisTrace)-1]
	if last == nil {
		return CategoryUnknown
	}
	if last.Score.IsMate() || last.Score.IsMateGiven() {
		return CategoryMate
	}
	return CategoryMaterial
}

// CanCloseMaterialLine reports whether l may close as a material win:
// it must be a MATERIAL line whose parent gained material, whose
// parent produced more than one candidate, and which is long enough
// that the close isn't just the capture-recapture pair itself.
func (l *Line) CanCloseMaterialLine() bool {
	if l.LineCategory() != CategoryMaterial {
		return false
	}
	if l.parent == nil {
		return false
	}
	if !l.parent.PlayerGainedMaterial() {
		return false
	}
	if len(l.parent.children) <= 1 {
		return false
	}
	return l.Length() > 3
}

// Length returns the number of plies played since l's root.
func (l *Line) Length() int { return len(l.game.Moves()) }

// normalizedPositionKey reduces a FEN to the fields that determine
// repetition: board, side to move, castling rights, en passant
// target. The halfmove clock and fullmove number are excluded.
func normalizedPositionKey(pos *chess.Position) string {
	fields := strings.Fields(pos.String())
	if len(fields) < 4 {
		return pos.String()
	}
	return strings.Join(fields[:4], " ")
}

// IsRepetition reports whether l's current position has occurred at
// least twice since its root (a stricter, two-fold check; the
// underlying library only exposes three-fold-and-up detection).
func (l *Line) IsRepetition() bool {
	positions := l.game.Positions()
	if len(positions) == 0 {
		return false
	}
	key := normalizedPositionKey(positions[len(positions)-1])
	count := 0
	for _, p := range positions {
		if normalizedPositionKey(p) == key {
			count++
		}
	}
	return count >= 2
}

// RepeatedPosition reports the repetition flag set by the most recent
// Evaluate call.
func (l *Line) RepeatedPosition() bool { return l.repeated }

// isGameOver reports whether game's current position is over,
// treating every claimable draw (threefold repetition, fifty-move
// rule) as claimed.
func isGameOver(game *chess.Game) bool {
	if game.Outcome() != chess.NoOutcome {
		return true
	}
	for _, m := range game.EligibleDraws() {
		switch m {
		case chess.ThreefoldRepetition, chess.FivefoldRepetition,
			chess.FiftyMoveRule, chess.SeventyFiveMoveRule,
			chess.InsufficientMaterial:
			return true
		}
	}
	return false
}

// Evaluate updates l's repetition flag and closes l if the player has
// won or the line qualifies for a material close. If the line is
// neither closed nor further playable (game over, including claimable
// draws), it returns ErrCannotSolve.
func (l *Line) Evaluate() error {
	l.repeated = l.IsRepetition()

	if l.PlayerWonGame() || l.CanCloseMaterialLine() {
		l.closed = true
		return nil
	}

	if isGameOver(l.game) {
		return ErrCannotSolve
	}
	return nil
}

// Snapshot is the persisted view of a line, equivalent to the
// original implementation's to_dict.
type Snapshot struct {
	Category              Category `json:"category"`
	IsClosed              bool     `json:"is_closed"`
	PlayerColor           string   `json:"player_color"`
	Moves                 []string `json:"moves"`
	InitialPlayerMaterial float64  `json:"initial_player_material"`
	InitialCompMaterial   float64  `json:"initial_comp_material"`
	PlayerMaterial        float64  `json:"player_material"`
	CompMaterial          float64  `json:"comp_material"`
}

// colorString renders c the way puzzle records persist it: "WHITE" or
// "BLACK".
func colorString(c chess.Color) string {
	if c == chess.Black {
		return "BLACK"
	}
	return "WHITE"
}

// Snapshot captures l's current state as a Snapshot.
func (l *Line) Snapshot() Snapshot {
	positions := l.game.Positions()
	moves := l.game.Moves()
	uci := make([]string, len(moves))
	for i, m := range moves {
		uci[i] = chess.UCINotation{}.Encode(positions[i], m)
	}

	return Snapshot{
		Category:              l.LineCategory(),
		IsClosed:              l.closed,
		PlayerColor:           colorString(l.playerColor),
		Moves:                 uci,
		InitialPlayerMaterial: l.initialPlayerMaterial,
		InitialCompMaterial:   l.initialCompMaterial,
		PlayerMaterial:        l.GetPlayerMaterial(),
		CompMaterial:          l.GetCompMaterial(),
	}
}
