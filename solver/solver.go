// Copyright 2014-2016 The Zurichess Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package solver drives the generation-by-generation search that
// expands a puzzle's root position into a set of closed solution
// lines, alternating player candidate moves with single computer
// replies.
package solver

import (
	"context"
	"errors"
	"fmt"

	"github.com/notnil/chess"

	"github.com/seekerror/logw"

	"github.com/tacticline/morphy/line"
	"github.com/tacticline/morphy/selector"
	"github.com/tacticline/morphy/uciengine"
)

// ErrCannotSolve is returned when a puzzle cannot be solved: a branch
// produced no candidates, grew too long, produced too many candidates,
// or the total number of lines exceeded its bound. It is the same
// value as line.ErrCannotSolve, so both packages' errors.Is checks agree.
var ErrCannotSolve = line.ErrCannotSolve

// Engine is the subset of uciengine.Client the solver depends on.
// Accepting this interface rather than *uciengine.Client keeps the
// generation loop testable without a real engine subprocess.
type Engine interface {
	Analyse(ctx context.Context, pos *chess.Position, limit uciengine.Limit, multiPV int, options map[string]string) ([]*uciengine.Info, error)
	Close() error
}

// Options configures a Solver. The zero value is not meaningful; use
// config.Config.ToSolverOptions or fill every field explicitly.
type Options struct {
	BestMoveSearch   uciengine.Limit
	BestMoveOptions  map[string]string
	BestMovesSearch  uciengine.Limit
	BestMovesOptions map[string]string
	MultiPV          int

	MaxNumberBestMoves int
	MaxLineLength      int
	MaxLinesNumber     int

	WinningScore     int32
	CPCloseScore     int32
	MateCloseScore   int32
	SimilarityFactor float64
}

// Result is the outcome of solving one puzzle root position. It is
// the "solver output" of the external interface: JSON-encoded
// directly when a puzzle fails to solve, fed into canon.Canonicalize
// when it does.
type Result struct {
	FEN      string          `json:"fen"`
	IsSolved bool            `json:"is_solved"`
	Lines    []line.Snapshot `json:"lines,omitempty"`
}

// Solver runs the generation loop for one puzzle at a time. It is not
// safe for concurrent use and is not reused across engine subprocess
// lifetimes — construct one per Client.
type Solver struct {
	client Engine
	opts   Options

	fen         string
	depth       int
	openLines   []*line.Line
	closedLines []*line.Line
}

// New builds a Solver that analyses through client using opts.
func New(client Engine, opts Options) *Solver {
	return &Solver{client: client, opts: opts}
}

// Solve expands fen's position into closed solution lines. It panics
// if fen's position is already game-over, mirroring the original
// implementation's precondition assertion. It honors ctx cancellation
// between generations: on cancellation it closes the engine client
// and returns ctx.Err() without persisting any partial result.
func (s *Solver) Solve(ctx context.Context, fen string) (*Result, error) {
	s.fen = fen
	s.depth = 0
	s.openLines = nil
	s.closedLines = nil

	game, err := newGameFromFEN(fen)
	if err != nil {
		panic(fmt.Sprintf("solver: invalid FEN %q: %v", fen, err))
	}
	if game.Outcome() != chess.NoOutcome {
		panic(fmt.Sprintf("solver: root position %q is already game over", fen))
	}

	s.openLines = []*line.Line{line.New(game)}
	logw.Infof(ctx, "solving %s", fen)

	for len(s.openLines) > 0 {
		if err := ctx.Err(); err != nil {
			s.client.Close()
			return nil, err
		}

		generations, err := s.goDeeper(ctx)
		if err != nil {
			return nil, err
		}

		flat := flatten(generations)
		for _, ln := range flat {
			if err := ln.Evaluate(); err != nil {
				return nil, err
			}
		}

		if err := s.shouldTerminate(generations, flat); err != nil {
			return nil, err
		}

		var next []*line.Line
		for _, ln := range flat {
			if ln.RepeatedPosition() {
				continue
			}
			if ln.Closed() {
				s.closedLines = append(s.closedLines, ln)
			} else {
				next = append(next, ln)
			}
		}
		s.openLines = next

		logw.Infof(ctx, "depth %d: %d open, %d closed", s.depth, len(s.openLines), len(s.closedLines))
	}

	return s.buildResult(), nil
}

// GuessPuzzleCategory plays the engine's single best move at fen's
// root and reports the resulting line's category. A throwaway one-ply
// probe, used to decide whether a puzzle is mate-driven before
// committing to a full solve. It panics on an invalid FEN, like Solve.
func (s *Solver) GuessPuzzleCategory(ctx context.Context, fen string) (line.Category, error) {
	game, err := newGameFromFEN(fen)
	if err != nil {
		panic(fmt.Sprintf("solver: invalid FEN %q: %v", fen, err))
	}
	ln := line.New(game)

	infos, err := s.client.Analyse(ctx, ln.Position(), s.opts.BestMoveSearch, 1, s.opts.BestMoveOptions)
	if err != nil {
		return line.CategoryUnknown, err
	}
	if len(infos) == 0 || len(infos[0].PV) == 0 {
		return line.CategoryUnknown, fmt.Errorf("%w: no best move at root", ErrCannotSolve)
	}
	return ln.CopyWithMove(infos[0].PV[0], infos[0]).LineCategory(), nil
}

func newGameFromFEN(fen string) (*chess.Game, error) {
	fn, err := chess.FEN(fen)
	if err != nil {
		return nil, err
	}
	return chess.NewGame(fn), nil
}

// goDeeper expands every open line by one ply: player-move lines
// fan out into every selected candidate, computer-move lines produce
// exactly one reply. The returned slice is aligned with s.openLines,
// one entry (possibly empty) per open line.
func (s *Solver) goDeeper(ctx context.Context) ([][]*line.Line, error) {
	generations := make([][]*line.Line, 0, len(s.openLines))

	for _, ln := range s.openLines {
		var children []*line.Line

		if ln.IsPlayerMove() {
			infos, err := s.client.Analyse(ctx, ln.Position(), s.opts.BestMovesSearch, s.opts.MultiPV, s.opts.BestMovesOptions)
			if err != nil {
				return nil, err
			}
			for _, info := range selector.ChoosePlayerCandidates(infos, ln, s.opts.WinningScore, s.opts.CPCloseScore, s.opts.MateCloseScore, s.opts.SimilarityFactor) {
				children = append(children, ln.CopyWithMove(info.PV[0], info))
			}
		} else {
			infos, err := s.client.Analyse(ctx, ln.Position(), s.opts.BestMoveSearch, 1, s.opts.BestMoveOptions)
			if err != nil {
				return nil, err
			}
			if len(infos) > 0 && len(infos[0].PV) > 0 {
				children = append(children, ln.CopyWithMove(infos[0].PV[0], infos[0]))
			}
		}

		generations = append(generations, children)
	}

	s.depth++
	return generations, nil
}

func flatten(generations [][]*line.Line) []*line.Line {
	var out []*line.Line
	for _, g := range generations {
		out = append(out, g...)
	}
	return out
}

// allClosedMaterial reports whether every line in children already
// closed as a MATERIAL win — such a branch is excluded from the
// too-many-good-moves check, since many equally good ways to clinch a
// material win is not the same thing as an unresolved fan-out.
func allClosedMaterial(children []*line.Line) bool {
	if len(children) == 0 {
		return false
	}
	for _, ln := range children {
		if !ln.Closed() || ln.LineCategory() != line.CategoryMaterial {
			return false
		}
	}
	return true
}

// shouldTerminate checks the four termination predicates, in order:
// a broken (empty) branch, too many candidate moves on a non-material
// branch, a line grown too long, and too many lines tracked overall.
func (s *Solver) shouldTerminate(generations [][]*line.Line, flat []*line.Line) error {
	for _, children := range generations {
		if len(children) == 0 {
			return fmt.Errorf("%w: broken line, no candidate moves produced", ErrCannotSolve)
		}
	}

	for _, children := range generations {
		if allClosedMaterial(children) {
			continue
		}
		if len(children) > s.opts.MaxNumberBestMoves {
			return fmt.Errorf("%w: too many good moves (%d)", ErrCannotSolve, len(children))
		}
	}

	for _, ln := range flat {
		if ln.Length() > s.opts.MaxLineLength {
			return fmt.Errorf("%w: line too long (%d plies)", ErrCannotSolve, ln.Length())
		}
	}

	if total := len(s.closedLines) + len(flat); total > s.opts.MaxLinesNumber {
		return fmt.Errorf("%w: too many lines (%d)", ErrCannotSolve, total)
	}

	return nil
}

func (s *Solver) buildResult() *Result {
	snaps := make([]line.Snapshot, 0, len(s.closedLines))
	for _, ln := range s.closedLines {
		snaps = append(snaps, ln.Snapshot())
	}
	return &Result{
		FEN:      s.fen,
		IsSolved: len(s.openLines) == 0,
		Lines:    snaps,
	}
}

// IsCannotSolve reports whether err is (or wraps) ErrCannotSolve.
func IsCannotSolve(err error) bool {
	return errors.Is(err, ErrCannotSolve)
}
