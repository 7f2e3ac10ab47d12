// Copyright 2014-2016 The Zurichess Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package canon turns a raw solver result into the deduplicated,
// content-addressed puzzle record persisted to disk.
package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"github.com/tacticline/morphy/line"
	"github.com/tacticline/morphy/material"
	"github.com/tacticline/morphy/solver"
)

// puzzleIDLength is the number of hex characters of the FEN's SHA-256
// digest used as a puzzle's id.
const puzzleIDLength = 16

// Category is a puzzle's combined category across all of its lines.
type Category string

const (
	CategoryUnknown      Category = "UNKNOWN"
	CategoryMate         Category = "MATE"
	CategoryMaterial     Category = "MATERIAL"
	CategoryMateMaterial Category = "MATE_MATERIAL"
)

// LineRecord is the persisted, canonicalized view of one solution
// line: MATE lines keep every move, MATERIAL lines are trimmed of
// their last two moves (the computer reply and the closing player
// move) and have their material figures recomputed at the trimmed
// endpoint.
type LineRecord struct {
	Category              line.Category `json:"category"`
	Moves                 []string      `json:"moves"`
	InitialPlayerMaterial float64       `json:"initial_player_material"`
	InitialCompMaterial   float64       `json:"initial_comp_material"`
	PlayerMaterial        float64       `json:"player_material"`
	CompMaterial          float64       `json:"comp_material"`
}

// Puzzle is a solved, canonicalized tactics puzzle ready to persist.
type Puzzle struct {
	ID          string       `json:"id"`
	FEN         string       `json:"fen"`
	PlayerColor string       `json:"player_color"`
	Category    Category     `json:"category"`
	Lines       []LineRecord `json:"lines"`
}

// NormalizeFEN collapses a FEN's whitespace to single spaces, the
// only normalization the original implementation performs before
// hashing it into a puzzle id.
func NormalizeFEN(fen string) string {
	return strings.Join(strings.Fields(fen), " ")
}

// hashFEN returns the first puzzleIDLength hex characters of fen's
// SHA-256 digest.
func hashFEN(fen string) string {
	sum := sha256.Sum256([]byte(fen))
	return hex.EncodeToString(sum[:])[:puzzleIDLength]
}

func playerColorString(fen string) (string, chess.Color, error) {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return "", chess.NoColor, fmt.Errorf("canon: malformed FEN %q", fen)
	}
	switch fields[1] {
	case "w":
		return "WHITE", chess.White, nil
	case "b":
		return "BLACK", chess.Black, nil
	default:
		return "", chess.NoColor, fmt.Errorf("canon: malformed FEN %q", fen)
	}
}

func otherColor(c chess.Color) chess.Color {
	if c == chess.White {
		return chess.Black
	}
	return chess.White
}

// replayMaterial replays moves from fen and returns the player's and
// computer's material totals at the resulting position.
func replayMaterial(fen string, moves []string, playerColor chess.Color) (player, comp float64, err error) {
	fn, err := chess.FEN(fen)
	if err != nil {
		return 0, 0, fmt.Errorf("canon: %w", err)
	}
	game := chess.NewGame(fn)

	for _, uci := range moves {
		m, err := chess.UCINotation{}.Decode(game.Position(), uci)
		if err != nil {
			return 0, 0, fmt.Errorf("canon: decode move %q: %w", uci, err)
		}
		if err := game.Move(m); err != nil {
			return 0, 0, fmt.Errorf("canon: apply move %q: %w", uci, err)
		}
	}

	board := game.Position().Board()
	return material.Of(board, playerColor), material.Of(board, otherColor(playerColor)), nil
}

// canonicalizeLine trims and recomputes one line's persisted record.
func canonicalizeLine(fen string, playerColor chess.Color, snap line.Snapshot) (LineRecord, error) {
	moves := snap.Moves
	if snap.Category == line.CategoryMaterial && len(moves) >= 2 {
		moves = moves[:len(moves)-2]
	}

	playerMaterial, compMaterial, err := replayMaterial(fen, moves, playerColor)
	if err != nil {
		return LineRecord{}, err
	}

	return LineRecord{
		Category:              snap.Category,
		Moves:                 moves,
		InitialPlayerMaterial: snap.InitialPlayerMaterial,
		InitialCompMaterial:   snap.InitialCompMaterial,
		PlayerMaterial:        playerMaterial,
		CompMaterial:          compMaterial,
	}, nil
}

func recordKey(r LineRecord) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("canon: %w", err)
	}
	return string(data), nil
}

func combineCategory(records []LineRecord) Category {
	seen := map[line.Category]bool{}
	for _, r := range records {
		seen[r.Category] = true
	}
	mate, material := seen[line.CategoryMate], seen[line.CategoryMaterial]
	switch {
	case len(seen) == 2 && mate && material:
		return CategoryMateMaterial
	case len(seen) == 1 && mate:
		return CategoryMate
	case len(seen) == 1 && material:
		return CategoryMaterial
	default:
		return CategoryUnknown
	}
}

// materialSnapshot is the player/computer material totals at one ply
// of a replayed line.
type materialSnapshot struct {
	player, comp float64
}

// materialSequence replays moves from fen and returns the player/comp
// material totals at the root and after every move.
func materialSequence(fen string, moves []string, playerColor chess.Color) ([]materialSnapshot, error) {
	fn, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("canon: %w", err)
	}
	game := chess.NewGame(fn)

	snap := func() materialSnapshot {
		board := game.Position().Board()
		return materialSnapshot{
			player: material.Of(board, playerColor),
			comp:   material.Of(board, otherColor(playerColor)),
		}
	}

	seq := make([]materialSnapshot, 0, len(moves)+1)
	seq = append(seq, snap())
	for _, uci := range moves {
		m, err := chess.UCINotation{}.Decode(game.Position(), uci)
		if err != nil {
			return nil, fmt.Errorf("canon: decode move %q: %w", uci, err)
		}
		if err := game.Move(m); err != nil {
			return nil, fmt.Errorf("canon: apply move %q: %w", uci, err)
		}
		seq = append(seq, snap())
	}
	return seq, nil
}

// FindSuspectMaterialLines flags puzzles whose trimmed MATERIAL lines
// show no material change across their last two plies: a sign the
// P-C-P closure convention mis-fired during search and the supposed
// tactic is actually a no-op once the proof moves are trimmed off.
func FindSuspectMaterialLines(puzzles []*Puzzle) []*Puzzle {
	var suspects []*Puzzle
	for _, p := range puzzles {
		_, color, err := playerColorString(p.FEN)
		if err != nil {
			continue
		}
		for _, rec := range p.Lines {
			if rec.Category != line.CategoryMaterial || len(rec.Moves) < 2 {
				continue
			}
			seq, err := materialSequence(p.FEN, rec.Moves, color)
			if err != nil {
				continue
			}
			last := seq[len(seq)-1]
			prev := seq[len(seq)-2]
			if last == prev {
				suspects = append(suspects, p)
				break
			}
		}
	}
	return suspects
}

// Canonicalize builds the persisted Puzzle record for a solved
// solver.Result: normalizes the FEN, trims and recomputes every line,
// deduplicates identical records preserving first-occurrence order,
// and derives the puzzle's combined category and content-addressed id.
func Canonicalize(result *solver.Result) (*Puzzle, error) {
	fen := NormalizeFEN(result.FEN)
	colorName, color, err := playerColorString(fen)
	if err != nil {
		return nil, err
	}

	var records []LineRecord
	seen := map[string]bool{}
	for _, snap := range result.Lines {
		rec, err := canonicalizeLine(fen, color, snap)
		if err != nil {
			return nil, err
		}
		key, err := recordKey(rec)
		if err != nil {
			return nil, err
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		records = append(records, rec)
	}

	return &Puzzle{
		ID:          hashFEN(fen),
		FEN:         fen,
		PlayerColor: colorName,
		Category:    combineCategory(records),
		Lines:       records,
	}, nil
}
