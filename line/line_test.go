package line

import (
	"testing"

	"github.com/notnil/chess"

	"github.com/tacticline/morphy/score"
	"github.com/tacticline/morphy/uciengine"
)

func mustGame(t *testing.T, fen string) *chess.Game {
	t.Helper()
	fn, err := chess.FEN(fen)
	if err != nil {
		t.Fatalf("chess.FEN(%q): %v", fen, err)
	}
	return chess.NewGame(fn)
}

func mustExtend(t *testing.T, l *Line, uci string, s score.Score) *Line {
	t.Helper()
	m, err := chess.UCINotation{}.Decode(l.Position(), uci)
	if err != nil {
		t.Fatalf("decode %q: %v", uci, err)
	}
	return l.CopyWithMove(m, &uciengine.Info{Score: s})
}

func TestNewSetsInitialMaterial(t *testing.T) {
	l := New(chess.NewGame())
	if l.PlayerColor() != chess.White {
		t.Fatalf("PlayerColor() = %v, want White", l.PlayerColor())
	}
	if l.initialPlayerMaterial != l.initialCompMaterial {
		t.Fatalf("starting position should be material-equal, got %v vs %v",
			l.initialPlayerMaterial, l.initialCompMaterial)
	}
}

func TestIsPlayerMoveAlternates(t *testing.T) {
	root := New(chess.NewGame())
	if !root.IsPlayerMove() {
		t.Fatal("root line should be the player's move")
	}
	child := mustExtend(t, root, "e2e4", score.CP(20))
	if child.IsPlayerMove() {
		t.Fatal("after the player's move it should be the opponent's turn")
	}
}

func TestPlayerWonGameFoolsMate(t *testing.T) {
	// After 1.f3 e5 2.g4, it is Black to move; Black plays Qh4# and wins.
	root := New(mustGame(t, "rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq - 0 2"))
	if root.PlayerColor() != chess.Black {
		t.Fatalf("PlayerColor() = %v, want Black", root.PlayerColor())
	}
	mate := mustExtend(t, root, "d8h4", score.MateGiven)
	if !mate.PlayerWonGame() {
		t.Fatal("Qh4# should be a won game for the player")
	}
	if err := mate.Evaluate(); err != nil {
		t.Fatalf("Evaluate() = %v, want nil", err)
	}
	if !mate.Closed() {
		t.Fatal("a won game should close the line")
	}
}

func TestIsRepetitionKnightShuffle(t *testing.T) {
	root := New(chess.NewGame())
	l := root
	for _, uci := range []string{"g1f3", "g8f6", "f3g1", "f6g8"} {
		l = mustExtend(t, l, uci, score.CP(0))
	}
	if !l.IsRepetition() {
		t.Fatal("returning to the starting position should be a two-fold repetition")
	}
}

func TestLineCategoryFromLastScore(t *testing.T) {
	root := New(chess.NewGame())
	if root.LineCategory() != CategoryUnknown {
		t.Fatalf("LineCategory() = %v, want CategoryUnknown for a line with no analysis", root.LineCategory())
	}
	cp := mustExtend(t, root, "e2e4", score.CP(50))
	if cp.LineCategory() != CategoryMaterial {
		t.Fatalf("LineCategory() = %v, want CategoryMaterial", cp.LineCategory())
	}
	mate := mustExtend(t, cp, "e7e5", score.Mate(3))
	if mate.LineCategory() != CategoryMate {
		t.Fatalf("LineCategory() = %v, want CategoryMate", mate.LineCategory())
	}
}

func TestCanCloseMaterialLine(t *testing.T) {
	fen := "1k6/p7/5r2/8/4N3/8/P7/4K3 w - - 0 1"

	root := New(mustGame(t, fen))
	padP := mustExtend(t, root, "a2a3", score.CP(0))
	padC := mustExtend(t, padP, "a7a6", score.CP(0))
	capture := mustExtend(t, padC, "e4f6", score.CP(400))
	compReply := mustExtend(t, capture, "a6a5", score.CP(400))

	closeA := mustExtend(t, compReply, "f6d5", score.CP(400))
	if closeA.CanCloseMaterialLine() {
		t.Fatal("CanCloseMaterialLine() should be false before a sibling candidate exists")
	}

	closeB := mustExtend(t, compReply, "f6g4", score.CP(400))

	if !compReply.PlayerGainedMaterial() {
		t.Fatal("PlayerGainedMaterial() should be true after winning the rook for nothing")
	}
	if len(compReply.Children()) != 2 {
		t.Fatalf("compReply should have 2 children, got %d", len(compReply.Children()))
	}
	if closeA.Length() <= 3 || closeB.Length() <= 3 {
		t.Fatalf("closing lines should be longer than 3 plies, got %d and %d", closeA.Length(), closeB.Length())
	}
	if !closeA.CanCloseMaterialLine() {
		t.Fatal("CanCloseMaterialLine() should be true once a sibling candidate exists")
	}
	if !closeB.CanCloseMaterialLine() {
		t.Fatal("CanCloseMaterialLine() should be true for the second sibling too")
	}
}

func TestSnapshot(t *testing.T) {
	root := New(chess.NewGame())
	child := mustExtend(t, root, "e2e4", score.CP(30))
	snap := child.Snapshot()
	if len(snap.Moves) != 1 || snap.Moves[0] != "e2e4" {
		t.Fatalf("Snapshot().Moves = %v, want [e2e4]", snap.Moves)
	}
	if snap.Category != CategoryMaterial {
		t.Fatalf("Snapshot().Category = %v, want CategoryMaterial", snap.Category)
	}
	if snap.PlayerColor != "WHITE" {
		t.Fatalf("Snapshot().PlayerColor = %v, want WHITE", snap.PlayerColor)
	}
}
