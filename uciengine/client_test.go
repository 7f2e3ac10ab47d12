package uciengine

import (
	"testing"
	"time"

	"github.com/notnil/chess"

	"github.com/tacticline/morphy/score"
)

func TestBuildGoCommand(t *testing.T) {
	tests := []struct {
		name  string
		limit Limit
		want  string
	}{
		{"depth only", Limit{Depth: 20}, "go depth 20"},
		{"movetime only", Limit{MoveTime: 1500 * time.Millisecond}, "go movetime 1500"},
		{
			name:  "clock fields",
			limit: Limit{WTime: 10 * time.Second, BTime: 9 * time.Second, WInc: time.Second, BInc: time.Second, MovesToGo: 30},
			want:  "go wtime 10000 btime 9000 winc 1000 binc 1000 movestogo 30",
		},
		{"mate search", Limit{Mate: 5}, "go mate 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildGoCommand(tt.limit); got != tt.want {
				t.Errorf("buildGoCommand(%+v) = %q, want %q", tt.limit, got, tt.want)
			}
		})
	}
}

func TestParseInfoLine(t *testing.T) {
	pos := chess.NewGame().Position()

	line := "info depth 18 seldepth 24 multipv 1 score cp 34 nodes 123456 nps 900000 pv e2e4 e7e5 g1f3"
	info := parseInfoLine(pos, line)
	if info == nil {
		t.Fatal("parseInfoLine returned nil for a line with a score")
	}
	if info.Multipv != 1 {
		t.Errorf("Multipv = %d, want 1", info.Multipv)
	}
	if info.Depth != 18 {
		t.Errorf("Depth = %d, want 18", info.Depth)
	}
	if info.Score != score.CP(34) {
		t.Errorf("Score = %v, want CP(34)", info.Score)
	}
	if len(info.PV) != 3 {
		t.Fatalf("len(PV) = %d, want 3", len(info.PV))
	}

	mateLine := "info depth 5 multipv 2 score mate -3 pv d7d5"
	mateInfo := parseInfoLine(pos, mateLine)
	if mateInfo == nil {
		t.Fatal("parseInfoLine returned nil for a mate score line")
	}
	if mateInfo.Score != score.Mate(-3) {
		t.Errorf("Score = %v, want Mate(-3)", mateInfo.Score)
	}
	if mateInfo.Multipv != 2 {
		t.Errorf("Multipv = %d, want 2", mateInfo.Multipv)
	}

	if got := parseInfoLine(pos, "info currmove e2e4 currmovenumber 1"); got != nil {
		t.Errorf("parseInfoLine should return nil when no score is present, got %+v", got)
	}
}

func TestDecodePVStopsAtFirstIllegalToken(t *testing.T) {
	pos := chess.NewGame().Position()

	moves := decodePV(pos, []string{"e2e4", "e7e5", "zz99"})
	if len(moves) != 2 {
		t.Fatalf("decodePV returned %d moves, want 2", len(moves))
	}
}
