package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.MultiPV != 3 {
		t.Errorf("MultiPV = %d, want 3", cfg.MultiPV)
	}
	if cfg.MaxNumberBestMoves != cfg.MultiPV-1 {
		t.Errorf("MaxNumberBestMoves = %d, want MultiPV-1 = %d", cfg.MaxNumberBestMoves, cfg.MultiPV-1)
	}
	if cfg.WinningScore != 270 {
		t.Errorf("WinningScore = %d, want 270", cfg.WinningScore)
	}
	if cfg.SimilarityFactor != 5.0/3.0 {
		t.Errorf("SimilarityFactor = %v, want 5/3", cfg.SimilarityFactor)
	}
}

func TestDefaultMateCat(t *testing.T) {
	cfg := Default()
	if cfg.MultiPVMateCat != 16 {
		t.Errorf("MultiPVMateCat = %d, want 16", cfg.MultiPVMateCat)
	}
	if cfg.MaxNumberBestMovesMateCat != cfg.MultiPVMateCat-1 {
		t.Errorf("MaxNumberBestMovesMateCat = %d, want MultiPVMateCat-1 = %d",
			cfg.MaxNumberBestMovesMateCat, cfg.MultiPVMateCat-1)
	}
	if cfg.BestMovesMateCatDepth != 20 {
		t.Errorf("BestMovesMateCatDepth = %d, want 20", cfg.BestMovesMateCatDepth)
	}
	if cfg.MaxLinesNumberMateCat != 300 {
		t.Errorf("MaxLinesNumberMateCat = %d, want 300", cfg.MaxLinesNumberMateCat)
	}
}

func TestToSolverOptions(t *testing.T) {
	cfg := Default()
	opts := cfg.ToSolverOptions()
	if opts.MultiPV != cfg.MultiPV {
		t.Errorf("ToSolverOptions().MultiPV = %d, want %d", opts.MultiPV, cfg.MultiPV)
	}
	if opts.BestMoveSearch.Depth != cfg.BestMoveDepth {
		t.Errorf("ToSolverOptions().BestMoveSearch.Depth = %d, want %d", opts.BestMoveSearch.Depth, cfg.BestMoveDepth)
	}
}

func TestToMateSolverOptions(t *testing.T) {
	cfg := Default()
	opts := cfg.ToMateSolverOptions()
	if opts.MultiPV != cfg.MultiPVMateCat {
		t.Errorf("MultiPV = %d, want %d", opts.MultiPV, cfg.MultiPVMateCat)
	}
	if opts.BestMovesSearch.Depth != cfg.BestMovesMateCatDepth {
		t.Errorf("BestMovesSearch.Depth = %d, want %d", opts.BestMovesSearch.Depth, cfg.BestMovesMateCatDepth)
	}
	if opts.MaxNumberBestMoves != cfg.MaxNumberBestMovesMateCat {
		t.Errorf("MaxNumberBestMoves = %d, want %d", opts.MaxNumberBestMoves, cfg.MaxNumberBestMovesMateCat)
	}
	if opts.MaxLinesNumber != cfg.MaxLinesNumberMateCat {
		t.Errorf("MaxLinesNumber = %d, want %d", opts.MaxLinesNumber, cfg.MaxLinesNumberMateCat)
	}
	// The computer-reply search and line-length bound stay generic.
	if opts.BestMoveSearch.Depth != cfg.BestMoveDepth {
		t.Errorf("BestMoveSearch.Depth = %d, want %d", opts.BestMoveSearch.Depth, cfg.BestMoveDepth)
	}
	if opts.MaxLineLength != cfg.MaxLineLength {
		t.Errorf("MaxLineLength = %d, want %d", opts.MaxLineLength, cfg.MaxLineLength)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	contents := "winning_score: 400\nmulti_pv: 5\nbest_move_time: 2000000000\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WinningScore != 400 {
		t.Errorf("WinningScore = %d, want 400", cfg.WinningScore)
	}
	if cfg.MultiPV != 5 {
		t.Errorf("MultiPV = %d, want 5", cfg.MultiPV)
	}
	if cfg.BestMoveTime != 2*time.Second {
		t.Errorf("BestMoveTime = %v, want 2s", cfg.BestMoveTime)
	}
	// Fields absent from the override keep their Default() value.
	if cfg.MaxLineLength != 24 {
		t.Errorf("MaxLineLength = %d, want unchanged default 24", cfg.MaxLineLength)
	}
}
