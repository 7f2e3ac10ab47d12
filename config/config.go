// Copyright 2014-2016 The Zurichess Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the solver's tunable settings: search limits
// per engine call, closeness thresholds, and line-growth bounds, with
// defaults mirroring the original implementation's module-level
// settings and an optional YAML override file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tacticline/morphy/solver"
	"github.com/tacticline/morphy/uciengine"
)

// Config holds every tunable value the solver needs. When loaded
// through Load, fields absent from the file keep Default()'s values; a
// bare Config{} is not itself meaningful.
type Config struct {
	EnginePath string `yaml:"engine_path"`

	BestMoveDepth   int               `yaml:"best_move_depth"`
	BestMoveTime    time.Duration     `yaml:"best_move_time"`
	BestMoveOptions map[string]string `yaml:"best_move_options"`

	BestMovesDepth   int               `yaml:"best_moves_depth"`
	BestMovesTime    time.Duration     `yaml:"best_moves_time"`
	BestMovesOptions map[string]string `yaml:"best_moves_options"`
	MultiPV          int               `yaml:"multi_pv"`

	// Mate-category puzzles get a wider, shallower candidate search
	// and a higher line cap than the generic settings allow.
	BestMovesMateCatDepth   int               `yaml:"best_moves_mate_cat_depth"`
	BestMovesMateCatTime    time.Duration     `yaml:"best_moves_mate_cat_time"`
	BestMovesMateCatOptions map[string]string `yaml:"best_moves_mate_cat_options"`
	MultiPVMateCat          int               `yaml:"multi_pv_mate_cat"`

	MaxNumberBestMoves        int `yaml:"max_number_best_moves"`
	MaxNumberBestMovesMateCat int `yaml:"max_number_best_moves_mate_cat"`
	MaxLineLength             int `yaml:"max_line_length"`
	MaxLinesNumber            int `yaml:"max_lines_number"`
	MaxLinesNumberMateCat     int `yaml:"max_lines_number_mate_cat"`

	WinningScore     int32   `yaml:"winning_score"`
	CPCloseScore     int32   `yaml:"cp_close_score"`
	MateCloseScore   int32   `yaml:"mate_close_score"`
	SimilarityFactor float64 `yaml:"similarity_factor"`
}

// Default returns the settings the original implementation's
// settings/default_settings.py module ships: depth-29 searches, a
// 3-wide multi-PV for player candidates, and the WINNING_SCORE/
// CP_CLOSE_SCORE/MATE_CLOSE_SCORE/SIMILARITY_FACTOR constants.
func Default() *Config {
	const (
		multiPV        = 3
		multiPVMateCat = 16
	)
	return &Config{
		BestMoveDepth:    29,
		BestMoveOptions:  map[string]string{"Threads": "4", "Hash": "1024"},
		BestMovesDepth:   29,
		BestMovesOptions: map[string]string{"Threads": "8", "Hash": "1024"},
		MultiPV:          multiPV,

		BestMovesMateCatDepth:   20,
		BestMovesMateCatOptions: map[string]string{"Threads": "8", "Hash": "1024"},
		MultiPVMateCat:          multiPVMateCat,

		MaxNumberBestMoves:        multiPV - 1,
		MaxNumberBestMovesMateCat: multiPVMateCat - 1,
		MaxLineLength:             24,
		MaxLinesNumber:            30,
		MaxLinesNumberMateCat:     300,

		WinningScore:     270,
		CPCloseScore:     100,
		MateCloseScore:   3,
		SimilarityFactor: 5.0 / 3.0,
	}
}

// Load reads a YAML override file on top of Default's values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// BestMoveLimit builds the uciengine.Limit for single-best-move
// searches (the computer's replies).
func (c *Config) BestMoveLimit() uciengine.Limit {
	return uciengine.Limit{Depth: c.BestMoveDepth, MoveTime: c.BestMoveTime}
}

// BestMovesLimit builds the uciengine.Limit for multi-PV searches
// (the player's candidate moves).
func (c *Config) BestMovesLimit() uciengine.Limit {
	return uciengine.Limit{Depth: c.BestMovesDepth, MoveTime: c.BestMovesTime}
}

// BestMovesMateCatLimit builds the uciengine.Limit for multi-PV
// searches on a mate-category puzzle.
func (c *Config) BestMovesMateCatLimit() uciengine.Limit {
	return uciengine.Limit{Depth: c.BestMovesMateCatDepth, MoveTime: c.BestMovesMateCatTime}
}

// ToSolverOptions builds the solver.Options this Config describes.
func (c *Config) ToSolverOptions() solver.Options {
	return solver.Options{
		BestMoveSearch:     c.BestMoveLimit(),
		BestMoveOptions:    c.BestMoveOptions,
		BestMovesSearch:    c.BestMovesLimit(),
		BestMovesOptions:   c.BestMovesOptions,
		MultiPV:            c.MultiPV,
		MaxNumberBestMoves: c.MaxNumberBestMoves,
		MaxLineLength:      c.MaxLineLength,
		MaxLinesNumber:     c.MaxLinesNumber,
		WinningScore:       c.WinningScore,
		CPCloseScore:       c.CPCloseScore,
		MateCloseScore:     c.MateCloseScore,
		SimilarityFactor:   c.SimilarityFactor,
	}
}

// ToMateSolverOptions builds the solver.Options for a puzzle guessed
// to be mate-category: mate puzzles need a much wider candidate fan
// than material puzzles, so the player-move search swaps to the
// mate-category limit, multi-PV width and line caps.
func (c *Config) ToMateSolverOptions() solver.Options {
	opts := c.ToSolverOptions()
	opts.BestMovesSearch = c.BestMovesMateCatLimit()
	opts.BestMovesOptions = c.BestMovesMateCatOptions
	opts.MultiPV = c.MultiPVMateCat
	opts.MaxNumberBestMoves = c.MaxNumberBestMovesMateCat
	opts.MaxLinesNumber = c.MaxLinesNumberMateCat
	return opts
}
