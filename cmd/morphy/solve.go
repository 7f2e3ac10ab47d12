// Copyright 2014-2016 The Zurichess Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/seekerror/logw"

	"github.com/tacticline/morphy/canon"
	"github.com/tacticline/morphy/config"
	"github.com/tacticline/morphy/line"
	"github.com/tacticline/morphy/solver"
	"github.com/tacticline/morphy/uciengine"
)

func solveCommand() *cli.Command {
	return &cli.Command{
		Name:  "solve",
		Usage: "solve every FEN line in --input, appending puzzle records to --output",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Required: true, Usage: "file with one full six-field FEN per line"},
			&cli.StringFlag{Name: "output", Required: true, Usage: "JSONL file to append puzzle records to"},
			&cli.StringFlag{Name: "engine", Required: true, Usage: "path to a UCI engine executable"},
			&cli.StringFlag{Name: "config", Usage: "YAML settings file overriding the built-in defaults"},
		},
		Action: runSolve,
	}
}

func runSolve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.EnginePath = c.String("engine")

	fens, err := readFENLines(c.String("input"))
	if err != nil {
		return err
	}

	alreadySolved, err := readSolvedFENs(c.String("output"))
	if err != nil {
		return err
	}

	out, err := os.OpenFile(c.String("output"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("morphy: open %s: %w", c.String("output"), err)
	}
	defer out.Close()
	enc := json.NewEncoder(out)

	for _, fen := range fens {
		if ctx.Err() != nil {
			logw.Warningf(ctx, "interrupted, stopping before %s", fen)
			return ctx.Err()
		}
		if alreadySolved[canon.NormalizeFEN(fen)] {
			logw.Infof(ctx, "skipping already-solved %s", fen)
			continue
		}
		if err := solveOne(ctx, cfg, fen, enc); err != nil {
			return fmt.Errorf("morphy: solving %q: %w", fen, err)
		}
	}
	return nil
}

// solveOne opens one engine subprocess for fen, guesses the puzzle's
// category, solves it with the matching settings, and appends exactly
// one JSONL record to enc when the puzzle is solved or cannot be
// solved. Any other error (engine failure, cancellation) is returned
// without writing a record. The engine is always released, whatever
// the exit path.
func solveOne(ctx context.Context, cfg *config.Config, fen string, enc *json.Encoder) error {
	client, err := uciengine.NewUCIEngine(ctx, cfg.EnginePath)
	if err != nil {
		return fmt.Errorf("spawn engine: %w", err)
	}
	defer client.Close()

	s := solver.New(client, cfg.ToSolverOptions())
	cat, err := s.GuessPuzzleCategory(ctx, fen)
	if err == nil && cat == line.CategoryMate {
		logw.Infof(ctx, "mate-category puzzle %s, widening candidate search", fen)
		s = solver.New(client, cfg.ToMateSolverOptions())
	}

	var result *solver.Result
	if err == nil {
		result, err = s.Solve(ctx, fen)
	}
	if solver.IsCannotSolve(err) {
		logw.Warningf(ctx, "puzzle %s not solved: %v", fen, err)
		return enc.Encode(&solver.Result{FEN: canon.NormalizeFEN(fen), IsSolved: false})
	}
	if err != nil {
		return err
	}

	puzzle, err := canon.Canonicalize(result)
	if err != nil {
		return err
	}
	return enc.Encode(puzzle)
}

// readFENLines reads one FEN per line from path, trimming EPD-style
// trailing "# ..." comments and blank lines the same way the
// teacher's own EPD reader does.
func readFENLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("morphy: open %s: %w", path, err)
	}
	defer f.Close()

	var fens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		text := strings.SplitN(scanner.Text(), "#", 2)[0]
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		fens = append(fens, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("morphy: read %s: %w", path, err)
	}
	return fens, nil
}

// readSolvedFENs reads an existing output file and returns the set of
// normalized FENs it already has records for, so a rerun can resume
// instead of re-solving every puzzle from scratch.
func readSolvedFENs(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("morphy: open %s: %w", path, err)
	}
	defer f.Close()

	seen := map[string]bool{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec struct {
			FEN string `json:"fen"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if rec.FEN != "" {
			seen[rec.FEN] = true
		}
	}
	return seen, scanner.Err()
}
