// Copyright 2014-2016 The Zurichess Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tacticline/morphy/canon"
	"github.com/tacticline/morphy/solver"
)

func canonCommand() *cli.Command {
	return &cli.Command{
		Name:  "canon",
		Usage: "re-canonicalize a solver-output JSONL file into puzzle records",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Required: true, Usage: "solver-output JSONL file"},
			&cli.StringFlag{Name: "output", Required: true, Usage: "JSONL file to write puzzle records to"},
			&cli.BoolFlag{Name: "suspect", Usage: "write only puzzles flagged as suspect by canon.FindSuspectMaterialLines"},
		},
		Action: runCanon,
	}
}

func runCanon(c *cli.Context) error {
	in, err := os.Open(c.String("input"))
	if err != nil {
		return fmt.Errorf("morphy: open %s: %w", c.String("input"), err)
	}
	defer in.Close()

	out, err := os.Create(c.String("output"))
	if err != nil {
		return fmt.Errorf("morphy: create %s: %w", c.String("output"), err)
	}
	defer out.Close()

	var puzzles []*canon.Puzzle
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		text := scanner.Text()
		if text == "" {
			continue
		}

		var result solver.Result
		if err := json.Unmarshal([]byte(text), &result); err != nil {
			return fmt.Errorf("morphy: parse solver output line: %w", err)
		}
		if !result.IsSolved {
			continue
		}

		puzzle, err := canon.Canonicalize(&result)
		if err != nil {
			return fmt.Errorf("morphy: canonicalize %s: %w", result.FEN, err)
		}
		puzzles = append(puzzles, puzzle)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("morphy: read %s: %w", c.String("input"), err)
	}

	if c.Bool("suspect") {
		puzzles = canon.FindSuspectMaterialLines(puzzles)
	}

	enc := json.NewEncoder(out)
	for _, p := range puzzles {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("morphy: write %s: %w", c.String("output"), err)
		}
	}
	return nil
}
