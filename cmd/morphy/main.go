// Copyright 2014-2016 The Zurichess Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command morphy drives an external UCI engine to solve chess
// tactics puzzles and canonicalize the results into persisted puzzle
// records.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "morphy",
		Usage: "solve and canonicalize chess tactics puzzles against a UCI engine",
		Commands: []*cli.Command{
			solveCommand(),
			canonCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "morphy:", err)
		os.Exit(1)
	}
}
