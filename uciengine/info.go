// Copyright 2014-2016 The Zurichess Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uciengine

import (
	"time"

	"github.com/notnil/chess"

	"github.com/tacticline/morphy/score"
)

// Info is one parsed UCI "info" line, trimmed to the fields the
// solver needs: which multipv slot it belongs to, the evaluation, and
// the principal variation that produced it.
type Info struct {
	Multipv int
	Score   score.Score
	PV      []*chess.Move
	Depth   int
	Nodes   int64
}

// Limit bounds a single Analyse call. It is a value struct with
// field-wise equality, mirroring a UCI "go" command's options.
type Limit struct {
	Depth     int
	Nodes     int64
	Mate      int
	MoveTime  time.Duration
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}
