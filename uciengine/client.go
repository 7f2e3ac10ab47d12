// Copyright 2014-2016 The Zurichess Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package uciengine drives an external UCI-speaking chess engine as a
// subprocess, analogous to the teacher's own UCI loop but as the
// client end rather than the server end of the protocol.
package uciengine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/notnil/chess"

	"github.com/seekerror/logw"

	"github.com/tacticline/morphy/score"
)

// Client is a running UCI engine subprocess.
type Client struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner

	closeOnce sync.Once
}

// Option configures a Client at construction time.
type Option func(*exec.Cmd)

// WithArgs appends extra command-line arguments to the engine
// subprocess, for engines that need them (e.g. a NNUE weights path).
func WithArgs(args ...string) Option {
	return func(cmd *exec.Cmd) {
		cmd.Args = append(cmd.Args, args...)
	}
}

// NewUCIEngine spawns path as a subprocess and performs the
// uci/uciok, isready/readyok handshake.
func NewUCIEngine(ctx context.Context, path string, opts ...Option) (*Client, error) {
	cmd := exec.Command(path)
	for _, opt := range opts {
		opt(cmd)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("uciengine: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("uciengine: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("uciengine: start %s: %w", path, err)
	}

	c := &Client{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewScanner(stdout),
	}
	c.stdout.Buffer(make([]byte, 0, 64*1024), 1<<20)

	if err := c.handshake(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) send(ctx context.Context, line string) error {
	logw.Infof(ctx, "> %s", line)
	_, err := io.WriteString(c.stdin, line+"\n")
	if err != nil {
		return fmt.Errorf("uciengine: write %q: %w", line, err)
	}
	return nil
}

func (c *Client) scan() (string, bool) {
	if !c.stdout.Scan() {
		return "", false
	}
	return c.stdout.Text(), true
}

func (c *Client) handshake(ctx context.Context) error {
	if err := c.send(ctx, "uci"); err != nil {
		return err
	}
	for {
		line, ok := c.scan()
		if !ok {
			return fmt.Errorf("uciengine: engine closed stdout before uciok: %w", c.stdout.Err())
		}
		if line == "uciok" {
			break
		}
	}

	if err := c.send(ctx, "isready"); err != nil {
		return err
	}
	for {
		line, ok := c.scan()
		if !ok {
			return fmt.Errorf("uciengine: engine closed stdout before readyok: %w", c.stdout.Err())
		}
		if line == "readyok" {
			break
		}
	}
	return nil
}

func (c *Client) setOption(ctx context.Context, name, value string) error {
	return c.send(ctx, fmt.Sprintf("setoption name %s value %s", name, value))
}

func buildGoCommand(limit Limit) string {
	var b strings.Builder
	b.WriteString("go")
	if limit.Depth > 0 {
		fmt.Fprintf(&b, " depth %d", limit.Depth)
	}
	if limit.Nodes > 0 {
		fmt.Fprintf(&b, " nodes %d", limit.Nodes)
	}
	if limit.Mate > 0 {
		fmt.Fprintf(&b, " mate %d", limit.Mate)
	}
	if limit.MoveTime > 0 {
		fmt.Fprintf(&b, " movetime %d", limit.MoveTime.Milliseconds())
	}
	if limit.WTime > 0 {
		fmt.Fprintf(&b, " wtime %d", limit.WTime.Milliseconds())
	}
	if limit.BTime > 0 {
		fmt.Fprintf(&b, " btime %d", limit.BTime.Milliseconds())
	}
	if limit.WInc > 0 {
		fmt.Fprintf(&b, " winc %d", limit.WInc.Milliseconds())
	}
	if limit.BInc > 0 {
		fmt.Fprintf(&b, " binc %d", limit.BInc.Milliseconds())
	}
	if limit.MovesToGo > 0 {
		fmt.Fprintf(&b, " movestogo %d", limit.MovesToGo)
	}
	return b.String()
}

// Analyse searches pos under limit, requesting multiPV principal
// variations, and returns up to multiPV Info entries ordered by
// multipv slot. It honors ctx cancellation between engine output
// lines: on cancellation it sends "stop", drains to "bestmove", and
// returns ctx.Err().
func (c *Client) Analyse(ctx context.Context, pos *chess.Position, limit Limit, multiPV int, options map[string]string) ([]*Info, error) {
	if multiPV < 1 {
		multiPV = 1
	}
	if err := c.setOption(ctx, "MultiPV", strconv.Itoa(multiPV)); err != nil {
		return nil, err
	}
	for name, value := range options {
		if err := c.setOption(ctx, name, value); err != nil {
			return nil, err
		}
	}
	if err := c.send(ctx, "position fen "+pos.String()); err != nil {
		return nil, err
	}
	if err := c.send(ctx, buildGoCommand(limit)); err != nil {
		return nil, err
	}

	infos := map[int]*Info{}
	cancelled := false
	for {
		if !cancelled && ctx.Err() != nil {
			cancelled = true
			_ = c.send(ctx, "stop")
		}

		line, ok := c.scan()
		if !ok {
			return nil, fmt.Errorf("uciengine: engine closed stdout during search: %w", c.stdout.Err())
		}
		logw.Infof(ctx, "< %s", line)

		if strings.HasPrefix(line, "bestmove") {
			break
		}
		if strings.HasPrefix(line, "info") {
			if info := parseInfoLine(pos, line); info != nil {
				infos[info.Multipv] = info
			}
		}
	}

	if cancelled {
		return nil, ctx.Err()
	}

	slots := make([]int, 0, len(infos))
	for k := range infos {
		slots = append(slots, k)
	}
	sort.Ints(slots)

	out := make([]*Info, 0, multiPV)
	for _, k := range slots {
		out = append(out, infos[k])
		if len(out) == multiPV {
			break
		}
	}
	return out, nil
}

func parseInfoLine(pos *chess.Position, line string) *Info {
	tokens := strings.Fields(line)
	info := &Info{Multipv: 1}
	haveScore := false

	for i := 0; i < len(tokens); i++ {
		switch tokens[i] {
		case "multipv":
			if i+1 < len(tokens) {
				if v, err := strconv.Atoi(tokens[i+1]); err == nil {
					info.Multipv = v
				}
				i++
			}
		case "depth":
			if i+1 < len(tokens) {
				if v, err := strconv.Atoi(tokens[i+1]); err == nil {
					info.Depth = v
				}
				i++
			}
		case "nodes":
			if i+1 < len(tokens) {
				if v, err := strconv.ParseInt(tokens[i+1], 10, 64); err == nil {
					info.Nodes = v
				}
				i++
			}
		case "score":
			if i+2 < len(tokens) {
				kind := tokens[i+1]
				v, err := strconv.Atoi(tokens[i+2])
				if err == nil {
					switch kind {
					case "cp":
						info.Score = score.CP(int32(v))
						haveScore = true
					case "mate":
						info.Score = score.Mate(int32(v))
						haveScore = true
					}
				}
				i += 2
			}
		case "pv":
			info.PV = decodePV(pos, tokens[i+1:])
			i = len(tokens)
		}
	}

	if !haveScore {
		return nil
	}
	return info
}

func decodePV(pos *chess.Position, tokens []string) []*chess.Move {
	cur := pos
	moves := make([]*chess.Move, 0, len(tokens))
	for _, t := range tokens {
		m, err := chess.UCINotation{}.Decode(cur, t)
		if err != nil {
			break
		}
		moves = append(moves, m)
		cur = cur.Update(m)
		if cur == nil {
			break
		}
	}
	return moves
}

// Close sends "quit" and releases the subprocess. It is safe to call
// more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		_ = c.send(context.Background(), "quit")
		_ = c.stdin.Close()

		done := make(chan error, 1)
		go func() { done <- c.cmd.Wait() }()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			_ = c.cmd.Process.Kill()
			<-done
		}
	})
	return err
}
