// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.17
//

package goppk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var ErrSolverFailed = errors.New("solver failed")

// Default solver command, looked up in $PATH
const DefaultSolverBin = "rnx2rtkp"

// Location of the solver under $MGNSS_EXTDIR
const extSolverPath = "ext/rtklib_2.4.3_b34/app/consapp/rnx2rtkp/gcc/rnx2rtkp"

// Exit status of the solver
type SolverError struct {
	ExitCode int
	Stderr   string
}

func (e *SolverError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if len(msg) > 200 {
		msg = msg[len(msg)-200:]
	}
	return fmt.Sprintf("solver exited with status %d: %s", e.ExitCode, msg)
}

func (e *SolverError) Unwrap() error {
	return ErrSolverFailed
}

// Input and output files of one run
type SolverJob struct {
	Conf  string
	Rover string
	Ref   string
	Nav   string
	Out   string
}

// External positioning solver (rnx2rtkp)
type Solver struct {
	Bin     string
	Timeout time.Duration // No timeout if 0
	Logger  *slog.Logger
}

// Args returns the command line arguments for job.
func (s Solver) Args(job SolverJob) []string {
	return []string{"-k", job.Conf, job.Rover, job.Ref, job.Nav, "-o", job.Out}
}

// Run executes the solver and waits for it.
// A non-zero exit status is returned as *SolverError.
func (s Solver) Run(ctx context.Context, job SolverJob) error {
	logger := orDefault(s.Logger)

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	args := s.Args(job)
	cmd := exec.CommandContext(ctx, s.Bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	logger.Info("run solver", "cmd", s.Bin+" "+strings.Join(args, " "))
	start := time.Now()
	err := cmd.Run()
	logger.Debug("solver finished", "elapsed", time.Since(start), "stdout", stdout.String(), "stderr", stderr.String())

	if ctx.Err() != nil {
		return fmt.Errorf("solver did not finish: %w", ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &SolverError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
	}
	if err != nil {
		return fmt.Errorf("failed to start solver: %w", err)
	}
	return nil
}

// LookupSolver returns the solver executable.
// Bin is used if given, then $MGNSS_EXTDIR, then rnx2rtkp in $PATH.
func LookupSolver(bin string) (string, error) {
	if bin == "" {
		if dir := os.Getenv("MGNSS_EXTDIR"); dir != "" {
			bin = filepath.Join(dir, extSolverPath)
		} else {
			bin = DefaultSolverBin
		}
	}
	p, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("solver (%s) is not prepared: %w", bin, err)
	}
	return p, nil
}
