// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.18
//

package goppk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Write an executable shell script standing in for the solver
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported")
	}
	fn := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(fn), 0o755))
	require.NoError(t, os.WriteFile(fn, []byte("#!/bin/sh\n"+body), 0o755))
	return fn
}

func testJob(dir string) SolverJob {
	return SolverJob{
		Conf:  filepath.Join(dir, "ppk.conf"),
		Rover: "rover.obs",
		Ref:   "base.obs",
		Nav:   "nav.nav",
		Out:   filepath.Join(dir, "out.pos"),
	}
}

func TestSolverArgs(t *testing.T) {
	job := SolverJob{Conf: "c", Rover: "r", Ref: "b", Nav: "n", Out: "o"}
	assert.Equal(t, []string{"-k", "c", "r", "b", "n", "-o", "o"}, Solver{}.Args(job))
}

func TestSolverRun(t *testing.T) {
	dir := t.TempDir()
	bin := writeScript(t, dir, "rnx2rtkp", `
echo "$@" > "$(dirname "$0")/args.txt"
echo "processing..." >&2
echo "% dummy" > "$7"
`)
	job := testJob(dir)
	s := Solver{Bin: bin, Timeout: 10 * time.Second, Logger: discardLogger()}
	require.NoError(t, s.Run(context.Background(), job))

	args, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	require.NoError(t, err)
	assert.Equal(t, strings.Join(s.Args(job), " "), strings.TrimSpace(string(args)))
	assert.FileExists(t, job.Out)
}

func TestSolverRunFailure(t *testing.T) {
	dir := t.TempDir()
	bin := writeScript(t, dir, "rnx2rtkp", `
echo "error : no obs data" >&2
exit 3
`)
	s := Solver{Bin: bin, Logger: discardLogger()}
	err := s.Run(context.Background(), testJob(dir))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSolverFailed)

	var se *SolverError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 3, se.ExitCode)
	assert.Contains(t, se.Stderr, "no obs data")
	assert.Contains(t, err.Error(), "status 3")
}

func TestSolverRunTimeout(t *testing.T) {
	dir := t.TempDir()
	bin := writeScript(t, dir, "rnx2rtkp", "exec sleep 10\n")
	s := Solver{Bin: bin, Timeout: 100 * time.Millisecond, Logger: discardLogger()}

	start := time.Now()
	err := s.Run(context.Background(), testJob(dir))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrSolverFailed)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSolverRunNotFound(t *testing.T) {
	s := Solver{Bin: filepath.Join(t.TempDir(), "no-such-solver"), Logger: discardLogger()}
	err := s.Run(context.Background(), testJob(t.TempDir()))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSolverFailed)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSolverErrorMessage(t *testing.T) {
	e := &SolverError{ExitCode: 1, Stderr: strings.Repeat("x", 300) + "tail\n"}
	msg := e.Error()
	assert.True(t, strings.HasSuffix(msg, "tail"))
	assert.Less(t, len(msg), 250)
}

func TestLookupSolver(t *testing.T) {
	dir := t.TempDir()
	bin := writeScript(t, dir, "my-solver", "exit 0\n")

	t.Run("given", func(t *testing.T) {
		p, err := LookupSolver(bin)
		require.NoError(t, err)
		assert.Equal(t, bin, p)
	})

	t.Run("extdir", func(t *testing.T) {
		ext := t.TempDir()
		want := writeScript(t, ext, extSolverPath, "exit 0\n")
		t.Setenv("MGNSS_EXTDIR", ext)
		p, err := LookupSolver("")
		require.NoError(t, err)
		assert.Equal(t, want, p)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := LookupSolver(filepath.Join(dir, "none"))
		assert.Error(t, err)
	})
}
