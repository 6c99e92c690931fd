// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.14
//

package goppk

import (
	"io"
	"log/slog"
)

// NewLogger creates the logger for the debug level given on the command line.
// 0(info), 1(debug), 2(debug with source position)
func NewLogger(w io.Writer, level int, json bool) *slog.Logger {
	opt := &slog.HandlerOptions{Level: slog.LevelInfo}
	if level >= 1 {
		opt.Level = slog.LevelDebug
	}
	if level >= 2 {
		opt.AddSource = true
	}
	if json {
		return slog.New(slog.NewJSONHandler(w, opt))
	}
	return slog.New(slog.NewTextHandler(w, opt))
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
