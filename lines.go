// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.19
//

package goppk

import (
	"bufio"
	"errors"
	"io"
)

// Longest text line kept by lineReader
const maxLineLen = 64 * 1024

var errLineTooLong = errors.New("line too long")

// Line reader like bufio.Scanner. A line longer than maxLineLen does not stop
// the reading, it is returned empty with LineErr set.
type lineReader struct {
	r       *bufio.Reader
	text    string
	lineErr error
	err     error
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

// Scan reads the next line without the line break.
func (p *lineReader) Scan() bool {
	p.text, p.lineErr = "", nil
	var b []byte
	for {
		frag, isPrefix, err := p.r.ReadLine()
		if err != nil {
			if err != io.EOF {
				p.err = err
			}
			return false
		}
		if p.lineErr == nil {
			b = append(b, frag...)
			if len(b) > maxLineLen {
				p.lineErr = errLineTooLong
				b = nil
			}
		}
		if !isPrefix {
			break
		}
	}
	p.text = string(b)
	return true
}

func (p *lineReader) Text() string {
	return p.text
}

// LineErr returns the error of the current line.
func (p *lineReader) LineErr() error {
	return p.lineErr
}

// Err returns the first read error other than io.EOF.
func (p *lineReader) Err() error {
	return p.err
}
