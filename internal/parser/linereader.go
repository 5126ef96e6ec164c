package parser

import (
	"bufio"
	"io"
)

const (
	initialScanBufSize = 64 * 1024        // 64KB
	maxLineSize        = 64 * 1024 * 1024 // 64MB
)

// lineReader reads JSONL files line by line, skipping blank lines
// and lines that exceed maxLen rather than aborting. The buffer
// starts small and grows on demand up to maxLen.
type lineReader struct {
	r      *bufio.Reader
	maxLen int
	buf    []byte
	lines  int
	err    error
}

func newLineReader(r io.Reader, maxLen int) *lineReader {
	return &lineReader{
		r:      bufio.NewReaderSize(r, initialScanBufSize),
		maxLen: maxLen,
		buf:    make([]byte, 0, initialScanBufSize),
	}
}

// next returns the next non-blank line (without trailing newline)
// and true, or ("", false) at EOF or on a read failure. Lines
// exceeding maxLen are silently skipped.
func (lr *lineReader) next() (string, bool) {
	for {
		line, err := lr.readLine()
		if err != nil {
			if err != io.EOF {
				lr.err = err
			}
			return "", false
		}
		if line != "" {
			return line, true
		}
	}
}

// Err returns the first non-EOF read error encountered.
func (lr *lineReader) Err() error {
	return lr.err
}

// Lines returns the number of physical lines consumed so far,
// including blank and oversized ones.
func (lr *lineReader) Lines() int {
	return lr.lines
}

// drain consumes the rest of the input so Lines reports the
// total line count.
func (lr *lineReader) drain() {
	for {
		if _, ok := lr.next(); !ok {
			return
		}
	}
}

// readLine reads a full line, returning "" for blank/oversized
// lines and a non-nil error only at EOF or read failure.
func (lr *lineReader) readLine() (string, error) {
	lr.buf = lr.buf[:0]
	oversized := false
	started := false

	for {
		chunk, isPrefix, err := lr.r.ReadLine()
		if err != nil {
			if started && err == io.EOF {
				break
			}
			return "", err
		}
		if !started {
			started = true
			lr.lines++
		}

		if oversized {
			if !isPrefix {
				return "", nil
			}
			continue
		}

		lr.buf = append(lr.buf, chunk...)

		if len(lr.buf) > lr.maxLen {
			oversized = true
			lr.buf = lr.buf[:0]
			if !isPrefix {
				return "", nil
			}
			continue
		}

		if !isPrefix {
			break
		}
	}

	return string(lr.buf), nil
}
