package message

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Framing - describes how inbound byte stream is split into messages.
type Framing int

const (
	// FramingChunk - every successful read is a complete message.
	// Compatible with clients which write one console line per write call.
	FramingChunk Framing = iota
	// FramingLine - messages are delimited with '\n', a final unterminated line is a message too.
	FramingLine
)

// ParseFraming - converts framing name into Framing.
func ParseFraming(name string) (Framing, error) {
	switch strings.ToLower(name) {
	case "chunk", "":
		return FramingChunk, nil
	case "line":
		return FramingLine, nil
	default:
		return 0, fmt.Errorf("message.ParseFraming: unknown framing %q", name)
	}
}

func (f Framing) String() string {
	switch f {
	case FramingChunk:
		return "chunk"
	case FramingLine:
		return "line"
	default:
		return "unknown framing"
	}
}

// Reader - yields raw inbound messages.
// Next may return a message together with an error, the message should be handled first.
type Reader interface {
	Next() ([]byte, error)
}

// NewReader - builds Reader over r for given framing.
// size bounds the single read for FramingChunk and the max line length for FramingLine.
func NewReader(r io.Reader, f Framing, size int) Reader {
	if size <= 0 {
		size = 1024
	}
	if f == FramingLine {
		return &lineReader{src: bufio.NewReaderSize(r, size)}
	}
	return &chunkReader{src: r, buf: make([]byte, size)}
}

type chunkReader struct {
	src io.Reader
	buf []byte
}

func (c *chunkReader) Next() ([]byte, error) {
	n, err := c.src.Read(c.buf)
	if n == 0 {
		return nil, err
	}
	return bytes.Clone(c.buf[:n]), err
}

// ErrLineTooLong - returns when line does not fit into reader buffer.
var ErrLineTooLong = bufio.ErrTooLong

type lineReader struct {
	src *bufio.Reader
}

func (l *lineReader) Next() ([]byte, error) {
	line, err := l.src.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		return nil, ErrLineTooLong
	}
	if len(line) == 0 {
		return nil, err
	}
	return bytes.Clone(line), err
}
