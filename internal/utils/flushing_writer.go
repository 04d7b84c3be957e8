package utils

import (
	"bufio"
	"bytes"
	"io"
	"sync"
)

const newlineByteConstant = '\n'

// FlushingWriter buffers writes and flushes them to the underlying writer at every line end,
// so output streamed from a child process appears line by line. It is safe for concurrent use.
type FlushingWriter struct {
	bufferedWriter *bufio.Writer
	mutex          sync.Mutex
}

// NewFlushingWriter wraps writer. A nil writer discards everything.
func NewFlushingWriter(writer io.Writer) *FlushingWriter {
	if writer == nil {
		writer = io.Discard
	}
	return &FlushingWriter{bufferedWriter: bufio.NewWriter(writer)}
}

// Write buffers data and flushes when it contains a line end.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	bytesWritten, writeError := flushingWriter.bufferedWriter.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}
	if bytes.IndexByte(data, newlineByteConstant) >= 0 {
		if flushError := flushingWriter.bufferedWriter.Flush(); flushError != nil {
			return bytesWritten, flushError
		}
	}
	return bytesWritten, nil
}

// Flush writes any buffered partial line.
func (flushingWriter *FlushingWriter) Flush() error {
	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()
	return flushingWriter.bufferedWriter.Flush()
}
