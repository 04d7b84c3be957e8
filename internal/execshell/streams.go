package execshell

import (
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// ProcessStreams holds the parent-side stream handles routed to a consumer.
// Streams that are not routed in the active RoutingMode are nil.
// A consumer may close any handle itself; the runner's own close then becomes a no-op.
type ProcessStreams struct {
	StandardInput  io.WriteCloser
	StandardOutput io.ReadCloser
	StandardError  io.ReadCloser
}

// StreamConsumer reads from and writes to the routed streams while the child runs.
// Results are handed back through the closure; a returned error aborts the invocation.
type StreamConsumer func(streams ProcessStreams) error

// streamHandle wraps one parent-side pipe end and closes it at most once.
type streamHandle struct {
	file       *os.File
	closeOnce  sync.Once
	closed     atomic.Bool
	closeError error
}

func newStreamHandle(file *os.File) *streamHandle {
	return &streamHandle{file: file}
}

// Read implements io.Reader.
func (handle *streamHandle) Read(buffer []byte) (int, error) {
	return handle.file.Read(buffer)
}

// Write implements io.Writer.
func (handle *streamHandle) Write(data []byte) (int, error) {
	return handle.file.Write(data)
}

// Close implements io.Closer and is safe to call repeatedly.
func (handle *streamHandle) Close() error {
	handle.closeOnce.Do(func() {
		handle.closed.Store(true)
		handle.closeError = handle.file.Close()
	})
	return handle.closeError
}

func (handle *streamHandle) isClosed() bool {
	return handle.closed.Load()
}

// pipeSet tracks both ends of every pipe opened for one invocation.
type pipeSet struct {
	standardInput *streamHandle
	outputHandles []*streamHandle
	childEnds     []*os.File
	streams       ProcessStreams
}

func (pipes *pipeSet) parentHandles() []*streamHandle {
	handles := make([]*streamHandle, 0, len(pipes.outputHandles)+1)
	if pipes.standardInput != nil {
		handles = append(handles, pipes.standardInput)
	}
	return append(handles, pipes.outputHandles...)
}

// closeChildEnds releases the descriptors the child inherited; the parent must not keep them
// or readers would never observe end of file.
func (pipes *pipeSet) closeChildEnds() error {
	var combinedError error
	for _, childEnd := range pipes.childEnds {
		combinedError = multierr.Append(combinedError, childEnd.Close())
	}
	pipes.childEnds = nil
	return combinedError
}

func (pipes *pipeSet) closeParentHandles() error {
	var combinedError error
	for _, handle := range pipes.parentHandles() {
		combinedError = multierr.Append(combinedError, handle.Close())
	}
	return combinedError
}

func (pipes *pipeSet) closeStandardInput() error {
	if pipes.standardInput == nil {
		return nil
	}
	return pipes.standardInput.Close()
}

// drainOutputs reads every output stream the consumer left open until end of file.
// The returned group completes once the child and its descendants released the pipes.
func (pipes *pipeSet) drainOutputs() *errgroup.Group {
	drainGroup := &errgroup.Group{}
	for _, handle := range pipes.outputHandles {
		if handle.isClosed() {
			continue
		}
		outputHandle := handle
		drainGroup.Go(func() error {
			_, copyError := io.Copy(io.Discard, outputHandle)
			if errors.Is(copyError, os.ErrClosed) {
				return nil
			}
			return copyError
		})
	}
	return drainGroup
}

type pipePair struct {
	readEnd  *os.File
	writeEnd *os.File
}

func openPipePair() (pipePair, error) {
	readEnd, writeEnd, pipeError := os.Pipe()
	if pipeError != nil {
		return pipePair{}, pipeError
	}
	return pipePair{readEnd: readEnd, writeEnd: writeEnd}, nil
}

func (pipes *pipeSet) closeAll() error {
	return multierr.Append(pipes.closeChildEnds(), pipes.closeParentHandles())
}
