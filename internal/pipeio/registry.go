package pipeio

import (
	"bufio"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Message is one frame received from some pipe, or a permanent read
// error on that pipe. The dispatch loop selects on a single channel
// of these so it can block "forever" across every input pipe at once,
// while each pipe's own read loop runs on its own goroutine — the one
// bounded exception to an otherwise single-threaded dispatch model.
type Message struct {
	PipeIndex int
	Payload   []byte
	Priority  uint32
	Err       error
}

// pipe is one bidirectional local pipe: a readable side feeding the
// shared message channel, and a writable side used by Send.
type pipe struct {
	index  int
	reader *bufio.Reader
	writer *os.File
	closed bool
}

// PipeSet is the registry of all N input/output pipes, indexed by the
// daemon's pipe convention (0: local apps, 1: cache, 2: wire, 3..:
// extra wire transports).
type PipeSet struct {
	pipes    []*pipe
	messages chan Message
}

// wrapInheritedFD sets fd non-blocking (so the Go runtime's poller can
// multiplex concurrent reads across many inherited pipe fds without
// parking one OS thread per pipe) and wraps it as an *os.File.
func wrapInheritedFD(fd int, name string) (*os.File, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, fmt.Errorf("pipeio: setting fd %d non-blocking: %w", fd, err)
	}
	return os.NewFile(uintptr(fd), name), nil
}

// NewPipeSet wraps the given read and write file descriptors (already
// open and inherited from the parent process) into a registered set
// of pipes, and starts one reader goroutine per input pipe feeding
// the shared message channel.
func NewPipeSet(readFDs, writeFDs []int) (*PipeSet, error) {
	if len(readFDs) != len(writeFDs) {
		return nil, fmt.Errorf("pipeio: %d read fds but %d write fds", len(readFDs), len(writeFDs))
	}

	ps := &PipeSet{
		pipes:    make([]*pipe, len(readFDs)),
		messages: make(chan Message, len(readFDs)),
	}

	for i := range readFDs {
		rf, err := wrapInheritedFD(readFDs[i], fmt.Sprintf("pipe-r%d", i))
		if err != nil {
			return nil, err
		}
		wf, err := wrapInheritedFD(writeFDs[i], fmt.Sprintf("pipe-w%d", i))
		if err != nil {
			return nil, err
		}

		ps.pipes[i] = &pipe{
			index:  i,
			reader: bufio.NewReader(rf),
			writer: wf,
		}
	}

	for i, p := range ps.pipes {
		go ps.readLoop(i, p)
	}

	return ps, nil
}

func (ps *PipeSet) readLoop(index int, p *pipe) {
	for {
		payload, priority, err := ReadFrame(p.reader)
		if err != nil {
			ps.messages <- Message{PipeIndex: index, Err: err}
			return
		}
		ps.messages <- Message{PipeIndex: index, Payload: payload, Priority: priority}
	}
}

// ReceiveAny blocks until a frame (or a permanent read error) arrives
// on any registered input pipe. It never times out; the main loop
// always waits forever.
func (ps *PipeSet) ReceiveAny() Message {
	return <-ps.messages
}

// Send writes payload to the output pipe at index, at the given
// priority. A send to an already-failed pipe returns false silently;
// the caller (the dispatcher) logs and continues rather than treating
// this as fatal.
func (ps *PipeSet) Send(index int, payload []byte, priority uint32) bool {
	p := ps.pipes[index]
	if p.closed {
		return false
	}
	if err := WriteFrame(p.writer, payload, priority); err != nil {
		p.closed = true
		return false
	}
	return true
}

// Len reports how many pipe pairs are registered.
func (ps *PipeSet) Len() int {
	return len(ps.pipes)
}
