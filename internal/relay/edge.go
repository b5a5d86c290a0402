package relay

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	ncerr "gorelay/internal/errors"
	"gorelay/util"
)

// writeLock serializes "is the destination live? then write" across
// every edge of every session in the process, so a destination cannot
// be shut down by another goroutine between the check and the write.
// Sessions never overlap, so the coarse scope costs nothing; an edge
// can be given a narrower lock through [Edge.Lock].
var writeLock sync.Mutex

// Edge pumps bytes in one direction, from Source to Dest.  A session
// runs two of them sharing one Gate.
type Edge struct {
	// Pool supplies the read buffer; nil means util.DefaultBufSize.
	Pool *util.BufPool
	// Lock guards the liveness check + write; nil means the
	// process-wide write lock.
	Lock sync.Locker
	// OnForward, if set, is called with the size of every chunk that
	// reached Dest.
	OnForward func(n int64)

	label  string
	src    *Conn
	dst    *Conn
	gate   *Gate
	logger *util.Logger

	started   atomic.Bool
	forwarded atomic.Int64
	done      chan struct{}
}

// NewEdge returns an edge that relays src → dst and reports completion
// through gate.
func NewEdge(label string, src, dst *Conn, gate *Gate, logger *util.Logger) *Edge {
	return &Edge{
		label:  label,
		src:    src,
		dst:    dst,
		gate:   gate,
		logger: logger.With("edge", label),
		done:   make(chan struct{}),
	}
}

// Label returns the edge's diagnostic name.
func (e *Edge) Label() string { return e.label }

// Forwarded returns the number of bytes written to Dest so far.
func (e *Edge) Forwarded() int64 { return e.forwarded.Load() }

// Done is closed once the pump has exited and returned its permit.
func (e *Edge) Done() <-chan struct{} { return e.done }

// Start takes a permit from the gate and launches the pump.  It blocks
// only while the gate has no free permit, and returns as soon as the
// pump goroutine is running.
func (e *Edge) Start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return fmt.Errorf("edge %s already started", e.label)
	}
	if e.Pool == nil {
		e.Pool = util.NewBufPool(util.DefaultBufSize)
	}
	if e.Lock == nil {
		e.Lock = &writeLock
	}

	e.logger.Debug("waiting for gate")
	if err := e.gate.Acquire(ctx); err != nil {
		return fmt.Errorf("edge %s: %w", e.label, err)
	}
	e.logger.Verbose("begin run")

	go e.run()
	return nil
}

func (e *Edge) run() {
	defer e.finish()

	buf := e.Pool.Get()
	defer e.Pool.Put(buf)

	for e.src.Live() {
		e.logger.Debug("waiting for data")
		n, err := e.src.Read(*buf)

		// A read may hand back data together with EOF; the data still
		// goes out before the edge stops.
		if n > 0 && !e.forward((*buf)[:n]) {
			return
		}

		switch {
		case err != nil && ncerr.IsClosed(err):
			e.logger.Verbose("%s closed: %v", e.src.Label(), err)
		case err != nil:
			e.logger.Verbose("%s read failed: %v", e.src.Label(), err)
		case n == 0:
			e.logger.Verbose("%s received 0 bytes", e.src.Label())
		default:
			continue
		}
		e.src.Shutdown()
		return
	}
}

// forward writes p to the destination under the write lock.  It
// returns false when the edge has to stop.
func (e *Edge) forward(p []byte) bool {
	e.Lock.Lock()
	defer e.Lock.Unlock()

	if !e.dst.Live() {
		e.logger.Verbose("%s down. %d bytes discarded", e.dst.Label(), len(p))
		e.src.Shutdown()
		return false
	}

	e.logger.Debug("forwarding %d bytes", len(p))
	if _, err := e.dst.Write(p); err != nil {
		e.logger.Verbose("%s write failed, %d bytes lost: %v", e.dst.Label(), len(p), err)
		e.src.Shutdown()
		return false
	}
	e.forwarded.Add(int64(len(p)))
	if e.OnForward != nil {
		e.OnForward(int64(len(p)))
	}
	e.logger.Debug("sent %d bytes", len(p))
	return true
}

// finish is the pump's only exit path.  It also recovers a panic in the
// pump so that the permit is returned no matter how the loop ended.
func (e *Edge) finish() {
	if r := recover(); r != nil {
		e.logger.Error("pump failed: %v", r)
		e.src.Shutdown()
	}

	e.logger.Verbose("%s disconnected", e.src.Label())
	if e.dst.Live() {
		e.logger.Verbose("%s shutdown", e.dst.Label())
		e.dst.Shutdown()
	}

	e.logger.Debug("release gate")
	e.gate.Release()
	close(e.done)
}
