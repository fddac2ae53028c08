// Package muxdriver wraps a hashicorp/yamux session with a single
// dispatcher goroutine that services shutdown and outbound stream-opens,
// plus a separate accept goroutine that feeds inbound streams into a
// buffered channel — translated from the single-task cooperative poll loop
// it is grounded on to Go goroutines arbitrating over channels with select.
package muxdriver

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/yamux"

	"github.com/omnius-labs/omnikit-go/internal/omnierr"
)

// Options configures the underlying yamux.Config and this package's own
// accept backlog. Zero values fall back to yamux's defaults.
//
// AcceptBacklog's zero value means "unspecified, use the package default"
// rather than the spec's literal "0 disables accepting" (Go's int zero value
// can't distinguish the two), so accept-disabling is its own explicit flag.
type Options struct {
	AcceptBacklog          int
	DisableAccept          bool
	MaxStreamWindow        uint32
	KeepAliveInterval      time.Duration
	ConnectionWriteTimeout time.Duration
	StreamOpenTimeout      time.Duration
	StreamCloseTimeout     time.Duration
}

// minStreamWindow is yamux's own default and the floor this package enforces
// on MaxStreamWindow: a smaller window starves throughput on high-latency
// links.
const minStreamWindow = 256 * 1024

func (o Options) yamuxConfig() *yamux.Config {
	cfg := yamux.DefaultConfig()
	if o.AcceptBacklog > 0 {
		cfg.AcceptBacklog = o.AcceptBacklog
	}
	if o.MaxStreamWindow > 0 {
		cfg.MaxStreamWindowSize = o.MaxStreamWindow
	}
	if cfg.MaxStreamWindowSize < minStreamWindow {
		cfg.MaxStreamWindowSize = minStreamWindow
	}
	if o.KeepAliveInterval > 0 {
		cfg.KeepAliveInterval = o.KeepAliveInterval
	}
	if o.ConnectionWriteTimeout > 0 {
		cfg.ConnectionWriteTimeout = o.ConnectionWriteTimeout
	}
	if o.StreamOpenTimeout > 0 {
		cfg.StreamOpenTimeout = o.StreamOpenTimeout
	}
	if o.StreamCloseTimeout > 0 {
		cfg.StreamCloseTimeout = o.StreamCloseTimeout
	}
	cfg.LogOutput = io.Discard
	return cfg
}

func (o Options) acceptBacklog() int {
	if o.AcceptBacklog > 0 {
		return o.AcceptBacklog
	}
	return 256
}

// Connection owns a yamux.Session and the single driver goroutine that
// arbitrates OpenStream/AcceptStream/Close requests against it.
type Connection struct {
	sess *yamux.Session

	openReqs  chan openRequest
	acceptOut chan acceptResult
	shutdown  chan struct{}
	closeOnce sync.Once
	closed    chan struct{}

	acceptDisabled bool
	streamCount    int64
}

type openRequest struct {
	resp chan openResult
}

type openResult struct {
	stream *Stream
	err    error
}

type acceptResult struct {
	stream *Stream
	err    error
}

// NewClient runs the yamux client (dialing) side of the protocol over rw.
func NewClient(rw io.ReadWriteCloser, opts Options) (*Connection, error) {
	sess, err := yamux.Client(rw, opts.yamuxConfig())
	if err != nil {
		return nil, omnierr.Wrap(err, omnierr.YamuxError).WithMessage("open yamux client session")
	}
	return newConnection(sess, opts), nil
}

// NewServer runs the yamux server (accepting) side of the protocol over rw.
func NewServer(rw io.ReadWriteCloser, opts Options) (*Connection, error) {
	sess, err := yamux.Server(rw, opts.yamuxConfig())
	if err != nil {
		return nil, omnierr.Wrap(err, omnierr.YamuxError).WithMessage("open yamux server session")
	}
	return newConnection(sess, opts), nil
}

func newConnection(sess *yamux.Session, opts Options) *Connection {
	c := &Connection{
		sess:          sess,
		openReqs:      make(chan openRequest),
		acceptOut:     make(chan acceptResult, opts.acceptBacklog()),
		shutdown:      make(chan struct{}),
		closed:        make(chan struct{}),
		acceptDisabled: opts.DisableAccept,
	}
	if !opts.DisableAccept {
		go c.acceptLoop()
	}
	go c.run()
	return c
}

// acceptLoop continuously accepts inbound streams and forwards them to the
// driver's accept channel, standing in for the original's non-blocking
// "poll_next_inbound" — Go's yamux has no non-blocking accept, so a
// dedicated goroutine plays that role and the driver only ever reads from
// the (buffered, so non-blocking to the peer) result channel.
func (c *Connection) acceptLoop() {
	for {
		ys, err := c.sess.AcceptStream()
		var res acceptResult
		if err != nil {
			res = acceptResult{err: omnierr.Wrap(err, omnierr.YamuxError).WithMessage("accept stream")}
		} else {
			res = acceptResult{stream: wrapStream(ys, c)}
		}
		select {
		case c.acceptOut <- res:
		case <-c.shutdown:
			return
		}
		if err != nil {
			return
		}
	}
}

// run is the single driver goroutine arbitrating shutdown against outbound
// opens. When both are ready Go's select picks one pseudo-randomly, so
// shutdown does not strictly win a tie, but it is checked on every
// iteration and is served within one iteration of open-request traffic. Inbound
// accepts are served by acceptLoop directly into a channel AcceptStream
// reads from, so they never contend with this loop for the underlying
// session — yamux's Session is safe for concurrent Open/Accept, unlike the
// single-task-owned socket this package is grounded on.
func (c *Connection) run() {
	for {
		select {
		case <-c.shutdown:
			c.teardown()
			return
		case req := <-c.openReqs:
			ys, err := c.sess.OpenStream()
			if err != nil {
				req.resp <- openResult{err: omnierr.Wrap(err, omnierr.YamuxError).WithMessage("open stream")}
				continue
			}
			req.resp <- openResult{stream: wrapStream(ys, c)}
		}
	}
}

func (c *Connection) teardown() {
	_ = c.sess.Close()
	close(c.closed)
}

// OpenStream requests a new outbound stream from the driver.
func (c *Connection) OpenStream() (*Stream, error) {
	resp := make(chan openResult, 1)
	select {
	case c.openReqs <- openRequest{resp: resp}:
	case <-c.closed:
		return nil, omnierr.New(omnierr.ConnectionClosed).WithMessage("connect_stream after close")
	}
	select {
	case r := <-resp:
		return r.stream, r.err
	case <-c.closed:
		return nil, omnierr.New(omnierr.ConnectionClosed).WithMessage("connect_stream after close")
	}
}

// AcceptStream blocks for the next inbound stream. It fails immediately with
// AcceptDisabled if the connection was built with Options.DisableAccept set.
func (c *Connection) AcceptStream() (*Stream, error) {
	if c.acceptDisabled {
		return nil, omnierr.New(omnierr.AcceptDisabled).WithMessage("accept_stream: accepting is disabled")
	}
	select {
	case r := <-c.acceptOut:
		return r.stream, r.err
	case <-c.closed:
		return nil, omnierr.New(omnierr.ConnectionClosed).WithMessage("accept_stream after close")
	}
}

// Close signals the driver to shut down and waits for it to finish, the
// two-phase "signal then join" shutdown the driver is grounded on.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() { close(c.shutdown) })
	<-c.closed
	return nil
}

// NumStreams reports the number of live streams opened or accepted on this
// connection that have not yet been closed.
func (c *Connection) NumStreams() int64 {
	return atomic.LoadInt64(&c.streamCount)
}

// Stream wraps a *yamux.Stream, decrementing the owning Connection's live
// count exactly once on Close.
type Stream struct {
	*yamux.Stream
	owner    *Connection
	closeOne sync.Once
}

func wrapStream(ys *yamux.Stream, owner *Connection) *Stream {
	atomic.AddInt64(&owner.streamCount, 1)
	return &Stream{Stream: ys, owner: owner}
}

// Close closes the underlying yamux stream and decrements the live count.
func (s *Stream) Close() error {
	var err error
	s.closeOne.Do(func() {
		err = s.Stream.Close()
		atomic.AddInt64(&s.owner.streamCount, -1)
	})
	return err
}
