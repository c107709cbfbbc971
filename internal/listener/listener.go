// Package listener binds one UDP socket per device port, decodes
// incoming SNMP messages, drives the request pipeline against the
// port's agent, and encodes the reply.
package listener

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/debashish-mukherjee/go-snmpsim/internal/metrics"
	"github.com/debashish-mukherjee/go-snmpsim/internal/pipeline"
	"golang.org/x/sys/unix"
)

// ErrPortBindFailed wraps a socket bind failure into the structured
// administrative error the pool/startup layer expects, rather than a
// bare *net.OpError.
type ErrPortBindFailed struct {
	Port int
	Err  error
}

func (e *ErrPortBindFailed) Error() string {
	return fmt.Sprintf("listener: bind port %d: %v", e.Port, e.Err)
}
func (e *ErrPortBindFailed) Unwrap() error { return e.Err }

const socketBufferBytes = 256 * 1024

// maxUDPDatagram is the hard wire limit; the pipeline's own soft cap
// (pipeline.MaxResponseOctets) keeps real responses well under this,
// but a malformed edge case could still overshoot it, so the listener
// double-checks after encoding.
const maxUDPDatagram = 65507

// requestTimeout bounds how long a single pipeline call may run before
// the listener drops the response, matching real SNMP client timeout
// behavior instead of replying late.
const requestTimeout = 2 * time.Second

// AgentFor resolves the agent handling a given port, typically
// pool.Pool.GetOrCreate with the error folded into "drop this
// datagram" by the caller.
type AgentFor func(port int) (pipeline.Agent, string, error) // agent, expected community, error

// Listener serves one device port's UDP socket.
type Listener struct {
	port       int
	conn       *net.UDPConn
	agentFor   AgentFor
	bufferPool *sync.Pool
	clock      func() time.Time
	metrics    *metrics.Metrics   // nil-safe: every use is guarded
	onCrash    func(port int)     // nil-safe: invoked when an agent panics mid-request
}

// Bind opens a UDP socket on port with SO_REUSEPORT and tuned
// send/receive buffers. Binding port 0 picks an ephemeral port.
func Bind(port int, agentFor AgentFor, clock func() time.Time, m *metrics.Metrics) (*Listener, error) {
	if clock == nil {
		clock = time.Now
	}
	addr := &net.UDPAddr{Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, &ErrPortBindFailed{Port: port, Err: err}
	}
	if err := setSocketOptions(conn); err != nil {
		log.Printf("listener: socket option tuning failed port=%d: %v", port, err)
	}
	if port == 0 {
		port = conn.LocalAddr().(*net.UDPAddr).Port
	}
	return &Listener{
		port:     port,
		conn:     conn,
		agentFor: agentFor,
		clock:    clock,
		metrics:  m,
		bufferPool: &sync.Pool{
			New: func() interface{} { return make([]byte, 4096) },
		},
	}, nil
}

func setSocketOptions(conn *net.UDPConn) error {
	sc, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var setErr error
	ctrlErr := sc.Control(func(fd uintptr) {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, socketBufferBytes); err != nil {
			setErr = err
			return
		}
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, socketBufferBytes); err != nil {
			setErr = err
			return
		}
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
			setErr = err
			return
		}
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	return setErr
}

// OnCrash registers a callback invoked with the listener's port when an
// agent panics while handling a request. The pool uses it to drop the
// crashed agent so the next datagram reconstructs a fresh one.
func (l *Listener) OnCrash(fn func(port int)) {
	l.onCrash = fn
}

// LocalPort returns the port the socket is actually bound to, which
// differs from the requested port when binding port 0.
func (l *Listener) LocalPort() int {
	return l.conn.LocalAddr().(*net.UDPAddr).Port
}

// Serve runs the single-threaded receive loop until ctx is cancelled.
func (l *Listener) Serve(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		buf := l.bufferPool.Get().([]byte)
		_ = l.conn.SetReadDeadline(l.clock().Add(1 * time.Second))
		n, addr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			l.bufferPool.Put(buf)
			if ctx.Err() != nil {
				return
			}
			continue // read timeout or transient error: keep serving
		}
		resp, ok := l.handle(buf[:n])
		l.bufferPool.Put(buf)
		if ok {
			if _, err := l.conn.WriteToUDP(resp, addr); err != nil {
				log.Printf("listener: write failed port=%d: %v", l.port, err)
			}
		}
	}
}

// Close unblocks Serve's pending read and releases the socket.
func (l *Listener) Close() error {
	_ = l.conn.SetReadDeadline(time.Unix(0, 1))
	return l.conn.Close()
}

// handle decodes one datagram, runs it through the pipeline, and
// re-encodes the response. The bool return is false when the datagram
// must be dropped silently (decode failure, wrong community, pipeline
// call exceeding requestTimeout).
func (l *Listener) handle(datagram []byte) ([]byte, bool) {
	req, err := decode(datagram)
	if err != nil {
		return nil, false
	}

	agent, expectedCommunity, err := l.agentFor(l.port)
	if err != nil {
		return nil, false
	}

	start := l.clock()
	resp, ok := l.processWithTimeout(req, expectedCommunity, agent, start)
	if !ok {
		return nil, false
	}
	l.observe(req.PDU.Kind, resp, l.clock().Sub(start))

	encoded, err := encode(resp)
	if err != nil {
		log.Printf("listener: encode failed port=%d: %v", l.port, err)
		return nil, false
	}
	if len(encoded) > maxUDPDatagram {
		resp = pipeline.ForceTooBig(resp)
		if l.metrics != nil {
			l.metrics.BulkTruncations.Inc()
		}
		encoded, err = encode(resp)
		if err != nil {
			log.Printf("listener: re-encode after tooBig failed port=%d: %v", l.port, err)
			return nil, false
		}
	}
	return encoded, true
}

// processWithTimeout runs the pipeline off the receive loop's goroutine
// so a pathological request cannot block the socket past
// requestTimeout; exceeding it drops the reply, matching real SNMP
// client timeout behavior rather than answering late.
func (l *Listener) processWithTimeout(req pipeline.Message, expectedCommunity string, agent pipeline.Agent, now time.Time) (pipeline.Message, bool) {
	type result struct {
		resp pipeline.Message
		ok   bool
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("listener: agent crashed port=%d: %v", l.port, r)
				if l.onCrash != nil {
					l.onCrash(l.port)
				}
				done <- result{pipeline.Message{}, false}
			}
		}()
		resp, ok := pipeline.Process(req, expectedCommunity, agent, now)
		done <- result{resp, ok}
	}()
	select {
	case r := <-done:
		return r.resp, r.ok
	case <-time.After(requestTimeout):
		log.Printf("listener: request timed out port=%d", l.port)
		return pipeline.Message{}, false
	}
}

func (l *Listener) observe(kind pipeline.PDUKind, resp pipeline.Message, elapsed time.Duration) {
	if l.metrics == nil {
		return
	}
	kindLabel := pduKindLabel(kind)
	l.metrics.RequestsTotal.WithLabelValues(kindLabel).Inc()
	l.metrics.RequestLatency.WithLabelValues(kindLabel).Observe(elapsed.Seconds())
	if resp.PDU.ErrorStatus != pipeline.NoError {
		l.metrics.RequestErrors.WithLabelValues(strconv.Itoa(resp.PDU.ErrorStatus)).Inc()
	}
}

func pduKindLabel(kind pipeline.PDUKind) string {
	switch kind {
	case pipeline.GetRequest:
		return "get"
	case pipeline.GetNextRequest:
		return "get_next"
	case pipeline.GetBulkRequest:
		return "get_bulk"
	default:
		return "unknown"
	}
}
