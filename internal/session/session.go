// Package session owns the client and upstream connections for one
// proxied session and runs the decode, forward, and MPI-worker flows
// concurrently, modeled on a Proxy/Server thread pair joined by a
// shared connection lifecycle.
package session

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/drake/mudgate/internal/commands"
	"github.com/drake/mudgate/internal/decoder"
	"github.com/drake/mudgate/internal/events"
	"github.com/drake/mudgate/internal/mpiworker"
	"github.com/drake/mudgate/internal/wire"
)

const readBufferSize = 4096

// clientReadTimeout bounds how long forwardLoop blocks in one Read, so
// it periodically notices the upstream side going away even though
// the client itself has sent nothing. Timeouts are not fatal.
const clientReadTimeout = time.Second

// Config configures one session's dial/format/charset behavior.
type Config struct {
	UpstreamAddr     string
	UseTLS           bool
	PinnedCommonName string
	DialTimeout      time.Duration
	Format           decoder.Format
	Charset          wire.Charset
	PromptTerminator []byte
}

// guardedConn serializes writes to a net.Conn shared by more than one
// goroutine: the decoder's handshake/charset replies and the forward
// loop both write to the upstream connection, and an MPI worker and
// the decode loop both write to the client connection.
type guardedConn struct {
	mu   sync.Mutex
	conn net.Conn
}

func (g *guardedConn) Write(p []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.conn.Write(p)
}

// Driver runs a single proxied session: one client connection, one
// upstream connection, one decoder, and the goroutines that move bytes
// and events between them.
type Driver struct {
	log *zap.Logger
	cfg Config

	client        net.Conn
	guardedClient *guardedConn
	upstream      *guardedConn

	registry *commands.Registry
	queue    *events.Queue
	worker   *mpiworker.Worker
	dec      *decoder.Decoder

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New dials the upstream server (optionally over TLS with common-name
// pinning) and returns a Driver ready to Run. If the dial fails, the
// error is written to the client as "\r\nError: ...\r\n" and the
// client connection is closed.
func New(log *zap.Logger, client net.Conn, cfg Config, registry *commands.Registry, queue *events.Queue) (*Driver, error) {
	if log == nil {
		log = zap.NewNop()
	}

	upstreamConn, err := dialUpstream(cfg)
	if err != nil {
		fmt.Fprintf(client, "\r\nError: %v\r\n", err)
		client.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Driver{
		log:           log,
		cfg:           cfg,
		client:        client,
		guardedClient: &guardedConn{conn: client},
		upstream:      &guardedConn{conn: upstreamConn},
		registry:      registry,
		queue:         queue,
		ctx:           ctx,
		cancel:        cancel,
	}

	d.worker = mpiworker.New(log, d.upstream.Write, d.guardedClient.Write)

	d.dec = decoder.New(queue,
		decoder.WithFormat(cfg.Format),
		decoder.WithCharset(cfg.Charset),
		decoder.WithPromptTerminator(cfg.PromptTerminator),
		decoder.WithDispatcher(d.worker),
		decoder.WithSendFunc(func(b []byte) { d.upstream.Write(b) }),
	)

	return d, nil
}

// dialUpstream dials the upstream MUD, optionally over TLS with
// common-name pinning against the presented leaf certificate.
func dialUpstream(cfg Config) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: cfg.DialTimeout}

	if !cfg.UseTLS {
		return dialer.Dial("tcp", cfg.UpstreamAddr)
	}

	host, _, err := net.SplitHostPort(cfg.UpstreamAddr)
	if err != nil {
		host = cfg.UpstreamAddr
	}

	tlsCfg := &tls.Config{
		ServerName: host,
		VerifyConnection: func(cs tls.ConnectionState) error {
			return verifyPinnedCommonName(cs, cfg.PinnedCommonName)
		},
	}
	return tls.DialWithDialer(dialer, "tcp", cfg.UpstreamAddr, tlsCfg)
}

func verifyPinnedCommonName(cs tls.ConnectionState, pinned string) error {
	if pinned == "" {
		return nil
	}
	if len(cs.PeerCertificates) == 0 {
		return fmt.Errorf("session: no peer certificate presented")
	}
	leaf := cs.PeerCertificates[0]
	if leaf.Subject.CommonName != pinned {
		return fmt.Errorf("session: host name %q doesn't match certificate host %q", pinned, leaf.Subject.CommonName)
	}
	return nil
}

// Run drives the session until the upstream connection closes or the
// client disconnects, then tears both down. It blocks until shutdown
// is complete.
//
// An EnvironmentError on either socket terminates only the loop that
// owns it; closeConns propagates that to the other side (and cancels
// ctx) so its blocked Read unblocks on the next iteration instead of
// leaving Run waiting on a peer that will never return.
func (d *Driver) Run() {
	defer d.closeConns()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		d.decodeLoop()
	}()
	go func() {
		defer wg.Done()
		d.forwardLoop()
	}()

	wg.Wait()
	d.worker.Wait()
	d.queue.Push(events.Event{Type: events.Shutdown})
}

// closeConns closes both connections and cancels ctx exactly once,
// however many of decodeLoop/forwardLoop/Run call it.
func (d *Driver) closeConns() {
	d.closeOnce.Do(func() {
		d.cancel()
		d.client.Close()
		d.upstream.conn.Close()
	})
}

// decodeLoop reads from upstream, feeds the decoder, and writes the
// rendered output to the client through the same guarded connection
// the MPI worker's 'V' responses use, so a decoder flush and a view
// frame never interleave mid-message.
func (d *Driver) decodeLoop() {
	defer d.closeConns()
	buf := make([]byte, readBufferSize)
	for {
		n, err := d.upstream.conn.Read(buf)
		if n > 0 {
			out := d.dec.Process(buf[:n])
			if len(out) > 0 {
				if _, werr := d.guardedClient.Write(out); werr != nil {
					d.log.Debug("session: client write failed", zap.Error(werr))
					return
				}
			}
		}
		if err != nil {
			if err != io.EOF {
				d.log.Debug("session: upstream read failed", zap.Error(err))
			}
			return
		}
	}
}

// forwardLoop reads raw client input and either routes it to a
// registered command handler or forwards it verbatim upstream. The
// registry is shared across the session and built once at startup.
//
// Each read carries a short deadline so an idle client still notices,
// within clientReadTimeout, that decodeLoop has exited and ctx was
// canceled; a bare timeout is not itself fatal.
func (d *Driver) forwardLoop() {
	defer d.closeConns()
	buf := make([]byte, readBufferSize)
	for {
		d.client.SetReadDeadline(time.Now().Add(clientReadTimeout))
		n, err := d.client.Read(buf)
		if n > 0 {
			d.routeClientInput(buf[:n])
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				if d.ctx.Err() != nil {
					return
				}
				continue
			}
			return
		}
	}
}

func (d *Driver) routeClientInput(data []byte) {
	if h, args, ok := d.registry.Classify(data); ok {
		if err := h(args); err != nil {
			d.log.Warn("session: command handler error", zap.Error(err), zap.String("args", args))
		}
		return
	}
	if _, err := d.upstream.Write(data); err != nil {
		d.log.Debug("session: upstream write failed", zap.Error(err))
	}
}
