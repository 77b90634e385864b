// Package server implements the UDP accept loop: one long-lived listener
// goroutine per configured bind address, dispatching each datagram to the
// resolver and writing its reply back to the originating client.
package server

import (
	"context"
	"net"
	"runtime"

	"github.com/dnsscience/overdns/internal/acl"
	"github.com/dnsscience/overdns/internal/logging"
	"github.com/dnsscience/overdns/internal/metrics"
	"github.com/dnsscience/overdns/internal/pool"
	"github.com/dnsscience/overdns/internal/ratelimit"
	"github.com/dnsscience/overdns/internal/resolver"
	"github.com/dnsscience/overdns/internal/worker"
)

// Config holds server construction parameters.
type Config struct {
	Binds    []*net.UDPAddr
	Resolver *resolver.Resolver
	Limiter  *ratelimit.Limiter // nil disables rate limiting
	ACL      *acl.Gate          // nil admits every client
	Log      logging.Sink

	// Workers bounds concurrent dispatch across all listeners, which share
	// one worker pool. 0 selects a runtime.NumCPU()-based default.
	Workers int
}

// Server owns one accept loop per bind address. Loops are independent of
// one another; they share the worker pool, the optional rate limiter and
// ACL gate, and what the Resolver reads from C5.
type Server struct {
	cfg    Config
	log    logging.Sink
	pool   *worker.Pool
	cancel context.CancelFunc
	ctx    context.Context
	conns  []*net.UDPConn
}

// New builds a Server. It does not start listening; call Start.
func New(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = logging.Nop
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU() * 4
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:    cfg,
		log:    log,
		cancel: cancel,
		ctx:    ctx,
		pool: worker.NewPool(worker.Config{
			Workers:   workers,
			QueueSize: workers * 100,
			PanicHandler: func(r interface{}) {
				log.Error("recovered panic in request handler", nil, logging.F("panic", r))
			},
		}),
	}
}

// Start binds every configured address and begins serving. On a bind
// failure it tears down any sockets already opened and returns the error;
// per the error-handling design, bind failure is fatal and the caller
// should exit the process.
func (s *Server) Start() error {
	for _, addr := range s.cfg.Binds {
		conn, err := net.ListenUDP("udp", addr)
		if err != nil {
			s.closeAll()
			return err
		}
		s.conns = append(s.conns, conn)
		go s.serve(conn)
	}
	return nil
}

// Stop cancels dispatch of new work and closes every listening socket.
// In-flight requests already submitted to the worker pool are allowed to
// finish.
func (s *Server) Stop() {
	s.cancel()
	s.closeAll()
	s.pool.Close()
}

func (s *Server) closeAll() {
	for _, c := range s.conns {
		c.Close()
	}
}

func (s *Server) serve(conn *net.UDPConn) {
	for {
		buf := pool.GetBuffer()
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			pool.PutBuffer(buf)
			select {
			case <-s.ctx.Done():
				return
			default:
			}
			s.log.Warn("receive failed", logging.F("local", conn.LocalAddr().String()), logging.F("err", err.Error()))
			continue
		}

		req := append([]byte(nil), buf[:n]...)
		pool.PutBuffer(buf)

		if s.cfg.ACL != nil && !s.cfg.ACL.Admit(src.IP) {
			continue
		}
		if s.cfg.Limiter != nil && !s.cfg.Limiter.Allow(src.IP) {
			continue
		}

		job := worker.JobFunc(func(context.Context) error {
			s.handle(conn, req, src)
			return nil
		})
		if err := s.pool.Dispatch(job); err != nil {
			// Queue full or pool closing: drop this request rather than
			// block the accept loop.
			s.log.Warn("dropping request", logging.F("src", src.String()), logging.F("err", err.Error()))
		}
	}
}

func (s *Server) handle(conn *net.UDPConn, req []byte, src *net.UDPAddr) {
	out, err := s.cfg.Resolver.Resolve(req, len(req), src)
	if err != nil {
		return
	}
	if _, err := conn.WriteToUDP(out, src); err != nil {
		s.log.Warn("send failed", logging.F("dst", src.String()), logging.F("err", err.Error()))
		metrics.Queries.WithLabelValues("error").Inc()
	}
}
