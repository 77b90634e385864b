// Package resolver implements the synthesize-or-forward request pipeline:
// decode the incoming datagram, answer locally from the host table when
// the query and host family line up, otherwise forward to the configured
// upstreams in order.
package resolver

import (
	"errors"
	"net"
	"time"

	"github.com/dnsscience/overdns/internal/logging"
	"github.com/dnsscience/overdns/internal/metrics"
	"github.com/dnsscience/overdns/internal/state"
	"github.com/dnsscience/overdns/internal/wire"
)

// ErrAllUpstreamsFailed is returned when every configured upstream failed
// to answer within its per-attempt timeout.
var ErrAllUpstreamsFailed = errors.New("resolver: proxy server failed to proxy request")

// Config holds resolver configuration.
type Config struct {
	State *state.State
	Log   logging.Sink
}

// Resolver answers one request per Resolve call; it holds no per-request
// state and is safe for concurrent use by multiple server loops.
type Resolver struct {
	state *state.State
	log   logging.Sink
}

// New builds a Resolver reading from the given shared state.
func New(cfg Config) *Resolver {
	log := cfg.Log
	if log == nil {
		log = logging.Nop
	}
	return &Resolver{state: cfg.State, log: log}
}

// Resolve decodes buf[:n] as receive from src and returns the bytes to
// send back, or an error if nothing should be sent.
func (r *Resolver) Resolve(buf []byte, n int, src net.Addr) ([]byte, error) {
	pkt, err := wire.Parse(buf[:n])
	if err != nil {
		r.log.Warn("dropping unparseable datagram", logging.F("src", src.String()), logging.F("err", err.Error()))
		metrics.Queries.WithLabelValues("error").Inc()
		return nil, err
	}

	snap := r.state.Load()

	if len(pkt.Questions) == 0 {
		out, err := r.forward(buf[:n], snap)
		if err != nil {
			metrics.Queries.WithLabelValues("error").Inc()
			return nil, err
		}
		metrics.Queries.WithLabelValues("forwarded").Inc()
		return out, nil
	}

	q := pkt.Questions[0]
	if ip, ok := snap.Hosts.Lookup(q.Name); ok {
		if rec, ok := synthesize(q, ip); ok {
			pkt.Header.Response = true
			pkt.Header.RecursionDesired = true
			pkt.Header.RecursionAvailable = true
			pkt.Answers = append(pkt.Answers, rec)

			out, err := pkt.Write()
			if err != nil {
				metrics.Queries.WithLabelValues("error").Inc()
				return nil, err
			}
			metrics.Queries.WithLabelValues("local").Inc()
			return out.Bytes()[:out.Pos()], nil
		}
	}

	out, err := r.forward(buf[:n], snap)
	if err != nil {
		metrics.Queries.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.Queries.WithLabelValues("forwarded").Inc()
	return out, nil
}

// synthesize builds the answer record for a host-table hit, iff the
// query type and the IP's address family agree.
func synthesize(q wire.Question, ip net.IP) (wire.Record, bool) {
	if v4 := ip.To4(); v4 != nil && q.QType.IsA() {
		return wire.NewARecord(q.Name, v4), true
	}
	if v4 := ip.To4(); v4 == nil && q.QType.IsAAAA() {
		return wire.NewAAAARecord(q.Name, ip.To16()), true
	}
	return wire.Record{}, false
}

// forward tries each upstream in configured order, returning the first
// successful reply verbatim.
func (r *Resolver) forward(payload []byte, snap state.Snapshot) ([]byte, error) {
	timeout := snap.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	start := time.Now()
	for _, upstream := range snap.Proxy {
		reply, err := sendReceive(payload, upstream, timeout)
		if err != nil {
			metrics.UpstreamFailures.WithLabelValues(upstream.String()).Inc()
			r.log.Warn("upstream forward failed", logging.F("upstream", upstream.String()), logging.F("err", err.Error()))
			continue
		}
		metrics.ObserveForward("success", time.Since(start))
		return reply, nil
	}

	metrics.ObserveForward("exhausted", time.Since(start))
	return nil, ErrAllUpstreamsFailed
}

// sendReceive opens a fresh ephemeral socket for one upstream attempt,
// owned and released entirely within this call.
func sendReceive(payload []byte, upstream *net.UDPAddr, timeout time.Duration) ([]byte, error) {
	conn, err := net.DialUDP("udp", nil, upstream)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	if _, err := conn.Write(payload); err != nil {
		return nil, err
	}

	resp := make([]byte, wire.Size)
	n, err := conn.Read(resp)
	if err != nil {
		return nil, err
	}
	return resp[:n], nil
}
