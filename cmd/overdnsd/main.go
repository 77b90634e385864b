package main

import (
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dnsscience/overdns/internal/acl"
	"github.com/dnsscience/overdns/internal/config"
	"github.com/dnsscience/overdns/internal/logging"
	"github.com/dnsscience/overdns/internal/metrics"
	"github.com/dnsscience/overdns/internal/ratelimit"
	"github.com/dnsscience/overdns/internal/resolver"
	"github.com/dnsscience/overdns/internal/server"
	"github.com/dnsscience/overdns/internal/state"
	"github.com/dnsscience/overdns/internal/watch"
)

var (
	configPath   = flag.String("config", defaultConfigPath(), "Path to the config file")
	pollInterval = flag.Duration("poll", 5*time.Second, "Config file poll interval")
	metricsAddr  = flag.String("metrics", "", "Address to serve Prometheus metrics on (empty disables)")
	rateLimit    = flag.Float64("rate-limit", 0, "Per-client queries/second (0 disables rate limiting)")
	denyNets     = flag.String("deny", "", "Comma-separated CIDRs/IPs denied regardless of rate limit")
)

const defaultTimeout = 2000 * time.Millisecond

func defaultConfigPath() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir + "/.config/overdns/overdns.conf"
	}
	return "overdns.conf"
}

func main() {
	flag.Parse()

	log := logging.NewZerolog(os.Stdout)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to read initial config", err, logging.F("path", *configPath))
		os.Exit(1)
	}
	logDiagnostics(log, cfg.Invalid)

	binds := mustDefaultBinds(cfg.Bind, log)
	st := state.New(snapshotFrom(cfg))

	w := watch.New(*configPath, *pollInterval)
	defer w.Stop()
	go reloadLoop(w, *configPath, st, log)

	var limiter *ratelimit.Limiter
	if *rateLimit > 0 {
		limiter = ratelimit.New(ratelimit.Config{QueriesPerSecond: *rateLimit, Burst: int(*rateLimit) * 2})
	}

	clientACL := acl.NewGate(true)
	for _, cidr := range splitNonEmpty(*denyNets, ',') {
		if err := clientACL.Deny(cidr); err != nil {
			log.Warn("ignoring malformed --deny entry", logging.F("entry", cidr), logging.F("err", err.Error()))
		}
	}

	res := resolver.New(resolver.Config{State: st, Log: log})
	srv := server.New(server.Config{
		Binds:    binds,
		Resolver: res,
		Limiter:  limiter,
		ACL:      clientACL,
		Log:      log,
	})

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Warn("metrics server stopped", logging.F("err", err.Error()))
			}
		}()
	}

	if err := srv.Start(); err != nil {
		log.Error("failed to bind listener", err)
		os.Exit(1)
	}
	log.Info("overdnsd started", logging.F("config", *configPath))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	srv.Stop()
}

func splitNonEmpty(s string, sep rune) []string {
	var out []string
	for _, tok := range strings.Split(s, string(sep)) {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// mustDefaultBinds applies the §6 default of 0.0.0.0:53 when the config
// supplied no bind addresses, exiting the process on a malformed default
// (which should never happen, since the literal is hardcoded).
func mustDefaultBinds(binds []*net.UDPAddr, log logging.Sink) []*net.UDPAddr {
	if len(binds) > 0 {
		return binds
	}
	addr, err := net.ResolveUDPAddr("udp", "0.0.0.0:53")
	if err != nil {
		log.Error("failed to resolve default bind address", err)
		os.Exit(1)
	}
	return []*net.UDPAddr{addr}
}

// reloadLoop applies a new Snapshot to st each time the watcher observes a
// config change. Reload failures keep the previously active state and are
// logged, never fatal.
func reloadLoop(w *watch.Watcher, path string, st *state.State, log logging.Sink) {
	for range w.Ticks {
		cfg, err := config.Load(path)
		if err != nil {
			metrics.Reloads.WithLabelValues("error").Inc()
			log.Error("config reload failed, keeping previous state", err, logging.F("path", path))
			continue
		}
		logDiagnostics(log, cfg.Invalid)
		st.Store(snapshotFrom(cfg))
		metrics.Reloads.WithLabelValues("ok").Inc()
		log.Info("config reloaded", logging.F("path", path), logging.F("hosts", len(cfg.Hosts)))
	}
}

func logDiagnostics(log logging.Sink, diags []config.Diagnostic) {
	for _, d := range diags {
		log.Warn("config diagnostic",
			logging.F("line", d.Line),
			logging.F("kind", d.Kind.String()),
			logging.F("source", d.Source),
		)
	}
}

// defaultProxies is the §6 fallback upstream pair used when the config
// supplies none.
var defaultProxies = []string{"8.8.8.8:53", "1.1.1.1:53"}

// snapshotFrom applies the system defaults of §6 to everything the
// reload path is allowed to change: an empty proxy list becomes the
// Google/Cloudflare pair and an absent timeout becomes 2000ms. Bind
// addresses are read once at startup and are not part of the reloadable
// state.
func snapshotFrom(cfg *config.Config) state.Snapshot {
	snap := state.Snapshot{
		Proxy: cfg.Proxy,
		Hosts: cfg.Hosts,
	}
	if len(snap.Proxy) == 0 {
		for _, s := range defaultProxies {
			if addr, err := net.ResolveUDPAddr("udp", s); err == nil {
				snap.Proxy = append(snap.Proxy, addr)
			}
		}
	}
	if cfg.Timeout.Set {
		snap.Timeout = cfg.Timeout.Duration
	} else {
		snap.Timeout = defaultTimeout
	}
	return snap
}
