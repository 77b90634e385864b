package config

// DiagnosticKind classifies why a config line could not be applied.
type DiagnosticKind uint8

const (
	// DiagRegex marks a matcher (glob/regex) construction failure.
	DiagRegex DiagnosticKind = iota
	// DiagSocketAddr marks an unparseable bind/proxy address.
	DiagSocketAddr
	// DiagIPAddr marks a host record where neither token parses as an IP.
	DiagIPAddr
	// DiagTimeout marks an unparseable timeout value.
	DiagTimeout
	// DiagOther marks anything else: wrong token arity, or a cyclic import.
	DiagOther
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagRegex:
		return "regex"
	case DiagSocketAddr:
		return "socket-addr"
	case DiagIPAddr:
		return "ip-addr"
	case DiagTimeout:
		return "timeout"
	default:
		return "other"
	}
}

// Diagnostic is a non-fatal parse error: a config reload never aborts
// because of one, it just accumulates these for the caller to report.
type Diagnostic struct {
	Line   uint32
	Source string
	Kind   DiagnosticKind
}
