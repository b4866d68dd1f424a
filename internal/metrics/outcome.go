package metrics

import "time"

// ErrorKind names a failure category in the error table.
type ErrorKind string

const (
	KindTimeout         ErrorKind = "Timeout"
	KindConnection      ErrorKind = "ConnectionError"
	KindTLS             ErrorKind = "TLSError"
	KindProtocol        ErrorKind = "ProtocolViolation"
	KindHTTPStatus      ErrorKind = "HTTPError"
	KindConnect         ErrorKind = "ConnectError"
	KindSend            ErrorKind = "SendError"
	KindUnexpectedClose ErrorKind = "UnexpectedClose"
	KindOther           ErrorKind = "Other"
)

var kindDescriptions = map[ErrorKind]string{
	KindTimeout:         "operation exceeded its timeout",
	KindConnection:      "connection refused, reset or unresolvable",
	KindTLS:             "TLS handshake or certificate failure",
	KindProtocol:        "malformed or truncated response",
	KindHTTPStatus:      "response status at or above the failure threshold",
	KindConnect:         "websocket handshake failed",
	KindSend:            "websocket write failed",
	KindUnexpectedClose: "websocket closed before the session ended",
	KindOther:           "uncategorized failure",
}

// Description returns a short human-readable explanation of the kind.
func (k ErrorKind) Description() string {
	if d, ok := kindDescriptions[k]; ok {
		return d
	}
	return string(k)
}

// Outcome is the timed result of one operation. StatusCode is set whenever a
// response was received; Kind is set on every failure.
type Outcome struct {
	Success          bool
	Latency          time.Duration
	StatusCode       int
	Kind             ErrorKind
	Timestamp        time.Time
	MessagesSent     int64
	MessagesReceived int64
}

// Succeeded builds a successful outcome.
func Succeeded(latency time.Duration, statusCode int) Outcome {
	return Outcome{
		Success:    true,
		Latency:    latency,
		StatusCode: statusCode,
		Timestamp:  time.Now(),
	}
}

// Failed builds a failed outcome. An empty kind is recorded as KindOther.
func Failed(latency time.Duration, kind ErrorKind) Outcome {
	if kind == "" {
		kind = KindOther
	}
	return Outcome{
		Success:   false,
		Latency:   latency,
		Kind:      kind,
		Timestamp: time.Now(),
	}
}
