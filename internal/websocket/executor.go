package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/torosent/volley/internal/config"
	"github.com/torosent/volley/internal/metrics"
)

// closeWait bounds how long a session waits for the peer to answer its
// close frame.
const closeWait = 2 * time.Second

// Executor runs one WebSocket operation per call.
//
// In message mode (no session duration) it connects, optionally sends the
// configured message, optionally waits for the first reply, and closes.
// Latency runs from connect start to send completion, or to the reply when
// awaiting an echo.
//
// In session mode it keeps the connection open for the session duration,
// re-sending the message at the configured interval and draining anything
// the server sends, then performs a closing handshake. The session succeeds
// only if it reaches its deadline and the peer acknowledges the close.
type Executor struct {
	url       string
	headers   http.Header
	message   []byte
	timeout   time.Duration
	session   time.Duration
	interval  time.Duration
	awaitEcho bool
}

func NewExecutor(op config.Operation) (*Executor, error) {
	if op.Protocol != "" && op.Protocol != config.ProtocolWebSocket {
		return nil, fmt.Errorf("operation protocol %q is not websocket", op.Protocol)
	}
	target := strings.TrimSpace(op.URL)
	u, err := url.ParseRequestURI(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL %q: %w", target, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("unsupported scheme %q for WebSocket", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("target URL %q has no host", target)
	}

	headers := http.Header{}
	for key, value := range op.Headers {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" || strings.ContainsAny(trimmedKey, "\r\n") || strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header %q", key)
		}
		headers.Set(trimmedKey, value)
	}

	e := &Executor{
		url:       u.String(),
		headers:   headers,
		timeout:   op.Timeout,
		session:   op.SessionDuration,
		interval:  op.MessageInterval,
		awaitEcho: op.AwaitEcho,
	}
	if op.Message != "" {
		e.message = []byte(op.Message)
	}
	return e, nil
}

func (e *Executor) Execute(ctx context.Context) metrics.Outcome {
	if e.session > 0 {
		return e.runSession(ctx)
	}
	return e.runMessage(ctx)
}

func (e *Executor) newClient() *Client {
	return NewClient(Config{URL: e.url, Headers: e.headers, HandshakeTimeout: e.timeout})
}

func (e *Executor) runMessage(ctx context.Context) metrics.Outcome {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	client := e.newClient()
	if err := client.Connect(ctx); err != nil {
		return metrics.Failed(time.Since(start), classify(err))
	}
	defer client.Close()

	if e.message != nil {
		if err := client.Send(ctx, e.message); err != nil {
			return failed(start, client, classify(err))
		}
		if e.awaitEcho {
			if _, err := client.Receive(ctx); err != nil {
				return failed(start, client, classify(err))
			}
		}
	}
	return succeeded(start, client)
}

func (e *Executor) runSession(ctx context.Context) metrics.Outcome {
	start := time.Now()
	client := e.newClient()

	connectCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	if err := client.Connect(connectCtx); err != nil {
		return metrics.Failed(time.Since(start), classify(err))
	}

	readErr := make(chan error, 1)
	go func() {
		for {
			if _, err := client.Receive(context.Background()); err != nil {
				readErr <- err
				return
			}
		}
	}()

	sessionCtx, cancel := context.WithTimeout(ctx, e.session)
	defer cancel()

	if e.message != nil {
		if err := client.Send(sessionCtx, e.message); err != nil {
			_ = client.Abort()
			return failed(start, client, classify(err))
		}
	}

	var tick <-chan time.Time
	if e.interval > 0 && e.message != nil {
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for running := true; running; {
		select {
		case <-sessionCtx.Done():
			running = false
		case <-readErr:
			_ = client.Abort()
			return failed(start, client, metrics.KindUnexpectedClose)
		case <-tick:
			if err := client.Send(sessionCtx, e.message); err != nil {
				_ = client.Abort()
				return failed(start, client, classify(err))
			}
		}
	}

	if ctx.Err() != nil {
		_ = client.Abort()
		return failed(start, client, metrics.KindOther)
	}
	if kind := closeHandshake(client, readErr); kind != "" {
		return failed(start, client, kind)
	}
	return succeeded(start, client)
}

// closeHandshake sends a close frame and waits for the reader to observe the
// peer's reply. It returns an empty kind on a clean close.
func closeHandshake(client *Client, readErr <-chan error) metrics.ErrorKind {
	defer client.Abort()
	if err := client.SendClose(closeWait); err != nil {
		return metrics.KindUnexpectedClose
	}
	timer := time.NewTimer(closeWait)
	defer timer.Stop()
	select {
	case err := <-readErr:
		if IsNormalClose(err) {
			return ""
		}
		return metrics.KindUnexpectedClose
	case <-timer.C:
		return metrics.KindUnexpectedClose
	}
}

func classify(err error) metrics.ErrorKind {
	if metrics.Classify(err) == metrics.KindTimeout {
		return metrics.KindTimeout
	}
	var werr *Error
	if !errors.As(err, &werr) {
		return metrics.KindOther
	}
	switch werr.Stage {
	case StageConnect:
		return metrics.KindConnect
	case StageSend:
		return metrics.KindSend
	case StageReceive, StageClose:
		return metrics.KindUnexpectedClose
	default:
		return metrics.KindOther
	}
}

func succeeded(start time.Time, client *Client) metrics.Outcome {
	o := metrics.Succeeded(time.Since(start), 0)
	withStats(&o, client.Stats())
	return o
}

func failed(start time.Time, client *Client, kind metrics.ErrorKind) metrics.Outcome {
	o := metrics.Failed(time.Since(start), kind)
	withStats(&o, client.Stats())
	return o
}

func withStats(o *metrics.Outcome, s Stats) {
	o.MessagesSent = s.MessagesSent
	o.MessagesReceived = s.MessagesReceived
}
