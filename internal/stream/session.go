package stream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"marketwire/internal/client"
)

// Options configures a streaming session.
type Options struct {
	// URL is the websocket endpoint.
	URL string

	// Key and Secret are the credentials for the auth handshake. They are
	// carried verbatim, never interpreted.
	Key    string
	Secret string

	// DialTimeout bounds the websocket handshake. Default 10s.
	DialTimeout time.Duration

	// ReadTimeout bounds the wait for each inbound frame; zero means no
	// limit. Expiry triggers a reconnect.
	ReadTimeout time.Duration

	// WriteTimeout bounds each outbound write. Default 10s.
	WriteTimeout time.Duration

	// Buffer is the backpressure capacity: the number of undelivered events
	// held before the session reports an overflow and reconnects.
	// Default 256.
	Buffer int

	// Reconnect supplies the backoff schedule between connection attempts.
	// Defaults to an unbounded jittered exponential capped at 16s.
	Reconnect client.RetryPolicy

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.DialTimeout <= 0 {
		o.DialTimeout = 10 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.Buffer <= 0 {
		o.Buffer = 256
	}
	if o.Reconnect == nil {
		o.Reconnect = func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = time.Second
			bo.MaxInterval = 16 * time.Second
			bo.MaxElapsedTime = 0
			return bo
		}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

type item struct {
	ev  Event
	err error
}

// Session turns a raw stream connection into a typed, subscribable event
// feed. It owns the single read loop, tracks the subscription set, and
// replays it in full after every reconnect so the server-side state is
// always derivable from the client-held set alone.
type Session struct {
	opts   Options
	logger *slog.Logger
	state  atomic.Int32

	// mu guards subs and conn together: mutating the set and deciding to
	// emit a control message must be atomic.
	mu   sync.Mutex
	subs map[Channel]map[string]struct{}
	conn *Conn

	events chan item
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSession creates a session. No connection is made until Connect.
func NewSession(opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		opts:   opts,
		logger: opts.Logger,
		subs:   make(map[Channel]map[string]struct{}),
		events: make(chan item, opts.Buffer),
		done:   make(chan struct{}),
	}
}

// Connect starts the background connection loop. The loop stops when ctx is
// cancelled, Close is called, or the session hits a fatal error.
func (s *Session) Connect(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)
}

// State returns the current connection state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Subscribe adds symbols to the subscription set. If the connection is up
// the corresponding control message is sent immediately; otherwise the
// change is applied at the next transition into ready.
func (s *Session) Subscribe(ch Channel, symbols ...string) error {
	if !ch.valid() {
		return fmt.Errorf("unknown channel %q", ch)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.subs[ch]
	if set == nil {
		set = make(map[string]struct{})
		s.subs[ch] = set
	}
	for _, sym := range symbols {
		set[sym] = struct{}{}
	}

	if s.conn == nil || len(symbols) == 0 {
		return nil
	}
	msg := subscribeRequest{Action: "subscribe"}
	msg.add(ch, symbols)
	return s.conn.Send(msg)
}

// Unsubscribe removes symbols from the subscription set, mirroring
// Subscribe.
func (s *Session) Unsubscribe(ch Channel, symbols ...string) error {
	if !ch.valid() {
		return fmt.Errorf("unknown channel %q", ch)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.subs[ch]
	for _, sym := range symbols {
		delete(set, sym)
	}
	if len(set) == 0 {
		delete(s.subs, ch)
	}

	if s.conn == nil || len(symbols) == 0 {
		return nil
	}
	msg := subscribeRequest{Action: "unsubscribe"}
	msg.add(ch, symbols)
	return s.conn.Send(msg)
}

// Subscriptions returns a sorted snapshot of the current subscription set.
func (s *Session) Subscriptions() map[Channel][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Channel][]string, len(s.subs))
	for ch, set := range s.subs {
		symbols := make([]string, 0, len(set))
		for sym := range set {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)
		out[ch] = symbols
	}
	return out
}

// Next returns the next event in wire order. Decode failures arrive as
// FrameError events; connection-level failures arrive as errors. After the
// session has closed, Next drains any buffered events and then reports
// KindConnectionClosed.
func (s *Session) Next(ctx context.Context) (Event, error) {
	select {
	case it := <-s.events:
		return it.ev, it.err
	default:
	}
	select {
	case it := <-s.events:
		return it.ev, it.err
	case <-s.done:
		select {
		case it := <-s.events:
			return it.ev, it.err
		default:
		}
		return nil, &client.Error{Kind: client.KindConnectionClosed, Op: "next"}
	case <-ctx.Done():
		return nil, &client.Error{Kind: client.KindTransport, Op: "next", Err: ctx.Err()}
	}
}

// Close stops the connection loop and releases the socket. It blocks until
// the background goroutine has exited.
func (s *Session) Close() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	<-s.done
	return nil
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	bo := s.opts.Reconnect()

	for {
		conn, err := dial(ctx, s.opts, s.setState)
		if err != nil {
			if ctx.Err() != nil {
				s.setState(StateClosed)
				return
			}
			if client.IsKind(err, client.KindAuth) {
				s.logger.Error("stream authentication rejected", "error", err)
				s.emit(ctx, item{err: err})
				s.setState(StateClosed)
				return
			}
			if !s.waitReconnect(ctx, bo, err) {
				return
			}
			continue
		}
		bo.Reset()

		// Install the connection and replay the entire current subscription
		// set as one batch, atomically with respect to Subscribe calls.
		s.mu.Lock()
		s.conn = conn
		replay := subscribeRequest{Action: "subscribe"}
		for ch, set := range s.subs {
			for sym := range set {
				replay.add(ch, []string{sym})
			}
		}
		s.mu.Unlock()

		if !replay.empty() {
			if err := conn.Send(replay); err != nil {
				s.dropConn(conn)
				if !s.waitReconnect(ctx, bo, err) {
					return
				}
				continue
			}
		}
		s.setState(StateReady)
		s.logger.Info("stream ready", "url", s.opts.URL)

		// Receive blocks on the socket; closing it is what unblocks the
		// read loop when the session is cancelled.
		stop := context.AfterFunc(ctx, func() { conn.Close() })
		err = s.readLoop(ctx, conn)
		stop()
		s.dropConn(conn)
		if ctx.Err() != nil {
			s.setState(StateClosed)
			return
		}
		if client.IsKind(err, client.KindAuth) {
			s.emit(ctx, item{err: err})
			s.setState(StateClosed)
			return
		}
		if !s.waitReconnect(ctx, bo, err) {
			return
		}
	}
}

// waitReconnect applies the backoff schedule before the next connection
// attempt. It returns false when the loop should stop.
func (s *Session) waitReconnect(ctx context.Context, bo backoff.BackOff, cause error) bool {
	delay := bo.NextBackOff()
	if delay == backoff.Stop {
		s.emit(ctx, item{err: &client.Error{Kind: client.KindRetriesExhausted, Op: "reconnect", Err: cause}})
		s.setState(StateClosed)
		return false
	}
	s.logger.Warn("stream connection lost", "error", cause, "retry_in", delay)
	s.setState(StateReconnecting)
	select {
	case <-ctx.Done():
		s.setState(StateClosed)
		return false
	case <-time.After(delay):
		return true
	}
}

func (s *Session) readLoop(ctx context.Context, conn *Conn) error {
	for {
		data, err := conn.Receive()
		if err != nil {
			return err
		}
		for _, ev := range decodeFrame(data) {
			if ee, ok := ev.(ErrorEvent); ok && ee.authFailure() {
				return &client.Error{Kind: client.KindAuth, Op: "stream", Status: ee.Code, Message: ee.Msg}
			}
			select {
			case s.events <- item{ev: ev}:
			case <-ctx.Done():
				return &client.Error{Kind: client.KindConnectionClosed, Op: "stream", Err: ctx.Err()}
			default:
				// Consumer fell behind: drop this event, queue the overflow
				// error behind the buffered ones so the gap is visible, and
				// force a reconnect. Catching up silently would mask it.
				over := &client.Error{Kind: client.KindOverflow, Op: "stream", Message: "event buffer full"}
				select {
				case s.events <- item{err: over}:
				case <-ctx.Done():
				}
				return over
			}
		}
	}
}

func (s *Session) dropConn(conn *Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	conn.Close()
}

func (s *Session) emit(ctx context.Context, it item) {
	select {
	case s.events <- it:
	case <-ctx.Done():
	}
}

func (s *Session) setState(st State) {
	prev := State(s.state.Swap(int32(st)))
	if prev != st {
		s.logger.Debug("stream state change", "from", prev.String(), "to", st.String())
	}
}
