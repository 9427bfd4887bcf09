package stream

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"marketwire/internal/client"
)

// handshakeFrameLimit bounds how many frames the auth exchange will inspect
// before giving up waiting for an ack.
const handshakeFrameLimit = 8

// Conn is one authenticated websocket connection. Sends are serialized; a
// single reader at a time is expected.
type Conn struct {
	ws           *websocket.Conn
	sendMu       sync.Mutex
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// Dial connects to the stream endpoint and performs the application-level
// auth handshake. Credential rejection returns a KindAuth error; any other
// failure is KindTransport or the server's error as reported.
func Dial(ctx context.Context, opts Options) (*Conn, error) {
	return dial(ctx, opts, func(State) {})
}

func dial(ctx context.Context, opts Options, observe func(State)) (*Conn, error) {
	observe(StateConnecting)
	dialer := websocket.Dialer{HandshakeTimeout: opts.DialTimeout}
	ws, _, err := dialer.DialContext(ctx, opts.URL, nil)
	if err != nil {
		return nil, &client.Error{Kind: client.KindTransport, Op: "dial", Err: err}
	}

	c := &Conn{ws: ws, readTimeout: opts.ReadTimeout, writeTimeout: opts.WriteTimeout}

	// The auth exchange reads from the socket directly; closing it on
	// cancellation is what unblocks those reads.
	stop := context.AfterFunc(ctx, func() { ws.Close() })
	defer stop()

	observe(StateAuthenticating)
	if err := c.authenticate(opts.Key, opts.Secret); err != nil {
		ws.Close()
		return nil, err
	}
	return c, nil
}

// authenticate sends the auth message and waits for the server's ack. The
// server may emit a connection greeting before the ack; both arrive as
// "success" control messages.
func (c *Conn) authenticate(key, secret string) error {
	if err := c.Send(authRequest{Action: "auth", Key: key, Secret: secret}); err != nil {
		return err
	}
	for i := 0; i < handshakeFrameLimit; i++ {
		data, err := c.Receive()
		if err != nil {
			return err
		}
		for _, ev := range decodeFrame(data) {
			switch m := ev.(type) {
			case ControlEvent:
				if m.Msg == "authenticated" {
					return nil
				}
			case ErrorEvent:
				kind := client.KindAPI
				if m.authFailure() {
					kind = client.KindAuth
				}
				return &client.Error{Kind: kind, Op: "auth", Status: m.Code, Message: m.Msg}
			}
		}
	}
	return &client.Error{Kind: client.KindTransport, Op: "auth", Message: "no auth ack received"}
}

// Send writes one JSON message. Calls are serialized so concurrent senders
// never interleave on the wire.
func (c *Conn) Send(v any) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.writeTimeout > 0 {
		c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.ws.WriteJSON(v); err != nil {
		return &client.Error{Kind: client.KindTransport, Op: "send", Err: err}
	}
	return nil
}

// Receive blocks until the next frame arrives, the read timeout expires, or
// the connection closes. Timeouts surface as KindTransport and are treated
// as a reconnect trigger by the session.
func (c *Conn) Receive() ([]byte, error) {
	if c.readTimeout > 0 {
		c.ws.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, &client.Error{Kind: client.KindTransport, Op: "receive", Err: err}
	}
	return data, nil
}

// Close tears down the underlying socket, unblocking any pending Receive.
func (c *Conn) Close() error {
	return c.ws.Close()
}
