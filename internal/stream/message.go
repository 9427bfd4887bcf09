package stream

import (
	"encoding/json"
	"fmt"

	"marketwire/internal/model"
)

// Channel names a stream category that can be subscribed per symbol.
type Channel string

const (
	ChannelTrades Channel = "trades"
	ChannelQuotes Channel = "quotes"
	ChannelBars   Channel = "bars"
)

func (c Channel) valid() bool {
	switch c {
	case ChannelTrades, ChannelQuotes, ChannelBars:
		return true
	}
	return false
}

type authRequest struct {
	Action string `json:"action"`
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

type subscribeRequest struct {
	Action string   `json:"action"`
	Trades []string `json:"trades,omitempty"`
	Quotes []string `json:"quotes,omitempty"`
	Bars   []string `json:"bars,omitempty"`
}

func (r *subscribeRequest) add(ch Channel, symbols []string) {
	switch ch {
	case ChannelTrades:
		r.Trades = append(r.Trades, symbols...)
	case ChannelQuotes:
		r.Quotes = append(r.Quotes, symbols...)
	case ChannelBars:
		r.Bars = append(r.Bars, symbols...)
	}
}

func (r *subscribeRequest) empty() bool {
	return len(r.Trades) == 0 && len(r.Quotes) == 0 && len(r.Bars) == 0
}

// Event is one decoded inbound stream message. The set of implementations
// is closed: TradeEvent, QuoteEvent, BarEvent, SubscriptionEvent,
// ControlEvent, ErrorEvent and FrameError.
type Event interface {
	eventKind() string
}

// TradeEvent carries one trade tick.
type TradeEvent struct{ model.Trade }

// QuoteEvent carries one quote update.
type QuoteEvent struct{ model.Quote }

// BarEvent carries one aggregated bar.
type BarEvent struct{ model.Bar }

// SubscriptionEvent is the server's acknowledgment listing the channels
// currently active for this connection.
type SubscriptionEvent struct {
	Trades []string `json:"trades"`
	Quotes []string `json:"quotes"`
	Bars   []string `json:"bars"`
}

// ControlEvent is an informational server message such as the connection
// greeting or the authentication ack.
type ControlEvent struct {
	Msg string `json:"msg"`
}

// ErrorEvent is a structured error frame reported by the server.
type ErrorEvent struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// FrameError marks an inbound element that could not be decoded. The raw
// bytes are preserved so the caller can inspect what arrived.
type FrameError struct {
	Raw json.RawMessage
	Err error
}

func (TradeEvent) eventKind() string        { return "trade" }
func (QuoteEvent) eventKind() string        { return "quote" }
func (BarEvent) eventKind() string          { return "bar" }
func (SubscriptionEvent) eventKind() string { return "subscription" }
func (ControlEvent) eventKind() string      { return "control" }
func (ErrorEvent) eventKind() string        { return "error" }
func (FrameError) eventKind() string        { return "frame_error" }

// authFailure reports whether the server error indicates a credential
// problem. Those are fatal: a credential does not become valid by retrying.
func (e ErrorEvent) authFailure() bool {
	switch e.Code {
	case 401, 402, 404: // not authenticated, auth failed, auth timeout
		return true
	}
	return false
}

// decodeFrame splits one wire frame into events, preserving element order.
// Frames are JSON arrays of objects tagged by "T"; a single-object frame is
// treated as a one-element array. Every element yields exactly one event;
// undecodable elements yield a FrameError instead of being dropped.
func decodeFrame(data []byte) []Event {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		elems = []json.RawMessage{data}
	}
	events := make([]Event, 0, len(elems))
	for _, raw := range elems {
		events = append(events, decodeMessage(raw))
	}
	return events
}

func decodeMessage(raw json.RawMessage) Event {
	var tag struct {
		Type string `json:"T"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return FrameError{Raw: raw, Err: err}
	}

	var (
		ev  Event
		err error
	)
	switch tag.Type {
	case "t":
		var e TradeEvent
		err = json.Unmarshal(raw, &e.Trade)
		ev = e
	case "q":
		var e QuoteEvent
		err = json.Unmarshal(raw, &e.Quote)
		ev = e
	case "b":
		var e BarEvent
		err = json.Unmarshal(raw, &e.Bar)
		ev = e
	case "subscription":
		var e SubscriptionEvent
		err = json.Unmarshal(raw, &e)
		ev = e
	case "success":
		var e ControlEvent
		err = json.Unmarshal(raw, &e)
		ev = e
	case "error":
		var e ErrorEvent
		err = json.Unmarshal(raw, &e)
		ev = e
	default:
		return FrameError{Raw: raw, Err: fmt.Errorf("unknown message type %q", tag.Type)}
	}
	if err != nil {
		return FrameError{Raw: raw, Err: err}
	}
	return ev
}
