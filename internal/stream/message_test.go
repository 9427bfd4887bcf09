package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFrame_DataEvents(t *testing.T) {
	frame := []byte(`[
		{"T":"t","S":"AAPL","p":150.50,"s":100,"i":12345,"x":"V","z":"C","t":"2024-06-01T14:30:00Z"},
		{"T":"q","S":"TSLA","bp":249.95,"bs":100,"bx":"Q","ap":250.00,"as":50,"ax":"Q","t":"2024-06-01T14:30:00Z","z":"C"},
		{"T":"b","S":"SPY","o":450.00,"h":451.00,"l":449.50,"c":450.75,"v":100000,"t":"2024-06-01T14:30:00Z"}
	]`)

	events := decodeFrame(frame)
	require.Len(t, events, 3)

	trade, ok := events[0].(TradeEvent)
	require.True(t, ok)
	assert.Equal(t, "AAPL", trade.Symbol)
	assert.Equal(t, 150.50, trade.Price)
	assert.Equal(t, int64(100), trade.Size)
	assert.Equal(t, int64(12345), trade.ID)
	assert.Equal(t, time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC), trade.Timestamp)

	quote, ok := events[1].(QuoteEvent)
	require.True(t, ok)
	assert.Equal(t, "TSLA", quote.Symbol)
	assert.Equal(t, 249.95, quote.BidPrice)
	assert.Equal(t, 250.00, quote.AskPrice)

	bar, ok := events[2].(BarEvent)
	require.True(t, ok)
	assert.Equal(t, "SPY", bar.Symbol)
	assert.Equal(t, int64(100000), bar.Volume)
}

func TestDecodeFrame_ControlAndError(t *testing.T) {
	events := decodeFrame([]byte(`[
		{"T":"success","msg":"authenticated"},
		{"T":"subscription","trades":["AAPL"],"quotes":["AAPL","TSLA"],"bars":[]},
		{"T":"error","code":405,"msg":"symbol limit exceeded"}
	]`))
	require.Len(t, events, 3)

	control, ok := events[0].(ControlEvent)
	require.True(t, ok)
	assert.Equal(t, "authenticated", control.Msg)

	sub, ok := events[1].(SubscriptionEvent)
	require.True(t, ok)
	assert.Equal(t, []string{"AAPL"}, sub.Trades)
	assert.Equal(t, []string{"AAPL", "TSLA"}, sub.Quotes)
	assert.Empty(t, sub.Bars)

	serverErr, ok := events[2].(ErrorEvent)
	require.True(t, ok)
	assert.Equal(t, 405, serverErr.Code)
	assert.False(t, serverErr.authFailure())
}

func TestDecodeFrame_SingleObjectFrame(t *testing.T) {
	events := decodeFrame([]byte(`{"T":"success","msg":"connected"}`))
	require.Len(t, events, 1)
	control, ok := events[0].(ControlEvent)
	require.True(t, ok)
	assert.Equal(t, "connected", control.Msg)
}

func TestDecodeFrame_UnknownTypeYieldsFrameError(t *testing.T) {
	events := decodeFrame([]byte(`[{"T":"t","S":"AAPL","p":1.0,"s":1,"t":"2024-06-01T14:30:00Z"},{"T":"x","weird":true}]`))
	require.Len(t, events, 2, "every inbound element produces exactly one event")

	_, ok := events[0].(TradeEvent)
	assert.True(t, ok)

	fe, ok := events[1].(FrameError)
	require.True(t, ok)
	assert.Error(t, fe.Err)
	assert.JSONEq(t, `{"T":"x","weird":true}`, string(fe.Raw))
}

func TestDecodeFrame_MalformedElementYieldsFrameError(t *testing.T) {
	events := decodeFrame([]byte(`[{"T":"t","p":"not-a-number","s":1,"t":"2024-06-01T14:30:00Z"}]`))
	require.Len(t, events, 1)
	fe, ok := events[0].(FrameError)
	require.True(t, ok)
	assert.Error(t, fe.Err)
}

func TestErrorEvent_AuthFailureCodes(t *testing.T) {
	assert.True(t, ErrorEvent{Code: 401}.authFailure())
	assert.True(t, ErrorEvent{Code: 402}.authFailure())
	assert.True(t, ErrorEvent{Code: 404}.authFailure())
	assert.False(t, ErrorEvent{Code: 405}.authFailure())
	assert.False(t, ErrorEvent{Code: 500}.authFailure())
}

func TestSubscribeRequest_AddAndEmpty(t *testing.T) {
	var req subscribeRequest
	assert.True(t, req.empty())

	req.add(ChannelTrades, []string{"AAPL"})
	req.add(ChannelQuotes, []string{"SPY", "TSLA"})
	assert.False(t, req.empty())
	assert.Equal(t, []string{"AAPL"}, req.Trades)
	assert.Equal(t, []string{"SPY", "TSLA"}, req.Quotes)
	assert.Empty(t, req.Bars)
}
