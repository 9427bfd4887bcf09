package model

import "time"

// Trade represents a single executed trade, as delivered by both the
// historical REST endpoints and the trades stream channel.
type Trade struct {
	Symbol    string    `json:"S,omitempty"`
	ID        int64     `json:"i,omitempty"`
	Price     float64   `json:"p"`
	Size      int64     `json:"s"`
	Exchange  string    `json:"x,omitempty"`
	Tape      string    `json:"z,omitempty"`
	Timestamp time.Time `json:"t"`
}

// Quote represents a top-of-book bid/ask update.
type Quote struct {
	Symbol      string    `json:"S,omitempty"`
	BidPrice    float64   `json:"bp"`
	BidSize     int64     `json:"bs"`
	BidExchange string    `json:"bx,omitempty"`
	AskPrice    float64   `json:"ap"`
	AskSize     int64     `json:"as"`
	AskExchange string    `json:"ax,omitempty"`
	Tape        string    `json:"z,omitempty"`
	Timestamp   time.Time `json:"t"`
}

// Bar represents an aggregated OHLCV candle.
type Bar struct {
	Symbol    string    `json:"S,omitempty"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    int64     `json:"v"`
	Timestamp time.Time `json:"t"`
}
