package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"marketwire/internal/client"
	"marketwire/internal/feed"
	"marketwire/internal/stream"
)

func newStreamCommand(configPath *string) *cobra.Command {
	var trades, quotes, bars []string

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Subscribe to live market data channels and print events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("cannot load config: %w", err)
			}
			logger := newLogger()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			session := stream.NewSession(stream.Options{
				URL:          cfg.Stream.URL,
				Key:          cfg.Key,
				Secret:       cfg.Secret,
				DialTimeout:  cfg.Stream.DialTimeout,
				ReadTimeout:  cfg.Stream.ReadTimeout,
				WriteTimeout: cfg.Stream.WriteTimeout,
				Buffer:       cfg.Stream.Buffer,
				Logger:       logger,
			})
			session.Connect(ctx)
			defer session.Close()

			if len(trades) > 0 {
				if err := session.Subscribe(stream.ChannelTrades, trades...); err != nil {
					return err
				}
			}
			if len(quotes) > 0 {
				if err := session.Subscribe(stream.ChannelQuotes, quotes...); err != nil {
					return err
				}
			}
			if len(bars) > 0 {
				if err := session.Subscribe(stream.ChannelBars, bars...); err != nil {
					return err
				}
			}

			tracker := feed.NewTracker()
			defer printSummary(tracker)
			for {
				ev, err := session.Next(ctx)
				if err != nil {
					if ctx.Err() != nil || client.IsKind(err, client.KindConnectionClosed) {
						return nil
					}
					logger.Error("stream error", "error", err)
					if client.IsKind(err, client.KindAuth) || client.IsKind(err, client.KindRetriesExhausted) {
						return err
					}
					continue
				}
				tracker.Apply(ev)
				printEvent(ev)
			}
		},
	}

	cmd.Flags().StringSliceVar(&trades, "trades", nil, "symbols to subscribe on the trades channel")
	cmd.Flags().StringSliceVar(&quotes, "quotes", nil, "symbols to subscribe on the quotes channel")
	cmd.Flags().StringSliceVar(&bars, "bars", nil, "symbols to subscribe on the bars channel")

	return cmd
}

func printSummary(tracker *feed.Tracker) {
	symbols := tracker.Symbols()
	if len(symbols) == 0 {
		return
	}
	fmt.Println("--- session summary ---")
	for _, sym := range symbols {
		if trade, ok := tracker.Trade(sym); ok {
			fmt.Printf("%s last trade $%.2f x %d\n", sym, trade.Price, trade.Size)
		}
		if quote, ok := tracker.Quote(sym); ok {
			fmt.Printf("%s last quote $%.2f / $%.2f\n", sym, quote.BidPrice, quote.AskPrice)
		}
	}
}

func printEvent(ev stream.Event) {
	switch e := ev.(type) {
	case stream.TradeEvent:
		fmt.Printf("[%s] trade %s: $%.2f x %d\n",
			e.Timestamp.Local().Format("15:04:05"), e.Symbol, e.Price, e.Size)
	case stream.QuoteEvent:
		fmt.Printf("[%s] quote %s: bid $%.2f x %d / ask $%.2f x %d\n",
			e.Timestamp.Local().Format("15:04:05"), e.Symbol,
			e.BidPrice, e.BidSize, e.AskPrice, e.AskSize)
	case stream.BarEvent:
		fmt.Printf("[%s] bar %s: o %.2f h %.2f l %.2f c %.2f v %d\n",
			e.Timestamp.Local().Format("15:04:05"), e.Symbol,
			e.Open, e.High, e.Low, e.Close, e.Volume)
	case stream.SubscriptionEvent:
		fmt.Printf("subscribed: trades=%v quotes=%v bars=%v\n", e.Trades, e.Quotes, e.Bars)
	case stream.ControlEvent:
		fmt.Printf("server: %s\n", e.Msg)
	case stream.ErrorEvent:
		fmt.Printf("server error %d: %s\n", e.Code, e.Msg)
	case stream.FrameError:
		fmt.Printf("undecodable frame: %v\n", e.Err)
	}
}
