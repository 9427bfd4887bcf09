package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"marketwire/internal/client"
)

// cursorField is the conventional key carrying the next-page cursor in list
// responses.
const cursorField = "next_page_token"

func newFetchCommand(configPath *string) *cobra.Command {
	var path string
	var query []string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch every record of a cursor-paginated list endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				return fmt.Errorf("--path is required")
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("cannot load config: %w", err)
			}
			logger := newLogger()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			baseQuery := url.Values{}
			for _, kv := range query {
				key, value, found := strings.Cut(kv, "=")
				if !found {
					return fmt.Errorf("malformed query parameter %q, want key=value", kv)
				}
				baseQuery.Add(key, value)
			}

			transport := client.NewHTTPTransport(cfg.REST.BaseURL, client.Credentials{
				"APCA-API-KEY-ID":     cfg.Key,
				"APCA-API-SECRET-KEY": cfg.Secret,
			}, cfg.REST.Timeout)
			executor := client.NewExecutor(transport,
				client.ExponentialRetry(cfg.REST.Retry.InitialInterval, cfg.REST.Retry.MaxInterval, cfg.REST.Retry.MaxAttempts),
				logger)

			pager := client.NewPager(func(ctx context.Context, token string) (client.Page[json.RawMessage], error) {
				return fetchPage(ctx, executor, path, baseQuery, token)
			})

			count := 0
			records, err := pager.Collect(ctx)
			for _, rec := range records {
				fmt.Println(string(rec))
				count++
			}
			if err != nil {
				return fmt.Errorf("pagination stopped after %d records: %w", count, err)
			}
			logger.Info("fetch complete", "path", path, "records", count)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "endpoint path, e.g. /v2/stocks/AAPL/trades")
	cmd.Flags().StringArrayVar(&query, "query", nil, "query parameter as key=value (repeatable)")

	return cmd
}

// fetchPage retrieves one page and splits the envelope generically: the
// cursor field supplies the next token, and the single array-valued field
// supplies the records. This keeps the command usable against any vendor's
// list endpoints.
func fetchPage(ctx context.Context, executor *client.Executor, path string, base url.Values, token string) (client.Page[json.RawMessage], error) {
	q := url.Values{}
	for key, values := range base {
		q[key] = values
	}
	if token != "" {
		q.Set("page_token", token)
	}

	envelope, err := client.Execute[map[string]json.RawMessage](ctx, executor, &client.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  q,
	})
	if err != nil {
		return client.Page[json.RawMessage]{}, err
	}

	var page client.Page[json.RawMessage]
	for key, raw := range envelope {
		if key == cursorField {
			var next *string
			if err := json.Unmarshal(raw, &next); err == nil && next != nil {
				page.NextToken = *next
			}
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			page.Items = items
		}
	}
	return page, nil
}
