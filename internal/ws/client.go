package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"grocermart/internal/model"
)

const (
	reconnectDelay = 3 * time.Second
	maxReconnects  = 5
)

// Client is a reconnecting consumer of the live channel. On an
// unexpected close it retries with a fixed delay up to maxReconnects
// attempts; a successful connect resets the counter. After exhausting
// retries it gives up rather than retrying silently forever.
type Client struct {
	url    string
	token  string
	logger *zap.Logger
}

func NewClient(url, token string, logger *zap.Logger) *Client {
	return &Client{url: url, token: token, logger: logger}
}

// Run connects and invokes handle for every received event until ctx is
// cancelled or the retry budget is exhausted.
func (c *Client) Run(ctx context.Context, handle func(model.Event)) error {
	attempts := 0
	for {
		if err := c.readLoop(ctx, func() { attempts = 0 }, handle); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			attempts++
			if attempts > maxReconnects {
				return fmt.Errorf("giving up after %d reconnect attempts: %w", maxReconnects, err)
			}
			c.logger.Warn("live connection lost, reconnecting",
				zap.Int("attempt", attempts),
				zap.Error(err))

			select {
			case <-time.After(reconnectDelay):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		return nil
	}
}

func (c *Client) readLoop(ctx context.Context, connected func(), handle func(model.Event)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url+"?token="+c.token, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	defer conn.Close()

	connected()
	c.logger.Info("live connection established", zap.String("url", c.url))

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var event model.Event
		if err := json.Unmarshal(data, &event); err != nil || event.Order == nil {
			c.logger.Warn("skipping malformed event", zap.Error(err))
			continue
		}
		handle(event)
	}
}
