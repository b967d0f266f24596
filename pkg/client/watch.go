package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"market-cutover/pkg/model"
)

// Watch streams step events from the controller until ctx ends or the
// connection drops.
func (c *Client) Watch(ctx context.Context, fn func(model.StepEvent)) error {
	u, err := url.Parse(c.base)
	if err != nil {
		return err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	u.Scheme = scheme
	u.Path = "/ws/events"
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	dialer := websocket.DefaultDialer
	if t, ok := c.http.Transport.(*http.Transport); ok && t.TLSClientConfig != nil {
		dialer = &websocket.Dialer{TLSClientConfig: t.TLSClientConfig, HandshakeTimeout: websocket.DefaultDialer.HandshakeTimeout}
	}
	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return fmt.Errorf("ws dial %s (status %d): %w", u.String(), status, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	for {
		var msg struct {
			Type    string          `json:"type"`
			Payload model.StepEvent `json:"payload"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if msg.Type == "step_event" {
			fn(msg.Payload)
		}
	}
}
