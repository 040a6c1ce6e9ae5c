package postgrest

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/framez/framez/app"
	"github.com/framez/framez/infra/auth"
)

const (
	heartbeatInterval = 30 * time.Second
	maxReconnectWait  = 30 * time.Second
)

// realtimeDialer establishes change-event subscriptions over the realtime
// websocket. Each subscription owns one connection and speaks the phoenix
// channel protocol: join a realtime:public:{table} topic, keep the socket
// alive with heartbeats, and surface postgres_changes frames as events.
// Reconnection with backoff happens here; subscribers never see the gap.
type realtimeDialer struct {
	wsURL  string
	apiKey string
	tokens auth.TokenProvider
}

func newRealtimeDialer(wsURL, apiKey string, tokens auth.TokenProvider) *realtimeDialer {
	return &realtimeDialer{wsURL: wsURL, apiKey: apiKey, tokens: tokens}
}

type phoenixMsg struct {
	Topic   string         `json:"topic"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
	Ref     string         `json:"ref"`
}

type realtimeSub struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *realtimeSub) Close() error {
	s.cancel()
	<-s.done
	return nil
}

func (d *realtimeDialer) subscribe(ctx context.Context, table string, filter app.Filter, handler func(app.Event)) (app.Subscription, error) {
	connURL, err := d.connectURL()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &realtimeSub{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		wait := time.Second
		for {
			err := d.runConn(ctx, connURL, table, filter, handler)
			if ctx.Err() != nil {
				return
			}
			slog.Warn("realtime connection lost, reconnecting",
				"table", table, "wait", wait, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			if wait *= 2; wait > maxReconnectWait {
				wait = maxReconnectWait
			}
		}
	}()

	return sub, nil
}

func (d *realtimeDialer) connectURL() (string, error) {
	u, err := url.Parse(d.wsURL)
	if err != nil {
		return "", fmt.Errorf("invalid realtime url: %w", err)
	}
	q := u.Query()
	q.Set("apikey", d.apiKey)
	q.Set("vsn", "1.0.0")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// runConn drives one websocket connection until it fails or ctx ends.
func (d *realtimeDialer) runConn(ctx context.Context, connURL, table string, filter app.Filter, handler func(app.Event)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, connURL, nil)
	if err != nil {
		return fmt.Errorf("dialing realtime: %w", err)
	}
	defer conn.Close()

	var writeMu sync.Mutex
	writeJSON := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(v)
	}

	token, err := d.tokens.AccessToken()
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	change := map[string]any{
		"event":  "*",
		"schema": "public",
		"table":  table,
	}
	if f := filterClause(filter); f != "" {
		change["filter"] = f
	}
	join := phoenixMsg{
		Topic: "realtime:public:" + table,
		Event: "phx_join",
		Payload: map[string]any{
			"access_token": token,
			"config": map[string]any{
				"postgres_changes": []any{change},
			},
		},
		Ref: "1",
	}
	if err := writeJSON(join); err != nil {
		return fmt.Errorf("joining channel: %w", err)
	}

	// Heartbeats keep the socket open; the server drops silent clients.
	hbCtx, stopHB := context.WithCancel(ctx)
	defer stopHB()
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		ref := 2
		for {
			select {
			case <-hbCtx.Done():
				return
			case <-ticker.C:
				hb := phoenixMsg{Topic: "phoenix", Event: "heartbeat", Payload: map[string]any{}, Ref: strconv.Itoa(ref)}
				if err := writeJSON(hb); err != nil {
					conn.Close()
					return
				}
				ref++
			}
		}
	}()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var msg phoenixMsg
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("reading frame: %w", err)
		}
		if msg.Event != "postgres_changes" {
			continue
		}
		ev, ok := decodeChange(table, msg.Payload)
		if !ok {
			continue
		}
		handler(ev)
	}
}

func decodeChange(table string, payload map[string]any) (app.Event, bool) {
	data, ok := payload["data"].(map[string]any)
	if !ok {
		return app.Event{}, false
	}
	typ, _ := data["type"].(string)
	if typ == "" {
		return app.Event{}, false
	}

	row, _ := data["record"].(map[string]any)
	if row == nil {
		// Deletes only carry the old record.
		row, _ = data["old_record"].(map[string]any)
	}
	return app.Event{Table: table, Type: app.EventType(typ), Row: app.Row(row)}, true
}

// filterClause renders an equality filter for the realtime protocol, which
// supports a single column condition. The first column in key order wins.
func filterClause(filter app.Filter) string {
	if len(filter) == 0 {
		return ""
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("%s=eq.%v", keys[0], filter[keys[0]])
}
