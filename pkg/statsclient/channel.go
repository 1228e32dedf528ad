package statsclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sheetchart-api/internal/dto"
)

// EventKind distinguishes push channel events.
type EventKind int

const (
	// EventConnected fires once the handshake has been sent on a new connection.
	EventConnected EventKind = iota + 1
	// EventDisconnected fires when an established connection drops.
	EventDisconnected
	// EventSnapshot carries a pushed stats-update.
	EventSnapshot
)

// Event is emitted by a PushChannel.
type Event struct {
	Kind     EventKind
	Snapshot dto.StatsSnapshot
}

// PushChannel delivers lifecycle and snapshot events until ctx is cancelled.
type PushChannel interface {
	Run(ctx context.Context, events chan<- Event)
}

const defaultReconnectDelay = 5 * time.Second

// ErrNoIdentity is returned when the channel has no identity to join the admin room with.
var ErrNoIdentity = errors.New("push channel needs an identity to join the admin room")

// WebsocketChannel subscribes to the API's realtime endpoint, joins the admin
// room and redials after any drop.
type WebsocketChannel struct {
	url            string
	token          string
	identity       Identity
	dialer         *websocket.Dialer
	clock          clockwork.Clock
	reconnectDelay time.Duration
	logger         zerolog.Logger
}

// NewWebsocketChannel builds a channel for wsURL. The token is passed as a
// query parameter because the upgrade happens before any frame is exchanged.
func NewWebsocketChannel(wsURL, token string, identity Identity, clock clockwork.Clock, logger zerolog.Logger) *WebsocketChannel {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &WebsocketChannel{
		url:            wsURL,
		token:          token,
		identity:       identity,
		dialer:         websocket.DefaultDialer,
		clock:          clock,
		reconnectDelay: defaultReconnectDelay,
		logger:         logger.With().Str("component", "stats_push_channel").Logger(),
	}
}

// SetReconnectDelay overrides the pause between dial attempts.
func (c *WebsocketChannel) SetReconnectDelay(delay time.Duration) {
	if delay > 0 {
		c.reconnectDelay = delay
	}
}

// Run implements PushChannel.
func (c *WebsocketChannel) Run(ctx context.Context, events chan<- Event) {
	for {
		if err := c.session(ctx, events); err != nil && ctx.Err() == nil {
			c.logger.Warn().Err(err).Msg("push channel unavailable")
		}

		select {
		case <-ctx.Done():
			return
		case <-c.clock.After(c.reconnectDelay):
		}
	}
}

func (c *WebsocketChannel) session(ctx context.Context, events chan<- Event) error {
	// Without join-admin no stats-update ever arrives, so never report Connected.
	if c.identity.ID == "" {
		return ErrNoIdentity
	}

	target, err := c.dialURL()
	if err != nil {
		return err
	}

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := c.dialer.DialContext(ctx, target, header)
	if err != nil {
		return err
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()
	defer conn.Close()

	frame, err := dto.NewRealtimeFrame(dto.EventJoinAdmin, dto.JoinAdminRequest{ID: c.identity.ID, Role: c.identity.Role})
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(frame); err != nil {
		return err
	}

	if !emit(ctx, events, Event{Kind: EventConnected}) {
		return nil
	}
	c.logger.Info().Str("url", c.url).Msg("push channel connected")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			emit(ctx, events, Event{Kind: EventDisconnected})
			return err
		}

		var frame dto.RealtimeFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.logger.Debug().Err(err).Msg("ignoring malformed frame")
			continue
		}
		if frame.Event != dto.EventStatsUpdate {
			continue
		}

		var payload dto.StatsUpdatePayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			c.logger.Warn().Err(err).Msg("invalid stats-update payload")
			continue
		}
		if !emit(ctx, events, Event{Kind: EventSnapshot, Snapshot: payload.Data}) {
			return nil
		}
	}
}

func (c *WebsocketChannel) dialURL() (string, error) {
	parsed, err := url.Parse(c.url)
	if err != nil {
		return "", err
	}
	if c.token != "" {
		query := parsed.Query()
		query.Set("token", c.token)
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}

func emit(ctx context.Context, events chan<- Event, event Event) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
