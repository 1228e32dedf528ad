package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/sheetchart-api/internal/dto"
	"github.com/noah-isme/sheetchart-api/internal/middleware"
	"github.com/noah-isme/sheetchart-api/internal/models"
	"github.com/noah-isme/sheetchart-api/internal/observability"
	"github.com/noah-isme/sheetchart-api/internal/repository"
)

// AdminRoom is the broadcast group for verified administrator sessions.
const AdminRoom = "admin"

const (
	realtimeSendBufferSize = 32
	realtimePingInterval   = 30 * time.Second
)

// ErrJoinAdminForbidden indicates a join-admin handshake that the verified credential does not back.
var ErrJoinAdminForbidden = errors.New("join-admin not permitted for this connection")

// RealtimeConnectionOptions carries the identity verified during the HTTP upgrade.
// A zero UserID means the connection presented no valid token.
type RealtimeConnectionOptions struct {
	UserID        uint
	Role          string
	CorrelationID string
	Context       context.Context
}

// RoleResolver looks up the role currently stored for a user.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID uint) (string, error)
}

// RealtimeService manages websocket sessions and room-scoped event delivery.
type RealtimeService interface {
	ServeConnection(conn *websocket.Conn, opts RealtimeConnectionOptions)
	Publish(ctx context.Context, event string, payload interface{}) error
	Start(ctx context.Context)
	RoomSize(room string) int
}

// frameConn is the subset of a websocket connection the hub drives.
type frameConn interface {
	ReadJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type realtimeService struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	roles        RoleResolver
	validator    *validator.Validate
	logger       zerolog.Logger
	hub          *realtimeHub
	nodeID       string
}

type realtimeHub struct {
	mu    sync.RWMutex
	rooms map[string]map[*realtimeClient]struct{}
	log   zerolog.Logger
}

type realtimeClient struct {
	conn    frameConn
	send    chan []byte
	options RealtimeConnectionOptions
	service *realtimeService
	rooms   map[string]struct{}
	closed  chan struct{}
	once    sync.Once
}

type realtimeEnvelope struct {
	Source string            `json:"source"`
	Room   string            `json:"room"`
	Frame  dto.RealtimeFrame `json:"frame"`
	SentAt time.Time         `json:"sent_at"`
}

// NewRealtimeService creates the realtime hub. Redis and NATS are optional
// and only used to fan events out to other API nodes.
func NewRealtimeService(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, roles RoleResolver, validate *validator.Validate, logger zerolog.Logger) RealtimeService {
	if validate == nil {
		validate = validator.New()
	}

	redisChannel := ""
	natsSubject := ""
	if channelBase != "" {
		redisChannel = channelBase
		natsSubject = strings.ReplaceAll(channelBase, ":", ".")
	}

	return &realtimeService{
		redis:        redisClient,
		redisChannel: redisChannel,
		nats:         natsConn,
		natsSubject:  natsSubject,
		roles:        roles,
		validator:    validate,
		logger:       logger.With().Str("component", "realtime_service").Logger(),
		hub: &realtimeHub{
			rooms: make(map[string]map[*realtimeClient]struct{}),
			log:   logger.With().Str("component", "realtime_hub").Logger(),
		},
		nodeID: uuid.NewString(),
	}
}

// NewUserRoleResolver resolves roles from the user table. A missing user resolves to "".
func NewUserRoleResolver(users repository.UserRepository) RoleResolver {
	return userRoleResolver{users: users}
}

type userRoleResolver struct {
	users repository.UserRepository
}

func (r userRoleResolver) ResolveRole(ctx context.Context, userID uint) (string, error) {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return user.Role, nil
}

func (s *realtimeService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		s.consumeNATS(ctx)
	}
}

func (s *realtimeService) ServeConnection(conn *websocket.Conn, opts RealtimeConnectionOptions) {
	s.serve(conn, opts)
}

func (s *realtimeService) serve(conn frameConn, opts RealtimeConnectionOptions) {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.CorrelationID == "" {
		opts.CorrelationID = middleware.CorrelationIDFromContext(opts.Context)
	}

	client := &realtimeClient{
		conn:    conn,
		send:    make(chan []byte, realtimeSendBufferSize),
		options: opts,
		service: s,
		rooms:   make(map[string]struct{}),
		closed:  make(chan struct{}),
	}

	observability.RealtimeConnectionsTotal().Inc()

	go client.writer()
	client.reader()
}

func (s *realtimeService) RoomSize(room string) int {
	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()
	return len(s.hub.rooms[room])
}

func (s *realtimeService) Publish(ctx context.Context, event string, payload interface{}) error {
	frame, err := dto.NewRealtimeFrame(event, payload)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	s.hub.broadcast(AdminRoom, raw)

	return s.fanOut(ctx, AdminRoom, frame)
}

func (s *realtimeService) fanOut(ctx context.Context, room string, frame dto.RealtimeFrame) error {
	if (s.redis == nil || s.redisChannel == "") && (s.nats == nil || s.natsSubject == "") {
		return nil
	}

	payload, err := json.Marshal(realtimeEnvelope{
		Source: s.nodeID,
		Room:   room,
		Frame:  frame,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *realtimeService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() {
		_ = pubsub.Close()
	}()
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			s.logger.Error().Err(err).Msg("realtime redis subscription closed")
			return
		}
		s.handleEnvelope([]byte(msg.Payload))
	}
}

// Each node must receive every event, so no queue group is used.
func (s *realtimeService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEnvelope(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats realtime subject")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain realtime nats subscription")
		}
	}()
}

func (s *realtimeService) handleEnvelope(data []byte) {
	var envelope realtimeEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid realtime envelope")
		return
	}

	if envelope.Source == s.nodeID {
		return
	}

	raw, err := json.Marshal(envelope.Frame)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to re-encode realtime frame")
		return
	}

	s.hub.broadcast(envelope.Room, raw)
}

func (s *realtimeService) handleFrame(client *realtimeClient, frame dto.RealtimeFrame) {
	switch frame.Event {
	case dto.EventJoinAdmin:
		var request dto.JoinAdminRequest
		if err := json.Unmarshal(frame.Payload, &request); err != nil {
			s.logger.Warn().Err(err).Msg("invalid join-admin payload")
			return
		}
		request.ID = strings.TrimSpace(request.ID)
		if err := s.validator.Struct(request); err != nil {
			s.logger.Warn().Err(err).Msg("invalid join-admin payload")
			return
		}

		if err := s.authoriseAdmin(client.options, request); err != nil {
			s.logger.Warn().
				Err(err).
				Str("claimed_id", request.ID).
				Str("claimed_role", request.Role).
				Uint("user_id", client.options.UserID).
				Str("correlation_id", client.options.CorrelationID).
				Msg("join-admin rejected")
			return
		}

		s.hub.join(AdminRoom, client)
	default:
		s.logger.Debug().Str("event", frame.Event).Msg("ignoring unsupported realtime event")
	}
}

// authoriseAdmin accepts the handshake only when the verified token, the
// claimed identity and the stored role all agree on an admin.
func (s *realtimeService) authoriseAdmin(opts RealtimeConnectionOptions, request dto.JoinAdminRequest) error {
	if !strings.EqualFold(strings.TrimSpace(request.Role), models.UserRoleAdmin) {
		return ErrJoinAdminForbidden
	}
	if opts.UserID == 0 || !strings.EqualFold(opts.Role, models.UserRoleAdmin) {
		return ErrJoinAdminForbidden
	}
	if request.ID != dto.FormatID(opts.UserID) {
		return ErrJoinAdminForbidden
	}

	if s.roles != nil {
		role, err := s.roles.ResolveRole(opts.Context, opts.UserID)
		if err != nil {
			return err
		}
		if !strings.EqualFold(role, models.UserRoleAdmin) {
			return ErrJoinAdminForbidden
		}
	}

	return nil
}

func (h *realtimeHub) join(room string, client *realtimeClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-client.closed:
		return
	default:
	}
	if _, ok := client.rooms[room]; ok {
		return
	}

	if _, exists := h.rooms[room]; !exists {
		h.rooms[room] = make(map[*realtimeClient]struct{})
	}
	h.rooms[room][client] = struct{}{}
	client.rooms[room] = struct{}{}

	if room == AdminRoom {
		observability.AdminRealtimeSessions().Inc()
	}
	h.log.Debug().Str("room", room).Uint("user_id", client.options.UserID).Msg("realtime client joined room")
}

func (h *realtimeHub) leaveAll(client *realtimeClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range client.rooms {
		if clients, ok := h.rooms[room]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.rooms, room)
			}
		}
		if room == AdminRoom {
			observability.AdminRealtimeSessions().Dec()
		}
		delete(client.rooms, room)
		h.log.Debug().Str("room", room).Uint("user_id", client.options.UserID).Msg("realtime client left room")
	}
}

func (h *realtimeHub) broadcast(room string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		select {
		case client.send <- message:
		default:
			h.log.Warn().Str("room", room).Uint("user_id", client.options.UserID).Msg("dropping realtime event for slow client")
		}
	}
}

func (c *realtimeClient) reader() {
	defer c.close()

	for {
		var frame dto.RealtimeFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			c.service.logger.Debug().Err(err).Msg("realtime read loop ended")
			return
		}

		select {
		case <-c.closed:
			return
		default:
		}

		c.service.handleFrame(c, frame)
	}
}

func (c *realtimeClient) writer() {
	defer c.close()

	ticker := time.NewTicker(realtimePingInterval)
	defer ticker.Stop()

	for {
		select {
		case message := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.service.logger.Debug().Err(err).Msg("realtime write loop terminated")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.service.logger.Debug().Err(err).Msg("realtime ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *realtimeClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.service.hub.leaveAll(c)
		_ = c.conn.Close()
	})
}
