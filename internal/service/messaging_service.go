package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/internal/models"
	"github.com/park-academy/park-api/internal/observability"
	"github.com/park-academy/park-api/internal/repository"
)

const threadSendBufferSize = 8

var (
	// ErrNotParticipant indicates the caller does not belong to the thread.
	ErrNotParticipant = errors.New("user is not a participant of the thread")
	// ErrNotSender indicates a delete-for-everyone attempt by somebody other
	// than the original sender. This check lives here, not in the UI.
	ErrNotSender = errors.New("only the sender may delete a message for everyone")
	// ErrMessageNotFound indicates the message does not exist in the thread.
	ErrMessageNotFound = errors.New("message not found in thread")
	// ErrEmptyMessage indicates the body was empty after sanitization.
	ErrEmptyMessage = errors.New("message body empty after sanitization")
)

// ThreadRef addresses a thread of either kind.
type ThreadRef struct {
	Kind models.ThreadKind
	ID   string
}

func (r ThreadRef) key() string {
	return string(r.Kind) + ":" + r.ID
}

// StreamOptions wraps metadata extracted during the websocket upgrade.
type StreamOptions struct {
	UserID        string
	Thread        ThreadRef
	CorrelationID string
	Context       context.Context
}

// MessagingService owns message lifecycle and live thread subscriptions.
// Subscribers receive the full visible message list on every change; the
// list is recomputed per viewer because visibility is viewer-relative.
type MessagingService interface {
	Send(ctx context.Context, ref ThreadRef, senderID, body string) (dto.RenderedMessage, error)
	History(ctx context.Context, ref ThreadRef, viewer string) (dto.ThreadSnapshot, error)
	MarkThreadRead(ctx context.Context, ref ThreadRef, viewer string) (int, error)
	MarkRead(ctx context.Context, ref ThreadRef, messageID uint, viewer string) error
	DeleteForMe(ctx context.Context, ref ThreadRef, messageID uint, viewer string) error
	DeleteForEveryone(ctx context.Context, ref ThreadRef, messageID uint, caller string) error
	ServeConnection(conn *websocket.Conn, opts StreamOptions)
	Start(ctx context.Context)
}

type messagingService struct {
	conversations repository.ConversationRepository
	groups        repository.GroupRepository
	messages      repository.MessageRepository
	notifications NotificationPublisher
	redis         *redis.Client
	redisChannel  string
	nats          *nats.Conn
	natsSubject   string
	logger        zerolog.Logger
	tracer        trace.Tracer
	sanitizer     *bluemonday.Policy
	hub           *threadHub
	nodeID        string
}

// threadHub tracks the open websocket subscriptions per thread.
type threadHub struct {
	mu      sync.RWMutex
	threads map[string]map[*threadClient]struct{}
	log     zerolog.Logger
}

type threadClient struct {
	conn    *websocket.Conn
	send    chan dto.ThreadSnapshot
	options StreamOptions
	service *messagingService
	closed  chan struct{}
	once    sync.Once
}

type threadEvent struct {
	Source     string            `json:"source"`
	ThreadKind models.ThreadKind `json:"thread_kind"`
	ThreadID   string            `json:"thread_id"`
	SentAt     time.Time         `json:"sent_at"`
}

type streamCommand struct {
	Action string `json:"action"`
	Body   string `json:"body,omitempty"`
}

// NewMessagingService creates the messaging service instance.
func NewMessagingService(
	conversations repository.ConversationRepository,
	groups repository.GroupRepository,
	messages repository.MessageRepository,
	notifications NotificationPublisher,
	redisClient *redis.Client,
	channelBase string,
	natsConn *nats.Conn,
	logger zerolog.Logger,
) MessagingService {
	sanitizer := bluemonday.StrictPolicy()

	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":threads"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".threads"
	}

	return &messagingService{
		conversations: conversations,
		groups:        groups,
		messages:      messages,
		notifications: notifications,
		redis:         redisClient,
		redisChannel:  channel,
		nats:          natsConn,
		natsSubject:   subject,
		logger:        logger.With().Str("component", "messaging_service").Logger(),
		tracer:        otel.Tracer("github.com/park-academy/park-api/internal/service/messaging"),
		sanitizer:     sanitizer,
		hub: &threadHub{
			threads: make(map[string]map[*threadClient]struct{}),
			log:     logger.With().Str("component", "thread_hub").Logger(),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *messagingService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

// thread loads the thread and returns its participant list. A missing thread
// surfaces as gorm.ErrRecordNotFound.
func (s *messagingService) thread(ctx context.Context, ref ThreadRef) ([]string, error) {
	switch ref.Kind {
	case models.ThreadKindPrivate:
		conversation, err := s.conversations.FindByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return conversation.Participants(), nil
	case models.ThreadKindGroup:
		group, err := s.groups.FindByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return group.Participants, nil
	default:
		return nil, gorm.ErrRecordNotFound
	}
}

func (s *messagingService) requireParticipant(ctx context.Context, ref ThreadRef, userID string) ([]string, error) {
	participants, err := s.thread(ctx, ref)
	if err != nil {
		return nil, err
	}
	for _, id := range participants {
		if id == userID {
			return participants, nil
		}
	}
	return nil, ErrNotParticipant
}

func (s *messagingService) Send(ctx context.Context, ref ThreadRef, senderID, body string) (dto.RenderedMessage, error) {
	participants, err := s.requireParticipant(ctx, ref, senderID)
	if err != nil {
		return dto.RenderedMessage{}, err
	}

	clean := strings.TrimSpace(s.sanitizer.Sanitize(body))
	if clean == "" {
		return dto.RenderedMessage{}, ErrEmptyMessage
	}

	spanCtx, span := s.tracer.Start(ctx, "messaging.send", trace.WithAttributes(
		attribute.String("thread.kind", string(ref.Kind)),
		attribute.String("thread.id", ref.ID),
		attribute.String("message.sender_id", senderID),
	))
	defer span.End()

	message := models.Message{
		ThreadKind: ref.Kind,
		ThreadID:   ref.ID,
		SenderID:   senderID,
		Body:       clean,
	}

	if err := s.messages.Create(spanCtx, &message); err != nil {
		span.RecordError(err)
		return dto.RenderedMessage{}, err
	}

	// Summary update is a second, non-transactional write; if it fails the
	// message still exists and the summary heals on the next send.
	if err := s.updateSummary(spanCtx, ref, message); err != nil {
		s.logger.Warn().Err(err).Str("thread_id", ref.ID).Msg("failed to update thread summary")
	}

	observability.MessagesSent().WithLabelValues(string(ref.Kind)).Inc()

	s.notifyRecipients(spanCtx, ref, senderID, participants)
	s.fanout(spanCtx, ref)

	rendered := VisibleMessages([]models.Message{message}, senderID)
	return rendered[0], nil
}

func (s *messagingService) updateSummary(ctx context.Context, ref ThreadRef, message models.Message) error {
	switch ref.Kind {
	case models.ThreadKindPrivate:
		return s.conversations.UpdateSummary(ctx, ref.ID, message.Body, message.SenderID, message.CreatedAt)
	case models.ThreadKindGroup:
		return s.groups.UpdateSummary(ctx, ref.ID, message.Body, message.SenderID, message.CreatedAt)
	}
	return nil
}

func (s *messagingService) notifyRecipients(ctx context.Context, ref ThreadRef, senderID string, participants []string) {
	if s.notifications == nil {
		return
	}

	for _, userID := range participants {
		if userID == senderID {
			continue
		}
		_, err := s.notifications.Publish(ctx, dto.NotificationCreateRequest{
			UserID:  userID,
			Type:    "new_message",
			Message: fmt.Sprintf("New message in %s thread %s", ref.Kind, ref.ID),
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to publish message notification")
		}
	}
}

func (s *messagingService) History(ctx context.Context, ref ThreadRef, viewer string) (dto.ThreadSnapshot, error) {
	if _, err := s.requireParticipant(ctx, ref, viewer); err != nil {
		return dto.ThreadSnapshot{}, err
	}

	messages, err := s.messages.ListByThread(ctx, ref.Kind, ref.ID)
	if err != nil {
		return dto.ThreadSnapshot{}, err
	}

	return NewThreadSnapshot(ref.Kind, ref.ID, messages, viewer), nil
}

// MarkThreadRead records a receipt for every message the viewer can see but
// has not read yet. Redundant invocations are cheap: the guard consults the
// data already loaded, and the repository add is idempotent anyway.
func (s *messagingService) MarkThreadRead(ctx context.Context, ref ThreadRef, viewer string) (int, error) {
	if _, err := s.requireParticipant(ctx, ref, viewer); err != nil {
		return 0, err
	}

	messages, err := s.messages.ListByThread(ctx, ref.Kind, ref.ID)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, id := range UnreadMessageIDs(messages, viewer) {
		_, changed, err := s.messages.AddRead(ctx, id, viewer)
		if err != nil {
			return marked, err
		}
		if changed {
			marked++
			observability.ReadReceipts().Inc()
		}
	}

	if marked > 0 {
		s.fanout(ctx, ref)
	}

	return marked, nil
}

func (s *messagingService) MarkRead(ctx context.Context, ref ThreadRef, messageID uint, viewer string) error {
	if _, err := s.requireParticipant(ctx, ref, viewer); err != nil {
		return err
	}

	message, err := s.messageInThread(ctx, ref, messageID)
	if err != nil {
		return err
	}

	// Self-reads carry no delivery meaning; skip the write.
	if message.SenderID == viewer || message.ReadByUser(viewer) {
		return nil
	}

	_, changed, err := s.messages.AddRead(ctx, messageID, viewer)
	if err != nil {
		return err
	}

	if changed {
		observability.ReadReceipts().Inc()
		s.fanout(ctx, ref)
	}

	return nil
}

func (s *messagingService) DeleteForMe(ctx context.Context, ref ThreadRef, messageID uint, viewer string) error {
	if _, err := s.requireParticipant(ctx, ref, viewer); err != nil {
		return err
	}

	if _, err := s.messageInThread(ctx, ref, messageID); err != nil {
		return err
	}

	_, changed, err := s.messages.AddDeletedFor(ctx, messageID, viewer)
	if err != nil {
		return err
	}

	if changed {
		observability.MessageDeletes().WithLabelValues("self").Inc()
		s.fanout(ctx, ref)
	}

	return nil
}

func (s *messagingService) DeleteForEveryone(ctx context.Context, ref ThreadRef, messageID uint, caller string) error {
	if _, err := s.requireParticipant(ctx, ref, caller); err != nil {
		return err
	}

	message, err := s.messageInThread(ctx, ref, messageID)
	if err != nil {
		return err
	}

	if message.SenderID != caller {
		return ErrNotSender
	}

	if message.DeletedForEveryone {
		return nil
	}

	if _, err := s.messages.MarkDeletedForEveryone(ctx, messageID); err != nil {
		return err
	}

	observability.MessageDeletes().WithLabelValues("everyone").Inc()
	s.fanout(ctx, ref)

	return nil
}

func (s *messagingService) messageInThread(ctx context.Context, ref ThreadRef, messageID uint) (models.Message, error) {
	message, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Message{}, ErrMessageNotFound
		}
		return models.Message{}, err
	}

	if message.ThreadKind != ref.Kind || message.ThreadID != ref.ID {
		return models.Message{}, ErrMessageNotFound
	}

	return message, nil
}

// ServeConnection runs one websocket subscription until the peer disconnects.
// The client receives an initial full snapshot, then a fresh snapshot after
// every mutation. Teardown always unregisters the client from the hub.
func (s *messagingService) ServeConnection(conn *websocket.Conn, opts StreamOptions) {
	baseCtx := opts.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	opts.Context = baseCtx

	client := &threadClient{
		conn:    conn,
		send:    make(chan dto.ThreadSnapshot, threadSendBufferSize),
		options: opts,
		service: s,
		closed:  make(chan struct{}),
	}

	s.hub.register(client)
	observability.MessagingConnectionsTotal().Inc()
	observability.MessagingConnectionsActive().Inc()

	if snapshot, err := s.History(baseCtx, opts.Thread, opts.UserID); err == nil {
		select {
		case client.send <- snapshot:
		default:
		}
	} else {
		s.logger.Warn().Err(err).Str("thread_id", opts.Thread.ID).Msg("failed to load initial snapshot")
	}

	go client.writer()
	client.reader()
}

// fanout re-emits the thread snapshot to local subscribers and tells every
// other node to do the same.
func (s *messagingService) fanout(ctx context.Context, ref ThreadRef) {
	s.broadcastThread(ref)

	event := threadEvent{
		Source:     s.nodeID,
		ThreadKind: ref.Kind,
		ThreadID:   ref.ID,
		SentAt:     time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal thread event")
		return
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish thread event to redis")
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish thread event to nats")
		}
	}
}

// broadcastThread loads the thread once and pushes a per-viewer snapshot to
// each subscriber. Slow consumers drop snapshots; the next mutation delivers
// a complete state again, so nothing is lost for good.
func (s *messagingService) broadcastThread(ref ThreadRef) {
	clients := s.hub.clients(ref.key())
	if len(clients) == 0 {
		return
	}

	messages, err := s.messages.ListByThread(context.Background(), ref.Kind, ref.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("thread_id", ref.ID).Msg("failed to load thread for broadcast")
		return
	}

	for _, client := range clients {
		snapshot := NewThreadSnapshot(ref.Kind, ref.ID, messages, client.options.UserID)
		select {
		case client.send <- snapshot:
			observability.SnapshotsEmitted().Inc()
		default:
			s.hub.log.Warn().
				Str("thread", ref.key()).
				Str("user_id", client.options.UserID).
				Msg("dropping snapshot for slow subscriber")
		}
	}
}

func (s *messagingService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() {
		_ = pubsub.Close()
	}()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("thread redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *messagingService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "park-threads", func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats thread subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain thread nats subscription")
		}
	}()
}

func (s *messagingService) handleEvent(data []byte) {
	var event threadEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid thread event")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	s.broadcastThread(ThreadRef{Kind: event.ThreadKind, ID: event.ThreadID})
}

func (h *threadHub) register(client *threadClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := client.options.Thread.key()
	if _, exists := h.threads[key]; !exists {
		h.threads[key] = make(map[*threadClient]struct{})
	}
	h.threads[key][client] = struct{}{}
	h.log.Debug().Str("thread", key).Str("user_id", client.options.UserID).Msg("thread subscriber connected")
}

func (h *threadHub) unregister(client *threadClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := client.options.Thread.key()
	if clients, ok := h.threads[key]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.threads, key)
		}
	}
	h.log.Debug().Str("thread", key).Str("user_id", client.options.UserID).Msg("thread subscriber disconnected")
}

func (h *threadHub) clients(key string) []*threadClient {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*threadClient, 0, len(h.threads[key]))
	for client := range h.threads[key] {
		clients = append(clients, client)
	}
	return clients
}

func (c *threadClient) reader() {
	defer c.close()

	ctx := c.options.Context
	ref := c.options.Thread

	for {
		var command streamCommand
		if err := c.conn.ReadJSON(&command); err != nil {
			c.service.logger.Debug().Err(err).Msg("thread read loop ended")
			return
		}

		switch command.Action {
		case "send":
			if _, err := c.service.Send(ctx, ref, c.options.UserID, command.Body); err != nil {
				c.service.logger.Warn().Err(err).Msg("failed to send message from stream")
			}
		case "mark_read":
			if _, err := c.service.MarkThreadRead(ctx, ref, c.options.UserID); err != nil {
				c.service.logger.Warn().Err(err).Msg("failed to mark thread read from stream")
			}
		default:
			c.service.logger.Debug().Str("action", command.Action).Msg("unknown stream command")
		}
	}
}

func (c *threadClient) writer() {
	defer c.close()

	for {
		select {
		case snapshot, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(snapshot); err != nil {
				c.service.logger.Debug().Err(err).Msg("thread write loop terminated")
				return
			}
		case <-time.After(30 * time.Second):
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.service.logger.Debug().Err(err).Msg("thread ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *threadClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.service.hub.unregister(c)
		observability.MessagingConnectionsActive().Dec()
		_ = c.conn.Close()
	})
}
