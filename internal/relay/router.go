package relay

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"chat-relay/internal/models"
	"chat-relay/internal/observability"
	"chat-relay/internal/repositories"
)

const (
	DefaultHistoryLimit = 50

	queueSize = 1024
)

// Routing keys for events exported to the broker.
const (
	RoutingMessageCreated = "chat.message.created"
	RoutingPresenceJoined = "chat.presence.joined"
	RoutingPresenceLeft   = "chat.presence.left"
)

// Conn is the router's view of one live client connection.
type Conn interface {
	ID() string
	// Send queues an encoded frame. It reports false when the frame was dropped.
	Send(frame []byte) bool
	Close()
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

type Options struct {
	HistoryLimit  int
	TypingTimeout time.Duration
}

// Router owns the presence registry and the room membership index. Both are
// touched only from the goroutine running Run; gateway calls run on their own
// goroutines and hand their results back through the queue.
type Router struct {
	messages  repositories.MessageRepository
	profiles  repositories.ProfileRepository
	publisher Publisher
	opts      Options
	tracer    trace.Tracer

	queue    chan func()
	done     chan struct{}
	inflight sync.WaitGroup
	active   atomic.Int64

	ctx        context.Context
	conns      map[string]Conn
	presence   map[string]models.PresenceEntry
	order      []string
	membership map[string]string
	joinSeq    map[string]uint64
	// announced is the room whose members were last told this connection joined.
	announced map[string]string
	typing    map[string]*typingState
	typingGen uint64
}

// NewRouter builds a router. profiles and publisher may be nil.
func NewRouter(messages repositories.MessageRepository, profiles repositories.ProfileRepository, publisher Publisher, opts Options) *Router {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	return &Router{
		messages:   messages,
		profiles:   profiles,
		publisher:  publisher,
		opts:       opts,
		tracer:     otel.Tracer("chat-relay/relay"),
		queue:      make(chan func(), queueSize),
		done:       make(chan struct{}),
		ctx:        context.Background(),
		conns:      make(map[string]Conn),
		presence:   make(map[string]models.PresenceEntry),
		membership: make(map[string]string),
		joinSeq:    make(map[string]uint64),
		announced:  make(map[string]string),
		typing:     make(map[string]*typingState),
	}
}

// Run processes queued work until ctx is cancelled, then closes every connection.
func (r *Router) Run(ctx context.Context) {
	r.ctx = ctx
	log.Printf("relay: router started history_limit=%d typing_timeout=%s", r.opts.HistoryLimit, r.opts.TypingTimeout)
	for {
		select {
		case fn := <-r.queue:
			r.exec(fn)
		case <-ctx.Done():
			r.shutdown()
			return
		}
	}
}

// Connections reports the number of registered connections.
func (r *Router) Connections() int {
	return int(r.active.Load())
}

// Connect registers conn. Events dispatched for it afterwards are processed in order.
func (r *Router) Connect(conn Conn) {
	if !r.enqueue(func() { r.connect(conn) }) {
		conn.Close()
	}
}

// Disconnect removes the connection and notifies its room and everyone else.
func (r *Router) Disconnect(connID string) {
	r.enqueue(func() { r.disconnect(connID) })
}

// Dispatch decodes one inbound frame and queues it for connID.
func (r *Router) Dispatch(connID string, raw []byte) {
	frame, err := Decode(raw)
	if err != nil {
		log.Printf("relay: dropping frame conn=%s: %v", connID, err)
		return
	}
	r.enqueue(func() { r.handle(connID, frame) })
}

func (r *Router) enqueue(fn func()) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.queue <- fn:
		return true
	case <-r.done:
		return false
	}
}

func (r *Router) exec(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("relay: recovered panic in event loop: %v", rec)
		}
	}()
	fn()
}

// async runs work off the loop. The returned continuation, if any, is queued
// back onto the loop once work finishes.
func (r *Router) async(op string, work func(ctx context.Context) (func(), error)) {
	ctx := r.ctx
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()

		spanCtx, span := r.tracer.Start(ctx, "gateway."+op)
		next, err := work(spanCtx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			observability.IncGatewayError(op)
			log.Printf("relay: gateway %s failed: %v", op, err)
		}
		span.End()

		if next != nil {
			r.enqueue(next)
		}
	}()
}

func (r *Router) handle(connID string, frame Frame) {
	if _, ok := r.conns[connID]; !ok {
		return
	}

	switch frame.Event {
	case EventUserJoin:
		r.announce(connID, decodeIdentity(frame.Data))
	case EventJoinRoom:
		r.joinRoom(connID, decodeRoomID(frame.Data))
	case EventSendMessage:
		r.sendMessage(connID, decodeContent(frame.Data))
	case EventTypingStart:
		r.startTyping(connID)
	case EventTypingStop:
		r.stopTyping(connID)
	default:
		log.Printf("relay: ignoring unknown event %q conn=%s", frame.Event, connID)
		return
	}
	observability.IncWSEvent(frame.Event)
}

func (r *Router) connect(conn Conn) {
	r.conns[conn.ID()] = conn
	r.active.Store(int64(len(r.conns)))
}

func (r *Router) announce(connID string, id identityPayload) {
	entry := models.PresenceEntry{ID: id.UserID, Email: id.Email, SocketID: connID}
	if _, exists := r.presence[connID]; !exists {
		r.order = append(r.order, connID)
	}
	r.presence[connID] = entry
	observability.SetPresenceUsers(len(r.presence))

	r.broadcast(EventUsersUpdated, r.presenceList())

	r.async("touch_last_seen", func(ctx context.Context) (func(), error) {
		r.publish(ctx, RoutingPresenceJoined, entry)
		if r.profiles == nil || entry.ID == "" {
			return nil, nil
		}
		if err := r.profiles.TouchLastSeen(ctx, entry.ID, entry.Email); err != nil {
			return nil, fmt.Errorf("conn=%s user=%s: %w", connID, entry.ID, err)
		}
		return nil, nil
	})
}

func (r *Router) joinRoom(connID, roomID string) {
	if prev, inRoom := r.membership[connID]; inRoom && prev != roomID {
		r.switchRoom(connID, prev)
	}
	r.membership[connID] = roomID
	r.joinSeq[connID]++
	seq := r.joinSeq[connID]

	limit := r.opts.HistoryLimit
	r.async("recent_messages", func(ctx context.Context) (func(), error) {
		msgs, err := r.messages.RecentMessages(ctx, roomID, limit)
		if err != nil {
			err = fmt.Errorf("conn=%s room=%s: %w", connID, roomID, err)
		}
		return func() { r.finishJoin(connID, roomID, seq, msgs, err) }, err
	})
}

// finishJoin runs once the history read returns. Only the result of the
// connection's latest join is delivered. A failed read keeps the membership
// but sends neither history nor a join notice.
func (r *Router) finishJoin(connID, roomID string, seq uint64, msgs []models.Message, err error) {
	if r.joinSeq[connID] != seq || err != nil {
		return
	}

	if msgs == nil {
		msgs = []models.Message{}
	}
	r.sendTo(connID, EventRoomMessages, msgs)

	if entry, ok := r.presence[connID]; ok {
		r.toRoom(roomID, connID, EventUserJoinedRoom, entry.Ref())
		r.announced[connID] = roomID
	}
}

// switchRoom tells the previous room the connection moved on. The leave notice
// only goes out if that room was told about the join.
func (r *Router) switchRoom(connID, prev string) {
	wasTyping := r.clearTyping(connID)
	announced, ok := r.announced[connID]
	delete(r.announced, connID)

	entry, identified := r.presence[connID]
	if !identified {
		return
	}
	if wasTyping {
		r.toRoom(prev, connID, EventUserStoppedTyping, entry.Ref())
	}
	if ok && announced == prev {
		r.toRoom(prev, connID, EventUserLeftRoom, entry.Ref())
	}
}

func (r *Router) leaveRoom(connID, roomID string, entry models.PresenceEntry) {
	if r.clearTyping(connID) {
		r.toRoom(roomID, connID, EventUserStoppedTyping, entry.Ref())
	}
	r.toRoom(roomID, connID, EventUserLeftRoom, entry.Ref())
}

func (r *Router) sendMessage(connID string, content *string) {
	entry, roomID, ok := r.identifiedInRoom(connID)
	if !ok {
		r.sendTo(connID, EventError, ErrNotInRoom)
		return
	}

	r.async("send_message", func(ctx context.Context) (func(), error) {
		id, err := r.messages.CreateMessage(ctx, roomID, entry.ID, content)
		if err != nil {
			return func() { r.sendTo(connID, EventError, ErrSendFailed) },
				fmt.Errorf("insert conn=%s room=%s: %w", connID, roomID, err)
		}
		msg, err := r.messages.GetMessage(ctx, id)
		if err != nil {
			return func() { r.sendTo(connID, EventError, ErrSendFailed) },
				fmt.Errorf("read back message=%s conn=%s room=%s: %w", id, connID, roomID, err)
		}
		r.publish(ctx, RoutingMessageCreated, msg)
		return func() { r.toRoom(roomID, "", EventNewMessage, msg) }, nil
	})
}

func (r *Router) disconnect(connID string) {
	if _, ok := r.conns[connID]; !ok {
		return
	}

	entry, identified := r.presence[connID]
	roomID, inRoom := r.membership[connID]
	if identified && inRoom {
		r.leaveRoom(connID, roomID, entry)
	} else {
		r.clearTyping(connID)
	}

	delete(r.conns, connID)
	delete(r.presence, connID)
	delete(r.membership, connID)
	delete(r.joinSeq, connID)
	delete(r.announced, connID)
	r.order = lo.Without(r.order, connID)
	r.active.Store(int64(len(r.conns)))
	observability.SetPresenceUsers(len(r.presence))

	r.broadcast(EventUsersUpdated, r.presenceList())

	if !identified {
		return
	}
	r.async("mark_last_seen", func(ctx context.Context) (func(), error) {
		r.publish(ctx, RoutingPresenceLeft, entry)
		if r.profiles == nil || entry.ID == "" {
			return nil, nil
		}
		if err := r.profiles.MarkLastSeen(ctx, entry.ID); err != nil {
			return nil, fmt.Errorf("conn=%s user=%s: %w", connID, entry.ID, err)
		}
		return nil, nil
	})
}

func (r *Router) shutdown() {
	close(r.done)
	r.active.Store(0)
	for connID := range r.typing {
		r.clearTyping(connID)
	}
	for _, conn := range r.conns {
		conn.Close()
	}
	log.Printf("relay: router stopped connections=%d", len(r.conns))
}

func (r *Router) identifiedInRoom(connID string) (models.PresenceEntry, string, bool) {
	entry, identified := r.presence[connID]
	roomID, inRoom := r.membership[connID]
	return entry, roomID, identified && inRoom
}

func (r *Router) presenceList() []models.PresenceEntry {
	return lo.Map(r.order, func(connID string, _ int) models.PresenceEntry {
		return r.presence[connID]
	})
}

func (r *Router) sendTo(connID, event string, data any) {
	conn, ok := r.conns[connID]
	if !ok {
		return
	}
	frame, err := Encode(event, data)
	if err != nil {
		log.Printf("relay: %v", err)
		return
	}
	r.deliver(conn, event, frame)
}

// toRoom sends to every connection currently in roomID except the one named by except.
func (r *Router) toRoom(roomID, except, event string, data any) {
	frame, err := Encode(event, data)
	if err != nil {
		log.Printf("relay: %v", err)
		return
	}
	for connID, room := range r.membership {
		if room != roomID || connID == except {
			continue
		}
		if conn, ok := r.conns[connID]; ok {
			r.deliver(conn, event, frame)
		}
	}
}

func (r *Router) broadcast(event string, data any) {
	frame, err := Encode(event, data)
	if err != nil {
		log.Printf("relay: %v", err)
		return
	}
	for _, conn := range r.conns {
		r.deliver(conn, event, frame)
	}
}

func (r *Router) deliver(conn Conn, event string, frame []byte) {
	if !conn.Send(frame) {
		log.Printf("relay: dropped %s for conn=%s", event, conn.ID())
	}
}

func (r *Router) publish(ctx context.Context, routingKey string, payload any) {
	if r.publisher == nil {
		return
	}
	envelope := observability.NewEnvelope("chat_events", routingKey, payload).
		WithTrace("", observability.TraceIDFromContext(ctx))
	if err := r.publisher.Publish(ctx, routingKey, envelope); err != nil {
		observability.IncAMQPPublishError()
		log.Printf("relay: publish %s failed: %v", routingKey, err)
	}
}
