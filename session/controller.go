// Package session implements the client side of a chat room: it opens the
// live channel, reconciles persisted history with live delivery into one
// ordered view, and forwards outbound messages while the room is open.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"counsel-chat/domain"
	cerrors "counsel-chat/errors"
	"counsel-chat/infrastructure/ws"
	"counsel-chat/projection"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

type State int

const (
	StateClosed State = iota
	StateLoading
	StateJoined
)

const (
	defaultHistoryTimeout = 5 * time.Second
	defaultJoinTimeout    = 5 * time.Second
)

type Options struct {
	// BaseURL is the http(s) address of the chat server.
	BaseURL string
	Token   string
	Room    domain.RoomID

	// Bounds on the two room-entry round trips; room entry must fail fast
	// rather than hang on a slow fetch or handshake.
	HistoryTimeout time.Duration
	JoinTimeout    time.Duration

	// OnMessage is invoked for every message appended to the timeline,
	// history and live alike. Optional.
	OnMessage func(domain.Message)

	HTTPClient *http.Client
}

// Controller drives one open room. State machine:
// Closed -> Loading (history fetch + join in flight) -> Joined -> Closed.
type Controller struct {
	mu       sync.Mutex
	writeMu  sync.Mutex
	log      *slog.Logger
	opts     Options
	state    State
	timeline *projection.Timeline
	conn     *websocket.Conn
	http     *http.Client
}

func NewController(log *slog.Logger, opts Options) *Controller {
	if opts.HistoryTimeout <= 0 {
		opts.HistoryTimeout = defaultHistoryTimeout
	}
	if opts.JoinTimeout <= 0 {
		opts.JoinTimeout = defaultJoinTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Controller{
		log:      log,
		opts:     opts,
		state:    StateClosed,
		timeline: projection.NewTimeline(),
		http:     httpClient,
	}
}

// Open enters the room: the history fetch and the join handshake run
// concurrently, then history seeds the timeline and live delivery appends
// from that point onward.
//
// A failed history fetch degrades to an empty history so live chat still
// works. A failed join surfaces ErrTransportDown: history stays viewable
// but sending is disabled until a successful reopen.
func (c *Controller) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateClosed {
		c.mu.Unlock()
		return fmt.Errorf("room %s already open", c.opts.Room)
	}
	c.state = StateLoading
	c.mu.Unlock()

	var (
		wg      sync.WaitGroup
		history []domain.Message
		joinErr error
		pending []ws.MessageEvent
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		fetched, err := c.fetchHistory(ctx)
		if err != nil {
			// Degrade to an empty history; room entry is not blocked.
			c.log.Warn("History fetch failed, entering with empty history",
				"room", c.opts.Room, "error", err)
			return
		}
		history = fetched
	}()
	go func() {
		defer wg.Done()
		pending, joinErr = c.join(ctx)
	}()
	wg.Wait()

	if joinErr != nil {
		c.mu.Lock()
		c.state = StateClosed
		c.mu.Unlock()
		return fmt.Errorf("%w: %v", cerrors.ErrTransportDown, joinErr)
	}

	c.mu.Lock()
	c.timeline.Seed(history)
	notify := c.opts.OnMessage
	if notify != nil {
		for _, m := range c.timeline.Snapshot() {
			notify(m)
		}
	}
	// Frames that raced the handshake are appended after history; the
	// timeline's id dedup absorbs any overlap with the fetch.
	for _, evt := range pending {
		c.appendLocked(evt)
	}
	c.state = StateJoined
	c.mu.Unlock()

	go c.readLoop()
	return nil
}

// Send forwards one outbound message. Empty trimmed text is rejected
// locally, before any network round trip. The rendered view is updated only
// by the broker's echo, never by an optimistic local append.
func (c *Controller) Send(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return cerrors.ErrEmptyContent
	}

	c.mu.Lock()
	state := c.state
	conn := c.conn
	c.mu.Unlock()
	if state != StateJoined || conn == nil {
		return cerrors.ErrNotJoined
	}

	now := time.Now().UTC()
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(ws.Envelope{
		Type:   ws.TypeSend,
		RoomID: c.opts.Room.String(),
		Text:   text,
		SentAt: &now,
	}); err != nil {
		return fmt.Errorf("%w: %v", cerrors.ErrTransportDown, err)
	}
	return nil
}

// Messages returns the rendered sequence: history first, then live arrivals.
func (c *Controller) Messages() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeline.Snapshot()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close leaves the room and discards the live channel. No further messages
// are appended to the now-frozen buffer.
func (c *Controller) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.state = StateClosed
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	c.writeMu.Lock()
	_ = conn.WriteJSON(ws.Envelope{Type: ws.TypeLeave, RoomID: c.opts.Room.String()})
	c.writeMu.Unlock()
	return conn.Close()
}

func (c *Controller) fetchHistory(ctx context.Context) ([]domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.HistoryTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/v1/rooms/%s/messages", c.opts.BaseURL, c.opts.Room)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrHistoryFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", cerrors.ErrHistoryFetch, resp.StatusCode)
	}

	var payload struct {
		Success bool                 `json:"success"`
		Data    []historyMessageBody `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrHistoryFetch, err)
	}
	return lo.Map(payload.Data, func(m historyMessageBody, _ int) domain.Message {
		return m.toDomain(c.opts.Room)
	}), nil
}

// join dials the live channel and waits for the join acknowledgment.
// Message frames that arrive before the ack are returned for the caller to
// merge after history seeding.
func (c *Controller) join(ctx context.Context) ([]ws.MessageEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.JoinTimeout)
	defer cancel()

	wsURL := strings.Replace(c.opts.BaseURL, "http", "ws", 1) + "/ws?token=" + c.opts.Token
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	if err := conn.WriteJSON(ws.Envelope{Type: ws.TypeJoin, RoomID: c.opts.Room.String()}); err != nil {
		_ = conn.Close()
		return nil, err
	}

	deadline, _ := ctx.Deadline()
	_ = conn.SetReadDeadline(deadline)
	var pending []ws.MessageEvent
	for {
		var frame json.RawMessage
		if err := conn.ReadJSON(&frame); err != nil {
			_ = conn.Close()
			return nil, err
		}
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(frame, &head); err != nil {
			continue
		}
		switch head.Type {
		case ws.TypeJoined:
			_ = conn.SetReadDeadline(time.Time{})
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
			return pending, nil
		case ws.TypeMessage:
			var evt ws.MessageEvent
			if err := json.Unmarshal(frame, &evt); err == nil {
				pending = append(pending, evt)
			}
		case ws.TypeError:
			_ = conn.Close()
			return nil, fmt.Errorf("join rejected")
		}
	}
}

// readLoop appends broker-relayed messages until the room closes or the
// transport breaks. A broken transport freezes the timeline and disables
// sending; history stays viewable.
func (c *Controller) readLoop() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	for {
		var evt ws.MessageEvent
		if err := conn.ReadJSON(&evt); err != nil {
			c.mu.Lock()
			if c.state == StateJoined {
				c.state = StateClosed
				c.conn = nil
				c.log.Warn("Live channel lost", "room", c.opts.Room, "error", err)
			}
			c.mu.Unlock()
			return
		}
		if evt.Type != ws.TypeMessage || evt.RoomID != c.opts.Room.String() {
			continue
		}

		c.mu.Lock()
		if c.state != StateJoined {
			c.mu.Unlock()
			return
		}
		c.appendLocked(evt)
		c.mu.Unlock()
	}
}

func (c *Controller) appendLocked(evt ws.MessageEvent) {
	before := len(c.timeline.Messages)
	c.timeline.Consume(toDomainEvent(evt))
	if c.opts.OnMessage != nil && len(c.timeline.Messages) > before {
		c.opts.OnMessage(c.timeline.Messages[len(c.timeline.Messages)-1])
	}
}
