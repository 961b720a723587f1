package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/medley-audio/medley/internal/domain"
	"github.com/medley-audio/medley/internal/logger"
	"github.com/medley-audio/medley/internal/metrics"
	"github.com/medley-audio/medley/internal/utils"
)

// State names one FSM position. The run loop is the only writer, so
// illegal transitions cannot happen.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateClosed       State = "closed"
	StateReconnecting State = "reconnecting"
)

const (
	clientName       = "medley"
	eventsBufferSize = 16

	defaultProbeTimeout   = 3 * time.Second
	defaultReconnectDelay = 5 * time.Second
	defaultMaxReconnects  = 5
)

// Config carries the coordinator's timing knobs.
type Config struct {
	ProbeTimeout         time.Duration
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
}

// Status is a point-in-time coordinator summary for the health report.
type Status struct {
	State State  `json:"state"`
	Node  string `json:"node,omitempty"`
}

// Coordinator owns the control connection to one backing node and
// fails over across the node list when it drops.
type Coordinator struct {
	log         logger.Logger
	nodes       []Node
	cfg         Config
	userID      string
	probeClient *http.Client
	events      chan Event

	mu      sync.Mutex
	state   State
	current *Node
	conn    *websocket.Conn

	// cursor and attempts are owned by the run goroutine.
	cursor   int
	attempts int

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewCoordinator validates the node list and prepares the FSM in the
// Disconnected state. An empty node list is a configuration error.
func NewCoordinator(nodes []Node, cfg Config, log logger.Logger) (*Coordinator, error) {
	if len(nodes) == 0 {
		return nil, errors.New("relay: node list must not be empty")
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.MaxReconnectAttempts == 0 {
		cfg.MaxReconnectAttempts = defaultMaxReconnects
	}

	return &Coordinator{
		log:         log,
		nodes:       nodes,
		cfg:         cfg,
		userID:      uuid.NewString(),
		probeClient: &http.Client{Timeout: cfg.ProbeTimeout},
		events:      make(chan Event, eventsBufferSize),
		state:       StateDisconnected,
		stopCh:      make(chan struct{}),
	}, nil
}

// Events returns the subscriber channel for coordinator events.
func (c *Coordinator) Events() <-chan Event {
	return c.events
}

// State returns the current FSM state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Status reports state plus the connected node, if any.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{State: c.state}
	if c.current != nil {
		st.Node = c.current.Name()
	}
	return st
}

// Start launches the connection loop.
func (c *Coordinator) Start(ctx context.Context) error {
	go c.run(ctx)
	return nil
}

// Stop closes the control connection and halts reconnection.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		c.mu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.mu.Unlock()
	})
}

// Send writes a control command to the connected node. It reports
// false when no connection is up; control traffic is best-effort.
func (c *Coordinator) Send(v any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConnected || c.conn == nil {
		return false
	}
	if err := c.conn.WriteJSON(v); err != nil {
		c.log.Warn("control send failed", logger.Error(err))
		return false
	}
	return true
}

func (c *Coordinator) run(ctx context.Context) {
	for {
		if c.halted(ctx) {
			return
		}

		c.setState(StateConnecting)
		node, err := c.pickNextNode(ctx)
		var conn *websocket.Conn
		if err == nil {
			conn, err = c.dial(ctx, node)
		}
		if err != nil {
			c.log.Warn("backing node connect failed", logger.Error(err))
			if !c.scheduleReconnect(ctx) {
				return
			}
			continue
		}

		c.setConnected(node, conn)
		c.attempts = 0
		c.log.Info("connected to backing node",
			logger.String("node", node.Name()),
			logger.Bool("secure", node.Secure))

		c.readLoop(conn)

		c.setState(StateClosed)
		if c.halted(ctx) {
			return
		}
		c.log.Warn("control connection lost", logger.String("node", node.Name()))
		if !c.scheduleReconnect(ctx) {
			return
		}
	}
}

// pickNextNode advances the circular cursor, probing each candidate's
// version endpoint exactly once; the first healthy node wins.
func (c *Coordinator) pickNextNode(ctx context.Context) (*Node, error) {
	for i := 0; i < len(c.nodes); i++ {
		node := &c.nodes[c.cursor]
		c.cursor = (c.cursor + 1) % len(c.nodes)

		if err := c.probe(ctx, node); err != nil {
			c.log.Debug("node probe failed",
				logger.String("node", node.Name()),
				logger.Error(err))
			continue
		}
		return node, nil
	}
	return nil, domain.ErrNoHealthyNode
}

func (c *Coordinator) probe(ctx context.Context, node *Node) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	return Probe(ctx, c.probeClient, *node)
}

func (c *Coordinator) dial(ctx context.Context, node *Node) (*websocket.Conn, error) {
	headers := http.Header{}
	headers.Set("Authorization", node.Secret)
	headers.Set("User-Id", c.userID)
	headers.Set("Client-Name", clientName)

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.ProbeTimeout}
	conn, resp, err := dialer.DialContext(ctx, node.SocketURL(), headers)
	if err != nil {
		if resp != nil {
			utils.Close(resp.Body)
		}
		return nil, fmt.Errorf("dial %s: %w", node.Name(), err)
	}
	return conn, nil
}

func (c *Coordinator) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		c.dispatch(data)
	}
}

func (c *Coordinator) dispatch(data []byte) {
	var msg struct {
		Op   string `json:"op"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		c.log.Warn("undecodable control message", logger.Error(err))
		return
	}

	node := c.currentNodeName()
	switch msg.Op {
	case "ready":
		c.emit(Event{Type: EventReady, Node: node, Raw: data})
	case "playerUpdate":
		c.emit(Event{Type: EventPlayerUpdate, Node: node, Raw: data})
	case "stats":
		c.emit(Event{Type: EventStats, Node: node, Raw: data})
	case "event":
		t, ok := trackEventTypes[msg.Type]
		if !ok {
			c.log.Warn("unknown track event dropped", logger.String("type", msg.Type))
			return
		}
		c.emit(Event{Type: t, Node: node, Raw: data})
	default:
		c.log.Warn("unknown control op dropped", logger.String("op", msg.Op))
	}
}

// scheduleReconnect waits the fixed delay and reports whether another
// attempt is allowed. Exhausting the cap emits the terminal
// disconnected event, exactly once.
func (c *Coordinator) scheduleReconnect(ctx context.Context) bool {
	c.attempts++
	metrics.RelayReconnects.Inc()

	if c.attempts >= c.cfg.MaxReconnectAttempts {
		c.setState(StateDisconnected)
		c.emit(Event{Type: EventDisconnected})
		c.log.Error("reconnect attempts exhausted, relay disabled",
			logger.Int("attempts", c.attempts))
		return false
	}

	c.setState(StateReconnecting)
	c.log.Info("reconnecting to backing nodes",
		logger.Int("attempt", c.attempts),
		logger.Int("max", c.cfg.MaxReconnectAttempts))

	select {
	case <-time.After(c.cfg.ReconnectDelay):
		return true
	case <-ctx.Done():
		return false
	case <-c.stopCh:
		return false
	}
}

func (c *Coordinator) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.log.Warn("event subscriber lagging, dropping event",
			logger.String("type", string(ev.Type)))
	}
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = s
	if s != StateConnected {
		c.conn = nil
		c.current = nil
	}
}

func (c *Coordinator) setConnected(node *Node, conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateConnected
	c.current = node
	c.conn = conn
}

func (c *Coordinator) currentNodeName() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return ""
	}
	return c.current.Name()
}

func (c *Coordinator) halted(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-c.stopCh:
		return true
	default:
		return false
	}
}
