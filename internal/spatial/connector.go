package spatial

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-acoustics/internal/network"
)

// DialFunc opens a transport.
type DialFunc func(ctx context.Context) (network.Transport, error)

// Connector is an Engine that dials the remote engine in the background
// and redials after a failed send. Ready is closed after the first
// successful dial; Reconnected signals every later one.
type Connector struct {
	dial              DialFunc
	retryInterval     time.Duration
	compressThreshold int
	log               *zap.Logger

	mu        sync.Mutex
	client    *Client
	ready       chan struct{}
	readyOnce   sync.Once
	lost        chan struct{}
	reconnected chan struct{}
}

// NewConnector creates a connector. Call Run to start dialing.
func NewConnector(dial DialFunc, retryInterval time.Duration, compressThreshold int, log *zap.Logger) *Connector {
	if log == nil {
		log = zap.NewNop()
	}
	if retryInterval <= 0 {
		retryInterval = time.Second
	}
	return &Connector{
		dial:              dial,
		retryInterval:     retryInterval,
		compressThreshold: compressThreshold,
		log:               log,
		ready:             make(chan struct{}),
		lost:              make(chan struct{}, 1),
		reconnected:       make(chan struct{}, 1),
	}
}

// Ready is closed once the first connection is up.
func (c *Connector) Ready() <-chan struct{} {
	return c.ready
}

// Reconnected delivers a value after each redial. Pending values are
// coalesced.
func (c *Connector) Reconnected() <-chan struct{} {
	return c.reconnected
}

// Run dials until ctx is done, redialing when a send fails.
func (c *Connector) Run(ctx context.Context) error {
	defer c.disconnect()

	for dials := 0; ; dials++ {
		client, err := c.connect(ctx)
		if err != nil {
			return err
		}

		c.mu.Lock()
		c.client = client
		c.mu.Unlock()
		c.readyOnce.Do(func() { close(c.ready) })
		c.log.Info("connected to spatial audio engine", zap.Int("redials", dials))
		if dials > 0 {
			select {
			case c.reconnected <- struct{}{}:
			default:
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.lost:
			c.log.Warn("connection to spatial audio engine lost, redialing")
			c.disconnect()
		}
	}
}

func (c *Connector) connect(ctx context.Context) (*Client, error) {
	for attempt := 1; ; attempt++ {
		t, err := c.dial(ctx)
		if err == nil {
			return NewClient(t, c.compressThreshold, c.log), nil
		}
		c.log.Warn("dial failed",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", c.retryInterval),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryInterval):
		}
	}
}

func (c *Connector) disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		_ = c.client.Close()
		c.client = nil
	}
}

func (c *Connector) do(fn func(*Client) error) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()

	if client == nil {
		return ErrNotReady
	}
	if err := fn(client); err != nil {
		select {
		case c.lost <- struct{}{}:
		default:
		}
		return err
	}
	return nil
}

// AddOrUpdateGeometrySet implements Engine.
func (c *Connector) AddOrUpdateGeometrySet(set GeometrySet) error {
	return c.do(func(cl *Client) error { return cl.AddOrUpdateGeometrySet(set) })
}

// AddOrUpdateGeometryInstance implements Engine.
func (c *Connector) AddOrUpdateGeometryInstance(inst GeometryInstance) error {
	return c.do(func(cl *Client) error { return cl.AddOrUpdateGeometryInstance(inst) })
}

// RemoveGeometryInstance implements Engine.
func (c *Connector) RemoveGeometryInstance(id uuid.UUID) error {
	return c.do(func(cl *Client) error { return cl.RemoveGeometryInstance(id) })
}

// RemoveGeometrySet implements Engine.
func (c *Connector) RemoveGeometrySet(id uuid.UUID) error {
	return c.do(func(cl *Client) error { return cl.RemoveGeometrySet(id) })
}

// UpdateGeometrySetSurfaces implements SurfaceUpdater.
func (c *Connector) UpdateGeometrySetSurfaces(set uuid.UUID, surfaces []SurfaceParams) error {
	return c.do(func(cl *Client) error { return cl.UpdateGeometrySetSurfaces(set, surfaces) })
}
