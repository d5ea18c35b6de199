package spatial

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-acoustics/internal/network"
	"github.com/Faultbox/midgard-acoustics/internal/network/packets"
)

// Client pushes geometry calls over a transport.
type Client struct {
	transport         network.Transport
	compressThreshold int
	log               *zap.Logger
	mu                sync.Mutex
}

// NewClient creates a client. Payloads of at least compressThreshold bytes
// are compressed.
func NewClient(t network.Transport, compressThreshold int, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{transport: t, compressThreshold: compressThreshold, log: log}
}

func (c *Client) send(p packets.Packet) error {
	frame := packets.Frame(p, c.compressThreshold)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.transport.Send(frame); err != nil {
		return fmt.Errorf("sending %s: %w", packets.OpName(p.Op()), err)
	}
	c.log.Debug("sent",
		zap.String("op", packets.OpName(p.Op())),
		zap.Int("bytes", len(frame)))
	return nil
}

// AddOrUpdateGeometrySet uploads a geometry set.
func (c *Client) AddOrUpdateGeometrySet(set GeometrySet) error {
	return c.send(set.Packet())
}

// AddOrUpdateGeometryInstance uploads an instance.
func (c *Client) AddOrUpdateGeometryInstance(inst GeometryInstance) error {
	return c.send(&packets.GeometryInstance{
		ID:          inst.ID,
		GeometrySet: inst.GeometrySet,
		Transform:   inst.Transform,
	})
}

// RemoveGeometryInstance removes an instance.
func (c *Client) RemoveGeometryInstance(id uuid.UUID) error {
	return c.send(packets.NewRemoveInstance(id))
}

// RemoveGeometrySet removes a geometry set.
func (c *Client) RemoveGeometrySet(id uuid.UUID) error {
	return c.send(packets.NewRemoveSet(id))
}

// UpdateGeometrySetSurfaces replaces the surface properties of a set.
func (c *Client) UpdateGeometrySetSurfaces(set uuid.UUID, surfaces []SurfaceParams) error {
	return c.send(&packets.SurfaceUpdate{GeometrySet: set, Surfaces: surfacePackets(surfaces)})
}

// Close closes the transport.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transport.Close()
}
