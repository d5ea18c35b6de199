package spatial

import (
	"fmt"

	"github.com/Faultbox/midgard-acoustics/internal/network/packets"
)

// Apply decodes a frame and replays it on e. Surface updates need e to
// implement SurfaceUpdater.
func Apply(e Engine, frame []byte) error {
	p, err := packets.Decode(frame)
	if err != nil {
		return err
	}

	switch p := p.(type) {
	case *packets.GeometrySet:
		return e.AddOrUpdateGeometrySet(GeometrySetFromPacket(p))
	case *packets.GeometryInstance:
		return e.AddOrUpdateGeometryInstance(GeometryInstance{
			ID:          p.ID,
			GeometrySet: p.GeometrySet,
			Transform:   p.Transform,
		})
	case *packets.Remove:
		if p.Op() == packets.RemoveGeometryInstance {
			return e.RemoveGeometryInstance(p.ID)
		}
		return e.RemoveGeometrySet(p.ID)
	case *packets.SurfaceUpdate:
		u, ok := e.(SurfaceUpdater)
		if !ok {
			return fmt.Errorf("%s not supported by %T", packets.OpName(p.Op()), e)
		}
		return u.UpdateGeometrySetSurfaces(p.GeometrySet, surfacesFromPackets(p.Surfaces))
	default:
		return fmt.Errorf("%w: %T", packets.ErrUnknownOp, p)
	}
}
