// Package component implements the acoustic geometry component: it converts
// the mesh of a scene object, resolves its acoustic properties and keeps the
// remote geometry set and instance in sync with the object.
package component

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-acoustics/internal/mesh"
	"github.com/Faultbox/midgard-acoustics/pkg/math"
)

var (
	// ErrRemoteSync is returned when the engine rejects a call. The state
	// is left as it was before the call.
	ErrRemoteSync = errors.New("remote sync failed")
	// ErrStaleIdentity is returned when updating or removing remote
	// geometry that was never sent.
	ErrStaleIdentity = errors.New("geometry set was never sent")
	// ErrNotRegistered is returned when sending from an unregistered
	// component.
	ErrNotRegistered = errors.New("component is not registered")
)

// State is the sync state of a component.
type State uint8

const (
	Unregistered State = iota
	Registered
	Sent
	SentWithInstance
)

func (s State) String() string {
	switch s {
	case Unregistered:
		return "unregistered"
	case Registered:
		return "registered"
	case Sent:
		return "sent"
	case SentWithInstance:
		return "sent_with_instance"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Host is the scene object a component is attached to.
type Host interface {
	WorldTransform() math.Transform
	MeshSource() mesh.Source
}

// Options are the properties of a component.
type Options struct {
	Name                             string
	MeshType                         mesh.Type
	LOD                              int
	WeldingThreshold                 float32
	UnitsPerMeter                    float32
	Solid                            bool
	EnableDiffraction                bool
	EnableDiffractionOnBoundaryEdges bool
	BypassPortalSubtraction          bool
	// EditorFeaturesEnabled enables the editor notification handlers.
	EditorFeaturesEnabled bool
	// AddedByRoom marks components synthesized by a room. They are torn
	// down with it.
	AddedByRoom bool
}

// Property names accepted by PostEditChangeProperty.
const (
	PropMeshType                         = "MeshType"
	PropLOD                              = "LOD"
	PropWeldingThreshold                 = "WeldingThreshold"
	PropUnitsPerMeter                    = "UnitsPerMeter"
	PropSolid                            = "Solid"
	PropEnableDiffraction                = "EnableDiffraction"
	PropEnableDiffractionOnBoundaryEdges = "EnableDiffractionOnBoundaryEdges"
	PropBypassPortalSubtraction          = "BypassPortalSubtraction"
	PropAcousticPropertiesOverride       = "AcousticPropertiesOverride"
	PropTransform                        = "Transform"
)

// changedProperties lists the properties that differ between a and b.
func changedProperties(a, b Options) []string {
	var out []string
	if a.MeshType != b.MeshType {
		out = append(out, PropMeshType)
	}
	if a.LOD != b.LOD {
		out = append(out, PropLOD)
	}
	if a.WeldingThreshold != b.WeldingThreshold {
		out = append(out, PropWeldingThreshold)
	}
	if a.UnitsPerMeter != b.UnitsPerMeter {
		out = append(out, PropUnitsPerMeter)
	}
	if a.Solid != b.Solid {
		out = append(out, PropSolid)
	}
	if a.EnableDiffraction != b.EnableDiffraction {
		out = append(out, PropEnableDiffraction)
	}
	if a.EnableDiffractionOnBoundaryEdges != b.EnableDiffractionOnBoundaryEdges {
		out = append(out, PropEnableDiffractionOnBoundaryEdges)
	}
	if a.BypassPortalSubtraction != b.BypassPortalSubtraction {
		out = append(out, PropBypassPortalSubtraction)
	}
	return out
}
