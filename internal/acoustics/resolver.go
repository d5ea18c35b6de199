package acoustics

import (
	"github.com/Faultbox/midgard-acoustics/internal/geometry"
	"github.com/Faultbox/midgard-acoustics/internal/mesh"
)

// Resolver computes the effective texture and transmission loss of surfaces.
type Resolver struct {
	store                   *Store
	defaultTransmissionLoss float32
}

// NewResolver creates a resolver using store for physical material
// fallbacks. defaultTransmissionLoss applies when neither an override nor
// the physical material table provides one.
func NewResolver(store *Store, defaultTransmissionLoss float32) *Resolver {
	if store == nil {
		store = NewStore()
	}
	return &Resolver{
		store:                   store,
		defaultTransmissionLoss: ClampTransmissionLoss(defaultTransmissionLoss),
	}
}

// Store returns the texture store.
func (r *Resolver) Store() *Store {
	return r.store
}

// ResolveSurface returns the effective texture and transmission loss for a
// surface. An override texture wins over the physical material's; an
// enabled override transmission loss wins over the table's, which wins over
// the default.
func (r *Resolver) ResolveSurface(key mesh.SurfaceKey, overrides *Overrides) (TextureID, float32) {
	var ov SurfaceOverride
	hasOverride := false
	if overrides != nil {
		ov, hasOverride = overrides.For(key)
	}
	entry, hasEntry := r.store.ForPhysicalMaterial(key.PhysicalMaterial)

	var texture TextureID
	switch {
	case hasOverride && ov.Texture != nil:
		texture = ov.Texture.ID
	case hasEntry && entry.Texture != nil:
		texture = entry.Texture.ID
	}

	transmissionLoss := r.defaultTransmissionLoss
	switch {
	case hasOverride && ov.EnableTransmissionLoss:
		transmissionLoss = ClampTransmissionLoss(ov.TransmissionLoss)
	case hasEntry && entry.HasTransmissionLoss:
		transmissionLoss = entry.TransmissionLoss
	}

	return texture, transmissionLoss
}

// Resolve fills in the acoustic properties of every surface in data.
func (r *Resolver) Resolve(data *geometry.Data, overrides *Overrides) {
	if data == nil {
		return
	}
	for i := range data.Surfaces {
		s := &data.Surfaces[i]
		tex, tl := r.ResolveSurface(s.Key, overrides)
		s.Texture = uint32(tex)
		s.TransmissionLoss = tl
	}
}
