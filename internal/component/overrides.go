package component

import (
	"sort"

	"github.com/Faultbox/midgard-acoustics/internal/acoustics"
	"github.com/Faultbox/midgard-acoustics/internal/mesh"
)

// GetAcousticPropertiesOverride returns the override for a material. Use an
// empty material for collision geometry.
func (g *Geometry) GetAcousticPropertiesOverride(material string) (acoustics.SurfaceOverride, bool) {
	g.syncMaterials()
	v, err := g.overrides.Get(material)
	if err != nil {
		g.overrideFailed("get", material, err)
		return acoustics.SurfaceOverride{}, false
	}
	return v, true
}

func (g *Geometry) editOverride(op, material string, fn func(*acoustics.SurfaceOverride)) (acoustics.SurfaceOverride, bool) {
	g.syncMaterials()
	v, err := g.overrides.Update(material, fn)
	if err != nil {
		g.overrideFailed(op, material, err)
		return acoustics.SurfaceOverride{}, false
	}
	g.overridesChanged()
	return v, true
}

// SetAcousticPropertiesOverride replaces the override for a material.
func (g *Geometry) SetAcousticPropertiesOverride(material string, v acoustics.SurfaceOverride) (acoustics.SurfaceOverride, bool) {
	return g.editOverride("set", material, func(cur *acoustics.SurfaceOverride) {
		cur.Texture = v.Texture
		cur.EnableTransmissionLoss = v.EnableTransmissionLoss
		cur.TransmissionLoss = v.TransmissionLoss
	})
}

// SetAcousticTextureOverride overrides the texture of a material. A nil
// texture falls back to the physical material's.
func (g *Geometry) SetAcousticTextureOverride(material string, texture *acoustics.Texture) (acoustics.SurfaceOverride, bool) {
	return g.editOverride("set_texture", material, func(cur *acoustics.SurfaceOverride) {
		cur.Texture = texture
	})
}

// SetTransmissionLossOverride sets the transmission loss of a material and
// whether it applies. Values outside [0, 1] are clamped.
func (g *Geometry) SetTransmissionLossOverride(material string, transmissionLoss float32, enable bool) (acoustics.SurfaceOverride, bool) {
	return g.editOverride("set_transmission_loss", material, func(cur *acoustics.SurfaceOverride) {
		cur.TransmissionLoss = transmissionLoss
		cur.EnableTransmissionLoss = enable
	})
}

// SetEnableTransmissionLossOverride toggles the transmission loss override
// of a material.
func (g *Geometry) SetEnableTransmissionLossOverride(material string, enable bool) (acoustics.SurfaceOverride, bool) {
	return g.editOverride("enable_transmission_loss", material, func(cur *acoustics.SurfaceOverride) {
		cur.EnableTransmissionLoss = enable
	})
}

// ReplaceOverrides sets every override at once: materials missing from m
// are reset to defaults. Changes are pushed in one sync. It returns the
// materials that were rejected.
func (g *Geometry) ReplaceOverrides(m map[string]acoustics.SurfaceOverride) []string {
	rejected := g.StageOverrides(m)
	g.overridesChanged()
	return rejected
}

// StageOverrides sets every override like ReplaceOverrides but does not
// sync. The next send carries the staged values.
func (g *Geometry) StageOverrides(m map[string]acoustics.SurfaceOverride) []string {
	g.syncMaterials()

	targets := g.overrides.Materials()
	if g.opts.MeshType == mesh.TypeCollisionMesh {
		targets = []string{""}
	}
	known := make(map[string]bool, len(targets))
	for _, material := range targets {
		known[material] = true
		v, ok := m[material]
		if !ok {
			v = acoustics.NewSurfaceOverride()
		}
		_, _ = g.overrides.Update(material, func(cur *acoustics.SurfaceOverride) {
			cur.Texture = v.Texture
			cur.EnableTransmissionLoss = v.EnableTransmissionLoss
			cur.TransmissionLoss = v.TransmissionLoss
		})
	}

	var rejected []string
	for material := range m {
		if !known[material] {
			rejected = append(rejected, material)
		}
	}
	sort.Strings(rejected)
	for _, material := range rejected {
		_, err := g.overrides.Get(material)
		g.overrideFailed("replace", material, err)
	}
	return rejected
}
