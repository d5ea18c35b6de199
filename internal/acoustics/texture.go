// Package acoustics resolves the acoustic properties of converted surfaces:
// acoustic textures, transmission loss, per-material overrides and the
// change detection that decides how much has to be re-sent.
package acoustics

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

// ErrUnknownTexture is returned when a name does not match any texture.
var ErrUnknownTexture = errors.New("unknown acoustic texture")

// TextureID identifies a texture in the spatial audio engine. 0 means none.
type TextureID uint32

// ShortID hashes a texture name the way the engine derives short IDs:
// 32-bit FNV-1 over the lowercased name.
func ShortID(name string) TextureID {
	h := fnv.New32()
	_, _ = h.Write([]byte(strings.ToLower(name)))
	return TextureID(h.Sum32())
}

// Texture is an acoustic texture: absorption per frequency band.
type Texture struct {
	Name       string
	ID         TextureID
	Absorption [4]float32 // low, mid-low, mid-high, high; percent
}

// PhysicalMaterial maps a physical material to its fallback acoustic
// properties.
type PhysicalMaterial struct {
	Texture             *Texture
	TransmissionLoss    float32
	HasTransmissionLoss bool
}

// Store holds the known textures and the physical material table.
type Store struct {
	textures  map[string]*Texture
	physical  map[string]PhysicalMaterial
	listeners []func(*Texture)
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		textures: make(map[string]*Texture),
		physical: make(map[string]PhysicalMaterial),
	}
}

// AddTexture registers a texture and returns it. Adding a name twice
// updates the absorption values in place, so references stay valid, and
// notifies the texture listeners when the values differ.
func (s *Store) AddTexture(name string, absorption [4]float32) *Texture {
	if t, ok := s.textures[name]; ok {
		if t.Absorption != absorption {
			t.Absorption = absorption
			for _, fn := range s.listeners {
				fn(t)
			}
		}
		return t
	}
	t := &Texture{Name: name, ID: ShortID(name), Absorption: absorption}
	s.textures[name] = t
	return t
}

// OnTextureChanged registers fn to run after the absorption of a known
// texture changes. Listeners run on the goroutine calling AddTexture.
func (s *Store) OnTextureChanged(fn func(*Texture)) {
	s.listeners = append(s.listeners, fn)
}

// Texture looks a texture up by name.
func (s *Store) Texture(name string) (*Texture, bool) {
	t, ok := s.textures[name]
	return t, ok
}

// TextureByID looks a texture up by engine ID.
func (s *Store) TextureByID(id TextureID) (*Texture, bool) {
	if id == 0 {
		return nil, false
	}
	for _, t := range s.textures {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// Textures returns every texture sorted by name.
func (s *Store) Textures() []*Texture {
	out := make([]*Texture, 0, len(s.textures))
	for _, t := range s.textures {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MapPhysicalMaterial associates a physical material with a texture and,
// when transmissionLoss is non-nil, a transmission loss. An empty texture
// name maps the material to no texture.
func (s *Store) MapPhysicalMaterial(physical, texture string, transmissionLoss *float32) error {
	entry := PhysicalMaterial{}
	if texture != "" {
		t, ok := s.textures[texture]
		if !ok {
			return fmt.Errorf("%w %q for physical material %q", ErrUnknownTexture, texture, physical)
		}
		entry.Texture = t
	}
	if transmissionLoss != nil {
		entry.TransmissionLoss = ClampTransmissionLoss(*transmissionLoss)
		entry.HasTransmissionLoss = true
	}
	s.physical[physical] = entry
	return nil
}

// Retain drops every texture and physical material whose name is not
// listed. It returns how many entries were dropped.
func (s *Store) Retain(textures, physical []string) int {
	keep := make(map[string]bool, len(textures))
	for _, name := range textures {
		keep[name] = true
	}
	dropped := 0
	for name := range s.textures {
		if !keep[name] {
			delete(s.textures, name)
			dropped++
		}
	}

	keep = make(map[string]bool, len(physical))
	for _, name := range physical {
		keep[name] = true
	}
	for name := range s.physical {
		if !keep[name] {
			delete(s.physical, name)
			dropped++
		}
	}
	return dropped
}

// ForPhysicalMaterial returns the table entry for a physical material.
func (s *Store) ForPhysicalMaterial(physical string) (PhysicalMaterial, bool) {
	e, ok := s.physical[physical]
	return e, ok
}

// MeanAbsorption returns the absorption per band averaged over surfaces,
// weighted by area. textures and areas are parallel; a nil texture absorbs
// nothing. The result is zero when the total area is zero.
func MeanAbsorption(textures []*Texture, areas []float64) [4]float32 {
	var sum [4]float64
	var total float64
	for i, area := range areas {
		total += area
		if i >= len(textures) || textures[i] == nil {
			continue
		}
		for band, a := range textures[i].Absorption {
			sum[band] += float64(a) * area
		}
	}
	var mean [4]float32
	if total <= 0 {
		return mean
	}
	for band := range mean {
		mean[band] = float32(sum[band] / total)
	}
	return mean
}
