package acoustics

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/midgard-acoustics/internal/geometry"
	"github.com/Faultbox/midgard-acoustics/internal/mesh"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	s.AddTexture("Brick", [4]float32{10, 12, 15, 20})
	s.AddTexture("Carpet", [4]float32{30, 50, 60, 70})
	s.AddTexture("Glass", [4]float32{2, 3, 4, 5})

	half := float32(0.5)
	if err := s.MapPhysicalMaterial("PM_Brick", "Brick", &half); err != nil {
		t.Fatalf("MapPhysicalMaterial: %v", err)
	}
	if err := s.MapPhysicalMaterial("PM_Glass", "Glass", nil); err != nil {
		t.Fatalf("MapPhysicalMaterial: %v", err)
	}
	return s
}

func staticOverrides(materials ...string) *Overrides {
	o := NewOverrides(mesh.TypeStaticMesh)
	o.SyncMaterials(materials)
	return o
}

func TestShortIDCaseInsensitive(t *testing.T) {
	if ShortID("Brick") != ShortID("BRICK") {
		t.Error("ShortID should ignore case")
	}
	if ShortID("Brick") == ShortID("Glass") {
		t.Error("different names should hash differently")
	}
}

func TestStoreMapUnknownTexture(t *testing.T) {
	s := NewStore()
	if err := s.MapPhysicalMaterial("PM_Steel", "Steel", nil); !errors.Is(err, ErrUnknownTexture) {
		t.Errorf("expected ErrUnknownTexture, got %v", err)
	}
}

func TestStoreAddTextureKeepsReference(t *testing.T) {
	s := NewStore()
	first := s.AddTexture("Brick", [4]float32{1, 1, 1, 1})
	second := s.AddTexture("Brick", [4]float32{2, 2, 2, 2})
	if first != second {
		t.Error("re-adding a texture should return the same reference")
	}
	if first.Absorption[0] != 2 {
		t.Errorf("absorption not updated: %v", first.Absorption)
	}
}

func TestStoreTextureChangedListener(t *testing.T) {
	s := NewStore()
	var changed []string
	s.OnTextureChanged(func(tex *Texture) { changed = append(changed, tex.Name) })

	tests := []struct {
		name       string
		texture    string
		absorption [4]float32
		want       int
	}{
		{"new texture", "Brick", [4]float32{1, 1, 1, 1}, 0},
		{"same values", "Brick", [4]float32{1, 1, 1, 1}, 0},
		{"new values", "Brick", [4]float32{5, 5, 5, 5}, 1},
		{"other new texture", "Glass", [4]float32{2, 2, 2, 2}, 1},
	}

	for _, tt := range tests {
		s.AddTexture(tt.texture, tt.absorption)
		if len(changed) != tt.want {
			t.Errorf("%s: %d notifications, want %d", tt.name, len(changed), tt.want)
		}
	}
	if len(changed) == 1 && changed[0] != "Brick" {
		t.Errorf("notified %v, want Brick", changed)
	}
}

func TestStoreTextureByID(t *testing.T) {
	s := testStore(t)
	if tex, ok := s.TextureByID(ShortID("glass")); !ok || tex.Name != "Glass" {
		t.Errorf("TextureByID(glass) = %v, %v", tex, ok)
	}
	if _, ok := s.TextureByID(0); ok {
		t.Error("ID 0 means no texture")
	}
	if _, ok := s.TextureByID(ShortID("Steel")); ok {
		t.Error("unknown ID should not resolve")
	}
}

func TestStoreRetain(t *testing.T) {
	s := testStore(t)
	if n := s.Retain([]string{"Brick"}, []string{"PM_Brick"}); n != 3 {
		t.Errorf("Retain dropped %d entries, want 3", n)
	}
	if _, ok := s.Texture("Glass"); ok {
		t.Error("Glass should be dropped")
	}
	if _, ok := s.ForPhysicalMaterial("PM_Glass"); ok {
		t.Error("PM_Glass should be dropped")
	}
	if _, ok := s.ForPhysicalMaterial("PM_Brick"); !ok {
		t.Error("PM_Brick should be kept")
	}
	if n := s.Retain([]string{"Brick"}, []string{"PM_Brick"}); n != 0 {
		t.Errorf("second Retain dropped %d entries", n)
	}
}

func TestMeanAbsorption(t *testing.T) {
	brick := &Texture{Name: "Brick", Absorption: [4]float32{10, 20, 30, 40}}
	carpet := &Texture{Name: "Carpet", Absorption: [4]float32{50, 60, 70, 80}}

	tests := []struct {
		name     string
		textures []*Texture
		areas    []float64
		want     [4]float32
	}{
		{"empty", nil, nil, [4]float32{}},
		{"single", []*Texture{brick}, []float64{2}, brick.Absorption},
		{"weighted", []*Texture{brick, carpet}, []float64{3, 1}, [4]float32{20, 30, 40, 50}},
		{"untextured surface", []*Texture{brick, nil}, []float64{1, 1}, [4]float32{5, 10, 15, 20}},
		{"zero area", []*Texture{brick}, []float64{0}, [4]float32{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MeanAbsorption(tt.textures, tt.areas)
			for band := range got {
				if gomath.Abs(float64(got[band]-tt.want[band])) > 1e-4 {
					t.Errorf("MeanAbsorption() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestOverridePrecedence(t *testing.T) {
	store := testStore(t)
	r := NewResolver(store, 1)
	o := staticOverrides("M_Wall")
	key := mesh.SurfaceKey{Material: "M_Wall", PhysicalMaterial: "PM_Brick"}

	tex, tl := r.ResolveSurface(key, o)
	if tex != ShortID("Brick") {
		t.Errorf("without override texture should come from the physical material, got %d", tex)
	}
	if tl != 0.5 {
		t.Errorf("without override transmission loss should come from the table, got %v", tl)
	}

	carpet, _ := store.Texture("Carpet")
	got, err := o.Update("M_Wall", func(v *SurfaceOverride) { v.Texture = carpet })
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Texture != carpet {
		t.Errorf("returned override texture = %v, want Carpet", got.Texture)
	}
	read, err := o.Get("M_Wall")
	if err != nil || read.Texture != carpet {
		t.Errorf("Get() = %+v, %v; want Carpet", read, err)
	}
	if tex, _ := r.ResolveSurface(key, o); tex != carpet.ID {
		t.Errorf("override texture should win, got %d", tex)
	}

	// Clearing falls back to the physical material mapping.
	if _, err := o.Update("M_Wall", func(v *SurfaceOverride) { v.Texture = nil }); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if tex, _ := r.ResolveSurface(key, o); tex != ShortID("Brick") {
		t.Errorf("cleared override should fall back to Brick, got %d", tex)
	}
}

func TestTransmissionLossResolution(t *testing.T) {
	r := NewResolver(testStore(t), 0.8)
	o := staticOverrides("M_Window", "M_Floor")

	window := mesh.SurfaceKey{Material: "M_Window", PhysicalMaterial: "PM_Glass"}
	if _, tl := r.ResolveSurface(window, o); tl != 0.8 {
		t.Errorf("glass has no table value, expected default 0.8, got %v", tl)
	}

	// A value without the enable flag has no effect.
	o.Update("M_Window", func(v *SurfaceOverride) { v.TransmissionLoss = 0.2 })
	if _, tl := r.ResolveSurface(window, o); tl != 0.8 {
		t.Errorf("disabled override should not apply, got %v", tl)
	}

	o.Update("M_Window", func(v *SurfaceOverride) { v.EnableTransmissionLoss = true })
	if _, tl := r.ResolveSurface(window, o); tl != 0.2 {
		t.Errorf("enabled override should apply, got %v", tl)
	}

	unknown := mesh.SurfaceKey{Material: "M_Floor", PhysicalMaterial: "PM_Unknown"}
	if tex, tl := r.ResolveSurface(unknown, o); tex != 0 || tl != 0.8 {
		t.Errorf("unmapped physical material = (%d, %v), want (0, 0.8)", tex, tl)
	}
}

func TestTransmissionLossClamping(t *testing.T) {
	tests := []struct {
		in, want float32
	}{
		{0, 0},
		{1, 1},
		{0.35, 0.35},
		{-0.5, 0},
		{1.5, 1},
		{float32(gomath.NaN()), DefaultTransmissionLoss},
	}

	o := NewOverrides(mesh.TypeCollisionMesh)
	for _, tt := range tests {
		got, err := o.Set("", SurfaceOverride{EnableTransmissionLoss: true, TransmissionLoss: tt.in})
		if err != nil {
			t.Fatalf("Set(%v): %v", tt.in, err)
		}
		if got.TransmissionLoss != tt.want {
			t.Errorf("Set(%v) stored %v, want %v", tt.in, got.TransmissionLoss, tt.want)
		}
	}
}

func TestInvalidOverrideTarget(t *testing.T) {
	col := NewOverrides(mesh.TypeCollisionMesh)
	before := col.Collision()
	if _, err := col.Set("M_Wall", SurfaceOverride{EnableTransmissionLoss: true, TransmissionLoss: 0}); !errors.Is(err, ErrInvalidOverrideTarget) {
		t.Errorf("expected ErrInvalidOverrideTarget, got %v", err)
	}
	if col.Collision() != before {
		t.Error("rejected Set must not change state")
	}

	st := staticOverrides("M_Wall")
	if _, err := st.Get(""); !errors.Is(err, ErrInvalidOverrideTarget) {
		t.Errorf("expected ErrInvalidOverrideTarget for empty material, got %v", err)
	}
	if _, err := st.Set("M_Missing", NewSurfaceOverride()); !errors.Is(err, ErrUnknownMaterial) {
		t.Errorf("expected ErrUnknownMaterial, got %v", err)
	}
	if len(st.Materials()) != 1 {
		t.Errorf("rejected Set must not add keys, got %v", st.Materials())
	}
}

func TestSyncMaterialsPrunes(t *testing.T) {
	o := staticOverrides("A", "B")
	o.Update("A", func(v *SurfaceOverride) { v.EnableTransmissionLoss = true; v.TransmissionLoss = 0.1 })

	if !o.SyncMaterials([]string{"A", "C"}) {
		t.Error("SyncMaterials should report a change")
	}
	if got := o.Materials(); len(got) != 2 || got[0] != "A" || got[1] != "C" {
		t.Errorf("Materials() = %v, want [A C]", got)
	}
	a, _ := o.Get("A")
	if !a.EnableTransmissionLoss || a.TransmissionLoss != 0.1 {
		t.Errorf("surviving override lost its values: %+v", a)
	}
	if o.SyncMaterials([]string{"C", "A"}) {
		t.Error("same key set should not report a change")
	}
}

func TestSetSurfaceAreas(t *testing.T) {
	data := &geometry.Data{Surfaces: []geometry.Surface{
		{Key: mesh.SurfaceKey{Material: "A"}, Area: 2},
		{Key: mesh.SurfaceKey{Material: "B"}, Area: 3},
		{Key: mesh.SurfaceKey{Material: "A"}, Area: 1.5},
	}}

	o := staticOverrides("A", "B")
	o.SetSurfaceAreas(data)
	a, _ := o.Get("A")
	if a.SurfaceArea() != 3.5 {
		t.Errorf("area of A = %v, want 3.5", a.SurfaceArea())
	}

	// Set keeps the derived area.
	got, _ := o.Set("A", SurfaceOverride{TransmissionLoss: 0.3})
	if got.SurfaceArea() != 3.5 {
		t.Errorf("Set should keep the surface area, got %v", got.SurfaceArea())
	}

	col := NewOverrides(mesh.TypeCollisionMesh)
	col.SetSurfaceAreas(data)
	if col.Collision().SurfaceArea() != 6.5 {
		t.Errorf("collision area = %v, want 6.5", col.Collision().SurfaceArea())
	}
}

func TestResolveFillsSurfaces(t *testing.T) {
	r := NewResolver(testStore(t), 1)
	data := &geometry.Data{Surfaces: []geometry.Surface{
		{Key: mesh.SurfaceKey{PhysicalMaterial: "PM_Brick"}},
		{Key: mesh.SurfaceKey{PhysicalMaterial: "PM_Glass"}},
	}}

	o := NewOverrides(mesh.TypeCollisionMesh)
	o.Set("", SurfaceOverride{EnableTransmissionLoss: true, TransmissionLoss: 0.25})
	r.Resolve(data, o)

	if data.Surfaces[0].Texture != uint32(ShortID("Brick")) || data.Surfaces[1].Texture != uint32(ShortID("Glass")) {
		t.Errorf("textures not resolved from physical materials: %+v", data.Surfaces)
	}
	for i, s := range data.Surfaces {
		if s.TransmissionLoss != 0.25 {
			t.Errorf("surface %d transmission loss = %v, want singleton override 0.25", i, s.TransmissionLoss)
		}
	}
}

func TestReplaceTextures(t *testing.T) {
	store := testStore(t)
	brick, _ := store.Texture("Brick")
	reloaded := &Texture{Name: "Brick", ID: brick.ID}

	o := staticOverrides("A")
	o.Update("A", func(v *SurfaceOverride) { v.Texture = brick })

	if !o.ContainsTexture(brick.ID) {
		t.Error("ContainsTexture should find Brick")
	}
	if !o.ReplaceTextures(map[*Texture]*Texture{brick: reloaded}) {
		t.Error("ReplaceTextures should report a change")
	}
	a, _ := o.Get("A")
	if a.Texture != reloaded {
		t.Error("texture reference not replaced")
	}
}
