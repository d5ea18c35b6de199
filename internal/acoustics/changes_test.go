package acoustics

import (
	"testing"

	"github.com/Faultbox/midgard-acoustics/internal/mesh"
)

func TestDiffOverride(t *testing.T) {
	brick := &Texture{Name: "Brick", ID: ShortID("Brick")}
	base := NewSurfaceOverride()

	tests := []struct {
		name string
		cur  SurfaceOverride
		want ChangeKind
	}{
		{"unchanged", base, ChangeNone},
		{"texture", SurfaceOverride{Texture: brick, TransmissionLoss: 1}, ChangeTextureOnly},
		{"enable", SurfaceOverride{EnableTransmissionLoss: true, TransmissionLoss: 1}, ChangeTransmissionOnly},
		{"disabled value", SurfaceOverride{TransmissionLoss: 0.2}, ChangeNone},
		{"both", SurfaceOverride{Texture: brick, EnableTransmissionLoss: true, TransmissionLoss: 0.2}, ChangeBoth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DiffOverride(base, tt.cur); got != tt.want {
				t.Errorf("DiffOverride() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiffMaps(t *testing.T) {
	brick := &Texture{Name: "Brick", ID: ShortID("Brick")}
	prev := OverrideMap{
		"A": NewSurfaceOverride(),
		"B": {EnableTransmissionLoss: true, TransmissionLoss: 0.5},
		"C": NewSurfaceOverride(),
	}

	cur := prev.Clone()
	if d := DiffMaps(prev, cur); d.Kind != ChangeNone || len(d.Changes) != 0 || d.Structural {
		t.Errorf("identical maps should not differ: %+v", d)
	}

	cur["B"] = SurfaceOverride{EnableTransmissionLoss: true, TransmissionLoss: 0.7}
	d := DiffMaps(prev, cur)
	if d.Kind != ChangeTransmissionOnly || d.Structural {
		t.Errorf("expected transmission-only diff, got %+v", d)
	}
	if len(d.Changes) != 1 || d.Changes[0].Material != "B" {
		t.Errorf("expected one change on B, got %+v", d.Changes)
	}

	cur["A"] = SurfaceOverride{Texture: brick, TransmissionLoss: 1}
	d = DiffMaps(prev, cur)
	if d.Kind != ChangeBoth {
		t.Errorf("texture on A plus transmission on B should merge to both, got %v", d.Kind)
	}
	if d.Changes[0].Material != "A" || d.Changes[1].Material != "B" {
		t.Errorf("changes should be sorted by material: %+v", d.Changes)
	}

	delete(cur, "C")
	if d := DiffMaps(prev, cur); !d.Structural {
		t.Error("removing a material should be structural")
	}
}

func TestOverridesDiffAndCommit(t *testing.T) {
	o := NewOverrides(mesh.TypeCollisionMesh)
	if d := o.Diff(); d.Kind != ChangeNone {
		t.Errorf("fresh overrides should not differ, got %v", d.Kind)
	}

	o.Set("", SurfaceOverride{EnableTransmissionLoss: true, TransmissionLoss: 0.4})
	d := o.Diff()
	if d.Kind != ChangeTransmissionOnly || len(d.Changes) != 1 || d.Changes[0].Material != "" {
		t.Errorf("unexpected collision diff %+v", d)
	}

	o.Commit()
	if d := o.Diff(); d.Kind != ChangeNone {
		t.Errorf("after Commit diff should be empty, got %v", d.Kind)
	}

	o.SetMeshType(mesh.TypeStaticMesh)
	o.SyncMaterials([]string{"M_Wall"})
	if d := o.Diff(); !d.Structural {
		t.Error("new static material since last commit should be structural")
	}
}

func TestChangeKindMerge(t *testing.T) {
	tests := []struct {
		a, b, want ChangeKind
	}{
		{ChangeNone, ChangeNone, ChangeNone},
		{ChangeNone, ChangeTextureOnly, ChangeTextureOnly},
		{ChangeTransmissionOnly, ChangeNone, ChangeTransmissionOnly},
		{ChangeTextureOnly, ChangeTransmissionOnly, ChangeBoth},
		{ChangeBoth, ChangeTextureOnly, ChangeBoth},
	}
	for _, tt := range tests {
		if got := tt.a.Merge(tt.b); got != tt.want {
			t.Errorf("%v.Merge(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
