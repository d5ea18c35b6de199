package acoustics

import "sort"

// ChangeKind classifies what changed in an override.
type ChangeKind uint8

const (
	ChangeNone ChangeKind = iota
	ChangeTextureOnly
	ChangeTransmissionOnly
	ChangeBoth
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeNone:
		return "none"
	case ChangeTextureOnly:
		return "texture"
	case ChangeTransmissionOnly:
		return "transmission"
	case ChangeBoth:
		return "both"
	default:
		return "unknown"
	}
}

// Merge combines two change kinds.
func (k ChangeKind) Merge(other ChangeKind) ChangeKind {
	switch {
	case k == other:
		return k
	case k == ChangeNone:
		return other
	case other == ChangeNone:
		return k
	default:
		return ChangeBoth
	}
}

// MaterialChange is one changed override. Material is empty for the
// collision singleton.
type MaterialChange struct {
	Material string
	Kind     ChangeKind
}

// Diff is the result of comparing two override snapshots.
type Diff struct {
	Changes []MaterialChange
	Kind    ChangeKind
	// Structural is set when materials were added or removed, which means
	// the surface layout itself changed.
	Structural bool
}

// DiffOverride compares the effective values of two overrides. A
// transmission loss that is not enabled has no effect and is ignored.
func DiffOverride(prev, cur SurfaceOverride) ChangeKind {
	kind := ChangeNone
	if prev.Texture != cur.Texture {
		kind = kind.Merge(ChangeTextureOnly)
	}
	if prev.EnableTransmissionLoss != cur.EnableTransmissionLoss ||
		(cur.EnableTransmissionLoss &&
			ClampTransmissionLoss(prev.TransmissionLoss) != ClampTransmissionLoss(cur.TransmissionLoss)) {
		kind = kind.Merge(ChangeTransmissionOnly)
	}
	return kind
}

// DiffMaps compares two static mesh override maps. Changes are sorted by
// material name.
func DiffMaps(prev, cur OverrideMap) Diff {
	var d Diff
	for m, c := range cur {
		p, ok := prev[m]
		if !ok {
			d.Structural = true
			d.Changes = append(d.Changes, MaterialChange{Material: m, Kind: ChangeBoth})
			continue
		}
		if kind := DiffOverride(p, c); kind != ChangeNone {
			d.Changes = append(d.Changes, MaterialChange{Material: m, Kind: kind})
		}
	}
	for m := range prev {
		if _, ok := cur[m]; !ok {
			d.Structural = true
			d.Changes = append(d.Changes, MaterialChange{Material: m, Kind: ChangeBoth})
		}
	}

	sort.Slice(d.Changes, func(i, j int) bool { return d.Changes[i].Material < d.Changes[j].Material })
	for _, c := range d.Changes {
		d.Kind = d.Kind.Merge(c.Kind)
	}
	return d
}
