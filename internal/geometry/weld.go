package geometry

import (
	gomath "math"

	"github.com/Faultbox/midgard-acoustics/pkg/math"
)

type cell [3]int64

// Weld merges vertices closer than threshold. The earliest vertex of a group
// becomes its representative. It returns the welded positions and a remap
// from input index to welded index.
func Weld(positions []math.Vec3, threshold float32) ([]math.Vec3, []uint32) {
	if threshold <= 0 {
		return weldExact(positions)
	}
	return weldGrid(positions, threshold)
}

func weldExact(positions []math.Vec3) ([]math.Vec3, []uint32) {
	welded := make([]math.Vec3, 0, len(positions))
	remap := make([]uint32, len(positions))
	index := make(map[math.Vec3]uint32, len(positions))

	for i, p := range positions {
		if rep, ok := index[p]; ok {
			remap[i] = rep
			continue
		}
		rep := uint32(len(welded))
		index[p] = rep
		welded = append(welded, p)
		remap[i] = rep
	}
	return welded, remap
}

// weldGrid buckets representatives in cells of size threshold, so any
// candidate within threshold lies in one of the 27 neighbouring cells.
func weldGrid(positions []math.Vec3, threshold float32) ([]math.Vec3, []uint32) {
	welded := make([]math.Vec3, 0, len(positions))
	remap := make([]uint32, len(positions))
	grid := make(map[cell][]uint32)
	limit := threshold * threshold

	for i, p := range positions {
		c := cellOf(p, threshold)

		best := -1
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, rep := range grid[cell{c[0] + dx, c[1] + dy, c[2] + dz}] {
						if welded[rep].DistanceSquared(p) < limit && (best < 0 || int(rep) < best) {
							best = int(rep)
						}
					}
				}
			}
		}

		if best >= 0 {
			remap[i] = uint32(best)
			continue
		}

		rep := uint32(len(welded))
		welded = append(welded, p)
		grid[c] = append(grid[c], rep)
		remap[i] = rep
	}
	return welded, remap
}

func cellOf(p math.Vec3, size float32) cell {
	return cell{
		int64(gomath.Floor(float64(p.X / size))),
		int64(gomath.Floor(float64(p.Y / size))),
		int64(gomath.Floor(float64(p.Z / size))),
	}
}
