package main

import (
	"fmt"
	"os"

	"github.com/Faultbox/midgard-acoustics/internal/acoustics"
	"github.com/Faultbox/midgard-acoustics/internal/component"
	"github.com/Faultbox/midgard-acoustics/internal/config"
	"github.com/Faultbox/midgard-acoustics/internal/logger"
	"github.com/Faultbox/midgard-acoustics/internal/scene"
	"github.com/Faultbox/midgard-acoustics/internal/spatial"
)

func cmdConvert(cfg *config.Config, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: akgeom convert <scene.yaml>")
		return 1
	}

	doc, err := scene.LoadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	sc, err := doc.Build(nil, cfg.Geometry, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Run the full pipeline against an in-memory engine.
	engine := spatial.NewRecorder()
	world := component.NewWorld(engine, acoustics.NewResolver(sc.Store, cfg.Acoustics.DefaultTransmissionLoss), logger.Named("world"))
	scene.NewSyncer(world, logger.Named("scene")).Apply(sc)
	defer world.Shutdown()

	fmt.Printf("Scene:   %s\n", args[0])
	fmt.Printf("Objects: %d\n", len(sc.Objects))

	failed := 0
	for _, g := range world.Components() {
		data := g.Data()
		opts := g.Options()

		fmt.Println()
		fmt.Printf("%s [%s, lod %d]\n", g.Name(), opts.MeshType, opts.LOD)
		if data.Empty() {
			fmt.Println("  no geometry")
			failed++
			continue
		}
		fmt.Printf("  set:       %s\n", g.GeometrySetID())
		fmt.Printf("  vertices:  %d\n", len(data.Vertices))
		fmt.Printf("  triangles: %d\n", len(data.Triangles))
		fmt.Printf("  area:      %.3f m²\n", data.TotalArea())
		a := g.MeanAbsorption()
		fmt.Printf("  absorption: %.1f / %.1f / %.1f / %.1f %%\n", a[0], a[1], a[2], a[3])
		textures, _ := g.TexturesAndSurfaceAreas()
		for i, s := range data.Surfaces {
			texture := "-"
			if textures[i] != nil {
				texture = textures[i].Name
			}
			fmt.Printf("  %-20s %-14s tl %.2f  %9.3f m²\n", s.Name, texture, s.TransmissionLoss, g.GetSurfaceAreaSquaredMeters(i))
		}
	}

	if failed > 0 {
		fmt.Printf("\n%d of %d objects produced no geometry\n", failed, len(sc.Objects))
		return 1
	}
	return 0
}

func cmdValidate(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: akgeom validate <scene.yaml>...")
		return 1
	}

	code := 0
	for _, path := range args {
		if _, err := scene.LoadFile(path); err != nil {
			fmt.Printf("FAIL %v\n", err)
			code = 1
			continue
		}
		fmt.Printf("ok   %s\n", path)
	}
	return code
}
