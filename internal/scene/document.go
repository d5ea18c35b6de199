// Package scene loads scene documents: YAML files describing acoustic
// textures, physical materials and the objects whose geometry is synced to
// the spatial audio engine.
package scene

// Document is the YAML form of a scene.
type Document struct {
	Textures          []TextureDoc          `yaml:"textures"`
	PhysicalMaterials []PhysicalMaterialDoc `yaml:"physical_materials"`
	Objects           []ObjectDoc           `yaml:"objects"`
}

// TextureDoc is an acoustic texture.
type TextureDoc struct {
	Name       string    `yaml:"name"`
	Absorption []float32 `yaml:"absorption"` // low, mid-low, mid-high, high
}

// PhysicalMaterialDoc maps a physical material to acoustic defaults.
type PhysicalMaterialDoc struct {
	Name             string   `yaml:"name"`
	Texture          string   `yaml:"texture"`
	TransmissionLoss *float32 `yaml:"transmission_loss"`
}

// ObjectDoc is a scene object with acoustic geometry.
type ObjectDoc struct {
	Name        string         `yaml:"name"`
	ID          string         `yaml:"id"`
	AddedByRoom bool           `yaml:"added_by_room"`
	Transform   TransformDoc   `yaml:"transform"`
	Geometry    GeometryDoc    `yaml:"geometry"`
	StaticMesh  *StaticMeshDoc `yaml:"static_mesh"`
	Collision   *CollisionDoc  `yaml:"collision"`
	Overrides   []OverrideDoc  `yaml:"overrides"`
}

// TransformDoc is a world transform. Missing parts default to identity.
type TransformDoc struct {
	Location []float32 `yaml:"location"`
	Rotation []float32 `yaml:"rotation"` // x, y, z, w
	Scale    []float32 `yaml:"scale"`
}

// GeometryDoc holds per-object geometry settings. Unset fields take the
// configured defaults.
type GeometryDoc struct {
	MeshType                         *string  `yaml:"mesh_type"`
	LOD                              *int     `yaml:"lod"`
	WeldingThreshold                 *float32 `yaml:"welding_threshold"`
	Solid                            *bool    `yaml:"solid"`
	EnableDiffraction                *bool    `yaml:"enable_diffraction"`
	EnableDiffractionOnBoundaryEdges *bool    `yaml:"enable_diffraction_on_boundary_edges"`
	BypassPortalSubtraction          *bool    `yaml:"bypass_portal_subtraction"`
}

// StaticMeshDoc is an inline static mesh.
type StaticMeshDoc struct {
	Name      string        `yaml:"name"`
	Materials []MaterialDoc `yaml:"materials"`
	LODs      []LODDoc      `yaml:"lods"`
}

// MaterialDoc is a render material.
type MaterialDoc struct {
	Name             string `yaml:"name"`
	PhysicalMaterial string `yaml:"physical_material"`
}

// LODDoc is one level of detail.
type LODDoc struct {
	Positions [][]float32  `yaml:"positions"`
	Sections  []SectionDoc `yaml:"sections"`
}

// SectionDoc is a run of triangles with one material.
type SectionDoc struct {
	Material string   `yaml:"material"`
	Indices  []uint32 `yaml:"indices"`
}

// CollisionDoc is simple collision.
type CollisionDoc struct {
	PhysicalMaterial string    `yaml:"physical_material"`
	Hulls            []HullDoc `yaml:"hulls"`
	Boxes            []BoxDoc  `yaml:"boxes"`
}

// HullDoc is a convex hull.
type HullDoc struct {
	PhysicalMaterial string      `yaml:"physical_material"`
	Positions        [][]float32 `yaml:"positions"`
	Indices          []uint32    `yaml:"indices"`
}

// BoxDoc is a box primitive.
type BoxDoc struct {
	PhysicalMaterial string    `yaml:"physical_material"`
	Center           []float32 `yaml:"center"`
	Extents          []float32 `yaml:"extents"`
	Rotation         []float32 `yaml:"rotation"`
}

// OverrideDoc overrides the acoustic properties of a material, or of the
// collision geometry when Material is empty. A transmission loss enables
// the transmission loss override.
type OverrideDoc struct {
	Material         string   `yaml:"material"`
	Texture          string   `yaml:"texture"`
	TransmissionLoss *float32 `yaml:"transmission_loss"`
}
