package scene

import "github.com/roach88/geometrix/internal/ir"

// Object types understood by renderers.
const (
	TypeSurfaceGrid = "surface_grid"
	TypePoints      = "points"
	TypeLine        = "line"
	TypeMesh        = "mesh"
)

// Buffer roles used in ObjectSpec.Buffers.
const (
	RolePositions = "positions"
	RoleValues    = "values"
	RoleFaces     = "faces"
)

// BufferSpec describes one raw buffer.
type BufferSpec struct {
	DType DType `json:"dtype"`
	Shape []int `json:"shape"`
}

// ObjectSpec is one drawable object. Buffers maps a role such as
// "positions" to a key of SceneSpec.Buffers.
type ObjectSpec struct {
	Type     string            `json:"type"`
	Name     string            `json:"name,omitempty"`
	Buffers  map[string]string `json:"buffers"`
	Style    map[string]any    `json:"style"`
	Metadata map[string]any    `json:"metadata"`
}

// SceneSpec is the versioned scene description.
type SceneSpec struct {
	Version   string                `json:"version"`
	Objects   []ObjectSpec          `json:"objects"`
	Buffers   map[string]BufferSpec `json:"buffers"`
	Camera    map[string]any        `json:"camera"`
	Lights    []map[string]any      `json:"lights"`
	Axes      map[string]any        `json:"axes"`
	Grid      map[string]any        `json:"grid"`
	Controls  map[string]any        `json:"controls"`
	Legend    map[string]any        `json:"legend"`
	Gizmo     map[string]any        `json:"gizmo"`
	Animation *AnimationSpec        `json:"animation,omitempty"`
}

// NewSceneSpec returns an empty spec at the current scene version.
func NewSceneSpec() *SceneSpec {
	return &SceneSpec{
		Version:  ir.SceneVersion,
		Objects:  []ObjectSpec{},
		Buffers:  map[string]BufferSpec{},
		Camera:   map[string]any{},
		Lights:   []map[string]any{},
		Axes:     map[string]any{},
		Grid:     map[string]any{},
		Controls: map[string]any{},
		Legend:   map[string]any{},
		Gizmo:    map[string]any{},
	}
}

// Bundle pairs a spec with the arrays its buffers describe.
type Bundle struct {
	Scene  *SceneSpec       `json:"scene"`
	Arrays map[string]Array `json:"-"`
}

// Hash returns the content hash of the scene spec.
func (b *Bundle) Hash() (string, error) {
	return ir.SceneHash(b.Scene)
}
