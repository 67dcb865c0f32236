package scene

import (
	"fmt"
	"maps"

	"gonum.org/v1/gonum/mat"
)

// Options customizes the single object a builder creates.
type Options struct {
	Name     string
	Style    map[string]any
	Metadata map[string]any
}

// BuildBuffers describes every array as a buffer under the same key.
func BuildBuffers(arrays map[string]Array) map[string]BufferSpec {
	specs := make(map[string]BufferSpec, len(arrays))
	for key, a := range arrays {
		specs[key] = a.Spec()
	}
	return specs
}

// BuildSurfaceScene builds a scene with one surface_grid object whose
// positions are laid out row-major over a (Nu, Nv) grid. The grid is
// recorded as metadata and not compared with the row count.
func BuildSurfaceScene(positions *mat.Dense, grid [2]int, opts Options) (*Bundle, error) {
	if err := checkPositions(positions); err != nil {
		return nil, err
	}
	metadata := map[string]any{"grid": map[string]any{"Nu": grid[0], "Nv": grid[1]}}
	maps.Copy(metadata, opts.Metadata)
	opts.Metadata = metadata
	return single(TypeSurfaceGrid, "surface", opts, map[string]Array{RolePositions: FromDense(positions)}), nil
}

// BuildPointsScene builds a scene with one points object.
func BuildPointsScene(positions *mat.Dense, opts Options) (*Bundle, error) {
	if err := checkPositions(positions); err != nil {
		return nil, err
	}
	return single(TypePoints, "points", opts, map[string]Array{RolePositions: FromDense(positions)}), nil
}

// BuildLineScene builds a scene with one polyline. values, when non-nil,
// carries one scalar per vertex.
func BuildLineScene(positions *mat.Dense, values []float64, opts Options) (*Bundle, error) {
	if err := checkPositions(positions); err != nil {
		return nil, err
	}
	arrays := map[string]Array{RolePositions: FromDense(positions)}
	if values != nil {
		if err := checkValues(positions, values); err != nil {
			return nil, err
		}
		arrays[RoleValues] = FromValues(values)
	}
	return single(TypeLine, "line", opts, arrays), nil
}

// BuildMeshScene builds a scene with one triangle mesh. Faces index into
// positions; the indices are not checked against the vertex count.
func BuildMeshScene(positions *mat.Dense, faces [][3]uint32, values []float64, opts Options) (*Bundle, error) {
	if err := checkPositions(positions); err != nil {
		return nil, err
	}
	flat := make([]uint32, 0, 3*len(faces))
	for _, f := range faces {
		flat = append(flat, f[0], f[1], f[2])
	}
	faceArray, err := NewUint32(flat, len(faces), 3)
	if err != nil {
		return nil, err
	}
	arrays := map[string]Array{RolePositions: FromDense(positions), RoleFaces: faceArray}
	if values != nil {
		if err := checkValues(positions, values); err != nil {
			return nil, err
		}
		arrays[RoleValues] = FromValues(values)
	}
	return single(TypeMesh, "mesh", opts, arrays), nil
}

// GridFaces triangulates a row-major (nu, nv) vertex grid, two triangles
// per cell.
func GridFaces(nu, nv int) [][3]uint32 {
	if nu < 2 || nv < 2 {
		return nil
	}
	faces := make([][3]uint32, 0, 2*(nu-1)*(nv-1))
	for i := range nu - 1 {
		for j := range nv - 1 {
			a := uint32(i*nv + j)
			b := a + 1
			c := a + uint32(nv)
			d := c + 1
			faces = append(faces, [3]uint32{a, c, b}, [3]uint32{b, c, d})
		}
	}
	return faces
}

func single(typ, defaultName string, opts Options, arrays map[string]Array) *Bundle {
	name := opts.Name
	if name == "" {
		name = defaultName
	}
	refs := make(map[string]string, len(arrays))
	for role := range arrays {
		refs[role] = role
	}
	spec := NewSceneSpec()
	spec.Objects = append(spec.Objects, ObjectSpec{
		Type:     typ,
		Name:     name,
		Buffers:  refs,
		Style:    orEmpty(opts.Style),
		Metadata: orEmpty(opts.Metadata),
	})
	spec.Buffers = BuildBuffers(arrays)
	return &Bundle{Scene: spec, Arrays: arrays}
}

func checkPositions(positions *mat.Dense) error {
	if positions == nil || positions.IsEmpty() {
		return fmt.Errorf("positions are empty")
	}
	if _, c := positions.Dims(); c != 3 {
		return fmt.Errorf("positions must have 3 columns, got %d", c)
	}
	return nil
}

func checkValues(positions *mat.Dense, values []float64) error {
	if n, _ := positions.Dims(); len(values) != n {
		return fmt.Errorf("%d values for %d vertices", len(values), n)
	}
	return nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
