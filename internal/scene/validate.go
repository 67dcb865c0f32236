package scene

import (
	"fmt"
	"slices"
)

// ReferenceError reports an object buffer reference that cannot be
// resolved.
type ReferenceError struct {
	Object string
	Role   string
	Buffer string
	Reason string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("object %s %s buffer %q: %s", e.Object, e.Role, e.Buffer, e.Reason)
}

// Validate checks that every buffer an object references is described in
// the SceneSpec and present in the arrays, with matching dtype and shape. It
// does not inspect the data itself.
func Validate(b *Bundle) error {
	if b == nil || b.Scene == nil {
		return fmt.Errorf("scene bundle is empty")
	}
	if b.Scene.Version == "" {
		return fmt.Errorf("scene has no version")
	}
	for i, obj := range b.Scene.Objects {
		label := obj.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		for _, role := range sortedRoles(obj.Buffers) {
			key := obj.Buffers[role]
			spec, ok := b.Scene.Buffers[key]
			if !ok {
				return &ReferenceError{Object: label, Role: role, Buffer: key, Reason: "missing from scene buffers"}
			}
			arr, ok := b.Arrays[key]
			if !ok {
				return &ReferenceError{Object: label, Role: role, Buffer: key, Reason: "missing from arrays"}
			}
			if arr.DType() != spec.DType || !slices.Equal(arr.Shape(), spec.Shape) {
				return &ReferenceError{
					Object: label,
					Role:   role,
					Buffer: key,
					Reason: fmt.Sprintf("array is %s%v, spec says %s%v", arr.DType(), arr.Shape(), spec.DType, spec.Shape),
				}
			}
		}
	}
	return nil
}

func sortedRoles(refs map[string]string) []string {
	roles := make([]string, 0, len(refs))
	for r := range refs {
		roles = append(roles, r)
	}
	slices.Sort(roles)
	return roles
}
