package scene

import (
	"fmt"
	"slices"
)

// DefaultFPS is the frame rate of NewAnimation.
const DefaultFPS = 30

// Frame holds the arrays of one animation step at time T.
type Frame struct {
	T      float64
	Arrays map[string]Array
}

// Animation is a sequence of frames sharing the buffers of one scene.
type Animation struct {
	Frames   []Frame
	FPS      int
	Loop     bool
	Metadata map[string]any
}

// AnimationSpec is the serialized animation header.
type AnimationSpec struct {
	FPS        int            `json:"fps"`
	Loop       bool           `json:"loop"`
	FrameCount int            `json:"frame_count"`
	Metadata   map[string]any `json:"metadata"`
}

// NewAnimation returns a looping animation at DefaultFPS.
func NewAnimation(frames []Frame) *Animation {
	return &Animation{Frames: frames, FPS: DefaultFPS, Loop: true, Metadata: map[string]any{}}
}

// Spec returns the animation header.
func (a *Animation) Spec() AnimationSpec {
	return AnimationSpec{
		FPS:        a.FPS,
		Loop:       a.Loop,
		FrameCount: len(a.Frames),
		Metadata:   orEmpty(a.Metadata),
	}
}

// Validate checks that every frame carries every buffer of the scene with
// the same dtype and shape.
func (a *Animation) Validate(scene *SceneSpec) error {
	if a.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", a.FPS)
	}
	for i, f := range a.Frames {
		for key, spec := range scene.Buffers {
			arr, ok := f.Arrays[key]
			if !ok {
				return fmt.Errorf("frame %d (t=%g) is missing buffer %q", i, f.T, key)
			}
			if arr.DType() != spec.DType || !slices.Equal(arr.Shape(), spec.Shape) {
				return fmt.Errorf("frame %d (t=%g) buffer %q is %s%v, want %s%v", i, f.T, key, arr.DType(), arr.Shape(), spec.DType, spec.Shape)
			}
		}
	}
	return nil
}

// AttachAnimation returns a copy of scene with the animation header set.
func AttachAnimation(scene *SceneSpec, a *Animation) *SceneSpec {
	out := *scene
	spec := a.Spec()
	out.Animation = &spec
	return &out
}
