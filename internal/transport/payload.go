package transport

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/roach88/geometrix/internal/scene"
)

// Payload carries the raw buffers of a bundle.
type Payload struct {
	Specs   map[string]scene.BufferSpec `json:"specs"`
	Buffers map[string]string           `json:"buffers"` // base64 little-endian
}

// FramePayload carries the buffers of one animation frame.
type FramePayload struct {
	T       float64           `json:"t"`
	Buffers map[string]string `json:"buffers"`
}

// BuildPayload encodes every array under its buffer key.
func BuildPayload(arrays map[string]scene.Array) *Payload {
	p := &Payload{
		Specs:   scene.BuildBuffers(arrays),
		Buffers: make(map[string]string, len(arrays)),
	}
	for key, a := range arrays {
		p.Buffers[key] = base64.StdEncoding.EncodeToString(EncodeArray(a))
	}
	return p
}

// BuildFramePayloads encodes the arrays of every frame.
func BuildFramePayloads(anim *scene.Animation) []FramePayload {
	out := make([]FramePayload, len(anim.Frames))
	for i, f := range anim.Frames {
		out[i] = FramePayload{T: f.T, Buffers: BuildPayload(f.Arrays).Buffers}
	}
	return out
}

// EncodeArray returns the little-endian bytes of a.
func EncodeArray(a scene.Array) []byte {
	buf := make([]byte, 0, 4*a.Len())
	switch a.DType() {
	case scene.Uint32:
		for _, v := range a.Uint32s() {
			buf = binary.LittleEndian.AppendUint32(buf, v)
		}
	default:
		for _, v := range a.Float32s() {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	return buf
}

// Decode restores the array stored under key.
func (p *Payload) Decode(key string) (scene.Array, error) {
	spec, ok := p.Specs[key]
	if !ok {
		return scene.Array{}, fmt.Errorf("payload has no buffer %q", key)
	}
	raw, err := base64.StdEncoding.DecodeString(p.Buffers[key])
	if err != nil {
		return scene.Array{}, fmt.Errorf("buffer %q: %w", key, err)
	}
	if len(raw)%4 != 0 {
		return scene.Array{}, fmt.Errorf("buffer %q: %d bytes is not a multiple of 4", key, len(raw))
	}
	n := len(raw) / 4
	switch spec.DType {
	case scene.Float32:
		data := make([]float32, n)
		for i := range data {
			data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
		}
		return scene.NewFloat32(data, spec.Shape...)
	case scene.Uint32:
		data := make([]uint32, n)
		for i := range data {
			data[i] = binary.LittleEndian.Uint32(raw[4*i:])
		}
		return scene.NewUint32(data, spec.Shape...)
	default:
		return scene.Array{}, fmt.Errorf("buffer %q: unsupported dtype %q", key, spec.DType)
	}
}
