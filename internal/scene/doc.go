// Package scene assembles renderer-agnostic scene descriptions.
//
// A SceneSpec is pure metadata: objects name the buffers they read and
// Buffers records each buffer's dtype and shape. The numeric data lives
// next to the SceneSpec in Bundle.Arrays, keyed by the same buffer names, so a
// spec can be serialized and hashed without its payload.
package scene
