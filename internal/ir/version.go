package ir

// Version constants for IR schema, scene format and engine.
const (
	// IRVersion is the IR schema version.
	IRVersion = "1"

	// SceneVersion is the scene specification format version.
	SceneVersion = "1.0"

	// EngineVersion is the geometrix engine version.
	EngineVersion = "0.1.0"
)
