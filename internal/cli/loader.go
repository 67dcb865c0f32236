package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/roach88/geometrix/internal/engine"
)

// Generic CLI error codes (E001-E099). Pipeline errors carry their own.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeReadFailed  = "E002" // Source could not be read
	ErrCodeEmptySource = "E003" // Source file is empty
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeBadFlag     = "E008" // Flag value could not be interpreted
)

// LoadError reports a source file that could not be loaded.
type LoadError struct {
	Code    string
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
}

// LoadSource reads DSL text from path, or from stdin when path is "-".
func LoadSource(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		info, statErr := os.Stat(path)
		switch {
		case os.IsNotExist(statErr):
			return "", &LoadError{Code: ErrCodeNotFound, Path: path, Message: "source file not found"}
		case statErr != nil:
			return "", &LoadError{Code: ErrCodeReadFailed, Path: path, Message: statErr.Error()}
		case info.IsDir():
			return "", &LoadError{Code: ErrCodeReadFailed, Path: path, Message: "is a directory"}
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", &LoadError{Code: ErrCodeReadFailed, Path: path, Message: err.Error()}
	}
	if len(data) == 0 {
		return "", &LoadError{Code: ErrCodeEmptySource, Path: path, Message: "source is empty"}
	}
	return string(data), nil
}

// LoadProgram reads and parses a DSL file.
func LoadProgram(path string, stdin io.Reader) (*engine.Program, error) {
	source, err := LoadSource(path, stdin)
	if err != nil {
		return nil, err
	}
	return engine.Geom(source)
}
