package ir

import (
	"fmt"
	"strings"
	"unicode"
)

// Variance of a tensor index.
type Variance string

const (
	VarianceUp   Variance = "up"
	VarianceDown Variance = "down"
)

// TensorIndex is a single index of a tensor name, e.g. the "i" in Gamma^i_{jk}.
type TensorIndex struct {
	Symbol   string   `json:"symbol"`
	Variance Variance `json:"variance"`
}

// TensorMetadata describes the index structure of a tensor definition.
// Dim is zero until the tensor is finalized against the declared coordinates.
type TensorMetadata struct {
	Name    string        `json:"name"`
	Indices []TensorIndex `json:"indices"`
	Order   int           `json:"order"`
	Dim     int           `json:"dim"`
}

// Components returns Dim^Order, the number of flat components.
func (m TensorMetadata) Components() int {
	n := 1
	for range m.Order {
		n *= m.Dim
	}
	return n
}

// Validate checks the metadata invariants.
// A zero Dim is accepted (coordinates not yet known).
func (m TensorMetadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("tensor name is empty")
	}
	if m.Order < 1 {
		return fmt.Errorf("tensor %s: order must be >= 1, got %d", m.Name, m.Order)
	}
	if m.Order != len(m.Indices) {
		return fmt.Errorf("tensor %s: order %d does not match %d indices", m.Name, m.Order, len(m.Indices))
	}
	if m.Dim < 0 {
		return fmt.Errorf("tensor %s: negative dimension %d", m.Name, m.Dim)
	}
	return nil
}

// Signature renders the indices back in compact notation, e.g. "^i_jk".
func (m TensorMetadata) Signature() string {
	var b strings.Builder
	var last Variance
	for _, idx := range m.Indices {
		if idx.Variance != last {
			if idx.Variance == VarianceUp {
				b.WriteByte('^')
			} else {
				b.WriteByte('_')
			}
			last = idx.Variance
		}
		b.WriteString(idx.Symbol)
	}
	return b.String()
}

// HasIndexMarker reports whether s contains "_" or "^" followed by a brace
// group or an alphanumeric character.
func HasIndexMarker(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] != '_' && s[i] != '^' {
			continue
		}
		next := rune(s[i+1])
		if next == '{' || isIndexChar(next) {
			return true
		}
	}
	return false
}

// ParseTensorName parses index notation such as "g_{ij}" or "Gamma^i_{jk}".
// The base name is the leading run of letters; every "_" or "^" marker
// contributes one index per character of its group.
func ParseTensorName(name string) (TensorMetadata, error) {
	name = strings.TrimSpace(name)
	pos := 0
	for pos < len(name) && isLetter(rune(name[pos])) {
		pos++
	}
	if pos == 0 {
		return TensorMetadata{}, fmt.Errorf("tensor name %q must start with a letter", name)
	}
	meta := TensorMetadata{Name: name[:pos]}

	for pos < len(name) {
		var variance Variance
		switch name[pos] {
		case '_':
			variance = VarianceDown
		case '^':
			variance = VarianceUp
		default:
			return TensorMetadata{}, fmt.Errorf("tensor name %q: unexpected %q at offset %d", name, name[pos], pos)
		}
		pos++
		if pos >= len(name) {
			return TensorMetadata{}, fmt.Errorf("tensor name %q: dangling index marker", name)
		}

		var group string
		if name[pos] == '{' {
			end := strings.IndexByte(name[pos:], '}')
			if end < 0 {
				return TensorMetadata{}, fmt.Errorf("tensor name %q: unterminated index group", name)
			}
			group = strings.TrimSpace(name[pos+1 : pos+end])
			pos += end + 1
			if group == "" {
				return TensorMetadata{}, fmt.Errorf("tensor name %q: empty index group", name)
			}
		} else {
			group = name[pos : pos+1]
			pos++
		}

		for _, r := range group {
			if !isIndexChar(r) {
				return TensorMetadata{}, fmt.Errorf("tensor name %q: invalid index symbol %q", name, r)
			}
			meta.Indices = append(meta.Indices, TensorIndex{Symbol: string(r), Variance: variance})
		}
	}

	meta.Order = len(meta.Indices)
	if err := meta.Validate(); err != nil {
		return TensorMetadata{}, err
	}
	return meta, nil
}

func isLetter(r rune) bool {
	return r < unicode.MaxASCII && unicode.IsLetter(r)
}

func isIndexChar(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
