package queryir

// Kind is the value kind of a column.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "integer"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Tables lists the columns of each history table.
var Tables = map[string]map[string]Kind{
	"renders": {
		"id":             KindText,
		"seq":            KindInt,
		"kind":           KindText,
		"target":         KindText,
		"source_hash":    KindText,
		"scene_hash":     KindText,
		"source":         KindText,
		"scene":          KindText,
		"vertices":       KindInt,
		"frames":         KindInt,
		"engine_version": KindText,
		"scene_version":  KindText,
	},
	"llm_responses": {
		"id":            KindText,
		"seq":           KindInt,
		"provider":      KindText,
		"model":         KindText,
		"problem":       KindText,
		"response_type": KindText,
		"response_hash": KindText,
		"raw":           KindText,
		"valid":         KindBool,
		"error_code":    KindText,
		"warnings":      KindText,
		"attempts":      KindInt,
	},
}
