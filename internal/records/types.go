package records

import (
	"fmt"
	"strings"
)

// Record is one row from the tabular store. Fields is the raw field map as
// returned by the API; relation fields hold arrays of opaque record ids.
type Record struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime,omitempty"`
	Fields      map[string]any `json:"fields"`
}

// RecordUpdate addresses one record in a batch PATCH.
type RecordUpdate struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// ListOptions narrows a list call. Zero values mean "no constraint".
type ListOptions struct {
	MaxRecords int
	Fields     []string
}

// StringField reads a text field, tolerating the store returning numbers or
// other scalars where text is expected.
func StringField(fields map[string]any, name string) string {
	if fields == nil {
		return ""
	}
	value, ok := fields[name]
	if !ok || value == nil {
		return ""
	}
	if text, ok := value.(string); ok {
		return text
	}
	return strings.TrimSpace(fmt.Sprintf("%v", value))
}

// StringSliceField reads a relation field. Absent fields are empty sets, not
// errors.
func StringSliceField(fields map[string]any, name string) []string {
	if fields == nil {
		return nil
	}
	value, ok := fields[name]
	if !ok || value == nil {
		return nil
	}
	switch casted := value.(type) {
	case []string:
		out := make([]string, 0, len(casted))
		for _, item := range casted {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(casted))
		for _, item := range casted {
			text, ok := item.(string)
			if !ok {
				continue
			}
			if trimmed := strings.TrimSpace(text); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	default:
		return nil
	}
}
