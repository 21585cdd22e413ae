package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// strictDecodeArgs decodes tool arguments rejecting unknown fields, so a
// hallucinated argument surfaces as a validation failure instead of being
// silently dropped.
func strictDecodeArgs(raw json.RawMessage, target any) error {
	payload := bytes.TrimSpace(raw)
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return err
	}
	var trailing any
	if err := decoder.Decode(&trailing); err != io.EOF {
		return fmt.Errorf("unexpected trailing json")
	}
	return nil
}
