package imm

import (
	"bytes"
	"encoding/json"
)

func (m *Map) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToNative(m))
}

func (m *Map) UnmarshalJSON(data []byte) error {
	native := map[string]any{}
	if err := decodeJSON(data, &native); err != nil {
		return err
	}
	*m = *From(native).(*Map)
	return nil
}

func (s *Seq) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToNative(s))
}

func (s *Seq) UnmarshalJSON(data []byte) error {
	native := []any{}
	if err := decodeJSON(data, &native); err != nil {
		return err
	}
	*s = *From(native).(*Seq)
	return nil
}

// Decode parses a JSON document into a Value.
func Decode(data []byte) (Value, error) {
	var native any
	if err := decodeJSON(data, &native); err != nil {
		return nil, err
	}
	return From(native), nil
}

func decodeJSON(data []byte, v any) error {
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()
	return d.Decode(v)
}
