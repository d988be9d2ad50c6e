package utils

import (
	"encoding/json"
)

// Remarshal converts input into a T through its JSON representation, e.g.
// a tagged struct into plain maps.
func Remarshal[T any](input any) (T, error) {
	var output T
	b, err := json.Marshal(input)
	if err != nil {
		return output, err
	}
	err = json.Unmarshal(b, &output)
	return output, err
}
