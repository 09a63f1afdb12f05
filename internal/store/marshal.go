package store

import (
	"encoding/json"
	"fmt"
)

// marshalTokens converts a token list to JSON TEXT for storage. A nil list
// is stored as "[]".
func marshalTokens(tokens []string) (string, error) {
	if tokens == nil {
		tokens = []string{}
	}
	data, err := json.Marshal(tokens)
	if err != nil {
		return "", fmt.Errorf("marshal tokens: %w", err)
	}
	return string(data), nil
}

// unmarshalTokens converts JSON TEXT back to a token list.
func unmarshalTokens(text string) ([]string, error) {
	tokens := []string{}
	if err := json.Unmarshal([]byte(text), &tokens); err != nil {
		return nil, fmt.Errorf("unmarshal tokens: %w", err)
	}
	return tokens, nil
}
