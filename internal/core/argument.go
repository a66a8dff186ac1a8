package core

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Argument is one entry of an argument list. Plain entries are string
// tokens; conditional entries ({"rules": ..., "value": ...}) are kept
// verbatim since only launch code interprets them.
type Argument struct {
	Value string
	Raw   json.RawMessage
}

// StringArg returns a plain token argument.
func StringArg(s string) Argument {
	return Argument{Value: s}
}

// IsPlain reports whether the argument is a plain string token.
func (a Argument) IsPlain() bool {
	return a.Raw == nil
}

func (a Argument) String() string {
	if a.IsPlain() {
		return a.Value
	}
	return string(a.Raw)
}

// MarshalJSON implements json.Marshaler
func (a Argument) MarshalJSON() ([]byte, error) {
	if a.IsPlain() {
		return json.Marshal(a.Value)
	}
	return a.Raw, nil
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Argument) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Argument{Value: s}
		return nil
	}
	raw := make(json.RawMessage, len(data))
	copy(raw, data)
	*a = Argument{Raw: raw}
	return nil
}

// TokenizeLegacyArguments splits a pre-1.13 minecraftArguments string
// into tokens.
func TokenizeLegacyArguments(s string) []Argument {
	fields := strings.Fields(s)
	args := make([]Argument, len(fields))
	for i, f := range fields {
		args[i] = StringArg(f)
	}
	return args
}

// JoinLegacyArguments is the inverse of TokenizeLegacyArguments.
func JoinLegacyArguments(args []Argument) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, " ")
}
