package domain

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

var triStateType = reflect.TypeOf(Unset)

// DecodeExtraction builds an Extraction from a loosely typed map such as a decoded
// JSON body or MCP tool arguments. Keys use the json names of Extraction; unknown
// keys are rejected.
func DecodeExtraction(raw map[string]any) (Extraction, error) {
	var ex Extraction
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           &ex,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       decodeTriState,
	})
	if err != nil {
		return Extraction{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Extraction{}, fmt.Errorf("invalid extraction: %w", err)
	}
	if ex.Intent != "" && !ValidIntent(ex.Intent) {
		return Extraction{}, fmt.Errorf("invalid extraction: unknown intent %q", ex.Intent)
	}
	return ex, nil
}

func decodeTriState(from, to reflect.Type, data any) (any, error) {
	if to != triStateType {
		return data, nil
	}
	return ParseTriState(data)
}
