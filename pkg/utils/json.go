package utils

import (
	jsoniter "github.com/json-iterator/go"
)

var Json = jsoniter.ConfigCompatibleWithStandardLibrary

// MustJsonString marshals v, returning "null" when marshaling fails.
func MustJsonString(v any) string {
	s, err := Json.MarshalToString(v)
	if err != nil {
		return "null"
	}
	return s
}

// ParseStringList decodes a JSON string array, treating empty or broken
// payloads as an empty list.
func ParseStringList(s string) []string {
	if s == "" || s == "null" {
		return nil
	}
	var out []string
	if err := Json.UnmarshalFromString(s, &out); err != nil {
		return nil
	}
	return out
}
