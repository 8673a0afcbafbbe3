package network

import jsoniter "github.com/json-iterator/go"

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// mustJSON encodes diagnostic payloads; the shapes are static so failure
// is a programming error
func mustJSON(v any) []byte {
	out, err := codec.Marshal(v)
	if err != nil {
		panic(err)
	}
	return out
}
