// Package rpc carries the gRPC wire contracts of the service. Messages are plain Go structs
// marshalled as JSON by a codec registered under the "json" content-subtype.
package rpc

import (
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// CallOption selects the JSON codec on client calls.
func CallOption() grpc.CallOption {
	return grpc.CallContentSubtype(CodecName)
}
