package gen

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
)

// wireCodec replaces grpc-go's built-in "proto" codec (registered by the
// side-effect import inside google.golang.org/grpc itself). The built-in
// codec type-asserts every message to the v2 proto.Message interface
// (whose only method is ProtoReflect), which Level and Summary do not
// implement since they are hand-written structs rather than protoc-gen-go
// output. Real proto.Message values — google.protobuf.Empty, the unary
// request BookSummary takes — still marshal through the real protobuf wire
// format; Level and Summary marshal as JSON instead.
//
// encoding.RegisterCodec indexes codecs by name and the last registration
// for a given name wins, so this overrides the built-in "proto" codec as
// long as this package is imported before any RPC is made, which it always
// is: the grpc.ServiceDesc it builds on is only reachable via gen.
type wireCodec struct{}

func (wireCodec) Name() string { return "proto" }

func (wireCodec) Marshal(v interface{}) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return proto.Marshal(m)
	}
	return json.Marshal(v)
}

func (wireCodec) Unmarshal(data []byte, v interface{}) error {
	if m, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, m)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func init() {
	encoding.RegisterCodec(wireCodec{})
}
