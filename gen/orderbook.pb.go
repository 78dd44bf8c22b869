// source: proto/orderbook.proto
//
// protoc is not available in this environment, so this file is hand-written
// rather than emitted by protoc-gen-go. A real protoc-gen-go message embeds
// protoimpl.MessageState and a ProtoReflect() method backed by a compiled
// FileDescriptorProto, which cannot be fabricated by hand without risking
// silent corruption of the wire format. Level and Summary are plain structs
// instead, and codec.go registers a grpc codec that marshals them directly
// (as JSON) rather than routing them through the v2 proto.Message/protobuf
// wire encoding that grpc-go's built-in "proto" codec requires. Regenerate
// this file and drop codec.go's override once protoc-gen-go is available.
package gen

// Level is one top-of-book entry for a single venue (proto/orderbook.proto).
type Level struct {
	Exchange string  `json:"exchange"`
	Price    float64 `json:"price"`
	Amount   float64 `json:"amount"`
}

func (x *Level) GetExchange() string {
	if x != nil {
		return x.Exchange
	}
	return ""
}

func (x *Level) GetPrice() float64 {
	if x != nil {
		return x.Price
	}
	return 0
}

func (x *Level) GetAmount() float64 {
	if x != nil {
		return x.Amount
	}
	return 0
}

// Summary is the aggregated top-of-book snapshot streamed to subscribers
// (proto/orderbook.proto).
type Summary struct {
	Spread float64  `json:"spread"`
	Bids   []*Level `json:"bids"`
	Asks   []*Level `json:"asks"`
}

func (x *Summary) GetSpread() float64 {
	if x != nil {
		return x.Spread
	}
	return 0
}

func (x *Summary) GetBids() []*Level {
	if x != nil {
		return x.Bids
	}
	return nil
}

func (x *Summary) GetAsks() []*Level {
	if x != nil {
		return x.Asks
	}
	return nil
}
