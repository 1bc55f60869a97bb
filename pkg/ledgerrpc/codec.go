package ledgerrpc

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec carries plain structs as JSON. Connect's built-in JSON codec
// only handles protobuf messages, so this one replaces it by name.
type jsonCodec struct {
	name string
}

func (c jsonCodec) Name() string { return c.name }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// WithJSON configures a client to speak JSON to splitledger services.
func WithJSON() connect.ClientOption {
	return connect.WithCodec(jsonCodec{name: "json"})
}

func handlerCodecs() connect.HandlerOption {
	return connect.WithHandlerOptions(
		connect.WithCodec(jsonCodec{name: "json"}),
		connect.WithCodec(jsonCodec{name: "json; charset=utf-8"}),
	)
}
