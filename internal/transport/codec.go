package transport

import (
	"encoding/json"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Decode fills dst, a JSON-tagged request struct, from a Struct message.
func Decode(src *structpb.Struct, dst interface{}) error {
	if src == nil {
		return nil
	}
	raw, err := protojson.Marshal(src)
	if err != nil {
		return model.Validationf("malformed request: %v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return model.Validationf("malformed request: %v", err)
	}
	return nil
}

// Encode renders v, which must marshal to a JSON object, as a Struct message.
func Encode(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}
