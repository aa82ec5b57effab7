package notify

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoding names a payload format
type Encoding string

const (
	EncodingJSON    Encoding = "json"
	EncodingMsgpack Encoding = "msgpack"
)

// Encode serializes ev in the given format
func Encode(enc Encoding, ev *Event) ([]byte, error) {
	switch enc {
	case EncodingJSON, "":
		return json.Marshal(ev)
	case EncodingMsgpack:
		return msgpack.Marshal(ev)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
	}
}

// Decode parses a payload produced by Encode
func Decode(enc Encoding, data []byte) (*Event, error) {
	var ev Event
	var err error
	switch enc {
	case EncodingJSON, "":
		err = json.Unmarshal(data, &ev)
	case EncodingMsgpack:
		err = msgpack.Unmarshal(data, &ev)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s event: %w", enc, err)
	}
	return &ev, nil
}
