package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"wisper/internal/domain"
)

type wireMessage struct {
	Sender string `cbor:"1,keyasint"`
	Body   string `cbor:"2,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		UTF8:              cbor.UTF8DecodeInvalid,
		MaxNestedLevels:   4,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Serialize encodes body from sender.
func Serialize(body, sender string) ([]byte, error) {
	if sender == "" {
		return nil, fmt.Errorf("empty sender: %w", domain.ErrMalformedMessage)
	}
	b, err := encMode.Marshal(wireMessage{Sender: sender, Body: body})
	if err != nil {
		return nil, fmt.Errorf("encode: %v: %w", err, domain.ErrMalformedMessage)
	}
	return b, nil
}

// Deserialize decodes a message produced by Serialize.
func Deserialize(b []byte) (domain.ChatMessage, error) {
	var m wireMessage
	if len(b) == 0 {
		return domain.ChatMessage{}, fmt.Errorf("empty payload: %w", domain.ErrMalformedMessage)
	}
	if err := decMode.Unmarshal(b, &m); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("decode: %v: %w", err, domain.ErrMalformedMessage)
	}
	if m.Sender == "" {
		return domain.ChatMessage{}, fmt.Errorf("missing sender: %w", domain.ErrMalformedMessage)
	}
	return domain.ChatMessage{Sender: m.Sender, Body: m.Body}, nil
}
