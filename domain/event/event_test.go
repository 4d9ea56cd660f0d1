package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Envelope_Carries_Routing_Keys(t *testing.T) {
	req := require.New(t)

	evt, err := New(MessagePayload{Content: "hello"}, "", "conv-1")
	req.NoError(err)
	req.Equal(NewMessage, evt.Event)
	req.True(evt.Routable())

	evt, err = New(ErrorPayload{Message: "x", Kind: ConnectionError}, "", "")
	req.NoError(err)
	req.False(evt.Routable())
}

func Test_Decode_Message_Payload(t *testing.T) {
	req := require.New(t)
	evt, err := New(MessagePayload{ID: "m1", Content: "hello", AuthorName: "alice"}, "", "conv-1")
	req.NoError(err)

	payload, err := evt.DecodePayload()
	req.NoError(err)

	message, ok := payload.(MessagePayload)
	req.True(ok)
	req.Equal("hello", message.Content)
	req.Equal("alice", message.AuthorName)
}

func Test_Decode_Error_Payload_Restores_Kind(t *testing.T) {
	req := require.New(t)
	evt, err := New(ErrorPayload{Message: "nope", Kind: SendMessageError}, "user-1", "")
	req.NoError(err)

	payload, err := evt.DecodePayload()
	req.NoError(err)

	failure, ok := payload.(ErrorPayload)
	req.True(ok)
	req.Equal(SendMessageError, failure.EventName())
	req.Equal("nope", failure.Message)
}

func Test_Decode_Unknown_Event_Round_Trips_Untouched(t *testing.T) {
	req := require.New(t)
	raw := json.RawMessage(`{"future":"field"}`)
	evt := DomainEvent{Event: "presence-changed", Data: raw, UserID: "user-1"}

	payload, err := evt.DecodePayload()
	req.NoError(err)

	unknown, ok := payload.(RawPayload)
	req.True(ok)
	req.Equal(Name("presence-changed"), unknown.EventName())
	req.JSONEq(string(raw), string(unknown.Data))
}

func Test_Decode_Malformed_Data_Fails(t *testing.T) {
	req := require.New(t)
	evt := DomainEvent{Event: NewMessage, Data: json.RawMessage(`"not an object"`), ConversationID: "conv-1"}

	_, err := evt.DecodePayload()

	req.Error(err)
}
