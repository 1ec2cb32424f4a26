package domain

// Separator terminates every frame on the wire.
const Separator byte = '\n'

// DefaultPort is the TCP port the relay binds and clients dial.
const DefaultPort = 4440

// ChatMessage is the logical unit exchanged between clients. It only exists in
// this structured form inside a client: before encryption on the sender and
// after decryption on the receiver.
type ChatMessage struct {
	Sender string
	Body   string
}

// Frame is one delimited unit of the wire protocol. The relay never interprets
// its content.
type Frame []byte

// Status is an unencrypted notice emitted by the relay.
type Status string

// Frame returns the status line as a wire frame.
func (s Status) Frame() Frame { return Frame(s) }

// String returns the status text.
func (s Status) String() string { return string(s) }
