// Package client implements a wisper chat session: it reads lines from the
// operator, seals them for the other peers and renders whatever the relay
// forwards back.
//
// Inbound frames carry no type tag. A frame that opens under the session key
// is a chat message; anything else is a relay status line. A frame that is
// shaped like a sealed token but does not open means another peer holds a
// different key, and the session ends rather than show unreadable output.
package client
