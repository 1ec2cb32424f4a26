// Package framing splits a raw byte stream into frames and re-assembles
// outbound frames.
//
// Every frame is terminated by domain.Separator. Splitting one read on the
// separator therefore yields the frames followed by a final empty element
// that marks the end of the send. If that final element is non-empty the
// read ended mid-frame: the complete frames are still returned, the tail is
// dropped and ErrIncompletePacket is reported.
//
// There is no cross-read reassembly buffer. A frame that TCP splits across
// two reads is lost. Frames are either ciphertext tokens (which never contain
// the separator) or short status lines, so single-read delivery is the
// common case.
package framing
