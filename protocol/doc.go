// Package protocol implements the wire side of the matrix control protocol:
// reassembly of fragmented inbound messages, the closed set of actions and the
// JSON message types exchanged with clients.
//
// A message may arrive in several fragments. Each connection owns an [Engine]
// that appends fragments to a fixed capacity [Buffer] and hands out the
// complete payload once the final fragment arrived:
//
//	e := protocol.NewEngine(48000)
//	msg, err := e.Feed(protocol.Fragment{Final: true, Total: len(p), Payload: p})
package protocol
