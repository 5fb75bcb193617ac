package actorbus

import (
	"fmt"

	"github.com/loopcore/actorbus/channel"
)

// ErrChannelClosed is the error taxonomy's ChannelClosed condition (spec
// §7): the endpoint was closed and the caller must stop using it. It is an
// alias for channel.ErrClosed so callers can match either name with
// errors.Is.
var ErrChannelClosed = channel.ErrClosed

// programmerError panics with a message identifying a caller contract
// violation: opening an already-open pipeline, querying or replying on a
// closed one, issuing a second concurrent query, and the like. These
// conditions are documented as programmer errors the process should not try
// to recover from, in the same spirit as the teacher's own Peer.Start (which
// panics if started twice) and Peer.HandlePacket (which panics on a reserved
// packet type).
func programmerError(format string, args ...any) {
	panic(fmt.Sprintf("actorbus: "+format, args...))
}
