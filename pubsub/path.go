package pubsub

import (
	"fmt"
	"strings"
)

// Path builds a dotted trigger string from path segments, so structured
// triggers compose without callers formatting strings by hand:
//
//	pubsub.Path("chat", "room", 17)  // "chat.room.17"
//
// Custom trigger transforms can split the result back on "." to recover the
// segments.
func Path(segments ...any) string {
	parts := make([]string, len(segments))
	for i, seg := range segments {
		parts[i] = fmt.Sprintf("%v", seg)
	}
	return strings.Join(parts, ".")
}
