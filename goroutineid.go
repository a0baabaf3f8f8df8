package aeon

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID extracts the calling goroutine's runtime id by parsing the
// header line of runtime.Stack's output ("goroutine 123 [running]: ...").
// Go deliberately exposes no public goroutine-local-storage API; this is
// the standard workaround used throughout the ecosystem when a piece of
// code must recognize "am I running on worker W's goroutine" without
// threading an explicit handle through every call site (here: the
// scheduler's spawn fast-path, which wants to enqueue onto the calling
// worker's own deque only when the caller actually is a worker).
//
// This is deliberately the one piece of the scheduler built directly on
// the standard library rather than a pack dependency: no example repo in
// the corpus ships a goroutine-id implementation (goroutineid/ carries
// only a go.mod, no source to adapt), and the runtime.Stack parse is the
// idiomatic Go substitute.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if i := bytes.Index(b, []byte(prefix)); i >= 0 {
		b = b[i+len(prefix):]
	}
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseInt(string(b), 10, 64)
	return id
}
