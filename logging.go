package aeon

import (
	"sync"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

// Event is this package's logiface event type, aliased to izerolog's so
// every call site constructs builders against a concrete backend rather
// than a type parameter. Grounded on the teacher's logging.go (package
// level swappable logger), retargeted from its own hand-rolled Logger
// interface/LogEntry onto the logiface+izerolog facade the rest of the
// retrieval pack builds structured logging on.
type Event = izerolog.Event

var (
	globalLogger struct {
		sync.RWMutex
		logger *logiface.Logger[*Event]
	}
)

func init() {
	globalLogger.logger = logiface.New[*Event](
		izerolog.WithZerolog(zerolog.Nop()),
	)
}

// SetLogger installs logger as the package-wide structured logger used by
// the scheduler, reactor, and timer wheel for diagnostic events. The
// default, installed at package init, discards everything (zerolog.Nop),
// matching the teacher's NewNoOpLogger default.
func SetLogger(logger *logiface.Logger[*Event]) {
	globalLogger.Lock()
	defer globalLogger.Unlock()
	globalLogger.logger = logger
}

// SetZerologOutput is a convenience wrapper around SetLogger for the
// common case of wanting plain zerolog output at a given level.
func SetZerologOutput(z zerolog.Logger, level logiface.Level) {
	SetLogger(logiface.New[*Event](
		izerolog.WithZerolog(z),
		logiface.WithLevel[*Event](level),
	))
}

func getLogger() *logiface.Logger[*Event] {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	return globalLogger.logger
}

// logDebug/logInfo/logWarn/logErr are the internal call sites the rest of the
// package uses; kept narrow (message + key/value pairs) rather than
// exposing the full Builder chain outside this file.
func logDebug(msg string, kv ...any) { logAt(getLogger().Debug(), msg, kv) }
func logInfo(msg string, kv ...any)  { logAt(getLogger().Info(), msg, kv) }
func logWarn(msg string, kv ...any)  { logAt(getLogger().Warning(), msg, kv) }

func logErr(err error, msg string, kv ...any) {
	b := getLogger().Err()
	if b == nil {
		return
	}
	b = b.Err(err)
	applyKV(b, kv)
	b.Log(msg)
}

func logAt(b *logiface.Builder[*Event], msg string, kv []any) {
	if b == nil {
		return
	}
	applyKV(b, kv)
	b.Log(msg)
}

// applyKV applies alternating key/value pairs to b, preferring Str/Err
// for the common cases and falling back to the generic Field setter
// (logiface's Any) for everything else.
func applyKV(b *logiface.Builder[*Event], kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		switch v := kv[i+1].(type) {
		case string:
			b.Str(key, v)
		case error:
			b.Err(v)
		case int:
			b.Int(key, v)
		case int64:
			b.Int64(key, v)
		case uint64:
			b.Uint64(key, v)
		case bool:
			b.Bool(key, v)
		default:
			b.Field(key, v)
		}
	}
}
