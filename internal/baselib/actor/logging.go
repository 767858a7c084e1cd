package actor

import (
	"context"

	"github.com/btcsuite/btclog/v2"
)

// log is the package-wide logger, following the teacher's convention of a
// single package-level btclog.Logger swapped out via UseLogger rather than
// threaded through every call (cmd/substrated wires loggers this way for
// every subsystem it starts).
var log btclog.Logger = btclog.Disabled

// UseLogger installs the logger every actor lifecycle event is written to.
// Call it once during host startup, before spawning any actors.
func UseLogger(logger btclog.Logger) {
	log = logger
}

func logActorEvent(ctx context.Context, a *Actor, msg string) {
	log.DebugS(ctx, msg, "actor_id", a.selfRef.ID(), "path", a.actorPath.String())
}

func logFaultEvent(ctx context.Context, a *Actor, err error, child *Ref) {
	if child != nil {
		log.WarnS(ctx, "Fault escalated from child", err, "actor_id",
			a.selfRef.ID(), "child_path", child.Path().String())
		return
	}
	log.WarnS(ctx, "Fault in own behavior", err, "actor_id", a.selfRef.ID())
}

func logRootFaultEvent(ctx context.Context, err error, child *Ref) {
	if child != nil {
		log.ErrorS(ctx, "Unhandled fault escalated to root", err,
			"child_path", child.Path().String())
		return
	}
	log.ErrorS(ctx, "Unhandled fault escalated to root", err)
}
