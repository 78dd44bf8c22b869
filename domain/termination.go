package domain

import "context"

// ResolveTermination decides what a VenueAdapter.Start should return once
// its session context has ended. termCh carries a terminal Signal if the
// adapter's own transport loop detected one (Desync/Disconnected/Fatal)
// before cancelling sessionCtx; otherwise the cancellation came from the
// caller (parentCtx done, i.e. the Supervisor tearing the session down on
// purpose), which is not itself a fault.
func ResolveTermination(parentCtx, sessionCtx context.Context, termCh <-chan Termination) Termination {
	select {
	case t := <-termCh:
		return t
	default:
	}
	if parentCtx.Err() != nil {
		return Termination{Signal: SignalNone, Err: parentCtx.Err()}
	}
	return Termination{Signal: SignalDisconnected, Err: sessionCtx.Err()}
}
