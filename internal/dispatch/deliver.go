package dispatch

import "github.com/allnet-io/ad/internal/pipeio"

// Deliver sends a dispatch Result to the appropriate output pipes:
// nothing for Drop, pipes 0 and 1 at priority 0 for Local, every pipe
// at the computed priority (in pipe-index order) for All. Send
// failures are logged by the caller from the bool returned per pipe;
// they are never fatal.
func Deliver(ps *pipeio.PipeSet, r Result) []bool {
	switch r.Scope {
	case Drop:
		return nil

	case Local:
		return []bool{
			ps.Send(0, r.Payload, 0),
			ps.Send(1, r.Payload, 0),
		}

	default: // All
		ok := make([]bool, ps.Len())
		for i := range ok {
			ok[i] = ps.Send(i, r.Payload, r.Priority)
		}
		return ok
	}
}
