// Package dispatch is the packet dispatcher: the single decision
// point that turns one arriving frame into a scope (drop, keep local,
// or flood) and a final priority, by wiring together the validator,
// duplicate filter, management classifier, social table, rate
// accounter, and priority computer.
package dispatch

import (
	"time"

	"github.com/allnet-io/ad/internal/dedupe"
	"github.com/allnet-io/ad/internal/mgmt"
	"github.com/allnet-io/ad/internal/packet"
	"github.com/allnet-io/ad/internal/priority"
	"github.com/allnet-io/ad/internal/rate"
	"github.com/allnet-io/ad/internal/social"
)

// Scope re-exports the classifier's three-valued result so callers
// only need to import this package.
type Scope = mgmt.Scope

const (
	Drop  = mgmt.Drop
	Local = mgmt.Local
	All   = mgmt.All
)

// Result is the dispatcher's decision for one packet: where it goes
// and at what priority. Payload is buf itself (mutated in place for
// the hop-count increment); callers must not reuse buf after
// dispatch.
type Result struct {
	Scope    Scope
	Priority uint32
	Payload  []byte
}

// Dispatcher owns the daemon's per-process state: the duplicate
// filter, the management classifier, the rate accounter, and the
// social table. None of it is copied per-dispatch; each packet
// mutates the same instances, consistent with a single dispatch
// goroutine owning all of it.
type Dispatcher struct {
	Dedupe *dedupe.Filter
	Mgmt   *mgmt.Classifier
	Social *social.Table
	Rate   *rate.Accounter

	// LocalPipes is the set of pipe indices treated as local
	// submitters (apps on 0, cache on 1).
	LocalPipes map[int]bool
}

// New constructs a Dispatcher with fresh component state.
func New(social *social.Table) *Dispatcher {
	return &Dispatcher{
		Dedupe:     dedupe.New(dedupe.DefaultCapacity, dedupe.DefaultTTL),
		Mgmt:       mgmt.New(),
		Social:     social,
		Rate:       rate.New(rate.DefaultWindow),
		LocalPipes: map[int]bool{0: true, 1: true},
	}
}

// Dispatch runs one packet through the full classification and
// forwarding-decision sequence. pipeIndex identifies which pipe buf
// arrived on; claimedPriority is the priority the submitter attached
// to it; now is injected for testability.
func (d *Dispatcher) Dispatch(pipeIndex int, buf []byte, claimedPriority uint32, now time.Time) Result {
	// 1. Validate.
	if !packet.IsValidMessage(buf) {
		return Result{Scope: Drop}
	}

	// 2. Classify locality.
	isLocal := d.LocalPipes[pipeIndex]

	// 3. Reset priority for non-local submitters.
	pri := claimedPriority
	if !isLocal {
		pri = priority.EPSILON
	}

	h := packet.ParseHeader(buf)

	// 4. Duplicate check.
	fp := packet.ComputeFingerprint(buf)
	if age := d.Dedupe.Record(fp); age > 0 {
		if isLocal {
			return Result{Scope: Local, Priority: 0, Payload: buf}
		}
		return Result{Scope: Drop}
	}

	// 5. Management dispatch.
	if h.MessageType == packet.TypeMgmt {
		hs := packet.HeaderSize(h.Transport)
		mgmtType := packet.MgmtType(buf[hs:])
		scope := d.Mgmt.Classify(mgmtType, isLocal, &pri, now)
		switch scope {
		case Drop:
			return Result{Scope: Drop}
		case Local:
			return Result{Scope: Local, Priority: 0, Payload: buf}
		default:
			return Result{Scope: All, Priority: pri, Payload: buf}
		}
	}

	// 6. Local shortcut.
	if isLocal {
		return Result{Scope: All, Priority: pri, Payload: buf}
	}

	// 7. Increment hop count with saturation.
	packet.IncrementHops(&h)
	packet.PutHeader(buf, h)

	// 8. Hop exhaustion.
	if h.Hops >= h.MaxHops {
		return Result{Scope: Local, Priority: 0, Payload: buf}
	}

	// 9. Preliminary priority: anonymous tier, and the conservative
	// assumption that an unverified source is the network's busiest
	// one, since it cannot yet be charged its own measured rate.
	prelim := priority.Compute(priority.Inputs{
		Size:         len(buf),
		SrcNBits:     h.SrcNBits,
		DstNBits:     h.DstNBits,
		Hops:         h.Hops,
		MaxHops:      h.MaxHops,
		SocialTier:   priority.UnknownSocialTier,
		RateFraction: 1.0,
	})

	// 10. Signature handling.
	if h.SigAlgo == packet.SigNone {
		return Result{Scope: All, Priority: prelim, Payload: buf}
	}

	snap := d.Social.Snapshot()
	signedRegion := packet.SignedRegion(buf, h)
	sig := packet.Signature(buf)
	tier, valid := social.Connection(snap, signedRegion, h.Source, h.SrcNBits, h.SigAlgo, sig)
	if !valid {
		return Result{Scope: All, Priority: prelim, Payload: buf}
	}

	fraction := d.Rate.Track(h.Source, h.SrcNBits, len(buf))
	final := priority.Compute(priority.Inputs{
		Size:         len(buf),
		SrcNBits:     h.SrcNBits,
		DstNBits:     h.DstNBits,
		Hops:         h.Hops,
		MaxHops:      h.MaxHops,
		SocialTier:   tier,
		RateFraction: fraction,
	})
	return Result{Scope: All, Priority: final, Payload: buf}
}
