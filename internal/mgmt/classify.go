// Package mgmt classifies management-subprotocol packets: it decides
// whether a MGMT packet is dropped, kept local, or flooded, based on
// its mgmt_type and (for TRACE_REQ) a small amount of
// trace-suppression state.
package mgmt

import (
	"time"

	"github.com/allnet-io/ad/internal/packet"
	"github.com/allnet-io/ad/internal/priority"
)

// Scope is the dispatcher's three-valued classification result.
type Scope int

const (
	Drop Scope = iota
	Local
	All
)

func (s Scope) String() string {
	switch s {
	case Drop:
		return "drop"
	case Local:
		return "local"
	case All:
		return "all"
	default:
		return "unknown"
	}
}

// traceGracePeriod is how long the classifier waits for a local trace
// handler to claim a suppressed foreign TRACE_REQ before resuming
// flooding: if none does within ten seconds, the handler is presumed
// dead or absent and the daemon resumes flooding so the network
// remains traceable.
const traceGracePeriod = 10 * time.Second

// Classifier holds the one piece of mutable state the classification
// decision depends on: the timestamp of the most recently suppressed
// foreign TRACE_REQ.
type Classifier struct {
	lastUnforwardedTrace time.Time
}

// New constructs a Classifier with no suppressed trace on record.
func New() *Classifier {
	return &Classifier{}
}

// Classify decides a MGMT packet's scope from its mgmt_type. priority
// is the submitter-claimed priority on entry (already forced to
// priority.EPSILON by the dispatcher for non-local packets); Classify
// may force it further to EPSILON for the management types that are
// always forwarded at minimum priority regardless of locality. now is
// injected for testability.
func (c *Classifier) Classify(mgmtType byte, isLocal bool, pri *uint32, now time.Time) Scope {
	switch mgmtType {
	case packet.MgmtBeacon, packet.MgmtBeaconReply, packet.MgmtBeaconGrant:
		return Drop

	case packet.MgmtPeerRequest, packet.MgmtPeers, packet.MgmtDHT:
		return Local

	case packet.MgmtTraceReq:
		return c.classifyTrace(isLocal, now)

	case packet.MgmtTraceReply:
		*pri = priority.EPSILON
		return All

	default:
		*pri = priority.EPSILON
		return All
	}
}

func (c *Classifier) classifyTrace(isLocal bool, now time.Time) Scope {
	if isLocal {
		// A local trace process claims responsibility for replying;
		// clear any earlier suppression record.
		c.lastUnforwardedTrace = time.Time{}
		return All
	}

	if c.lastUnforwardedTrace.IsZero() || now.Sub(c.lastUnforwardedTrace) <= traceGracePeriod {
		c.lastUnforwardedTrace = now
		return Local
	}

	// No local trace handler has replied within the grace period:
	// the handler appears dead, so resume flooding so the network
	// remains traceable.
	return All
}

// LastUnforwardedTrace reports the classifier's trace-suppression
// timestamp, for tests and diagnostics.
func (c *Classifier) LastUnforwardedTrace() time.Time {
	return c.lastUnforwardedTrace
}
