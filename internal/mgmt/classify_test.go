package mgmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/allnet-io/ad/internal/packet"
	"github.com/allnet-io/ad/internal/priority"
)

func Test_Classify_beaconTypesAlwaysDropped(t *testing.T) {
	c := New()
	for _, mt := range []byte{packet.MgmtBeacon, packet.MgmtBeaconReply, packet.MgmtBeaconGrant} {
		pri := uint32(42)
		scope := c.Classify(mt, true, &pri, time.Now())
		assert.Equal(t, Drop, scope)

		pri = 42
		scope = c.Classify(mt, false, &pri, time.Now())
		assert.Equal(t, Drop, scope)
	}
}

func Test_Classify_peerAndDHTTypesAreLocalOnly(t *testing.T) {
	c := New()
	for _, mt := range []byte{packet.MgmtPeerRequest, packet.MgmtPeers, packet.MgmtDHT} {
		pri := uint32(42)
		assert.Equal(t, Local, c.Classify(mt, true, &pri, time.Now()))
		assert.Equal(t, Local, c.Classify(mt, false, &pri, time.Now()))
	}
}

func Test_Classify_localTraceReqClearsSuppressionAndFloods(t *testing.T) {
	c := New()
	now := time.Now()
	pri := uint32(77)

	// Prime a suppression record as though a remote trace arrived first.
	c.Classify(packet.MgmtTraceReq, false, &pri, now)
	assert.False(t, c.LastUnforwardedTrace().IsZero())

	pri = 77
	scope := c.Classify(packet.MgmtTraceReq, true, &pri, now.Add(time.Second))
	assert.Equal(t, All, scope)
	assert.Equal(t, uint32(77), pri, "local trace submission keeps the submitter's priority")
	assert.True(t, c.LastUnforwardedTrace().IsZero())
}

func Test_Classify_remoteTraceReqFirstTimeIsSuppressedLocally(t *testing.T) {
	c := New()
	pri := uint32(0)
	scope := c.Classify(packet.MgmtTraceReq, false, &pri, time.Now())
	assert.Equal(t, Local, scope)
}

func Test_Classify_remoteTraceReqWithinGraceStaysLocal(t *testing.T) {
	c := New()
	now := time.Now()
	pri := uint32(0)

	c.Classify(packet.MgmtTraceReq, false, &pri, now)
	scope := c.Classify(packet.MgmtTraceReq, false, &pri, now.Add(9*time.Second))
	assert.Equal(t, Local, scope)
}

func Test_Classify_remoteTraceReqAfterGraceFloods(t *testing.T) {
	c := New()
	now := time.Now()
	pri := uint32(0)

	c.Classify(packet.MgmtTraceReq, false, &pri, now)
	scope := c.Classify(packet.MgmtTraceReq, false, &pri, now.Add(11*time.Second))
	assert.Equal(t, All, scope)
}

func Test_Classify_traceReplyForcesMinimumPriority(t *testing.T) {
	c := New()
	pri := uint32(500)
	scope := c.Classify(packet.MgmtTraceReply, true, &pri, time.Now())
	assert.Equal(t, All, scope)
	assert.Equal(t, priority.EPSILON, pri)
}

func Test_Classify_unknownTypeForwardsAtMinimumPriority(t *testing.T) {
	c := New()
	pri := uint32(500)
	scope := c.Classify(0xFE, true, &pri, time.Now())
	assert.Equal(t, All, scope)
	assert.Equal(t, priority.EPSILON, pri)
}
