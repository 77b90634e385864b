package acl

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateDefaultAllow(t *testing.T) {
	g := NewGate(true)

	assert.True(t, g.Admit(net.ParseIP("192.168.1.1")))
	assert.True(t, g.Admit(net.ParseIP("10.0.0.1")))

	require.NoError(t, g.Deny("10.0.0.0/8"))

	assert.False(t, g.Admit(net.ParseIP("10.0.0.1")))
	assert.False(t, g.Admit(net.ParseIP("10.255.255.255")))
	assert.True(t, g.Admit(net.ParseIP("192.168.1.1")))
}

func TestGateDefaultDeny(t *testing.T) {
	g := NewGate(false)

	assert.False(t, g.Admit(net.ParseIP("192.168.1.1")))
	assert.False(t, g.Admit(net.ParseIP("10.0.0.1")))

	require.NoError(t, g.Allow("192.168.0.0/16"))

	assert.True(t, g.Admit(net.ParseIP("192.168.1.1")))
	assert.True(t, g.Admit(net.ParseIP("192.168.255.255")))
	assert.False(t, g.Admit(net.ParseIP("10.0.0.1")))
}

func TestGateFirstRuleWins(t *testing.T) {
	g := NewGate(false)

	// A narrower deny added before a broader allow takes precedence,
	// since Admit stops at the first matching rule in insertion order.
	require.NoError(t, g.Deny("10.0.1.0/24"))
	require.NoError(t, g.Allow("10.0.0.0/8"))

	assert.False(t, g.Admit(net.ParseIP("10.0.1.1")))
	assert.False(t, g.Admit(net.ParseIP("10.0.1.254")))
	assert.True(t, g.Admit(net.ParseIP("10.0.0.1")))
	assert.True(t, g.Admit(net.ParseIP("10.0.2.1")))
}

func TestGateLaterRuleCanReverseEarlier(t *testing.T) {
	g := NewGate(false)

	// Reversing the insertion order of the previous test reverses which
	// rule wins, since evaluation is first-match, not most-specific.
	require.NoError(t, g.Allow("10.0.0.0/8"))
	require.NoError(t, g.Deny("10.0.1.0/24"))

	assert.True(t, g.Admit(net.ParseIP("10.0.1.1")), "the broader allow rule was added first and wins")
}

func TestGateSingleIP(t *testing.T) {
	g := NewGate(false)

	require.NoError(t, g.Allow("192.168.1.100"))

	assert.True(t, g.Admit(net.ParseIP("192.168.1.100")))
	assert.False(t, g.Admit(net.ParseIP("192.168.1.101")))
}

func TestGateIPv6(t *testing.T) {
	g := NewGate(false)

	require.NoError(t, g.Allow("2001:db8::/32"))

	assert.True(t, g.Admit(net.ParseIP("2001:db8::1")))
	assert.True(t, g.Admit(net.ParseIP("2001:db8:ffff::1")))
	assert.False(t, g.Admit(net.ParseIP("2001:db9::1")))
}

func TestGateMalformedRuleIsRejected(t *testing.T) {
	g := NewGate(true)

	err := g.Allow("not-a-network")
	assert.Error(t, err)
}

func TestGateReset(t *testing.T) {
	g := NewGate(true)
	require.NoError(t, g.Deny("10.0.0.0/8"))
	assert.False(t, g.Admit(net.ParseIP("10.0.0.1")))

	g.Reset()
	assert.True(t, g.Admit(net.ParseIP("10.0.0.1")), "reset should fall back to the default policy")
}
