package ctutils

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

// TestLogClosureLazy asserts the closure only runs when stringified.
func TestLogClosureLazy(t *testing.T) {
	t.Parallel()

	calls := 0
	c := NewLogClosure(func() string {
		calls++
		return "done"
	})
	require.Zero(t, calls)
	require.Equal(t, "done", c.String())
	require.Equal(t, 1, calls)

	require.Contains(t, SpewLogClosure(struct{ A int }{7}).String(), "A: 7")
}

// TestLogPubKey checks the attribute keys for nil and real keys.
func TestLogPubKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, "k", LogPubKey("k", nil).Key)

	priv, _ := btcec.PrivKeyFromBytes([]byte{1})
	attr := LogPubKey("pub", priv.PubKey())
	require.Equal(t, "pub", attr.Key)

	var point [33]byte
	copy(point[:], priv.PubKey().SerializeCompressed())
	require.Equal(t, "gen", LogPoint("gen", point).Key)
}
