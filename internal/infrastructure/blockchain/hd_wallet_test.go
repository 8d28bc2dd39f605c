package blockchain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestHDWallet_KnownVector(t *testing.T) {
	w, err := NewHDWallet(testMnemonic, "")
	require.NoError(t, err)

	addr, err := w.DeriveAddress(0)
	require.NoError(t, err)
	require.Equal(t, "0x9858effd232b4033e47d90003d41ec34ecaeda94", addr)
}

func TestHDWallet_DeterministicAndDistinct(t *testing.T) {
	w1, err := NewHDWallet("  "+testMnemonic+"  ", "")
	require.NoError(t, err)
	w2, err := NewHDWallet(testMnemonic, "")
	require.NoError(t, err)

	a1, err := w1.DeriveAddress(7)
	require.NoError(t, err)
	a2, err := w2.DeriveAddress(7)
	require.NoError(t, err)
	require.Equal(t, a1, a2)

	other, err := w1.DeriveAddress(8)
	require.NoError(t, err)
	require.NotEqual(t, a1, other)

	withPass, err := NewHDWallet(testMnemonic, "secret")
	require.NoError(t, err)
	p0, err := withPass.DeriveAddress(0)
	require.NoError(t, err)
	require.NotEqual(t, "0x9858effd232b4033e47d90003d41ec34ecaeda94", p0)
}

func TestHDWallet_InvalidInput(t *testing.T) {
	_, err := NewHDWallet("abandon abandon", "")
	require.ErrorIs(t, err, ErrInvalidMnemonic)

	_, err = NewHDWallet("xprvnotakey", "")
	require.Error(t, err)

	w, err := NewHDWallet(testMnemonic, "")
	require.NoError(t, err)
	_, err = w.DeriveAddress(1 << 31)
	require.Error(t, err)
}
