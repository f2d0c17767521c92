package accounts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	key0  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	addr0 = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	key1  = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	addr1 = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func writeAccountFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	content := "# bridging accounts\n" +
		"\n" +
		addr0 + "," + key0 + "\n" +
		addr1 + ",0x" + key1 + "\n"
	accts, err := Load(writeAccountFile(t, content))
	require.NoError(t, err)
	require.Len(t, accts, 2)

	assert.Equal(t, common.HexToAddress(addr0), accts[0].Address)
	assert.Equal(t, common.HexToAddress(addr1), accts[1].Address)
	for _, a := range accts {
		assert.Equal(t, 0, a.BridgeCount)
		assert.True(t, a.LastReset.IsZero())
		assert.Equal(t, Idle, a.State)
	}
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	content := "not-an-entry\n" +
		addr0 + ",zz-bad-key\n" +
		"0x1234," + key0 + "\n" +
		addr0 + "," + key0 + "\n"
	accts, err := Load(writeAccountFile(t, content))
	require.NoError(t, err)
	require.Len(t, accts, 1)
	assert.Equal(t, common.HexToAddress(addr0), accts[0].Address)
}

func TestLoadMismatchedAddressUsesDerived(t *testing.T) {
	// Declared address belongs to a different key. The derived one wins.
	content := addr0 + "," + key1 + "\n"
	accts, err := Load(writeAccountFile(t, content))
	require.NoError(t, err)
	require.Len(t, accts, 1)
	assert.Equal(t, common.HexToAddress(addr1), accts[0].Address)
}

func TestLoadNoUsableAccounts(t *testing.T) {
	_, err := Load(writeAccountFile(t, "# only comments\n\n"))
	require.ErrorIs(t, err, ErrNoAccounts)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestDeriveAddressMatchesCrypto(t *testing.T) {
	privKey, err := crypto.HexToECDSA(key0)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(privKey.PublicKey), DeriveAddress(privKey))
}
