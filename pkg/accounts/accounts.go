package accounts

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/sha3"
)

var ErrNoAccounts = errors.New("no usable accounts")

type State int

const (
	Idle State = iota
	Attempting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Attempting:
		return "Attempting"
	default:
		return "unknown"
	}
}

type Account struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey

	BridgeCount         int
	LastReset           time.Time
	ConsecutiveFailures int
	SuspendedUntil      time.Time
	State               State
}

// Load reads bridging accounts from a file with one "address,secretKey" entry
// per line. Blank lines and lines starting with # are ignored.
func Load(path string) ([]*Account, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read account file at: %s, %w", path, err)
	}
	accts := parseAccounts(string(buf))
	if len(accts) == 0 {
		return nil, ErrNoAccounts
	}
	log.Info().Msgf("Loaded %d bridging accounts from %s", len(accts), path)
	return accts, nil
}

func parseAccounts(content string) []*Account {
	lines := strings.Split(content, "\n")
	accts := make([]*Account, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 2 {
			log.Warn().Msgf("Skipping malformed account line %d: expected address,secretKey", i+1)
			continue
		}
		declared := strings.TrimSpace(parts[0])
		keyHex := strings.TrimPrefix(strings.TrimSpace(parts[1]), "0x")
		if !common.IsHexAddress(declared) {
			log.Warn().Msgf("Skipping account line %d: %s is not a valid address", i+1, declared)
			continue
		}
		privKey, err := crypto.HexToECDSA(keyHex)
		if err != nil {
			log.Warn().Err(err).Msgf("Skipping account line %d: invalid secret key", i+1)
			continue
		}
		derived := DeriveAddress(privKey)
		if derived != common.HexToAddress(declared) {
			log.Warn().Msgf("Account line %d: declared address %s does not match secret key, using derived address %s",
				i+1, declared, derived.Hex())
		}
		accts = append(accts, &Account{Address: derived, PrivateKey: privKey})
	}
	return accts
}

func DeriveAddress(privKey *ecdsa.PrivateKey) common.Address {
	pubKeyBytes := crypto.FromECDSAPub(&privKey.PublicKey)
	hash := sha3.NewLegacyKeccak256()
	hash.Write(pubKeyBytes[1:])
	return common.BytesToAddress(hash.Sum(nil)[12:])
}
