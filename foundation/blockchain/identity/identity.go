// Package identity provides the identifier a node uses as the recipient of
// its mining rewards.
package identity

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// New returns the node identifier. When a key path is provided the id is
// the address of the ECDSA key stored in that file, otherwise a random id
// is generated for the life of the process.
func New(keyPath string) (string, error) {
	if keyPath == "" {
		return Random(), nil
	}

	return FromKeyFile(keyPath)
}

// Random returns a random uuid without the dashes.
func Random() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// FromKeyFile loads the ECDSA private key stored in hex in the specified
// file and returns its address.
func FromKeyFile(path string) (string, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return "", fmt.Errorf("unable to load private key: %w", err)
	}

	return Address(privateKey), nil
}

// GenerateKeyFile creates a new ECDSA private key, saves it to the
// specified file and returns its address.
func GenerateKeyFile(path string) (string, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("unable to generate private key: %w", err)
	}

	if err := crypto.SaveECDSA(path, privateKey); err != nil {
		return "", fmt.Errorf("unable to save private key: %w", err)
	}

	return Address(privateKey), nil
}

// Address returns the hex encoded address for the key.
func Address(privateKey *ecdsa.PrivateKey) string {
	return crypto.PubkeyToAddress(privateKey.PublicKey).Hex()
}
