package solana

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// ErrInvalidAddress is returned for strings that are not Solana public keys.
var ErrInvalidAddress = errors.New("invalid solana address")

const (
	minAddressLen = 32
	maxAddressLen = 44
	publicKeyLen  = 32
)

// ValidateAddress checks that addr is a base58 encoded 32-byte public key.
func ValidateAddress(addr string) error {
	if len(addr) < minAddressLen || len(addr) > maxAddressLen {
		return ErrInvalidAddress
	}
	// base58.Decode returns an empty slice for characters outside the alphabet
	decoded := base58.Decode(addr)
	if len(decoded) != publicKeyLen {
		return ErrInvalidAddress
	}
	return nil
}
