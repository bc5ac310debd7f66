package auction

import (
	"fmt"

	sdk_types_bech32 "github.com/cosmos/cosmos-sdk/types/bech32"
)

// AddressValidator checks that an identity is well-formed before it is
// recorded on an auction.
type AddressValidator interface {
	ValidateAddress(addr string) error
}

// AnyAddress accepts every non-empty identity.
type AnyAddress struct{}

func (AnyAddress) ValidateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("empty address")
	}
	return nil
}

// Bech32Addresses accepts bech32 addresses with the given human-readable
// prefix.
type Bech32Addresses string

func (prefix Bech32Addresses) ValidateAddress(addr string) error {
	hrp, data, err := sdk_types_bech32.DecodeAndConvert(addr)
	if err != nil {
		return fmt.Errorf("decode %q: %w", addr, err)
	}

	if hrp != string(prefix) {
		return fmt.Errorf("address %q: want prefix %q, have %q", addr, string(prefix), hrp)
	}

	if len(data) == 0 {
		return fmt.Errorf("address %q: empty payload", addr)
	}

	return nil
}
