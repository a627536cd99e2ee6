package upstream

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
)

const (
	chainSolana        = "CT_501"
	solanaAddressBytes = 32
)

// DefaultPreserveCaseChains lists chains whose addresses are case sensitive.
var DefaultPreserveCaseChains = []string{"CT_501", "CT_784"}

// NormalizeContract returns the address form expected by the kline endpoints.
// Case-sensitive chains keep the address as is; everything else is lowercased.
// The error reports an address that failed validation; the returned string is
// still usable and callers pass it through.
func NormalizeContract(chainID, address string, preserveCase map[string]struct{}) (string, error) {
	address = strings.TrimSpace(address)
	if _, ok := preserveCase[chainID]; ok {
		if chainID == chainSolana {
			decoded, err := base58.Decode(address)
			if err != nil {
				return address, fmt.Errorf("solana address %q: %w", address, err)
			}
			if len(decoded) != solanaAddressBytes {
				return address, fmt.Errorf("solana address %q decodes to %d bytes", address, len(decoded))
			}
		}
		return address, nil
	}

	if strings.HasPrefix(address, "0x") || strings.HasPrefix(address, "0X") {
		if !common.IsHexAddress(address) {
			return strings.ToLower(address), fmt.Errorf("invalid evm address %q", address)
		}
		return strings.ToLower(common.HexToAddress(address).Hex()), nil
	}
	return strings.ToLower(address), nil
}

func chainSet(chains []string) map[string]struct{} {
	set := make(map[string]struct{}, len(chains))
	for _, chain := range chains {
		chain = strings.TrimSpace(chain)
		if chain != "" {
			set[chain] = struct{}{}
		}
	}
	return set
}
