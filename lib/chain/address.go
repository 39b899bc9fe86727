package chain

import (
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ErrInvalidChecksum is returned for mixed case addresses with a wrong EIP-55 checksum
var ErrInvalidChecksum = errors.New("Invalid address checksum")

// ErrInvalidAddress godoc
var ErrInvalidAddress = errors.New("Invalid address")

// ToChecksumAddress encodes the address using the EIP-55 mixed case checksum
func ToChecksumAddress(address string) string {
	addr := strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(address, "0x"), "0X"))
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(addr))
	digest := hex.EncodeToString(hasher.Sum(nil))

	out := make([]byte, len(addr))
	for i := 0; i < len(addr); i++ {
		c := addr[i]
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return "0x" + string(out)
}

// ValidateAddress accepts all lower or all upper case addresses and mixed case
// addresses with a valid checksum
func ValidateAddress(address string) error {
	address = strings.TrimSpace(address)
	if len(address) != 42 || !strings.HasPrefix(address, "0x") {
		return ErrInvalidAddress
	}
	body := address[2:]
	if _, err := hex.DecodeString(body); err != nil {
		return ErrInvalidAddress
	}
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return nil
	}
	if ToChecksumAddress(address) != address {
		return ErrInvalidChecksum
	}
	return nil
}

// SameAddress compares two addresses ignoring case
func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
