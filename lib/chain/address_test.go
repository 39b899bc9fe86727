package chain_test

import (
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
	"gitlab.com/unchained-card/card_api/lib/chain"
)

var checksummed = []string{
	"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
	"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
	"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
}

func TestToChecksumAddress(t *testing.T) {
	for _, addr := range checksummed {
		t.Run(addr, func(t *testing.T) {
			assert.Equal(t, chain.ToChecksumAddress(strings.ToLower(addr)), addr)
			assert.Equal(t, chain.ValidateAddress(addr), nil)
		})
	}
}

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		err     error
	}{
		{"lower case", strings.ToLower(checksummed[0]), nil},
		{"upper case body", "0x" + strings.ToUpper(checksummed[0][2:]), nil},
		{"bad checksum", "0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", chain.ErrInvalidChecksum},
		{"too short", "0x5aAeb6053F3E94C9", chain.ErrInvalidAddress},
		{"not hex", "0xZZAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", chain.ErrInvalidAddress},
		{"missing prefix", "5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed00", chain.ErrInvalidAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, chain.ValidateAddress(tt.address), tt.err)
		})
	}
}
