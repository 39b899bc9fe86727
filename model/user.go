package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var walletAddressRegexp = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ErrInvalidWalletAddress is returned when a value is not a 20 byte hex address
var ErrInvalidWalletAddress = errors.New("Invalid wallet address")

// User structure
//
// One row per wallet. The identity fields are written once after the registration payment
// is confirmed, the card fields are filled in later by the provisioning process.
type User struct {
	WalletAddress string    `gorm:"column:wallet_address;primary_key" json:"wallet_address"`
	FirstName     string    `gorm:"column:first_name" json:"first_name"`
	LastName      string    `gorm:"column:last_name" json:"last_name"`
	Email         string    `gorm:"column:email" json:"email"`
	CustomerCode  *string   `gorm:"column:customer_code" json:"customer_code"`
	CardCode      *string   `gorm:"column:card_code" json:"card_code"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName used by gorm
func (User) TableName() string {
	return "users"
}

// HasCard returns true once the provisioning process attached a card to the user
func (u *User) HasCard() bool {
	return u != nil && u.CardCode != nil && *u.CardCode != ""
}

// GetCardCode godoc
func (u *User) GetCardCode() string {
	if !u.HasCard() {
		return ""
	}
	return *u.CardCode
}

// GetCustomerCode godoc
func (u *User) GetCustomerCode() string {
	if u == nil || u.CustomerCode == nil {
		return ""
	}
	return *u.CustomerCode
}

// FullName of the card holder
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeWallet lower-cases a wallet address so it can be used as the store key
func NormalizeWallet(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// IsWalletAddress checks the shape of an address without validating its checksum
func IsWalletAddress(address string) bool {
	return walletAddressRegexp.MatchString(strings.TrimSpace(address))
}
