package model

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
)

// DateOfBirthLayout is the accepted format for the date of birth field
const DateOfBirthLayout = "2006-01-02"

var (
	// ErrMissingField is returned when a required field is empty
	ErrMissingField = errors.New("Missing required field")
	// ErrInvalidEmail godoc
	ErrInvalidEmail = errors.New("Invalid email address")
	// ErrInvalidPhone godoc
	ErrInvalidPhone = errors.New("Invalid phone number")
	// ErrInvalidDateOfBirth godoc
	ErrInvalidDateOfBirth = errors.New("Invalid date of birth")
)

// RegistrationForm holds the card holder details collected before the registration payment.
// It only lives in memory until the payment is confirmed.
type RegistrationForm struct {
	FirstName         string `json:"first_name" binding:"required"`
	LastName          string `json:"last_name" binding:"required"`
	Email             string `json:"email" binding:"required"`
	PhoneCode         string `json:"phone_code" binding:"required"`
	PhoneNumber       string `json:"phone_number" binding:"required"`
	DateOfBirth       string `json:"date_of_birth" binding:"required"`
	HomeAddressNumber string `json:"home_address_number" binding:"required"`
	HomeAddress       string `json:"home_address" binding:"required"`
}

// Normalize trims all fields
func (f *RegistrationForm) Normalize() {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)
	f.PhoneCode = strings.TrimSpace(f.PhoneCode)
	f.PhoneNumber = strings.TrimSpace(f.PhoneNumber)
	f.DateOfBirth = strings.TrimSpace(f.DateOfBirth)
	f.HomeAddressNumber = strings.TrimSpace(f.HomeAddressNumber)
	f.HomeAddress = strings.TrimSpace(f.HomeAddress)
}

// Validate the form. All fields are required.
func (f *RegistrationForm) Validate(now time.Time) error {
	required := map[string]string{
		"first_name":          f.FirstName,
		"last_name":           f.LastName,
		"email":               f.Email,
		"phone_code":          f.PhoneCode,
		"phone_number":        f.PhoneNumber,
		"date_of_birth":       f.DateOfBirth,
		"home_address_number": f.HomeAddressNumber,
		"home_address":        f.HomeAddress,
	}
	for _, field := range []string{"first_name", "last_name", "email", "phone_code", "phone_number", "date_of_birth", "home_address_number", "home_address"} {
		if required[field] == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}

	addr, err := mail.ParseAddress(f.Email)
	if err != nil || addr.Address != f.Email {
		return ErrInvalidEmail
	}

	if _, err := f.ParsePhone(); err != nil {
		return err
	}

	dob, err := time.Parse(DateOfBirthLayout, f.DateOfBirth)
	if err != nil || !dob.Before(now) {
		return ErrInvalidDateOfBirth
	}
	return nil
}

// Phone returns the full international phone number
func (f *RegistrationForm) Phone() string {
	code := strings.TrimPrefix(f.PhoneCode, "+")
	return "+" + code + f.PhoneNumber
}

// ParsePhone validates the phone number using the international numbering plan
func (f *RegistrationForm) ParsePhone() (*phonenumbers.PhoneNumber, error) {
	num, err := phonenumbers.Parse(f.Phone(), "")
	if err != nil {
		return nil, ErrInvalidPhone
	}
	if !phonenumbers.IsValidNumber(num) {
		return nil, ErrInvalidPhone
	}
	return num, nil
}

// Address returns the home address as a single line
func (f *RegistrationForm) Address() string {
	return strings.TrimSpace(f.HomeAddressNumber + " " + f.HomeAddress)
}
