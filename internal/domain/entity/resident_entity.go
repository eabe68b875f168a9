package entity

import (
	"time"
)

// Sex and civil status enumerations accepted on the registration form.
const (
	SexMale   = "Male"
	SexFemale = "Female"

	CivilStatusSingle   = "Single"
	CivilStatusMarried  = "Married"
	CivilStatusDivorced = "Divorced"
	CivilStatusWidowed  = "Widowed"
)

// BirthdayLayout is the wire format of Profile.Birthday.
const BirthdayLayout = "2006-01-02"

// Profile is the set of fields a resident supplies on the registration form.
// It is copied verbatim from the staged registration into the resident record.
type Profile struct {
	Email       string
	FirstName   string
	MiddleName  string // optional
	LastName    string
	Suffix      string // optional
	Age         int
	Sex         string
	Birthday    time.Time
	CivilStatus string
	Address     string
	ValidIDType string
	IDImage     []byte // optional, JPEG or PNG
}

// DisplayName is used as the greeting in outbound mail.
func (p Profile) DisplayName() string {
	if p.FirstName == "" {
		return p.Email
	}
	return p.FirstName + " " + p.LastName
}

// Resident is the aggregate root for a verified account.
// Email is unique across all residents.
type Resident struct {
	ID            string
	Profile       Profile
	EmailVerified bool
	IDImageURL    string
	CreatedAt     time.Time
}
