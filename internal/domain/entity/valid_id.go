package entity

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// MaxIDImageBytes caps the uploaded ID image.
const MaxIDImageBytes = 5 << 20

// ValidIDTypes is the catalog of government IDs accepted as proof of identity.
var ValidIDTypes = []string{
	"Philippine Passport",
	"Driver's License",
	"UMID",
	"SSS ID",
	"GSIS ID",
	"PhilHealth ID",
	"PhilSys National ID",
	"Postal ID",
	"Voter's ID",
	"PRC ID",
	"TIN ID",
	"Senior Citizen ID",
	"PWD ID",
	"Student ID",
}

var validIDIndex = func() map[string]struct{} {
	m := make(map[string]struct{}, len(ValidIDTypes))
	for _, t := range ValidIDTypes {
		m[t] = struct{}{}
	}
	return m
}()

func IsValidIDType(t string) bool {
	_, ok := validIDIndex[t]
	return ok
}

var (
	ErrIDImageTooLarge = fmt.Errorf("must be at most %d bytes", MaxIDImageBytes)
	ErrIDImageType     = errors.New("must be a JPEG or PNG image")
)

// DetectIDImage sniffs the image content and returns its MIME type.
// An empty image is allowed and yields "".
func DetectIDImage(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	if len(b) > MaxIDImageBytes {
		return "", ErrIDImageTooLarge
	}
	mt := mimetype.Detect(b)
	switch {
	case mt.Is("image/jpeg"):
		return "image/jpeg", nil
	case mt.Is("image/png"):
		return "image/png", nil
	}
	return "", ErrIDImageType
}
