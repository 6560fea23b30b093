package model

import (
	"fmt"
	"strings"
)

// NoSerial is what clients send when the product has no serial to claim.
const NoSerial = "N/A"

// NormalizeSerial trims and uppercases a serial. The sentinel N/A becomes "".
func NormalizeSerial(serial string) string {
	s := strings.ToUpper(strings.TrimSpace(serial))
	if s == NoSerial {
		return ""
	}
	return s
}

// Normalize trims every field and normalizes the serial in place.
func (r *Registration) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.NationalID = strings.TrimSpace(r.NationalID)
	r.City = strings.TrimSpace(r.City)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.ProductModel = strings.TrimSpace(r.ProductModel)
	r.EvidencePath = strings.TrimSpace(r.EvidencePath)
	r.Serial = NormalizeSerial(r.Serial)
}

// Validate checks the required fields. Call Normalize first.
func (r *Registration) Validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"full_name", r.FullName},
		{"national_id", r.NationalID},
		{"city", r.City},
		{"email", r.Email},
		{"phone", r.Phone},
		{"product_model", r.ProductModel},
		{"evidence_path", r.EvidencePath},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return nil
}

// MatchesModel reports whether a submitted model names one of the candidates.
func MatchesModel(submitted string, candidates ...string) bool {
	s := strings.TrimSpace(submitted)
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c != "" && strings.EqualFold(s, c) {
			return true
		}
	}
	return false
}
