package taxsvc

import "strings"

// Address is the tax service's address shape. PostalCode and Plus4 are
// split out of a single ERP zip string.
type Address struct {
	PrimaryAddressLine   string `json:"PrimaryAddressLine"`
	SecondaryAddressLine string `json:"SecondaryAddressLine"`
	County               string `json:"County"`
	City                 string `json:"City"`
	State                string `json:"State"`
	PostalCode           string `json:"PostalCode"`
	Plus4                string `json:"Plus4"`
	Country              string `json:"Country"`
	Geocode              string `json:"Geocode"`
}

// SplitZip splits a raw zip string into the 5-digit code and the plus-4
// extension. Only a string of exactly 10 characters (12345-6789) splits;
// anything else is carried whole with an empty extension.
func SplitZip(zip string) (string, string) {
	if len(zip) == 10 {
		return zip[0:5], zip[6:10]
	}
	return zip, ""
}

// NewAddress converts ERP address parts to the service shape. Canadian
// postal codes have their embedded space stripped.
func NewAddress(line1, line2, city, state, zip, country string) Address {
	postal, plus4 := SplitZip(zip)
	if country == "CA" {
		postal = strings.Replace(postal, " ", "", 1)
	}
	return Address{
		PrimaryAddressLine:   line1,
		SecondaryAddressLine: line2,
		City:                 city,
		State:                state,
		PostalCode:           postal,
		Plus4:                plus4,
		Country:              country,
	}
}

// IsEmpty reports whether no locating field is populated.
func (a Address) IsEmpty() bool {
	return a.PrimaryAddressLine == "" &&
		a.SecondaryAddressLine == "" &&
		a.City == "" &&
		a.State == "" &&
		a.PostalCode == "" &&
		a.Country == ""
}

// WithZipOverride returns a copy of the address with explicitly configured
// zip code and extension values applied. Each override applies
// independently and only when non-empty.
func (a Address) WithZipOverride(zip, ext string) Address {
	if zip != "" {
		a.PostalCode = zip
	}
	if ext != "" {
		a.Plus4 = ext
	}
	return a
}
