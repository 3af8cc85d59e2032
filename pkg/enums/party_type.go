package enums

import "fmt"

// PartyType identifies which kind of debtor a payment targets.
type PartyType string

const (
	PartyTypeShop         PartyType = "shop"
	PartyTypeCounterparty PartyType = "counterparty"
)

var validPartyTypes = []PartyType{
	PartyTypeShop,
	PartyTypeCounterparty,
}

// String implements fmt.Stringer.
func (p PartyType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known party type.
func (p PartyType) IsValid() bool {
	for _, candidate := range validPartyTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePartyType converts raw input into a PartyType.
func ParsePartyType(value string) (PartyType, error) {
	for _, candidate := range validPartyTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid party type %q", value)
}
