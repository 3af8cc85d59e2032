package enums

import "fmt"

// ReturnKind distinguishes driver-to-warehouse returns from shop-to-driver returns.
type ReturnKind string

const (
	ReturnKindManager ReturnKind = "manager"
	ReturnKindShop    ReturnKind = "shop"
)

var validReturnKinds = []ReturnKind{
	ReturnKindManager,
	ReturnKindShop,
}

// IsValid reports whether the value is a known return kind.
func (k ReturnKind) IsValid() bool {
	for _, candidate := range validReturnKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseReturnKind converts raw input into a ReturnKind.
func ParseReturnKind(value string) (ReturnKind, error) {
	for _, candidate := range validReturnKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return kind %q", value)
}
