package enums

import "fmt"

// LineRole classifies a document line. Goods and bonus lines consume the
// source holder's stock; return lines only offset the payable amount.
type LineRole string

const (
	LineRoleGoods  LineRole = "goods"
	LineRoleBonus  LineRole = "bonus"
	LineRoleReturn LineRole = "return"
)

var validLineRoles = []LineRole{
	LineRoleGoods,
	LineRoleBonus,
	LineRoleReturn,
}

// String implements fmt.Stringer.
func (r LineRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known line role.
func (r LineRole) IsValid() bool {
	for _, candidate := range validLineRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ConsumesStock reports whether lines with this role debit the source holder.
func (r LineRole) ConsumesStock() bool {
	return r == LineRoleGoods || r == LineRoleBonus
}

// ParseLineRole converts raw input into a LineRole.
func ParseLineRole(value string) (LineRole, error) {
	for _, candidate := range validLineRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid line role %q", value)
}
