package enums

import "fmt"

// UserRole identifies which side of the marketplace an account acts on.
type UserRole string

const (
	UserRoleCustomer   UserRole = "customer"
	UserRoleRetailer   UserRole = "retailer"
	UserRoleWholesaler UserRole = "wholesaler"
)

var validUserRoles = []UserRole{
	UserRoleCustomer,
	UserRoleRetailer,
	UserRoleWholesaler,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// IsSeller reports whether the role owns sellable inventory.
func (u UserRole) IsSeller() bool {
	return u == UserRoleRetailer || u == UserRoleWholesaler
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
