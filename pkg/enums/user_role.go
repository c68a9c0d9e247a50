package enums

import "fmt"

// UserRole identifies the kind of account behind a session.
type UserRole string

const (
	UserRoleBuyer    UserRole = "buyer"
	UserRoleFarmer   UserRole = "farmer"
	UserRoleSupplier UserRole = "supplier"
	UserRoleAdmin    UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleBuyer,
	UserRoleFarmer,
	UserRoleSupplier,
	UserRoleAdmin,
}

// capabilities is the single table of what each role may do in the cart/order flow.
type capabilities struct {
	addToCart  bool
	checkout   bool
	ownProduct bool
	admin      bool
}

var capabilitiesByRole = map[UserRole]capabilities{
	UserRoleBuyer:    {addToCart: true, checkout: true},
	UserRoleFarmer:   {addToCart: true, checkout: true, ownProduct: true},
	UserRoleSupplier: {ownProduct: true},
	UserRoleAdmin:    {admin: true},
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanAddToCart reports whether the role may hold a cart.
func (r UserRole) CanAddToCart() bool { return capabilitiesByRole[r].addToCart }

// CanCheckout reports whether the role may turn a cart into an order.
func (r UserRole) CanCheckout() bool { return capabilitiesByRole[r].checkout }

// CanOwnProduct reports whether the role may upload listings.
func (r UserRole) CanOwnProduct() bool { return capabilitiesByRole[r].ownProduct }

// IsAdmin reports whether the role has administrative authority.
func (r UserRole) IsAdmin() bool { return capabilitiesByRole[r].admin }

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
