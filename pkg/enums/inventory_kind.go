package enums

// InventoryKind selects which stock ledger an inventory reference targets.
type InventoryKind string

const (
	InventoryKindShop      InventoryKind = "shop"
	InventoryKindWarehouse InventoryKind = "warehouse"
)

var validInventoryKinds = []InventoryKind{
	InventoryKindShop,
	InventoryKindWarehouse,
}

// String implements fmt.Stringer.
func (i InventoryKind) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InventoryKind.
func (i InventoryKind) IsValid() bool {
	for _, candidate := range validInventoryKinds {
		if candidate == i {
			return true
		}
	}
	return false
}
