package enums

import "testing"

func TestInventoryKind(t *testing.T) {
	if !InventoryKindShop.IsValid() || !InventoryKindWarehouse.IsValid() {
		t.Fatalf("known kinds should be valid")
	}
	if InventoryKind("basement").IsValid() {
		t.Fatalf("unknown kind should be invalid")
	}
	if InventoryKindShop.String() != "shop" {
		t.Fatalf("unexpected string %q", InventoryKindShop.String())
	}
}

func TestParseUserRole(t *testing.T) {
	role, err := ParseUserRole("retailer")
	if err != nil {
		t.Fatalf("parse retailer: %v", err)
	}
	if role != UserRoleRetailer {
		t.Fatalf("unexpected role %q", role)
	}
	if !role.IsSeller() {
		t.Fatalf("retailer should be a seller")
	}
	if _, err := ParseUserRole("admin"); err == nil {
		t.Fatalf("unknown role should not parse")
	}
}

func TestParseOrderItemStatus(t *testing.T) {
	status, err := ParseOrderItemStatus("to_return")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if status != OrderItemStatusToReturn {
		t.Fatalf("unexpected status %q", status)
	}
	if _, err := ParseOrderItemStatus("teleported"); err == nil {
		t.Fatalf("unknown status should not parse")
	}
}
