package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInventoriesMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_inventories.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no inventories migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS shop_inventories",
		"CREATE TABLE IF NOT EXISTS warehouse_inventories",
		"CHECK (stock_quantity >= 0)",
		"FOREIGN KEY (product_id) REFERENCES products(id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_shop_inventories_shop_product",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_warehouse_inventories_warehouse_product",
		"DROP TABLE IF EXISTS shop_inventories",
		"DROP TABLE IF EXISTS warehouse_inventories",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
