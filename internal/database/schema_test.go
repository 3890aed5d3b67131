package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const migrationsDir = "../../migrations"

var expectedTables = map[string]string{
	"stores":                "00001_create_stores_table.sql",
	"roles":                 "00002_create_roles_table.sql",
	"users":                 "00003_create_users_table.sql",
	"refresh_tokens":        "00004_create_refresh_tokens_table.sql",
	"verification_tokens":   "00005_create_verification_tokens_table.sql",
	"password_reset_tokens": "00006_create_password_reset_tokens_table.sql",
	"billboards":            "00007_create_billboards_table.sql",
	"categories":            "00008_create_categories_table.sql",
	"sizes":                 "00009_create_sizes_table.sql",
	"colors":                "00010_create_colors_table.sql",
	"uoms":                  "00011_create_uoms_table.sql",
	"products":              "00012_create_products_table.sql",
	"images":                "00013_create_images_table.sql",
	"orders":                "00014_create_orders_table.sql",
	"order_items":           "00015_create_order_items_table.sql",
}

func readMigration(t *testing.T, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(migrationsDir, name))
	if err != nil {
		t.Fatalf("Failed to read migration %s: %v", name, err)
	}
	return string(content)
}

func TestMigrationFilesExist(t *testing.T) {
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		t.Fatal("Migrations directory does not exist")
	}

	files := []string{"00016_create_updated_at_trigger.sql"}
	for _, f := range expectedTables {
		files = append(files, f)
	}

	for _, migration := range files {
		if _, err := os.Stat(filepath.Join(migrationsDir, migration)); os.IsNotExist(err) {
			t.Errorf("Migration file %s does not exist", migration)
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	sqlFileCount := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		sqlFileCount++
		contentStr := readMigration(t, file.Name())

		for _, directive := range []string{
			"-- +goose Up",
			"-- +goose Down",
			"-- +goose StatementBegin",
			"-- +goose StatementEnd",
		} {
			if !strings.Contains(contentStr, directive) {
				t.Errorf("Migration file %s missing '%s' directive", file.Name(), directive)
			}
		}
	}

	if sqlFileCount == 0 {
		t.Error("No SQL migration files found")
	}
}

func TestMigrationFilesCreateExpectedTables(t *testing.T) {
	for tableName, migrationFile := range expectedTables {
		contentStr := readMigration(t, migrationFile)

		if !strings.Contains(contentStr, "CREATE TABLE IF NOT EXISTS "+tableName+" (") {
			t.Errorf("Migration file %s does not create table %s", migrationFile, tableName)
		}
		if !strings.Contains(contentStr, "DROP TABLE IF EXISTS "+tableName+";") {
			t.Errorf("Migration file %s does not drop table %s in down section", migrationFile, tableName)
		}
	}
}

func TestRolesMigrationSeedsRoles(t *testing.T) {
	contentStr := readMigration(t, "00002_create_roles_table.sql")

	for _, role := range []string{"'Administrator'", "'Acctg'", "'User'"} {
		if !strings.Contains(contentStr, role) {
			t.Errorf("Roles migration does not seed %s", role)
		}
	}
}

func TestProductsTableHasRequiredColumns(t *testing.T) {
	contentStr := readMigration(t, "00012_create_products_table.sql")

	requiredColumns := []string{
		"id UUID PRIMARY KEY",
		"store_id UUID NOT NULL",
		"category_id UUID NOT NULL",
		"uom_id UUID,",
		"bar_code VARCHAR",
		"price DECIMAL(12, 2) NOT NULL",
		"is_archived BOOLEAN",
		"UNIQUE (store_id, bar_code)",
	}

	for _, column := range requiredColumns {
		if !strings.Contains(contentStr, column) {
			t.Errorf("Products table missing definition: %s", column)
		}
	}

	for _, fk := range []string{"category_id", "size_id", "color_id", "uom_id"} {
		if !strings.Contains(contentStr, "FOREIGN KEY ("+fk+")") {
			t.Errorf("Products table missing foreign key on %s", fk)
		}
	}
}

func TestOrdersTableTracksPaidAndDelivered(t *testing.T) {
	contentStr := readMigration(t, "00014_create_orders_table.sql")

	for _, column := range []string{
		"is_paid BOOLEAN",
		"order_status BOOLEAN",
		"acctg_attached_url",
		"store_attached_url",
		"total_amount_item_and_shipping DECIMAL(12, 2),",
	} {
		if !strings.Contains(contentStr, column) {
			t.Errorf("Orders table missing column: %s", column)
		}
	}
}

func TestChildRowsCascadeOnDelete(t *testing.T) {
	cases := map[string]string{
		"00004_create_refresh_tokens_table.sql": "REFERENCES users(id) ON DELETE CASCADE",
		"00013_create_images_table.sql":         "REFERENCES products(id) ON DELETE CASCADE",
		"00015_create_order_items_table.sql":    "REFERENCES orders(id) ON DELETE CASCADE",
	}
	for file, clause := range cases {
		if !strings.Contains(readMigration(t, file), clause) {
			t.Errorf("Migration %s missing %q", file, clause)
		}
	}
}
