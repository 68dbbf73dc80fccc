package services_test

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"boutique_backend/internal/models"
	"boutique_backend/internal/repositories"
	"boutique_backend/internal/services"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// testEnv wires the real repositories and services against a test database.
// Every setup call seeds a fresh shop, user and order so tests stay isolated
// without truncating each other's data.
type testEnv struct {
	db      *sql.DB
	shopID  string
	userID  string
	orderID string

	inventory services.InventoryService
	stock     services.StockService
	materials services.OrderMaterialService
	dashboard services.DashboardService
}

func setupTestDB(t *testing.T) *testEnv {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated test database. Set INVENTORY_TEST_DSN in your .env or
	// environment to run integration tests.
	dsn := os.Getenv("INVENTORY_TEST_DSN")
	if dsn == "" {
		t.Skip("INVENTORY_TEST_DSN not set — skipping integration test to protect live database")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	schema, err := os.ReadFile(filepath.Join("..", "..", "db", "schema.sql"))
	if err != nil {
		t.Fatalf("Failed to read schema file: %v", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	env := &testEnv{
		db:      db,
		shopID:  uuid.NewString(),
		userID:  uuid.NewString(),
		orderID: uuid.NewString(),
	}
	if _, err := db.Exec(`INSERT INTO shops (id, shop_name) VALUES ($1, $2)`, env.shopID, "Test Boutique"); err != nil {
		t.Fatalf("Failed to seed shop: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO users (id, shop_id, full_name) VALUES ($1, $2, $3)`, env.userID, env.shopID, "Test Seamstress"); err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO orders (id, shop_id, order_number) VALUES ($1, $2, $3)`, env.orderID, env.shopID, "ORD-0001"); err != nil {
		t.Fatalf("Failed to seed order: %v", err)
	}

	inventoryRepo := repositories.NewInventoryRepository(db)
	historyRepo := repositories.NewStockHistoryRepository(db)
	materialRepo := repositories.NewOrderMaterialRepository(db)

	env.stock = services.NewStockService(inventoryRepo, historyRepo, db)
	env.inventory = services.NewInventoryService(inventoryRepo, materialRepo, env.stock, db)
	env.materials = services.NewOrderMaterialService(materialRepo, env.stock, db)
	env.dashboard = services.NewDashboardService(inventoryRepo)
	return env
}

// seedShop creates a second tenant for cross-shop scoping tests.
func (env *testEnv) seedShop(t *testing.T, name string) string {
	t.Helper()
	shopID := uuid.NewString()
	if _, err := env.db.Exec(`INSERT INTO shops (id, shop_name) VALUES ($1, $2)`, shopID, name); err != nil {
		t.Fatalf("Failed to seed shop %s: %v", name, err)
	}
	return shopID
}

func createTestItem(t *testing.T, env *testEnv, name string, openingStock, minimumStock int64) *models.InventoryItem {
	t.Helper()
	opening := decimal.NewFromInt(openingStock)
	minimum := decimal.NewFromInt(minimumStock)
	item, err := env.inventory.CreateItem(env.shopID, services.CreateItemRequest{
		Name:         name,
		Unit:         models.UnitPieces,
		CurrentStock: &opening,
		MinimumStock: &minimum,
	}, env.userID)
	if err != nil {
		t.Fatalf("Failed to create test item %s: %v", name, err)
	}
	return item
}

func getItem(t *testing.T, env *testEnv, itemID string) *models.InventoryItem {
	t.Helper()
	item, err := env.inventory.GetItemByID(env.shopID, itemID)
	if err != nil {
		t.Fatalf("Failed to fetch item %s: %v", itemID, err)
	}
	return item
}

func getHistory(t *testing.T, env *testEnv, itemID string) []models.StockHistory {
	t.Helper()
	entries, err := env.stock.GetItemHistory(env.shopID, itemID)
	if err != nil {
		t.Fatalf("Failed to fetch history for item %s: %v", itemID, err)
	}
	return entries
}
