package services

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/supplylink/comms-backend/internal/domain"
	"github.com/supplylink/comms-backend/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:commssvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedSvcUser(t *testing.T, db *gorm.DB, id, name, role string) {
	t.Helper()
	u := &domain.User{ID: id, Name: name, Email: id + "@example.com", Role: role}
	if err := repo.SeedUser(context.Background(), db, u); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

// ---------- tests ----------

func TestCanCommunicate_RoleMatrix(t *testing.T) {
	db := newSvcDB(t)
	seedSvcUser(t, db, "sup", "Supplier Co", RoleSupplier)
	seedSvcUser(t, db, "sup2", "Other Supplier", RoleSupplier)
	seedSvcUser(t, db, "ret", "Retail Co", RoleRetailer)
	seedSvcUser(t, db, "ret2", "Other Retailer", RoleRetailer)
	seedSvcUser(t, db, "rep", "Sales Rep", RoleSales)
	seedSvcUser(t, db, "rep-alias", "Legacy Rep", "Sales") // legacy spelling

	cases := []struct {
		name string
		a, b string
		want bool
	}{
		{"supplier with retailer", "sup", "ret", true},
		{"retailer with supplier", "ret", "sup", true},
		{"sales with supplier", "rep", "sup", true},
		{"sales with retailer", "ret", "rep", true},
		{"legacy sales spelling", "rep-alias", "ret2", true},
		{"two suppliers", "sup", "sup2", false},
		{"two retailers", "ret", "ret2", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := canCommunicate(context.Background(), db, tc.a, tc.b)
			if err != nil {
				t.Fatalf("canCommunicate: %v", err)
			}
			if got != tc.want {
				t.Fatalf("canCommunicate(%s,%s) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestCanCommunicate_UnknownUserDenies(t *testing.T) {
	db := newSvcDB(t)
	seedSvcUser(t, db, "sup", "Supplier Co", RoleSupplier)

	got, err := canCommunicate(context.Background(), db, "sup", "ghost")
	if err != nil {
		t.Fatalf("canCommunicate: %v", err)
	}
	if got {
		t.Fatal("unknown counterparty must deny")
	}
}

func TestCanCommunicate_SelfDenies(t *testing.T) {
	db := newSvcDB(t)
	seedSvcUser(t, db, "rep", "Sales Rep", RoleSales)

	// A self pair resolves a single row, which fails the two-user check
	// even for the sales role.
	got, err := canCommunicate(context.Background(), db, "rep", "rep")
	if err != nil {
		t.Fatalf("canCommunicate: %v", err)
	}
	if got {
		t.Fatal("self communication must deny")
	}
}

func TestNormalizeRole(t *testing.T) {
	for in, want := range map[string]string{
		"Sales":     RoleSales,
		"sales_rep": RoleSales,
		" SUPPLIER": RoleSupplier,
		"Retailer":  RoleRetailer,
		"admin":     "admin",
	} {
		if got := normalizeRole(in); got != want {
			t.Fatalf("normalizeRole(%q) = %q, want %q", in, got, want)
		}
	}
}
