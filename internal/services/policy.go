// Package services – access policy
//
// This file implements the communication policy between user pairs. It is
// consulted on every read and write path that crosses a pair, and never
// cached: a role change is effective on the very next call.
package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/supplylink/comms-backend/internal/repo"
)

// Platform roles. RoleSales is the intermediary role that may talk to
// anyone; suppliers and retailers may only talk across the supply chain,
// not among themselves.
const (
	RoleSupplier = "supplier"
	RoleRetailer = "retailer"
	RoleSales    = "sales_rep"
)

// canCommunicate reports whether two users are permitted to exchange
// messages or calls. The decision fails closed: any lookup miss (fewer than
// two distinct resolved users) denies.
//
// Rule: permitted when either party holds the sales role, or when one party
// is a supplier and the other a retailer. Everything else (two retailers,
// two suppliers, self) is denied.
func canCommunicate(ctx context.Context, db *gorm.DB, userA, userB string) (bool, error) {
	users, err := repo.GetUserPair(ctx, db, userA, userB)
	if err != nil {
		return false, err
	}
	if len(users) != 2 {
		return false, nil
	}

	roleA := normalizeRole(users[0].Role)
	roleB := normalizeRole(users[1].Role)

	if roleA == RoleSales || roleB == RoleSales {
		return true, nil
	}
	if (roleA == RoleSupplier && roleB == RoleRetailer) ||
		(roleA == RoleRetailer && roleB == RoleSupplier) {
		return true, nil
	}
	return false, nil
}

// normalizeRole folds the role spellings seen in production data onto the
// canonical constants. "Sales" and "sales_rep" both denote the sales role.
func normalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "sales", "sales_rep":
		return RoleSales
	case "supplier":
		return RoleSupplier
	case "retailer":
		return RoleRetailer
	default:
		return strings.ToLower(strings.TrimSpace(role))
	}
}
