package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestUserValidate(t *testing.T) {
	t.Parallel()

	t.Run("staff roles combine", func(t *testing.T) {
		t.Parallel()
		u := User{Role: RoleDirector, Roles: []Role{RoleAdmin, RolePurchaser}}
		require.NoError(t, u.Validate())
		require.True(t, u.HasRole(RoleAdmin))
		require.False(t, u.HasRole(RoleGuest))
	})

	t.Run("guest is exclusive", func(t *testing.T) {
		t.Parallel()
		u := User{Role: RoleGuest, Roles: []Role{RoleAdmin}}
		require.Error(t, u.Validate())
	})

	t.Run("guest cannot be an additional role", func(t *testing.T) {
		t.Parallel()
		u := User{Role: RoleAdmin, Roles: []Role{RoleGuest}}
		require.Error(t, u.Validate())
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		t.Parallel()
		u := User{Role: Role("superuser")}
		require.Error(t, u.Validate())
	})
}

func TestEffectiveRoles(t *testing.T) {
	t.Parallel()

	u := User{Role: RoleDirector, Roles: []Role{RoleDirector, RoleAdmin}}
	require.Equal(t, []Role{RoleDirector, RoleAdmin}, u.EffectiveRoles(), "primary first, no duplicates")
}

func TestSession(t *testing.T) {
	t.Parallel()

	guest := Session{UserID: "u1", Roles: []Role{RoleGuest}}
	require.True(t, guest.IsGuest())
	require.False(t, guest.HasRole(RoleAdmin))

	staff := Session{UserID: "u2", Roles: []Role{RoleDirector, RolePurchaser}}
	require.False(t, staff.IsGuest())
	require.True(t, staff.HasRole(RolePurchaser))
}

func TestPurchaseOrderTotals(t *testing.T) {
	t.Parallel()

	po := PurchaseOrder{
		LineItems: []LineItem{
			{ItemName: "A", Quantity: 3, UnitPrice: decimal.NewFromFloat(9.99)},
			{ItemName: "B", Quantity: 1, UnitPrice: decimal.NewFromFloat(0.03)},
		},
	}
	po.TotalAmount = po.ComputeTotal()
	require.Equal(t, "30.00", po.TotalAmount.StringFixed(2))
	require.NoError(t, po.ValidateTotals())

	t.Run("mismatched total fails", func(t *testing.T) {
		t.Parallel()
		bad := po
		bad.TotalAmount = decimal.NewFromInt(31)
		require.Error(t, bad.ValidateTotals())
	})

	t.Run("allocation within a cent passes", func(t *testing.T) {
		t.Parallel()
		ok := po
		ok.Organizations = []OrgAllocation{
			{SubOrgID: "org-a", Amount: decimal.NewFromFloat(30.01)},
		}
		require.NoError(t, ok.ValidateTotals())
	})

	t.Run("allocation off by more fails", func(t *testing.T) {
		t.Parallel()
		bad := po
		bad.Organizations = []OrgAllocation{
			{SubOrgID: "org-a", Amount: decimal.NewFromFloat(29.90)},
		}
		require.Error(t, bad.ValidateTotals())
	})
}

func TestTransactionAllocated(t *testing.T) {
	t.Parallel()

	require.False(t, (&Transaction{}).Allocated())
	require.True(t, (&Transaction{SubOrgID: "org-a"}).Allocated())
	require.True(t, (&Transaction{Allocations: []TxAllocation{{SubOrgID: "org-a"}}}).Allocated())
}

func TestNormalizeDescription(t *testing.T) {
	t.Parallel()

	require.Equal(t, "AMZN Mktp", NormalizeDescription("  AMZN Mktp  "))
	require.Equal(t, "", NormalizeDescription("   "))
}
