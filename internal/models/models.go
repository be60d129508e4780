// Package models defines the domain entities for the purchase-order tracker.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Role identifies what a user is allowed to do.
type Role string

// Known roles. Guest is read-only and exclusive; the staff roles may be
// combined via User.Roles.
const (
	RoleDirector  Role = "director"
	RoleAdmin     Role = "admin"
	RolePurchaser Role = "purchaser"
	RoleGuest     Role = "guest"
)

// StaffRoles lists the roles that may appear as additional roles.
var StaffRoles = []Role{RoleDirector, RoleAdmin, RolePurchaser}

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleDirector, RoleAdmin, RolePurchaser, RoleGuest:
		return true
	}
	return false
}

// Status is a purchase order's position in its lifecycle.
type Status string

// Purchase order statuses. StatusPurchased is terminal.
const (
	StatusDraft           Status = "draft"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusDeclined        Status = "declined"
	StatusPendingPurchase Status = "pending_purchase"
	StatusPurchased       Status = "purchased"
)

// AllStatuses lists every lifecycle status.
var AllStatuses = []Status{
	StatusDraft,
	StatusPendingApproval,
	StatusApproved,
	StatusDeclined,
	StatusPendingPurchase,
	StatusPurchased,
}

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusApproved,
		StatusDeclined, StatusPendingPurchase, StatusPurchased:
		return true
	}
	return false
}

// AmountEpsilon is the rounding tolerance for money-sum invariants.
var AmountEpsilon = decimal.NewFromFloat(0.01)

// User is an authenticated person. Role is the primary role; Roles holds
// optional additional staff roles. Guest never appears in Roles and is
// never combined with staff roles.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Roles        []Role    `json:"roles,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EffectiveRoles returns the union of the primary role and any additional
// roles, primary first, without duplicates.
func (u *User) EffectiveRoles() []Role {
	out := []Role{u.Role}
	for _, r := range u.Roles {
		if r != u.Role {
			out = append(out, r)
		}
	}
	return out
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role Role) bool {
	if u.Role == role {
		return true
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Validate checks role invariants: known roles only, guest exclusive.
func (u *User) Validate() error {
	if !ValidRole(u.Role) {
		return fmt.Errorf("unknown role %q", u.Role)
	}
	for _, r := range u.Roles {
		if !ValidRole(r) {
			return fmt.Errorf("unknown additional role %q", r)
		}
		if r == RoleGuest {
			return fmt.Errorf("guest cannot be an additional role")
		}
	}
	if u.Role == RoleGuest && len(u.Roles) > 0 {
		return fmt.Errorf("guest cannot hold additional roles")
	}
	return nil
}

// Session carries the authenticated actor into core operations. It replaces
// any ambient auth state: every mutation takes the session explicitly.
type Session struct {
	UserID string
	Name   string
	Roles  []Role
}

// HasRole reports whether the session holds the given role.
func (s Session) HasRole(role Role) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsGuest reports whether the session holds only the guest role.
func (s Session) IsGuest() bool {
	return len(s.Roles) == 1 && s.Roles[0] == RoleGuest
}

// SubOrganization is a budget bucket. BudgetSpent is a derived aggregate
// rewritten by reconciliation; treat it as eventually consistent.
type SubOrganization struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	BudgetAllocated decimal.Decimal `json:"budget_allocated"`
	BudgetSpent     decimal.Decimal `json:"budget_spent"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// LineItem is one purchasable line, owned by its parent purchase order.
type LineItem struct {
	Vendor    string          `json:"vendor"`
	ItemName  string          `json:"item_name"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Link      string          `json:"link,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	Purchased bool            `json:"purchased"`
}

// TotalPrice returns quantity * unit price.
func (li LineItem) TotalPrice() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// OrgAllocation maps part of a purchase order's total to one
// sub-organization.
type OrgAllocation struct {
	SubOrgID   string          `json:"sub_org_id"`
	SubOrgName string          `json:"sub_org_name"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
}

// PurchaseOrder is the central workflow entity. Organizations always holds
// the allocation list; a single entry is the legacy one-org case and the
// repository keeps SubOrgID/SubOrgName mirrored for it.
type PurchaseOrder struct {
	ID                      string          `json:"id"`
	Name                    string          `json:"name"`
	CreatorID               string          `json:"creator_id"`
	CreatorName             string          `json:"creator_name"`
	SubOrgID                string          `json:"sub_org_id,omitempty"`
	SubOrgName              string          `json:"sub_org_name,omitempty"`
	Organizations           []OrgAllocation `json:"organizations"`
	Status                  Status          `json:"status"`
	LineItems               []LineItem      `json:"line_items"`
	TotalAmount             decimal.Decimal `json:"total_amount"`
	SpecialRequest          string          `json:"special_request,omitempty"`
	OverBudgetJustification string          `json:"over_budget_justification,omitempty"`
	AdminComments           string          `json:"admin_comments,omitempty"`
	PurchaserComments       string          `json:"purchaser_comments,omitempty"`
	ApprovedByID            string          `json:"approved_by_id,omitempty"`
	ApprovedByName          string          `json:"approved_by_name,omitempty"`
	PurchasedByID           string          `json:"purchased_by_id,omitempty"`
	PurchasedByName         string          `json:"purchased_by_name,omitempty"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
	ApprovedAt              *time.Time      `json:"approved_at,omitempty"`
	PurchasedAt             *time.Time      `json:"purchased_at,omitempty"`
}

// ComputeTotal returns the sum of all line item totals.
func (po *PurchaseOrder) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, li := range po.LineItems {
		total = total.Add(li.TotalPrice())
	}
	return total
}

// ValidateTotals checks that TotalAmount matches the line items and, when
// an allocation is present, that the allocation sums to the total within
// the rounding epsilon.
func (po *PurchaseOrder) ValidateTotals() error {
	if !po.TotalAmount.Sub(po.ComputeTotal()).Abs().LessThanOrEqual(AmountEpsilon) {
		return fmt.Errorf("total %s does not match line items %s",
			po.TotalAmount.StringFixed(2), po.ComputeTotal().StringFixed(2))
	}
	if len(po.Organizations) > 0 {
		sum := decimal.Zero
		for _, a := range po.Organizations {
			sum = sum.Add(a.Amount)
		}
		if !sum.Sub(po.TotalAmount).Abs().LessThanOrEqual(AmountEpsilon) {
			return fmt.Errorf("allocation sum %s does not match total %s",
				sum.StringFixed(2), po.TotalAmount.StringFixed(2))
		}
	}
	return nil
}

// TxAllocation maps part of a transaction's debit to one sub-organization.
type TxAllocation struct {
	SubOrgID   string          `json:"sub_org_id"`
	SubOrgName string          `json:"sub_org_name"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage float64         `json:"percentage"`
}

// TransactionStatusPosted is the only status accepted on import.
const TransactionStatusPosted = "posted"

// Transaction is an externally-sourced ledger entry. Description is the
// natural dedup key: a second row with the same description is skipped on
// import. LinkedPOID may dangle after the PO is deleted.
type Transaction struct {
	ID           string          `json:"id"`
	PostDate     time.Time       `json:"post_date"`
	Description  string          `json:"description"`
	DebitAmount  decimal.Decimal `json:"debit_amount"`
	Status       string          `json:"status"`
	SubOrgID     string          `json:"sub_org_id,omitempty"`
	Allocations  []TxAllocation  `json:"allocations,omitempty"`
	ReceiptURL   string          `json:"receipt_url,omitempty"`
	LinkedPOID   string          `json:"linked_po_id,omitempty"`
	LinkedPOName string          `json:"linked_po_name,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Allocated reports whether the transaction is attributed to at least one
// sub-organization, via either the legacy field or the split list.
func (t *Transaction) Allocated() bool {
	return t.SubOrgID != "" || len(t.Allocations) > 0
}

// Priority orders notifications.
type Priority string

// Notification priorities, highest first.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// NotificationType classifies a derived notification.
type NotificationType string

// Notification types.
const (
	NotificationPOStatus    NotificationType = "po_status"
	NotificationBudgetAlert NotificationType = "budget_alert"
	NotificationSystem      NotificationType = "system"
	NotificationTransaction NotificationType = "transaction"
)

// Notification is derived on demand from current data, never persisted.
// ID is deterministic (content-derived) so per-user read state survives
// recomputation.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Priority  Priority         `json:"priority"`
	ActionURL string           `json:"action_url,omitempty"`
	Roles     []Role           `json:"-"`
	IsRead    bool             `json:"is_read"`
}

// NormalizeDescription trims the transaction description used as the
// import dedup key. Matching is exact after trimming.
func NormalizeDescription(s string) string {
	return strings.TrimSpace(s)
}
