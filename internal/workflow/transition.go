// Package workflow implements the purchase-order lifecycle engine: a single
// transition entry point that checks the acting role, the current status and
// the requested action, and applies timestamp and attribution side effects.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/po-tracker/internal/allocation"
	"gitlab.com/yelinaung/po-tracker/internal/apperr"
	"gitlab.com/yelinaung/po-tracker/internal/models"
)

// Action is a requested lifecycle step.
type Action string

// Lifecycle actions.
const (
	// ActionSubmit moves a draft or declined order to pending_approval.
	// Only the creator may submit; a resubmit does not clear the previous
	// decline comment.
	ActionSubmit Action = "submit"
	// ActionApprove moves pending_approval to approved (admin only).
	ActionApprove Action = "approve"
	// ActionDecline moves pending_approval to declined (admin only) and
	// requires a non-blank reason.
	ActionDecline Action = "decline"
	// ActionStartPurchase moves approved to pending_purchase (purchaser
	// only). Normally triggered implicitly by checking the first line item.
	ActionStartPurchase Action = "start_purchase"
	// ActionMarkPurchased moves approved or pending_purchase to purchased
	// (purchaser only).
	ActionMarkPurchased Action = "mark_purchased"
)

// defaultPurchaseNote is recorded when purchasing starts without an
// explicit purchaser comment.
const defaultPurchaseNote = "Purchasing in progress"

type rule struct {
	from []models.Status
	to   models.Status
	role models.Role // required role; creator-only actions also check CreatorID
}

var rules = map[Action]rule{
	ActionSubmit: {
		from: []models.Status{models.StatusDraft, models.StatusDeclined},
		to:   models.StatusPendingApproval,
	},
	ActionApprove: {
		from: []models.Status{models.StatusPendingApproval},
		to:   models.StatusApproved,
		role: models.RoleAdmin,
	},
	ActionDecline: {
		from: []models.Status{models.StatusPendingApproval},
		to:   models.StatusDeclined,
		role: models.RoleAdmin,
	},
	ActionStartPurchase: {
		from: []models.Status{models.StatusApproved},
		to:   models.StatusPendingPurchase,
		role: models.RolePurchaser,
	},
	ActionMarkPurchased: {
		from: []models.Status{models.StatusApproved, models.StatusPendingPurchase},
		to:   models.StatusPurchased,
		role: models.RolePurchaser,
	},
}

// ValidActions lists every lifecycle action.
var ValidActions = []Action{
	ActionSubmit, ActionApprove, ActionDecline,
	ActionStartPurchase, ActionMarkPurchased,
}

// Transition applies one lifecycle action and returns a new purchase order
// value; the input is never mutated. A disallowed actor/status combination
// fails with *apperr.InvalidTransitionError naming the current status, the
// requested status and the acting role, regardless of what the caller
// already checked.
func Transition(po *models.PurchaseOrder, action Action, session models.Session, comment string, now time.Time) (*models.PurchaseOrder, error) {
	r, ok := rules[action]
	if !ok {
		return nil, apperr.NewValidationError("unknown action %q", action)
	}

	actorRole := primaryRole(session)

	allowed := false
	switch action {
	case ActionSubmit:
		allowed = session.UserID == po.CreatorID && !session.IsGuest()
	default:
		allowed = session.HasRole(r.role)
	}
	inState := statusIn(po.Status, r.from)

	// Wrong role and wrong state both reject with the same error; the
	// engine never assumes the caller pre-checked either half.
	if !allowed || !inState {
		return nil, &apperr.InvalidTransitionError{
			From:      po.Status,
			Requested: r.to,
			Role:      actorRole,
		}
	}

	if action == ActionDecline && strings.TrimSpace(comment) == "" {
		return nil, apperr.NewValidationError("decline requires a reason")
	}

	out := clone(po)
	out.Status = r.to
	out.UpdatedAt = now

	switch action {
	case ActionSubmit:
		// Prior decline comments stay visible until an admin overwrites
		// them on the next review pass.
	case ActionApprove:
		t := now
		out.ApprovedAt = &t
		out.ApprovedByID = session.UserID
		out.ApprovedByName = session.Name
		if strings.TrimSpace(comment) != "" {
			out.AdminComments = comment
		}
	case ActionDecline:
		out.AdminComments = comment
	case ActionStartPurchase:
		if strings.TrimSpace(comment) != "" {
			out.PurchaserComments = comment
		} else if out.PurchaserComments == "" {
			out.PurchaserComments = defaultPurchaseNote
		}
	case ActionMarkPurchased:
		t := now
		out.PurchasedAt = &t
		out.PurchasedByID = session.UserID
		out.PurchasedByName = session.Name
		if strings.TrimSpace(comment) != "" {
			out.PurchaserComments = comment
		}
	}

	return out, nil
}

// CreateInput is the caller-supplied part of a new purchase order. The
// allocation comes in one of two shapes: explicit Organizations entries, or
// Targets to split the computed total across (equally, or by Percentages).
type CreateInput struct {
	Name                    string
	LineItems               []models.LineItem
	Organizations           []models.OrgAllocation
	Targets                 []allocation.Target
	Percentages             []float64
	SpecialRequest          string
	OverBudgetJustification string
	// SubmitNow skips draft and submits straight to pending_approval.
	SubmitNow bool
}

// resolveAllocation turns either allocation shape into validated entries
// summing to total. Explicit entries and split targets are mutually
// exclusive.
func resolveAllocation(entries []models.OrgAllocation, targets []allocation.Target, percentages []float64, total decimal.Decimal) ([]models.OrgAllocation, error) {
	if len(entries) > 0 {
		if len(targets) > 0 {
			return nil, apperr.NewValidationError("provide either organizations or targets, not both")
		}
		out := allocation.NormalizeEntries(entries)
		if err := allocation.Validate(out, total); err != nil {
			return nil, err
		}
		return out, nil
	}
	if len(percentages) > 0 {
		return allocation.SplitByPercentage(total, targets, percentages)
	}
	return allocation.Split(total, targets)
}

// Create builds a new purchase order for a director or admin. Totals are
// computed from the line items; the allocation must sum to that total.
func Create(in CreateInput, session models.Session, now time.Time) (*models.PurchaseOrder, error) {
	if !session.HasRole(models.RoleDirector) && !session.HasRole(models.RoleAdmin) {
		return nil, fmt.Errorf("only directors and admins may create purchase orders: %w", apperr.ErrPermissionDenied)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.NewValidationError("purchase order name is required")
	}
	if len(in.LineItems) == 0 {
		return nil, apperr.NewValidationError("at least one line item is required")
	}
	for i, li := range in.LineItems {
		if strings.TrimSpace(li.ItemName) == "" {
			return nil, apperr.NewValidationError("line item %d: item name is required", i+1)
		}
		if li.Quantity <= 0 {
			return nil, apperr.NewValidationError("line item %d: quantity must be positive", i+1)
		}
		if li.UnitPrice.IsNegative() {
			return nil, apperr.NewValidationError("line item %d: unit price cannot be negative", i+1)
		}
	}

	po := &models.PurchaseOrder{
		ID:                      uuid.NewString(),
		Name:                    in.Name,
		CreatorID:               session.UserID,
		CreatorName:             session.Name,
		Status:                  models.StatusDraft,
		LineItems:               append([]models.LineItem(nil), in.LineItems...),
		SpecialRequest:          in.SpecialRequest,
		OverBudgetJustification: in.OverBudgetJustification,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	po.TotalAmount = po.ComputeTotal()

	orgs, err := resolveAllocation(in.Organizations, in.Targets, in.Percentages, po.TotalAmount)
	if err != nil {
		return nil, err
	}
	po.Organizations = orgs
	syncLegacyOrg(po)

	if in.SubmitNow {
		po.Status = models.StatusPendingApproval
	}

	return po, nil
}

// EditInput carries the editable fields of a purchase order. Allocation
// shapes work as in CreateInput.
type EditInput struct {
	Name                    string
	LineItems               []models.LineItem
	Organizations           []models.OrgAllocation
	Targets                 []allocation.Target
	Percentages             []float64
	SpecialRequest          string
	OverBudgetJustification string
}

// CanEdit reports whether the session may edit the order: only the creator,
// and only while it sits in draft or declined.
func CanEdit(po *models.PurchaseOrder, session models.Session) bool {
	if session.UserID != po.CreatorID || session.IsGuest() {
		return false
	}
	return po.Status == models.StatusDraft || po.Status == models.StatusDeclined
}

// Edit rewrites the editable fields, recomputes the total and re-derives
// the allocation from it. The allocation is overwritten, never left stale
// against the new total. Status is unchanged; resubmission is a separate
// ActionSubmit step.
func Edit(po *models.PurchaseOrder, in EditInput, session models.Session, now time.Time) (*models.PurchaseOrder, error) {
	if !CanEdit(po, session) {
		return nil, fmt.Errorf("purchase order %s is not editable by %s in status %q: %w",
			po.ID, session.UserID, po.Status, apperr.ErrPermissionDenied)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.NewValidationError("purchase order name is required")
	}
	if len(in.LineItems) == 0 {
		return nil, apperr.NewValidationError("at least one line item is required")
	}

	out := clone(po)
	out.Name = in.Name
	out.LineItems = append([]models.LineItem(nil), in.LineItems...)
	out.SpecialRequest = in.SpecialRequest
	out.OverBudgetJustification = in.OverBudgetJustification
	out.TotalAmount = out.ComputeTotal()
	out.UpdatedAt = now

	orgs, err := resolveAllocation(in.Organizations, in.Targets, in.Percentages, out.TotalAmount)
	if err != nil {
		return nil, err
	}
	out.Organizations = orgs
	syncLegacyOrg(out)

	return out, nil
}

// CanDelete reports whether the session may delete the order: the creator
// for their own orders, an admin for any. Deletion is irreversible and does
// not cascade to linked transactions.
func CanDelete(po *models.PurchaseOrder, session models.Session) bool {
	if session.IsGuest() {
		return false
	}
	if session.HasRole(models.RoleAdmin) {
		return true
	}
	return session.UserID == po.CreatorID
}

// CheckLineItem marks one line item as purchased. Checking the first item
// of an approved order implicitly starts purchasing, moving the order to
// pending_purchase with the default purchaser note.
func CheckLineItem(po *models.PurchaseOrder, index int, session models.Session, now time.Time) (*models.PurchaseOrder, error) {
	if !session.HasRole(models.RolePurchaser) {
		return nil, fmt.Errorf("only purchasers may check line items: %w", apperr.ErrPermissionDenied)
	}
	if index < 0 || index >= len(po.LineItems) {
		return nil, apperr.NewValidationError("line item index %d out of range", index)
	}

	anyChecked := false
	for _, li := range po.LineItems {
		if li.Purchased {
			anyChecked = true
			break
		}
	}

	out := clone(po)
	out.LineItems[index].Purchased = true
	out.UpdatedAt = now

	if po.Status == models.StatusApproved && !anyChecked {
		return Transition(out, ActionStartPurchase, session, "", now)
	}
	return out, nil
}

// primaryRole picks the role reported in transition errors: the first role
// the session holds.
func primaryRole(s models.Session) models.Role {
	if len(s.Roles) > 0 {
		return s.Roles[0]
	}
	return ""
}

func statusIn(s models.Status, set []models.Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// syncLegacyOrg mirrors a single-entry allocation into the legacy
// single-org fields; multi-org orders leave them empty.
func syncLegacyOrg(po *models.PurchaseOrder) {
	if len(po.Organizations) == 1 {
		po.SubOrgID = po.Organizations[0].SubOrgID
		po.SubOrgName = po.Organizations[0].SubOrgName
	} else {
		po.SubOrgID = ""
		po.SubOrgName = ""
	}
}

func clone(po *models.PurchaseOrder) *models.PurchaseOrder {
	out := *po
	out.LineItems = append([]models.LineItem(nil), po.LineItems...)
	out.Organizations = append([]models.OrgAllocation(nil), po.Organizations...)
	if po.ApprovedAt != nil {
		t := *po.ApprovedAt
		out.ApprovedAt = &t
	}
	if po.PurchasedAt != nil {
		t := *po.PurchasedAt
		out.PurchasedAt = &t
	}
	return &out
}
