package directory

import (
	"context"
	"fmt"

	"github.com/garyjia/travel-expense/internal/application/port"
	"github.com/garyjia/travel-expense/internal/domain/entity"
)

// ErrNoApprover is returned when a rule cannot be resolved to a user
var ErrNoApprover = port.ErrNoApprover

// Config holds the organization's reporting lines
type Config struct {
	// Managers maps an employee id to their direct manager
	Managers          map[string]string
	OrgAdmin          string
	AccountingManager string
}

// Directory resolves managers and approver rules from configuration
type Directory struct {
	cfg Config
}

// New creates a Directory
func New(cfg Config) *Directory {
	if cfg.Managers == nil {
		cfg.Managers = map[string]string{}
	}
	return &Directory{cfg: cfg}
}

// ManagerOf implements port.ManagerResolver
func (d *Directory) ManagerOf(ctx context.Context, employeeID string) (string, error) {
	manager, ok := d.cfg.Managers[employeeID]
	if !ok || manager == "" {
		return "", fmt.Errorf("%w: no manager for %s", ErrNoApprover, employeeID)
	}
	return manager, nil
}

// ResolveApprover implements port.ApproverResolver
func (d *Directory) ResolveApprover(ctx context.Context, rule, userID, requesterID string) (string, error) {
	var approver string
	switch rule {
	case entity.ApproverDirectManager:
		return d.ManagerOf(ctx, requesterID)
	case entity.ApproverSpecificUser:
		approver = userID
	case entity.ApproverOrgAdmin:
		approver = d.cfg.OrgAdmin
	case entity.ApproverAccountingManager:
		approver = d.cfg.AccountingManager
	default:
		return "", fmt.Errorf("%w: unknown rule %q", ErrNoApprover, rule)
	}

	if approver == "" {
		return "", fmt.Errorf("%w: rule %s has no user configured", ErrNoApprover, rule)
	}
	return approver, nil
}

// Verify interface compliance
var (
	_ port.ManagerResolver  = (*Directory)(nil)
	_ port.ApproverResolver = (*Directory)(nil)
)
