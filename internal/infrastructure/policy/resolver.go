package policy

import (
	"context"
	"fmt"

	"github.com/garyjia/travel-expense/internal/application/port"
	"github.com/garyjia/travel-expense/internal/domain/entity"
)

// Rule names recorded on policy violations
const (
	RuleMaxEstimatedTotal = "max_estimated_total"
)

// Config holds the approval policy
type Config struct {
	// Levels is the default ordered approval chain
	Levels []entity.StepTemplate

	// Organizations overrides Levels per organization id
	Organizations map[string][]entity.StepTemplate

	// MaxEstimatedTotal flags requests above it; zero disables the check
	MaxEstimatedTotal float64
}

// Resolver resolves approval levels from configuration
type Resolver struct {
	cfg Config
}

// NewResolver creates a Resolver, rejecting levels with unknown approver rules
func NewResolver(cfg Config) (*Resolver, error) {
	if err := validateLevels("default", cfg.Levels); err != nil {
		return nil, err
	}
	for org, levels := range cfg.Organizations {
		if err := validateLevels(org, levels); err != nil {
			return nil, err
		}
	}
	return &Resolver{cfg: cfg}, nil
}

// Resolve implements port.PolicyResolver
func (r *Resolver) Resolve(ctx context.Context, organizationID string, req *entity.TravelRequest) (*port.PolicyResolution, error) {
	levels := r.cfg.Levels
	if orgLevels, ok := r.cfg.Organizations[organizationID]; ok {
		levels = orgLevels
	}

	resolution := &port.PolicyResolution{
		Steps: append([]entity.StepTemplate(nil), levels...),
	}

	if r.cfg.MaxEstimatedTotal > 0 && req.EstimatedTotal > r.cfg.MaxEstimatedTotal {
		resolution.Violations = append(resolution.Violations, entity.PolicyViolation{
			Rule:   RuleMaxEstimatedTotal,
			Detail: fmt.Sprintf("estimated total %.2f exceeds %.2f", req.EstimatedTotal, r.cfg.MaxEstimatedTotal),
		})
	}

	return resolution, nil
}

func validateLevels(scope string, levels []entity.StepTemplate) error {
	for i, level := range levels {
		switch level.ApproverRule {
		case entity.ApproverDirectManager, entity.ApproverOrgAdmin, entity.ApproverAccountingManager:
		case entity.ApproverSpecificUser:
			if level.ApproverUserID == "" {
				return fmt.Errorf("policy %s level %d: specific_user needs user_id", scope, i+1)
			}
		default:
			return fmt.Errorf("policy %s level %d: unknown approver %q", scope, i+1, level.ApproverRule)
		}

		switch level.Skip.Kind {
		case entity.SkipNever, entity.SkipSelfApprover, entity.SkipBelowThreshold:
		default:
			return fmt.Errorf("policy %s level %d: unknown skip rule %q", scope, i+1, level.Skip.Kind)
		}
	}
	return nil
}

var _ port.PolicyResolver = (*Resolver)(nil)
