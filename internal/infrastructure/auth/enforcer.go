// Package auth resolves API keys to wallets and checks what their role may do.
package auth

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/orris-inc/lnsubs/internal/shared/logger"
)

const (
	RoleAdmin   = "admin"
	RoleInvoice = "invoice"

	ActionRead  = "read"
	ActionWrite = "write"

	ObjectPlans         = "plans"
	ObjectSubscriptions = "subscriptions"
	ObjectPayments      = "payments"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// Enforcer holds the fixed role policy: invoice keys read, admin keys also
// write and inherit everything invoice keys may do.
type Enforcer struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   logger.Interface
}

func NewEnforcer(log logger.Interface) (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	var policies [][]string
	for _, obj := range []string{ObjectPlans, ObjectSubscriptions, ObjectPayments} {
		policies = append(policies,
			[]string{RoleInvoice, obj, ActionRead},
			[]string{RoleAdmin, obj, ActionWrite},
		)
	}
	if _, err := enforcer.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("failed to add policies: %w", err)
	}
	if _, err := enforcer.AddGroupingPolicy(RoleAdmin, RoleInvoice); err != nil {
		return nil, fmt.Errorf("failed to add role inheritance: %w", err)
	}

	return &Enforcer{
		enforcer: enforcer,
		logger:   log,
	}, nil
}

func (e *Enforcer) Enforce(role, object, action string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	allowed, err := e.enforcer.Enforce(role, object, action)
	if err != nil {
		e.logger.Errorw("permission check failed", "error", err, "role", role, "object", object, "action", action)
		return false, fmt.Errorf("permission check failed: %w", err)
	}

	return allowed, nil
}
