// Package access resolves a (role, operation, resource-ownership) triple into
// an allow/deny outcome. The built-in role overrides are modeled as an
// explicit prioritized rule list evaluated in fixed order,
// with the data-driven permission-set check as the final fallback.
package access

import (
	"context"
	"fmt"
)

// Operation names understood by the engine. Operations not listed here fall
// through to the permission-set check demanding a permission of the same name.
const (
	OpAddPaymentMethods    = "add_payment_methods"
	OpUpdatePaymentMethods = "update_payment_methods"
	OpDeletePaymentMethods = "delete_payment_methods"
	OpReadPaymentMethods   = "read_payment_methods"
	OpManageUsers          = "manage_users"
	OpManageSystem         = "manage_system"
	OpViewAuditLogs        = "view_audit_logs"
)

// Reason explains a decision outcome.
type Reason string

const (
	ReasonRoleOverride      Reason = "role_override"
	ReasonPermissionGranted Reason = "permission_granted"
	ReasonMissingPermission Reason = "missing_permission"
	ReasonOwnershipRequired Reason = "ownership_required"
	ReasonUnauthenticated   Reason = "unauthenticated"
)

// Decision is the outcome of a single access check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow builds an allowing decision.
func Allow(reason Reason) Decision {
	return Decision{Allowed: true, Reason: reason}
}

// Deny builds a denying decision.
func Deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

type ruleKind int

const (
	roleAlwaysAllow ruleKind = iota
	roleConditionalAllow
)

// rule is one entry of the prioritized override list. Rules only ever grant;
// a non-matching rule falls through to the next one.
type rule struct {
	kind             ruleKind
	role             string
	operations       map[string]struct{}
	requireOwnership bool
}

func operationSet(ops ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ops))
	for _, op := range ops {
		set[op] = struct{}{}
	}
	return set
}

// PermissionSource supplies the role -> permission-name mapping for the
// fallback check. Implementations must be safe for concurrent use and may
// refresh their data at any time.
type PermissionSource interface {
	Permissions(ctx context.Context, role string) ([]string, error)
}

// Engine evaluates access decisions. The rule list is fixed at construction
// and its ordering is part of the contract: admin first, then the manager and
// customer card-management overrides, then the permission-set fallback.
type Engine struct {
	rules  []rule
	source PermissionSource
}

// NewEngine builds an engine with the built-in override rules on top of the
// supplied permission source.
func NewEngine(source PermissionSource) *Engine {
	cardOps := operationSet(OpAddPaymentMethods, OpUpdatePaymentMethods, OpDeletePaymentMethods)
	return &Engine{
		source: source,
		rules: []rule{
			{kind: roleAlwaysAllow, role: "admin"},
			{kind: roleConditionalAllow, role: "manager", operations: cardOps},
			{kind: roleConditionalAllow, role: "customer", operations: cardOps, requireOwnership: true},
		},
	}
}

// Decide resolves the triple into a decision. An empty role denies with a
// distinct unauthenticated reason before any rule is consulted. The returned
// error is reserved for permission-source failures.
func (e *Engine) Decide(ctx context.Context, role, operation string, isOwner bool) (Decision, error) {
	if role == "" {
		return Deny(ReasonUnauthenticated), nil
	}

	for _, r := range e.rules {
		if r.role != role {
			continue
		}
		switch r.kind {
		case roleAlwaysAllow:
			return Allow(ReasonRoleOverride), nil
		case roleConditionalAllow:
			if _, ok := r.operations[operation]; !ok {
				continue
			}
			if r.requireOwnership && !isOwner {
				continue
			}
			return Allow(ReasonRoleOverride), nil
		}
	}

	granted, err := e.source.Permissions(ctx, role)
	if err != nil {
		return Deny(ReasonMissingPermission), fmt.Errorf("load permissions for role %s: %w", role, err)
	}

	grantedSet := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		grantedSet[p] = struct{}{}
	}
	for _, required := range requiredPermissions(operation) {
		if _, ok := grantedSet[required]; !ok {
			return Deny(ReasonMissingPermission), nil
		}
	}
	return Allow(ReasonPermissionGranted), nil
}

// requiredPermissions lists the permissions an operation demands. Every
// operation currently demands exactly the permission bearing its own name.
func requiredPermissions(operation string) []string {
	return []string{operation}
}
