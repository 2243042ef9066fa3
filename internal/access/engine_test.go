package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	perms map[string][]string
	err   error
	calls int
}

func (s *stubSource) Permissions(_ context.Context, role string) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.perms[role], nil
}

func TestDecideRoleOverrides(t *testing.T) {
	engine := NewEngine(&stubSource{perms: map[string][]string{}})
	ctx := context.Background()

	tests := []struct {
		name      string
		role      string
		operation string
		isOwner   bool
		allowed   bool
		reason    Reason
	}{
		{"admin deletes anyone's card", "admin", OpDeletePaymentMethods, false, true, ReasonRoleOverride},
		{"admin does anything", "admin", OpManageSystem, false, true, ReasonRoleOverride},
		{"manager deletes card", "manager", OpDeletePaymentMethods, false, true, ReasonRoleOverride},
		{"manager adds card", "manager", OpAddPaymentMethods, false, true, ReasonRoleOverride},
		{"manager updates card", "manager", OpUpdatePaymentMethods, false, true, ReasonRoleOverride},
		{"manager cannot manage system", "manager", OpManageSystem, false, false, ReasonMissingPermission},
		{"customer deletes own card", "customer", OpDeletePaymentMethods, true, true, ReasonRoleOverride},
		{"customer cannot delete another's card", "customer", OpDeletePaymentMethods, false, false, ReasonMissingPermission},
		{"unknown role without permissions", "clerk_without_permissions", "manage_cards", false, false, ReasonMissingPermission},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := engine.Decide(ctx, tt.role, tt.operation, tt.isOwner)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, decision.Allowed)
			assert.Equal(t, tt.reason, decision.Reason)
		})
	}
}

func TestDecideMissingRoleIsUnauthenticated(t *testing.T) {
	source := &stubSource{perms: map[string][]string{}}
	engine := NewEngine(source)

	decision, err := engine.Decide(context.Background(), "", OpAddPaymentMethods, true)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonUnauthenticated, decision.Reason)
	assert.Zero(t, source.calls, "unauthenticated callers never reach the permission source")
}

func TestDecidePermissionSetFallback(t *testing.T) {
	source := &stubSource{perms: map[string][]string{
		"auditor": {OpViewAuditLogs},
		"support": {OpReadPaymentMethods, OpViewAuditLogs},
	}}
	engine := NewEngine(source)
	ctx := context.Background()

	decision, err := engine.Decide(ctx, "auditor", OpViewAuditLogs, false)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, ReasonPermissionGranted, decision.Reason)

	decision, err = engine.Decide(ctx, "auditor", OpDeletePaymentMethods, false)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	decision, err = engine.Decide(ctx, "support", OpReadPaymentMethods, true)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestDecideCustomerFallsThroughForOtherOperations(t *testing.T) {
	source := &stubSource{perms: map[string][]string{
		"customer": {OpReadPaymentMethods},
	}}
	engine := NewEngine(source)

	// Not covered by the customer override, so the permission set decides.
	decision, err := engine.Decide(context.Background(), "customer", OpReadPaymentMethods, true)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, ReasonPermissionGranted, decision.Reason)
}

func TestDecideSourceFailureDenies(t *testing.T) {
	engine := NewEngine(&stubSource{err: errors.New("db down")})

	decision, err := engine.Decide(context.Background(), "support", OpReadPaymentMethods, false)
	require.Error(t, err)
	assert.False(t, decision.Allowed)
}
