package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/veloxdb/catalog"
)

func TestFullModeAlwaysAllows(t *testing.T) {
	m := catalog.FullMode()
	assert.Equal(t, catalog.Allow, m.Evaluate(nil, nil))
}

func TestNoneModeAlwaysDenies(t *testing.T) {
	m := catalog.NoneMode()
	assert.Equal(t, catalog.Deny, m.Evaluate(nil, nil))
}

func TestWhereModeSkipIsTreatedAsDeny(t *testing.T) {
	m := catalog.WhereMode(func(ctx, candidate any) catalog.PermissionDecision {
		return catalog.Skip
	})
	assert.Equal(t, catalog.Deny, m.Evaluate(nil, nil))
}

func TestWhereModeHonorsRuleDecision(t *testing.T) {
	m := catalog.WhereMode(func(ctx, candidate any) catalog.PermissionDecision {
		return catalog.Allow
	})
	assert.Equal(t, catalog.Allow, m.Evaluate(nil, nil))
}

func TestNilPermissionsDeniesEverything(t *testing.T) {
	var p *catalog.Permissions
	assert.False(t, p.Check(catalog.ActionSelect, nil, nil))
}

func TestPermissionsCheckDispatchesByAction(t *testing.T) {
	p := &catalog.Permissions{
		Select: catalog.FullMode(),
		Create: catalog.NoneMode(),
	}
	assert.True(t, p.Check(catalog.ActionSelect, nil, nil))
	assert.False(t, p.Check(catalog.ActionCreate, nil, nil))
}

func TestUserHasRoleSupersetSemantics(t *testing.T) {
	u := catalog.User{Roles: []catalog.Role{catalog.RoleOwner}}
	assert.True(t, u.HasRole(catalog.RoleOwner))
	assert.True(t, u.HasRole(catalog.RoleEditor))
	assert.True(t, u.HasRole(catalog.RoleViewer))

	viewer := catalog.User{Roles: []catalog.Role{catalog.RoleViewer}}
	assert.False(t, viewer.HasRole(catalog.RoleEditor))
}
