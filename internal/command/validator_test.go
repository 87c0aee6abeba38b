package command

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivethru-ai/conversation-core/internal/menu"
	"github.com/drivethru-ai/conversation-core/internal/metrics"
	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

func newTestValidator(t *testing.T, repo *fakeRepo, policy UnknownIngredientPolicy) *Validator {
	t.Helper()
	m := menu.NewReadModel(repo, missCache{}, metrics.New(), logger.New("validator-test"))
	return NewValidator(m, policy)
}

func TestValidateRemove_KnownIngredient(t *testing.T) {
	repo := &fakeRepo{
		itemIng: map[int64][]menu.ItemIngredient{1: {{MenuItemID: 1, IngredientID: 10}}},
		ingred:  []menu.Ingredient{{ID: 10, RestaurantID: 7, Name: "Onions"}},
	}
	v := newTestValidator(t, repo, PolicyWarn)

	assert.True(t, v.ValidateRemove(context.Background(), 7, 1, "Onions"))
	assert.True(t, v.ValidateRemove(context.Background(), 7, 1, "onions"))
	assert.False(t, v.ValidateRemove(context.Background(), 7, 1, "Pickles"))
}

func TestValidateAdd_AssociatedIngredient_UsesAdditionalCost(t *testing.T) {
	repo := &fakeRepo{
		itemIng: map[int64][]menu.ItemIngredient{
			1: {{MenuItemID: 1, IngredientID: 10, AdditionalCost: decimal.NewFromFloat(0.75)}},
		},
		ingred: []menu.Ingredient{{ID: 10, RestaurantID: 7, Name: "Bacon", UnitCost: decimal.NewFromFloat(2.00)}},
	}
	v := newTestValidator(t, repo, PolicyWarn)

	cost, ok := v.ValidateAdd(context.Background(), 7, 1, "Bacon")
	require.True(t, ok)
	assert.True(t, cost.Equal(decimal.NewFromFloat(0.75)), "expected the item-specific additional cost, not the ingredient's base unit cost")
}

func TestValidateAdd_UnassociatedButKnownIngredient_UsesUnitCost(t *testing.T) {
	repo := &fakeRepo{
		ingred: []menu.Ingredient{{ID: 20, RestaurantID: 7, Name: "Extra Cheese", UnitCost: decimal.NewFromFloat(1.25)}},
	}
	v := newTestValidator(t, repo, PolicyWarn)

	cost, ok := v.ValidateAdd(context.Background(), 7, 1, "Extra Cheese")
	require.True(t, ok)
	assert.True(t, cost.Equal(decimal.NewFromFloat(1.25)))
}

func TestValidateAdd_UnknownIngredient_NotOK(t *testing.T) {
	v := newTestValidator(t, &fakeRepo{}, PolicyWarn)

	cost, ok := v.ValidateAdd(context.Background(), 7, 1, "Unicorn Dust")
	assert.False(t, ok)
	assert.True(t, cost.IsZero())
}

func TestValidator_Policy_DefaultsToWarnWhenEmpty(t *testing.T) {
	v := NewValidator(nil, "")
	assert.Equal(t, PolicyWarn, v.Policy())
}

func TestConflictingChangeSet(t *testing.T) {
	cases := []struct {
		name    string
		changes ModifyChanges
		want    bool
	}{
		{"empty", ModifyChanges{}, false},
		{"add only", ModifyChanges{AddModifier: "cheese"}, false},
		{"remove only", ModifyChanges{RemoveModifier: "cheese"}, false},
		{"same ingredient conflicts", ModifyChanges{AddModifier: "Cheese", RemoveModifier: "cheese"}, true},
		{"different ingredients do not conflict", ModifyChanges{AddModifier: "cheese", RemoveModifier: "onions"}, false},
		{"size change does not clear a same-ingredient conflict", ModifyChanges{AddModifier: "cheese", RemoveModifier: "cheese", SetSize: "large", HasSetSize: true}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, conflictingChangeSet(c.changes))
		})
	}
}
