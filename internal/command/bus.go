package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drivethru-ai/conversation-core/internal/config"
	"github.com/drivethru-ai/conversation-core/internal/events"
	"github.com/drivethru-ai/conversation-core/internal/menu"
	"github.com/drivethru-ai/conversation-core/internal/orderstore"
	"github.com/drivethru-ai/conversation-core/internal/types"
	"github.com/drivethru-ai/conversation-core/pkg/apperrors"
	"github.com/drivethru-ai/conversation-core/pkg/decimalx"
	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

// TurnContext is the per-turn state the bus needs beyond the command list
// itself: which order/restaurant it is executing against and what a bare
// symbolic reference ("last_item") resolves to.
type TurnContext struct {
	OrderID       string
	RestaurantID  int64
	LastItemRef   string // last-mentioned line_id from SessionContext.Expectation, if any
}

// Clock is the port the bus reads the current time through.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock, backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Bus is the Command Bus (C3): executes a batch of commands against the
// Order Store, applying every domain invariant and aggregating a
// deterministic BatchResult.
type Bus struct {
	orders    orderstore.Store
	menu      *menu.ReadModel
	validator *Validator
	publisher events.Publisher
	clock     Clock
	cfg       config.Settings
	log       *logger.Logger
}

// New wires a Bus from its collaborators. cfg is a Settings value
// (internal/config.Config.Snapshot) that the Bus keeps for its whole
// lifetime; cmd/conversation-service takes it once at startup, so a later
// hot reload of the live config does not change the Bus's limits.
func New(orders orderstore.Store, menuModel *menu.ReadModel, publisher events.Publisher, clock Clock, cfg config.Settings, log *logger.Logger) *Bus {
	policy := PolicyWarn
	if cfg.UnknownIngredientPolicy == config.PolicyReject {
		policy = PolicyReject
	}
	return &Bus{
		orders:    orders,
		menu:      menuModel,
		validator: NewValidator(menuModel, policy),
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		log:       log,
	}
}

// Execute runs every command in commands, in order, independently, reloading
// the order from the store before each one so later commands observe earlier
// commands' committed effects.
func (b *Bus) Execute(ctx context.Context, commands []Command, turnCtx TurnContext) BatchResult {
	results := make([]Result, 0, len(commands))
	for _, cmd := range commands {
		results = append(results, b.executeOne(ctx, cmd, turnCtx))
	}
	return DeriveBatchOutcome(results)
}

// executeOne runs a single command within its own logical unit of work,
// recovering any panic into a System/INTERNAL_ERROR result so one buggy
// command can never crash the turn.
func (b *Bus) executeOne(ctx context.Context, cmd Command, turnCtx TurnContext) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("command bus: recovered panic executing %s: %v", cmd.Intent, r)
			result = systemResult(cmd.Intent, apperrors.NewSystem(apperrors.CodeInternalError, fmt.Sprintf("internal error: %v", r)))
		}
	}()

	switch cmd.Intent {
	case types.IntentAddItem:
		return b.executeAddItem(ctx, cmd, turnCtx)
	case types.IntentRemoveItem:
		return b.executeRemoveItem(ctx, cmd, turnCtx)
	case types.IntentModifyItem:
		return b.executeModifyItem(ctx, cmd, turnCtx)
	case types.IntentClearOrder:
		return b.executeClearOrder(ctx, cmd, turnCtx)
	case types.IntentConfirmOrder:
		return b.executeConfirmOrder(ctx, cmd, turnCtx)
	case types.IntentQuestion:
		return b.executeQuestion(ctx, cmd, turnCtx)
	case types.IntentItemUnavailable:
		return b.executeItemUnavailable(cmd)
	case types.IntentClarificationNeeded:
		return b.executeClarificationNeeded(cmd)
	case types.IntentUnknown:
		return b.executeUnknown(cmd)
	default:
		return systemResult(cmd.Intent, apperrors.NewSystem(apperrors.CodeInternalError, fmt.Sprintf("unrecognized command intent %q", cmd.Intent)))
	}
}

func systemResult(intent types.IntentType, err *apperrors.AppError) Result {
	return Result{Status: StatusError, Message: err.Message, ErrorCategory: err.Type, ErrorCode: err.Code, Intent: intent}
}

func businessResult(intent types.IntentType, code apperrors.Code, message string) Result {
	return Result{Status: StatusError, Message: message, ErrorCategory: apperrors.Business, ErrorCode: code, Intent: intent}
}

func warningResult(intent types.IntentType, code apperrors.Code, message string) Result {
	return Result{Status: StatusWarning, Message: message, ErrorCategory: apperrors.Business, ErrorCode: code, Intent: intent}
}

func successResult(intent types.IntentType, message string, data map[string]interface{}) Result {
	return Result{Status: StatusSuccess, Message: message, Data: data, Intent: intent}
}

func (b *Bus) loadOrder(ctx context.Context, orderID string) (*orderstore.Aggregate, *apperrors.AppError) {
	order, err := b.orders.Get(ctx, orderID)
	if err != nil {
		if err == orderstore.ErrNotFound {
			return nil, apperrors.NewSystem(apperrors.CodeDatabaseError, "order not found or expired")
		}
		return nil, apperrors.NewSystem(apperrors.CodeDatabaseError, "failed to load order").WithContext("cause", err.Error())
	}
	return order, nil
}

func (b *Bus) saveOrder(ctx context.Context, order *orderstore.Aggregate) *apperrors.AppError {
	order.UpdatedAt = b.clock.Now()
	if err := b.orders.Upsert(ctx, order); err != nil {
		return apperrors.NewSystem(apperrors.CodeDatabaseError, "failed to persist order").WithContext("cause", err.Error())
	}
	return nil
}

// recomputeTotals recomputes Subtotal/Tax/Total from the order's lines,
// rounding half-up to 2dp throughout.
func (b *Bus) recomputeTotals(order *orderstore.Aggregate) {
	lineTotals := make([]decimal.Decimal, len(order.Items))
	for i, line := range order.Items {
		lineTotals[i] = line.TotalPrice
	}
	order.Subtotal = decimalx.Sum(lineTotals...)
	taxRate := decimal.NewFromFloat(b.cfg.TaxRate)
	order.Tax = decimalx.RoundHalfUp(order.Subtotal.Mul(taxRate))
	order.Total = decimalx.Sum(order.Subtotal, order.Tax)
}

func lineQuantityTotal(order *orderstore.Aggregate) int {
	total := 0
	for _, l := range order.Items {
		total += l.Quantity
	}
	return total
}

// --- ADD_ITEM ---

func (b *Bus) executeAddItem(ctx context.Context, cmd Command, turnCtx TurnContext) Result {
	slots := cmd.AddItem
	if slots == nil {
		return systemResult(cmd.Intent, apperrors.NewSystem(apperrors.CodeInternalError, "ADD_ITEM command missing slots"))
	}

	item := b.menu.ItemByID(ctx, turnCtx.RestaurantID, slots.MenuItemID)
	if item == nil {
		return businessResult(cmd.Intent, apperrors.CodeItemNotFound, "that item isn't on the menu")
	}
	if !item.IsAvailable {
		return businessResult(cmd.Intent, apperrors.CodeItemUnavailable, fmt.Sprintf("%s is currently unavailable", item.Name))
	}

	quantity := slots.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	if b.cfg.EnableOrderLimits && quantity > b.cfg.MaxQuantityPerItem {
		return businessResult(cmd.Intent, apperrors.CodeQuantityExceedsLimit,
			fmt.Sprintf("you can only order up to %d of %s at a time", b.cfg.MaxQuantityPerItem, item.Name))
	}

	extraCost := decimal.Zero
	modifiers := make([]string, 0, len(slots.Modifiers))
	warn := ""
	if b.cfg.EnableCustomizationValidation {
		for _, m := range slots.Modifiers {
			action, ingredient := parseModifier(m)
			switch action {
			case modifierRemove:
				if !b.validator.ValidateRemove(ctx, turnCtx.RestaurantID, item.ID, ingredient) {
					return businessResult(cmd.Intent, apperrors.CodeModifierRemoveNotPresent,
						fmt.Sprintf("%s isn't an ingredient in %s", ingredient, item.Name))
				}
				modifiers = append(modifiers, "no "+ingredient)
			case modifierAdd:
				cost, ok := b.validator.ValidateAdd(ctx, turnCtx.RestaurantID, item.ID, ingredient)
				if !ok {
					if b.validator.Policy() == PolicyReject {
						return businessResult(cmd.Intent, apperrors.CodeModifierAddNotAllowed,
							fmt.Sprintf("we don't have %s available to add", ingredient))
					}
					warn = fmt.Sprintf("added %s, though it's not a recognized ingredient", ingredient)
					modifiers = append(modifiers, "extra "+ingredient)
					continue
				}
				extraCost = extraCost.Add(cost)
				modifiers = append(modifiers, "extra "+ingredient)
			}
		}
	} else {
		modifiers = append(modifiers, slots.Modifiers...)
	}

	if b.cfg.EnableInventoryChecking && !b.cfg.AllowNegativeInventory {
		for _, assoc := range b.menu.IngredientsOf(ctx, item.ID) {
			if assoc.IsOptional {
				continue
			}
			stock := b.menu.StockFor(ctx, turnCtx.RestaurantID, assoc.IngredientID)
			if stock != nil && stock.CurrentStock < quantity {
				ingredient := b.menu.IngredientByID(ctx, turnCtx.RestaurantID, assoc.IngredientID)
				name := "an ingredient"
				if ingredient != nil {
					name = ingredient.Name
				}
				return businessResult(cmd.Intent, apperrors.CodeInventoryShortage,
					fmt.Sprintf("we're out of %s right now", name))
			}
		}
	}

	order, loadErr := b.loadOrder(ctx, turnCtx.OrderID)
	if loadErr != nil {
		return systemResult(cmd.Intent, loadErr)
	}
	if order.Status != orderstore.StatusActive {
		return businessResult(cmd.Intent, apperrors.CodeInternalError, "order is no longer active")
	}

	if b.cfg.EnableOrderLimits && lineQuantityTotal(order)+quantity > b.cfg.MaxItemsPerOrder {
		return businessResult(cmd.Intent, apperrors.CodeQuantityExceedsLimit,
			fmt.Sprintf("that would exceed the %d item limit for one order", b.cfg.MaxItemsPerOrder))
	}

	totalPrice := decimalx.RoundHalfUp(item.Price.Add(extraCost).Mul(decimal.NewFromInt(int64(quantity))))
	if b.cfg.EnableOrderLimits {
		projected := decimalx.Sum(order.Subtotal, totalPrice)
		if projected.GreaterThan(decimal.NewFromFloat(b.cfg.MaxOrderTotal)) {
			return businessResult(cmd.Intent, apperrors.CodeQuantityExceedsLimit,
				fmt.Sprintf("that would put the order over our $%.2f limit", b.cfg.MaxOrderTotal))
		}
	}

	line := orderstore.Line{
		LineID:              uuid.New().String(),
		MenuItemID:          item.ID,
		Quantity:            quantity,
		Size:                slots.Size,
		Modifiers:           modifiers,
		SpecialInstructions: slots.SpecialInstructions,
		UnitPrice:           item.Price,
		ExtraCost:           decimalx.RoundHalfUp(extraCost),
		TotalPrice:          totalPrice,
	}
	order.Items = append(order.Items, line)
	b.recomputeTotals(order)

	if saveErr := b.saveOrder(ctx, order); saveErr != nil {
		return systemResult(cmd.Intent, saveErr)
	}

	data := map[string]interface{}{"line_id": line.LineID, "item_name": item.Name, "quantity": quantity}
	if warn != "" {
		return Result{Status: StatusWarning, Message: warn, ErrorCategory: apperrors.Business, ErrorCode: apperrors.CodeModifierAddNotAllowed, Intent: cmd.Intent, Data: data}
	}
	return successResult(cmd.Intent, fmt.Sprintf("added %s", item.Name), data)
}

type modifierAction int

const (
	modifierNone modifierAction = iota
	modifierAdd
	modifierRemove
)

var removePrefixes = []string{"no ", "without ", "remove ", "hold the "}
var addPrefixes = []string{"extra ", "add ", "with ", "more "}

// parseModifier classifies a free-text modifier phrase as add/remove and
// extracts the bare ingredient name, per the two-stage parser's extraction
// convention.
func parseModifier(raw string) (modifierAction, string) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, p := range removePrefixes {
		if strings.HasPrefix(lower, p) {
			return modifierRemove, strings.TrimSpace(raw[len(p):])
		}
	}
	for _, p := range addPrefixes {
		if strings.HasPrefix(lower, p) {
			return modifierAdd, strings.TrimSpace(raw[len(p):])
		}
	}
	return modifierAdd, strings.TrimSpace(raw)
}

// --- REMOVE_ITEM ---

func (b *Bus) executeRemoveItem(ctx context.Context, cmd Command, turnCtx TurnContext) Result {
	slots := cmd.RemoveItem
	if slots == nil {
		return systemResult(cmd.Intent, apperrors.NewSystem(apperrors.CodeInternalError, "REMOVE_ITEM command missing slots"))
	}

	order, loadErr := b.loadOrder(ctx, turnCtx.OrderID)
	if loadErr != nil {
		return systemResult(cmd.Intent, loadErr)
	}

	target := resolveTargetLine(order, slots.OrderItemID, slots.TargetRef, turnCtx.LastItemRef, b.menu, ctx, turnCtx.RestaurantID)
	if target == nil {
		return businessResult(cmd.Intent, apperrors.CodeItemNotFound, "I couldn't find that item in your order")
	}
	// The filter below rewrites the backing array target points into.
	removed := *target

	remaining := order.Items[:0]
	for _, l := range order.Items {
		if l.LineID != removed.LineID {
			remaining = append(remaining, l)
		}
	}
	order.Items = remaining
	b.recomputeTotals(order)

	if saveErr := b.saveOrder(ctx, order); saveErr != nil {
		return systemResult(cmd.Intent, saveErr)
	}

	item := b.menu.ItemByID(ctx, turnCtx.RestaurantID, removed.MenuItemID)
	name := "the item"
	if item != nil {
		name = item.Name
	}
	return successResult(cmd.Intent, fmt.Sprintf("removed %s", name), map[string]interface{}{"line_id": removed.LineID})
}

// resolveTargetLine implements REMOVE_ITEM's target resolution:
// exact id, then the symbolic "last_item"/session-carried ref, then a name
// match against the current order's lines.
func resolveTargetLine(order *orderstore.Aggregate, orderItemID, targetRef, lastItemRef string, m *menu.ReadModel, ctx context.Context, restaurantID int64) *orderstore.Line {
	if orderItemID != "" {
		return order.LineByID(orderItemID)
	}

	ref := strings.TrimSpace(targetRef)
	if ref == "" || strings.EqualFold(ref, "last_item") {
		if lastItemRef != "" {
			if l := order.LineByID(lastItemRef); l != nil {
				return l
			}
		}
		if len(order.Items) > 0 {
			return &order.Items[len(order.Items)-1]
		}
		return nil
	}

	if l := order.LineByID(ref); l != nil {
		return l
	}

	for i := range order.Items {
		item := m.ItemByID(ctx, restaurantID, order.Items[i].MenuItemID)
		if item != nil && normalizedContains(item.Name, ref) {
			return &order.Items[i]
		}
	}
	return nil
}

func normalizedContains(name, ref string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(strings.TrimSpace(ref)))
}

// --- MODIFY_ITEM ---

func (b *Bus) executeModifyItem(ctx context.Context, cmd Command, turnCtx TurnContext) Result {
	slots := cmd.ModifyItem
	if slots == nil {
		return systemResult(cmd.Intent, apperrors.NewSystem(apperrors.CodeInternalError, "MODIFY_ITEM command missing slots"))
	}

	if conflictingChangeSet(slots.Changes) {
		return businessResult(cmd.Intent, apperrors.CodeModifierConflict,
			fmt.Sprintf("you asked to both add and remove %s", slots.Changes.AddModifier))
	}

	order, loadErr := b.loadOrder(ctx, turnCtx.OrderID)
	if loadErr != nil {
		return systemResult(cmd.Intent, loadErr)
	}

	line := order.LineByID(slots.OrderItemID)
	if line == nil {
		return businessResult(cmd.Intent, apperrors.CodeItemNotFound, "I couldn't find that item in your order")
	}

	changes := slots.Changes
	warn := ""

	if changes.RemoveModifier != "" {
		if !b.validator.ValidateRemove(ctx, turnCtx.RestaurantID, line.MenuItemID, changes.RemoveModifier) {
			return businessResult(cmd.Intent, apperrors.CodeModifierRemoveNotPresent,
				fmt.Sprintf("%s isn't an ingredient on that item", changes.RemoveModifier))
		}
		line.Modifiers = appendUnique(line.Modifiers, "no "+changes.RemoveModifier)
	}

	if changes.AddModifier != "" {
		cost, ok := b.validator.ValidateAdd(ctx, turnCtx.RestaurantID, line.MenuItemID, changes.AddModifier)
		if !ok {
			if b.validator.Policy() == PolicyReject {
				return businessResult(cmd.Intent, apperrors.CodeModifierAddNotAllowed,
					fmt.Sprintf("we don't have %s available to add", changes.AddModifier))
			}
			warn = fmt.Sprintf("added %s, though it's not a recognized ingredient", changes.AddModifier)
		} else {
			line.ExtraCost = decimalx.RoundHalfUp(line.ExtraCost.Add(cost))
		}
		line.Modifiers = appendUnique(line.Modifiers, "extra "+changes.AddModifier)
	}

	if changes.HasSetSpecialInstructions {
		line.SpecialInstructions = changes.SetSpecialInstructions
	}
	if changes.ClearSpecialInstructions {
		line.SpecialInstructions = ""
	}
	if changes.HasSetSize {
		line.Size = changes.SetSize
	}
	if changes.HasSetQuantity {
		if b.cfg.EnableOrderLimits && (changes.SetQuantity <= 0 || changes.SetQuantity > b.cfg.MaxQuantityPerItem) {
			return businessResult(cmd.Intent, apperrors.CodeInvalidQuantity, "that's not a valid quantity")
		}
		line.Quantity = changes.SetQuantity
	}

	line.TotalPrice = decimalx.RoundHalfUp(line.UnitPrice.Add(line.ExtraCost).Mul(decimal.NewFromInt(int64(line.Quantity))))
	b.recomputeTotals(order)

	if saveErr := b.saveOrder(ctx, order); saveErr != nil {
		return systemResult(cmd.Intent, saveErr)
	}

	if warn != "" {
		return Result{Status: StatusWarning, Message: warn, ErrorCategory: apperrors.Business, ErrorCode: apperrors.CodeModifierAddNotAllowed, Intent: cmd.Intent, Data: map[string]interface{}{"line_id": line.LineID}}
	}
	return successResult(cmd.Intent, "updated your item", map[string]interface{}{"line_id": line.LineID})
}

func appendUnique(existing []string, value string) []string {
	for _, v := range existing {
		if strings.EqualFold(v, value) {
			return existing
		}
	}
	return append(existing, value)
}

// --- CLEAR_ORDER / CONFIRM_ORDER ---

func (b *Bus) executeClearOrder(ctx context.Context, cmd Command, turnCtx TurnContext) Result {
	order, loadErr := b.loadOrder(ctx, turnCtx.OrderID)
	if loadErr != nil {
		return systemResult(cmd.Intent, loadErr)
	}

	order.Items = []orderstore.Line{}
	b.recomputeTotals(order)

	if saveErr := b.saveOrder(ctx, order); saveErr != nil {
		return systemResult(cmd.Intent, saveErr)
	}

	b.publishBestEffort(events.TypeOrderCancelled, order)
	return successResult(cmd.Intent, "cleared your order", nil)
}

func (b *Bus) executeConfirmOrder(ctx context.Context, cmd Command, turnCtx TurnContext) Result {
	order, loadErr := b.loadOrder(ctx, turnCtx.OrderID)
	if loadErr != nil {
		return systemResult(cmd.Intent, loadErr)
	}

	if len(order.Items) == 0 {
		return businessResult(cmd.Intent, apperrors.CodeInternalError, "cannot confirm an empty order")
	}
	if order.Status != orderstore.StatusActive {
		return businessResult(cmd.Intent, apperrors.CodeInternalError, "order is already confirmed")
	}

	now := b.clock.Now()
	order.Status = orderstore.StatusConfirmed
	order.ConfirmedAt = &now

	if saveErr := b.saveOrder(ctx, order); saveErr != nil {
		return systemResult(cmd.Intent, saveErr)
	}

	b.publishBestEffort(events.TypeOrderConfirmed, order)
	return successResult(cmd.Intent, "your order is confirmed", map[string]interface{}{"total": order.Total.String()})
}

// publishBestEffort follows a "don't fail the request for event publishing
// errors" rule: a publish failure is logged, never surfaced.
func (b *Bus) publishBestEffort(eventType events.Type, order *orderstore.Aggregate) {
	if b.publisher == nil {
		return
	}
	evt := events.New(eventType, order.OrderID, 1, map[string]interface{}{
		"restaurant_id": order.RestaurantID,
		"item_count":    len(order.Items),
		"total":         order.Total.String(),
	})
	if err := b.publisher.Publish(evt); err != nil {
		b.log.WithError(err).Warn("command bus: failed to publish %s for order %s", eventType, order.OrderID)
	}
}

// --- pure response commands ---

func (b *Bus) executeQuestion(ctx context.Context, cmd Command, turnCtx TurnContext) Result {
	slots := cmd.Question
	if slots == nil {
		return systemResult(cmd.Intent, apperrors.NewSystem(apperrors.CodeInternalError, "QUESTION command missing slots"))
	}
	answer := b.answerQuestion(ctx, turnCtx, slots)
	if answer == "" {
		answer = cmd.Notes
	}
	if answer == "" {
		answer = "Let me get someone to help with that — in the meantime, what can I get you?"
	}
	return successResult(cmd.Intent, answer, map[string]interface{}{"category": slots.Category, "question": slots.Question})
}

// answerQuestion grounds a QUESTION command in live menu data. Categories
// the read model can't answer (hours, other) fall back to the caller's
// default text.
func (b *Bus) answerQuestion(ctx context.Context, turnCtx TurnContext, slots *QuestionSlots) string {
	switch slots.Category {
	case "menu":
		items := b.menu.AvailableItems(ctx, turnCtx.RestaurantID)
		if len(items) == 0 {
			return ""
		}
		names := make([]string, 0, len(items))
		for _, it := range items {
			names = append(names, it.Name)
		}
		const maxListed = 8
		if len(names) > maxListed {
			return fmt.Sprintf("Today we have %s, and more — anything sound good?", strings.Join(names[:maxListed], ", "))
		}
		return fmt.Sprintf("Today we have %s.", strings.Join(names, ", "))

	case "pricing":
		hits := b.menu.Search(ctx, turnCtx.RestaurantID, slots.Question)
		if len(hits) == 1 {
			return fmt.Sprintf("%s is $%s.", hits[0].Name, hits[0].Price.StringFixed(2))
		}
		return ""

	case "allergens":
		hits := b.menu.Search(ctx, turnCtx.RestaurantID, slots.Question)
		if len(hits) != 1 {
			return ""
		}
		item := hits[0]
		var allergens []string
		for _, assoc := range b.menu.IngredientsOf(ctx, item.ID) {
			ingredient := b.menu.IngredientByID(ctx, turnCtx.RestaurantID, assoc.IngredientID)
			if ingredient != nil && ingredient.IsAllergen {
				allergens = append(allergens, ingredient.Name)
			}
		}
		if len(allergens) == 0 {
			return fmt.Sprintf("%s has no flagged allergens, but let us know about any dietary needs.", item.Name)
		}
		return fmt.Sprintf("%s contains %s.", item.Name, strings.Join(allergens, ", "))
	}
	return ""
}

// executeItemUnavailable reports a requested item that couldn't be resolved
// against the menu. ITEM_UNAVAILABLE is a BUSINESS error, not a success: a
// batch containing one of these alongside otherwise-successful ADD_ITEMs
// must classify as PARTIAL_SUCCESS, which requires it to count against
// Failed in DeriveBatchOutcome.
func (b *Bus) executeItemUnavailable(cmd Command) Result {
	slots := cmd.ItemUnavailable
	if slots == nil {
		return systemResult(cmd.Intent, apperrors.NewSystem(apperrors.CodeInternalError, "ITEM_UNAVAILABLE command missing slots"))
	}
	message := slots.Message
	if message == "" {
		message = fmt.Sprintf("Sorry, we don't have %s", slots.RequestedItem)
	}
	return Result{
		Status:        StatusError,
		Message:       message,
		ErrorCategory: apperrors.Business,
		ErrorCode:     apperrors.CodeItemUnavailable,
		Intent:        cmd.Intent,
		Data:          map[string]interface{}{"requested_item": slots.RequestedItem},
	}
}

func (b *Bus) executeClarificationNeeded(cmd Command) Result {
	slots := cmd.ClarificationNeeded
	if slots == nil {
		return systemResult(cmd.Intent, apperrors.NewSystem(apperrors.CodeInternalError, "CLARIFICATION_NEEDED command missing slots"))
	}
	return successResult(cmd.Intent, slots.ClarificationQuestion, map[string]interface{}{
		"ambiguous_item":    slots.AmbiguousItem,
		"suggested_options": slots.SuggestedOptions,
	})
}

func (b *Bus) executeUnknown(cmd Command) Result {
	slots := cmd.Unknown
	if slots == nil {
		return systemResult(cmd.Intent, apperrors.NewSystem(apperrors.CodeInternalError, "UNKNOWN command missing slots"))
	}
	question := slots.ClarifyingQuestion
	if question == "" {
		question = "sorry, could you say that again?"
	}
	return successResult(cmd.Intent, question, nil)
}
