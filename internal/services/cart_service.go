package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"shopfusion/internal/models"
	"shopfusion/internal/repositories"
)

// ItemResult reports what a line item mutation did.
type ItemResult int

const (
	ItemUpdated ItemResult = iota + 1
	ItemRemoved
	// ItemMissing means no line item has the requested id.
	ItemMissing
	// ItemNotOwned means the line item exists but belongs to another scope or product.
	ItemNotOwned
)

// Changed reports whether the cart was modified.
func (r ItemResult) Changed() bool {
	return r == ItemUpdated || r == ItemRemoved
}

func (r ItemResult) String() string {
	switch r {
	case ItemUpdated:
		return "updated"
	case ItemRemoved:
		return "removed"
	case ItemMissing:
		return "missing"
	case ItemNotOwned:
		return "not_owned"
	default:
		return "unknown"
	}
}

// CartView is a cart with its totals.
type CartView struct {
	Items    []models.CartItem `json:"items"`
	Quantity int               `json:"quantity"`
	Totals
}

// CartService adds, removes and merges cart line items. Every mutation runs
// in one transaction that first locks the row of its scope, so operations on
// the same session or user are serialized.
type CartService struct {
	store repositories.Store
}

// NewCartService creates a new CartService.
func NewCartService(store repositories.Store) *CartService {
	return &CartService{
		store: store,
	}
}

// lockScope locks the row identifying scope and returns the owner of its line
// items. With create set, a session cart is created on first use; otherwise a
// missing session cart yields repositories.ErrNotFound.
func lockScope(tx repositories.Store, scope models.CartScope, create bool) (repositories.Owner, error) {
	if !scope.Valid() {
		return repositories.Owner{}, validationError("invalid cart scope %s", scope)
	}
	if scope.IsAuthenticated() {
		user, err := tx.Users().LockByID(scope.UserID())
		if err != nil {
			return repositories.Owner{}, notFound(err, "failed to lock cart of %s", scope)
		}
		return repositories.UserOwner(user.ID), nil
	}

	var (
		cart *models.Cart
		err  error
	)
	if create {
		cart, err = tx.Carts().GetOrCreateSessionCart(scope.SessionToken())
	} else {
		cart, err = tx.Carts().FindSessionCart(scope.SessionToken(), true)
	}
	if err != nil {
		return repositories.Owner{}, err
	}
	return repositories.CartOwner(cart.ID), nil
}

// resolveVariations matches the requested (category, value) pairs against the
// active variations of a product, ignoring case. Pairs without a match are dropped.
func resolveVariations(active []models.Variation, selections map[string]string) []models.Variation {
	var resolved []models.Variation
	seen := make(map[uint]bool)
	for category, value := range selections {
		for _, v := range active {
			if seen[v.ID] {
				continue
			}
			if strings.EqualFold(v.Category, strings.TrimSpace(category)) && strings.EqualFold(v.Value, strings.TrimSpace(value)) {
				resolved = append(resolved, v)
				seen[v.ID] = true
				break
			}
		}
	}
	return resolved
}

// AddItem adds one unit of a product to the scope's cart. A line item with
// the same product and exactly the same variation set has its quantity
// increased; otherwise a new line item with quantity 1 is created.
func (s *CartService) AddItem(ctx context.Context, scope models.CartScope, productID string, selections map[string]string) (*models.CartItem, error) {
	var result *models.CartItem
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		product, err := tx.Products().GetByID(productID)
		if err != nil {
			return notFound(err, "failed to add product %s to cart", productID)
		}
		if !product.IsAvailable {
			return fmt.Errorf("product %s: %w", productID, ErrProductUnavailable)
		}

		owner, err := lockScope(tx, scope, true)
		if err != nil {
			return err
		}

		active, err := tx.Products().ActiveVariations(product.ID)
		if err != nil {
			return err
		}
		variations := resolveVariations(active, selections)
		key := models.VariationKey(models.CartItem{Variations: variations}.VariationIDs())

		existing, err := tx.Carts().FindProductItems(owner, product.ID)
		if err != nil {
			return err
		}
		for i := range existing {
			item := existing[i]
			if models.VariationKey(item.VariationIDs()) != key {
				continue
			}
			item.Quantity++
			if err := tx.Carts().SetQuantity(item.ID, item.Quantity); err != nil {
				return err
			}
			item.Product = *product
			result = &item
			return nil
		}

		item := models.CartItem{
			ProductID:  product.ID,
			Quantity:   1,
			Variations: variations,
			IsActive:   true,
		}
		owner.Assign(&item)
		if err := tx.Carts().CreateItem(&item); err != nil {
			return err
		}
		item.Product = *product
		result = &item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DecrementItem removes one unit of a line item, deleting it when its last
// unit goes. Line items outside the scope or of another product are left alone.
func (s *CartService) DecrementItem(ctx context.Context, scope models.CartScope, productID string, itemID uint) (ItemResult, error) {
	return s.mutateItem(ctx, scope, productID, itemID, func(tx repositories.Store, item *models.CartItem) (ItemResult, error) {
		if item.Quantity > 1 {
			if err := tx.Carts().SetQuantity(item.ID, item.Quantity-1); err != nil {
				return 0, err
			}
			return ItemUpdated, nil
		}
		if err := tx.Carts().DeleteItem(item.ID); err != nil {
			return 0, err
		}
		return ItemRemoved, nil
	})
}

// DeleteItem removes a line item whatever its quantity, with the same
// ownership rule as DecrementItem.
func (s *CartService) DeleteItem(ctx context.Context, scope models.CartScope, productID string, itemID uint) (ItemResult, error) {
	return s.mutateItem(ctx, scope, productID, itemID, func(tx repositories.Store, item *models.CartItem) (ItemResult, error) {
		if err := tx.Carts().DeleteItem(item.ID); err != nil {
			return 0, err
		}
		return ItemRemoved, nil
	})
}

func (s *CartService) mutateItem(ctx context.Context, scope models.CartScope, productID string, itemID uint,
	fn func(tx repositories.Store, item *models.CartItem) (ItemResult, error)) (ItemResult, error) {
	var result ItemResult
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		owner, err := lockScope(tx, scope, false)
		noCart := errors.Is(err, repositories.ErrNotFound) && !scope.IsAuthenticated()
		if err != nil && !noCart {
			return err
		}

		item, err := tx.Carts().GetItem(itemID)
		if errors.Is(err, repositories.ErrNotFound) {
			result = ItemMissing
			return nil
		}
		if err != nil {
			return err
		}
		if noCart || !owner.Owns(*item) || item.ProductID != productID {
			result = ItemNotOwned
			return nil
		}

		result, err = fn(tx, item)
		return err
	})
	if err != nil {
		return 0, err
	}
	return result, nil
}

// MergeAnonymousIntoUser moves the line items of a session cart into the
// user's cart. Items matching an existing user item by product and variation
// set are added onto it; the others are reassigned. The session cart is
// deleted once empty. Without a session cart this is a no-op.
func (s *CartService) MergeAnonymousIntoUser(ctx context.Context, sessionToken, userID string) error {
	if sessionToken == "" {
		return nil
	}
	merged, moved := 0, 0
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		if _, err := tx.Users().LockByID(userID); err != nil {
			return notFound(err, "failed to lock cart of user %s", userID)
		}
		cart, err := tx.Carts().FindSessionCart(sessionToken, true)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		anonymous, err := tx.Carts().ListItems(repositories.CartOwner(cart.ID))
		if err != nil {
			return err
		}
		userItems, err := tx.Carts().ListItems(repositories.UserOwner(userID))
		if err != nil {
			return err
		}

		byKey := make(map[string]*models.CartItem, len(userItems))
		for i := range userItems {
			byKey[mergeKey(userItems[i])] = &userItems[i]
		}

		for i := range anonymous {
			item := &anonymous[i]
			key := mergeKey(*item)
			if target, ok := byKey[key]; ok {
				target.Quantity += item.Quantity
				if err := tx.Carts().SetQuantity(target.ID, target.Quantity); err != nil {
					return err
				}
				if err := tx.Carts().DeleteItem(item.ID); err != nil {
					return err
				}
				merged++
				continue
			}
			if err := tx.Carts().AssignToUser(item.ID, userID); err != nil {
				return err
			}
			byKey[key] = item
			moved++
		}

		remaining, err := tx.Carts().CountItems(repositories.CartOwner(cart.ID))
		if err != nil {
			return err
		}
		if remaining == 0 {
			return tx.Carts().DeleteCart(cart.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to merge session cart into user %s: %w", userID, err)
	}
	if merged+moved > 0 {
		log.Printf("Merged session cart into user %s: %d combined, %d moved", userID, merged, moved)
	}
	return nil
}

func mergeKey(item models.CartItem) string {
	return item.ProductID + "|" + models.VariationKey(item.VariationIDs())
}

// ViewCart returns the line items of a scope with quantity and totals. A
// session without a cart has an empty view.
func (s *CartService) ViewCart(ctx context.Context, scope models.CartScope) (*CartView, error) {
	if !scope.Valid() {
		return nil, validationError("invalid cart scope %s", scope)
	}
	carts := s.store.Carts()

	var owner repositories.Owner
	if scope.IsAuthenticated() {
		owner = repositories.UserOwner(scope.UserID())
	} else {
		cart, err := carts.FindSessionCart(scope.SessionToken(), false)
		if errors.Is(err, repositories.ErrNotFound) {
			return &CartView{Items: []models.CartItem{}, Totals: ComputeTotals(0)}, nil
		}
		if err != nil {
			return nil, err
		}
		owner = repositories.CartOwner(cart.ID)
	}

	items, err := carts.ListItems(owner)
	if err != nil {
		return nil, err
	}
	view := &CartView{Items: items}
	var subtotal int64
	for _, item := range items {
		subtotal += item.LineTotal()
		view.Quantity += item.Quantity
	}
	view.Totals = ComputeTotals(subtotal)
	return view, nil
}
