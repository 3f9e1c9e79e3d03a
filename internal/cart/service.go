package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kevmwangi/shoplink-backend/internal/inventory"
	pkgdb "github.com/kevmwangi/shoplink-backend/pkg/db"
	"github.com/kevmwangi/shoplink-backend/pkg/db/models"
	pkgerrors "github.com/kevmwangi/shoplink-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type listingLoader interface {
	FindShopListing(ctx context.Context, id uuid.UUID) (*models.ShopInventory, error)
}

// Service manages a customer's open cart. One cart per customer, created
// lazily on the first add.
type Service struct {
	repo     Repository
	tx       txRunner
	listings listingLoader
	logger   *zerolog.Logger
}

// NewService wires a cart service. All dependencies are required.
func NewService(repo Repository, tx txRunner, listings listingLoader, logger *zerolog.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart service requires a repository")
	}
	if tx == nil {
		return nil, fmt.Errorf("cart service requires a transaction runner")
	}
	if listings == nil {
		return nil, fmt.Errorf("cart service requires a listing loader")
	}
	if logger == nil {
		return nil, fmt.Errorf("cart service requires a logger")
	}
	return &Service{repo: repo, tx: tx, listings: listings, logger: logger}, nil
}

// GetCart renders the customer's cart against live listing data. A customer
// with no cart yet gets an empty view.
func (s *Service) GetCart(ctx context.Context, customerID uuid.UUID) (*CartView, error) {
	cart, err := s.repo.FindCartByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &CartView{Lines: []CartLine{}, Subtotal: decimal.Zero}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart")
	}

	items, err := s.repo.ListItemsWithListings(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart items")
	}

	view := &CartView{CartID: cart.ID, Lines: make([]CartLine, 0, len(items)), Subtotal: decimal.Zero}
	for _, item := range items {
		if item.ShopInventory == nil {
			// Listing was removed out from under the cart; skip the orphan.
			s.logger.Warn().
				Str("cart_item_id", item.ID.String()).
				Msg("cart item references a missing listing")
			continue
		}
		line := CartLine{
			ItemID:    item.ID,
			ListingID: item.ShopInventoryID,
			ShopID:    item.ShopInventory.ShopID,
			ProductID: item.ShopInventory.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.ShopInventory.Price,
			InStock:   item.ShopInventory.StockQuantity,
		}
		if item.ShopInventory.Product != nil {
			line.ProductName = item.ShopInventory.Product.Name
		}
		view.Lines = append(view.Lines, line)
		view.Subtotal = view.Subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return view, nil
}

// AddItem puts quantity of a listing into the customer's cart, creating the
// cart on first use and merging quantities when the listing is already
// carted. The stock check here is a courtesy; settlement re-checks under the
// transaction.
func (s *Service) AddItem(ctx context.Context, customerID, listingID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	listing, err := s.listings.FindShopListing(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load listing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindCartByCustomer(ctx, customerID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart")
			}
			cart, err = repo.CreateCart(ctx, &models.Cart{CustomerID: customerID})
			if err != nil {
				// Concurrent first AddItem may have created the row already.
				if pkgdb.IsUniqueViolation(err, "") {
					cart, err = repo.FindCartByCustomer(ctx, customerID)
				}
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create cart")
				}
			}
		}

		existing, err := repo.FindItem(ctx, cart.ID, listingID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to check cart item")
		}

		desired := quantity
		if existing != nil {
			desired += existing.Quantity
		}
		if desired > listing.StockQuantity {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock").
				WithDetails(inventory.ShortageDetail{ListingID: listingID, Requested: desired})
		}

		if existing != nil {
			return repo.UpdateItemQuantity(ctx, existing.ID, desired)
		}
		_, err = repo.CreateItem(ctx, &models.CartItem{
			CartID:          cart.ID,
			ShopInventoryID: listingID,
			Quantity:        quantity,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to add cart item")
		}
		return nil
	})
}

// UpdateItemQuantity sets an existing cart line to an absolute quantity.
func (s *Service) UpdateItemQuantity(ctx context.Context, customerID, itemID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive; remove the item instead")
	}
	item, err := s.findOwnedItem(ctx, customerID, itemID)
	if err != nil {
		return err
	}
	listing, err := s.listings.FindShopListing(ctx, item.ShopInventoryID)
	if err == nil && quantity > listing.StockQuantity {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock").
			WithDetails(inventory.ShortageDetail{ListingID: item.ShopInventoryID, Requested: quantity})
	}
	if err := s.repo.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update cart item")
	}
	return nil
}

// RemoveItem drops one line from the customer's cart.
func (s *Service) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) error {
	if _, err := s.findOwnedItem(ctx, customerID, itemID); err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to remove cart item")
	}
	return nil
}

func (s *Service) findOwnedItem(ctx context.Context, customerID, itemID uuid.UUID) (*models.CartItem, error) {
	cart, err := s.repo.FindCartByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart")
	}
	var item models.CartItem
	found := false
	items, err := s.repo.ListItemsWithListings(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart items")
	}
	for _, candidate := range items {
		if candidate.ID == itemID {
			item = candidate
			found = true
			break
		}
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return &item, nil
}

// GroupByShop partitions preloaded cart items by the shop that owns each
// listing. Settlement creates one order per group.
func GroupByShop(items []models.CartItem) map[uuid.UUID][]models.CartItem {
	groups := make(map[uuid.UUID][]models.CartItem)
	for _, item := range items {
		if item.ShopInventory == nil {
			continue
		}
		shopID := item.ShopInventory.ShopID
		groups[shopID] = append(groups[shopID], item)
	}
	return groups
}
