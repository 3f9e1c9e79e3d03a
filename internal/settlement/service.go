package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kevmwangi/shoplink-backend/internal/cart"
	"github.com/kevmwangi/shoplink-backend/internal/inventory"
	"github.com/kevmwangi/shoplink-backend/internal/orders"
	"github.com/kevmwangi/shoplink-backend/pkg/db/models"
	"github.com/kevmwangi/shoplink-backend/pkg/enums"
	pkgerrors "github.com/kevmwangi/shoplink-backend/pkg/errors"
	"github.com/kevmwangi/shoplink-backend/pkg/logger"
	"github.com/kevmwangi/shoplink-backend/pkg/metrics"
	"github.com/kevmwangi/shoplink-backend/pkg/outbox"
	"github.com/kevmwangi/shoplink-backend/pkg/outbox/payloads"
	"github.com/kevmwangi/shoplink-backend/pkg/payments"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type addressChecker interface {
	IsOwnedAddress(ctx context.Context, userID, addressID uuid.UUID) (bool, error)
}

type paymentVerifier interface {
	VerifyPayment(ctx context.Context, params payments.VerifyParams) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type notifier interface {
	NotifyOrderCreated(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID, title, message string) error
}

type listingFinder interface {
	FindWarehouseListing(ctx context.Context, id uuid.UUID) (*models.WarehouseInventory, error)
	FindShop(ctx context.Context, id uuid.UUID) (*models.Shop, error)
}

type proxyListingWriter interface {
	CreateOrMergeProxyListing(ctx context.Context, tx *gorm.DB, shopID uuid.UUID, source models.WarehouseInventory, qty int, sellingPrice decimal.Decimal) (uuid.UUID, error)
}

// Service is the order settlement engine. It turns carts into per-shop
// retail orders and direct warehouse purchases into wholesale orders, with
// stock debited in the same transaction that persists the orders.
type Service struct {
	cartRepo  cart.Repository
	orderRepo orders.Repository
	listings  listingFinder
	proxy     proxyListingWriter
	addresses addressChecker
	payments  paymentVerifier
	outbox    outboxPublisher
	notify    notifier
	tx        txRunner
	metrics   *metrics.SettlementMetrics
	logg      *logger.Logger
	currency  string
}

// Config collects the settlement engine's dependencies.
type Config struct {
	CartRepo  cart.Repository
	OrderRepo orders.Repository
	Listings  listingFinder
	Proxy     proxyListingWriter
	Addresses addressChecker
	Payments  paymentVerifier
	Outbox    outboxPublisher
	Notify    notifier
	Tx        txRunner
	Metrics   *metrics.SettlementMetrics
	Logger    *logger.Logger
	Currency  string
}

// NewService wires the settlement engine. Every dependency is required.
func NewService(cfg Config) (*Service, error) {
	switch {
	case cfg.CartRepo == nil:
		return nil, fmt.Errorf("settlement service requires a cart repository")
	case cfg.OrderRepo == nil:
		return nil, fmt.Errorf("settlement service requires an order repository")
	case cfg.Listings == nil:
		return nil, fmt.Errorf("settlement service requires a listing finder")
	case cfg.Proxy == nil:
		return nil, fmt.Errorf("settlement service requires a proxy listing writer")
	case cfg.Addresses == nil:
		return nil, fmt.Errorf("settlement service requires an address checker")
	case cfg.Payments == nil:
		return nil, fmt.Errorf("settlement service requires a payment verifier")
	case cfg.Outbox == nil:
		return nil, fmt.Errorf("settlement service requires an outbox publisher")
	case cfg.Notify == nil:
		return nil, fmt.Errorf("settlement service requires a notifier")
	case cfg.Tx == nil:
		return nil, fmt.Errorf("settlement service requires a transaction runner")
	case cfg.Metrics == nil:
		return nil, fmt.Errorf("settlement service requires settlement metrics")
	case cfg.Logger == nil:
		return nil, fmt.Errorf("settlement service requires a logger")
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "KES"
	}
	return &Service{
		cartRepo:  cfg.CartRepo,
		orderRepo: cfg.OrderRepo,
		listings:  cfg.Listings,
		proxy:     cfg.Proxy,
		addresses: cfg.Addresses,
		payments:  cfg.Payments,
		outbox:    cfg.Outbox,
		notify:    cfg.Notify,
		tx:        cfg.Tx,
		metrics:   cfg.Metrics,
		logg:      cfg.Logger,
		currency:  currency,
	}, nil
}

// SettleCart converts the customer's cart into one order per shop. The whole
// cart settles in a single transaction or none of it does. Payment
// verification, when the method requires it, completes before the
// transaction opens so the transaction never blocks on network I/O.
func (s *Service) SettleCart(ctx context.Context, customerID uuid.UUID, params SettleCartParams) (*SettlementResult, error) {
	started := time.Now()
	result, err := s.settleCart(ctx, customerID, params)
	s.metrics.ObserveDuration(enums.OrderTypeRetail.String(), time.Since(started))
	if err != nil {
		s.metrics.IncFailure(enums.OrderTypeRetail.String(), failureCode(err))
		return nil, err
	}
	s.metrics.IncOrders(enums.OrderTypeRetail.String(), len(result.OrderIDs))
	return result, nil
}

func (s *Service) settleCart(ctx context.Context, customerID uuid.UUID, params SettleCartParams) (*SettlementResult, error) {
	if !params.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if params.DeliveryAddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}
	owned, err := s.addresses.IsOwnedAddress(ctx, customerID, params.DeliveryAddressID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address does not belong to the customer")
	}

	openCart, err := s.cartRepo.FindCartByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart")
	}
	items, err := s.cartRepo.ListItemsWithListings(ctx, openCart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart items")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	for _, item := range items {
		if item.ShopInventory == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a cart item references a listing that no longer exists")
		}
	}

	cartTotal := decimal.Zero
	for _, item := range items {
		cartTotal = cartTotal.Add(item.ShopInventory.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	paymentStatus := enums.PaymentStatusPending
	var paymentRef *string
	if params.PaymentMethod.RequiresGatewayVerification() {
		if params.PaymentReference == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required for card payments")
		}
		if err := s.payments.VerifyPayment(ctx, payments.VerifyParams{
			PaymentRef: params.PaymentReference,
			Amount:     cartTotal,
			Currency:   s.currency,
		}); err != nil {
			return nil, err
		}
		paymentStatus = enums.PaymentStatusCompleted
		ref := params.PaymentReference
		paymentRef = &ref
	}

	groups := cart.GroupByShop(items)
	actor := &outbox.ActorRef{UserID: customerID, Role: enums.UserRoleCustomer.String()}
	result := &SettlementResult{TotalAmount: decimal.Zero}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)

		for shopID, groupItems := range groups {
			shopTotal := decimal.Zero
			orderItems := make([]models.OrderItem, 0, len(groupItems))
			for _, item := range groupItems {
				listing := item.ShopInventory
				shopTotal = shopTotal.Add(listing.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
				orderItems = append(orderItems, models.OrderItem{
					ShopInventoryID:            &listing.ID,
					SourceWarehouseInventoryID: listing.WarehouseInventoryID,
					Quantity:                   item.Quantity,
					PriceAtPurchase:            listing.Price,
					Status:                     enums.OrderItemStatusPending,
				})
			}

			shop := shopID
			addr := params.DeliveryAddressID
			order, err := orderRepo.CreateOrder(ctx, &models.Order{
				BuyerID:           customerID,
				OrderType:         enums.OrderTypeRetail,
				ShopID:            &shop,
				Status:            enums.OrderStatusPending,
				TotalAmount:       shopTotal,
				PaymentMethod:     params.PaymentMethod,
				PaymentStatus:     paymentStatus,
				PaymentReference:  paymentRef,
				DeliveryAddressID: &addr,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create order")
			}

			for i := range orderItems {
				orderItems[i].OrderID = order.ID
			}
			if err := orderRepo.CreateOrderItems(ctx, orderItems); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create order items")
			}

			// The guarded decrement is the in-transaction stock check; a
			// shortage anywhere aborts the whole cart.
			for _, item := range groupItems {
				ref := inventory.Ref{Kind: enums.InventoryKindShop, ID: item.ShopInventoryID}
				if err := inventory.Decrement(ctx, tx, ref, item.Quantity); err != nil {
					return err
				}
			}

			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         actor,
				Data: payloads.OrderCreatedEvent{
					OrderID:     order.ID,
					BuyerID:     customerID,
					OrderType:   enums.OrderTypeRetail,
					SellerID:    shopID,
					TotalAmount: shopTotal,
					ItemCount:   len(orderItems),
				},
			}); err != nil {
				return err
			}

			// Notifications are best effort; a failed write never rolls
			// back a settled order.
			if err := s.notify.NotifyOrderCreated(ctx, tx, customerID, order.ID,
				"Order placed",
				fmt.Sprintf("Your order of %d item(s) totalling %s %s was placed.", len(orderItems), s.currency, shopTotal.StringFixed(2)),
			); err != nil {
				s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "order created notification failed")
			}

			result.OrderIDs = append(result.OrderIDs, order.ID)
			result.TotalAmount = result.TotalAmount.Add(shopTotal)
		}

		if err := cartRepo.DeleteItemsByCart(ctx, openCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to empty cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"customer_id": customerID.String(),
		"orders":      len(result.OrderIDs),
		"total":       result.TotalAmount.StringFixed(2),
	}), "cart settled")
	return result, nil
}

// PlaceWholesaleOrder settles a retailer's direct purchase from one
// warehouse listing. Proxy purchases transfer the stock into the retailer's
// shop inside the same transaction and the order completes immediately.
func (s *Service) PlaceWholesaleOrder(ctx context.Context, retailerID uuid.UUID, params WholesaleOrderParams) (*SettlementResult, error) {
	started := time.Now()
	result, err := s.placeWholesaleOrder(ctx, retailerID, params)
	s.metrics.ObserveDuration(enums.OrderTypeWholesale.String(), time.Since(started))
	if err != nil {
		s.metrics.IncFailure(enums.OrderTypeWholesale.String(), failureCode(err))
		return nil, err
	}
	s.metrics.IncOrders(enums.OrderTypeWholesale.String(), len(result.OrderIDs))
	return result, nil
}

func (s *Service) placeWholesaleOrder(ctx context.Context, retailerID uuid.UUID, params WholesaleOrderParams) (*SettlementResult, error) {
	if params.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !params.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if params.Proxy && params.SellingPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "selling price cannot be negative")
	}

	shop, err := s.listings.FindShop(ctx, params.ShopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load shop")
	}
	if shop.OwnerUserID != retailerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "shop does not belong to the requesting retailer")
	}

	source, err := s.listings.FindWarehouseListing(ctx, params.WarehouseInventoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load warehouse listing")
	}

	total := source.Price.Mul(decimal.NewFromInt(int64(params.Quantity)))
	paymentStatus := enums.PaymentStatusPending
	var paymentRef *string
	if params.PaymentMethod.RequiresGatewayVerification() {
		if params.PaymentReference == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required for card payments")
		}
		if err := s.payments.VerifyPayment(ctx, payments.VerifyParams{
			PaymentRef: params.PaymentReference,
			Amount:     total,
			Currency:   s.currency,
		}); err != nil {
			return nil, err
		}
		paymentStatus = enums.PaymentStatusCompleted
		ref := params.PaymentReference
		paymentRef = &ref
	}

	orderStatus := enums.OrderStatusPending
	itemStatus := enums.OrderItemStatusPending
	var offlineDeliveredAt *time.Time
	if params.Proxy {
		// An internal stock transfer ships nothing; the order completes at
		// purchase time.
		orderStatus = enums.OrderStatusDelivered
		itemStatus = enums.OrderItemStatusDelivered
		now := time.Now().UTC()
		offlineDeliveredAt = &now
	}

	actor := &outbox.ActorRef{UserID: retailerID, Role: enums.UserRoleRetailer.String()}
	result := &SettlementResult{TotalAmount: total}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		// Debit the warehouse before any shop credit so a crash mid-sequence
		// never credits stock that was not paid out of the pool.
		ref := inventory.Ref{Kind: enums.InventoryKindWarehouse, ID: source.ID}
		if err := inventory.Decrement(ctx, tx, ref, params.Quantity); err != nil {
			return err
		}

		if params.Proxy {
			if _, err := s.proxy.CreateOrMergeProxyListing(ctx, tx, params.ShopID, *source, params.Quantity, params.SellingPrice); err != nil {
				return err
			}
		}

		warehouseID := source.WarehouseID
		order, err := s.orderRepo.WithTx(tx).CreateOrder(ctx, &models.Order{
			BuyerID:                  retailerID,
			OrderType:                enums.OrderTypeWholesale,
			WarehouseID:              &warehouseID,
			Status:                   orderStatus,
			TotalAmount:              total,
			PaymentMethod:            params.PaymentMethod,
			PaymentStatus:            paymentStatus,
			PaymentReference:         paymentRef,
			OfflineOrderDeliveryDate: offlineDeliveredAt,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create wholesale order")
		}

		sourceID := source.ID
		item := models.OrderItem{
			OrderID:              order.ID,
			WarehouseInventoryID: &sourceID,
			Quantity:             params.Quantity,
			PriceAtPurchase:      source.Price,
			Status:               itemStatus,
		}
		if err := s.orderRepo.WithTx(tx).CreateOrderItems(ctx, []models.OrderItem{item}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create wholesale order item")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				BuyerID:     retailerID,
				OrderType:   enums.OrderTypeWholesale,
				SellerID:    source.WarehouseID,
				TotalAmount: total,
				ItemCount:   1,
			},
		}); err != nil {
			return err
		}

		if err := s.notify.NotifyOrderCreated(ctx, tx, retailerID, order.ID,
			"Wholesale order placed",
			fmt.Sprintf("Your wholesale order totalling %s %s was placed.", s.currency, total.StringFixed(2)),
		); err != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "order created notification failed")
		}

		result.OrderIDs = append(result.OrderIDs, order.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"retailer_id": retailerID.String(),
		"proxy":       params.Proxy,
		"total":       total.StringFixed(2),
	}), "wholesale order settled")
	return result, nil
}

func failureCode(err error) string {
	if domainErr := pkgerrors.As(err); domainErr != nil {
		return string(domainErr.Code())
	}
	return string(pkgerrors.CodeInternal)
}
