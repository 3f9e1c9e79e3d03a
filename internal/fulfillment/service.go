package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevmwangi/shoplink-backend/internal/inventory"
	"github.com/kevmwangi/shoplink-backend/internal/orders"
	"github.com/kevmwangi/shoplink-backend/pkg/db/models"
	"github.com/kevmwangi/shoplink-backend/pkg/enums"
	pkgerrors "github.com/kevmwangi/shoplink-backend/pkg/errors"
	"github.com/kevmwangi/shoplink-backend/pkg/logger"
	"github.com/kevmwangi/shoplink-backend/pkg/outbox"
	"github.com/kevmwangi/shoplink-backend/pkg/outbox/payloads"
)

// Actor identifies who is driving a fulfillment transition.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type notifier interface {
	NotifyStatusChanged(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID, title, message string) error
}

type sellerLookup interface {
	FindShop(ctx context.Context, id uuid.UUID) (*models.Shop, error)
	FindWarehouse(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
}

// allowedTransitions is the full item state machine. The proxy-purchase
// shortcut (pending to delivered at creation) never passes through here.
var allowedTransitions = map[enums.OrderItemStatus][]enums.OrderItemStatus{
	enums.OrderItemStatusPending:   {enums.OrderItemStatusProcessed, enums.OrderItemStatusCancelled},
	enums.OrderItemStatusProcessed: {enums.OrderItemStatusShipped, enums.OrderItemStatusCancelled},
	enums.OrderItemStatusShipped:   {enums.OrderItemStatusDelivered, enums.OrderItemStatusCancelled},
	enums.OrderItemStatusDelivered: {enums.OrderItemStatusToReturn},
	enums.OrderItemStatusToReturn:  {enums.OrderItemStatusReturned},
}

// Service drives order item fulfillment and keeps the aggregate order
// status derived from its items.
type Service struct {
	orderRepo orders.Repository
	sellers   sellerLookup
	outbox    outboxPublisher
	notify    notifier
	tx        txRunner
	logg      *logger.Logger
}

// NewService wires the fulfillment state machine. Every dependency is required.
func NewService(orderRepo orders.Repository, sellers sellerLookup, ob outboxPublisher, notify notifier, tx txRunner, logg *logger.Logger) (*Service, error) {
	switch {
	case orderRepo == nil:
		return nil, fmt.Errorf("fulfillment service requires an order repository")
	case sellers == nil:
		return nil, fmt.Errorf("fulfillment service requires a seller lookup")
	case ob == nil:
		return nil, fmt.Errorf("fulfillment service requires an outbox publisher")
	case notify == nil:
		return nil, fmt.Errorf("fulfillment service requires a notifier")
	case tx == nil:
		return nil, fmt.Errorf("fulfillment service requires a transaction runner")
	case logg == nil:
		return nil, fmt.Errorf("fulfillment service requires a logger")
	}
	return &Service{orderRepo: orderRepo, sellers: sellers, outbox: ob, notify: notify, tx: tx, logg: logg}, nil
}

// AdvanceItemStatus applies one fulfillment transition to an order item,
// restores stock when the transition demands it, and recomputes the parent
// order's aggregate status in the same transaction.
func (s *Service) AdvanceItemStatus(ctx context.Context, actor Actor, itemID uuid.UUID, newStatus enums.OrderItemStatus) error {
	if !newStatus.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown item status")
	}

	item, err := s.orderRepo.FindOrderItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load order item")
	}
	order, err := s.orderRepo.FindOrder(ctx, item.OrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load order")
	}

	if !transitionAllowed(item.Status, newStatus) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move item from %s to %s", item.Status, newStatus))
	}
	if err := s.authorizeTransition(ctx, actor, order, item.Status, newStatus); err != nil {
		return err
	}

	oldStatus := item.Status
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		if err := repo.UpdateOrderItemStatus(ctx, item.ID, newStatus); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update item status")
		}

		// Cancellation refunds the pool the item was sold from; a confirmed
		// return puts the unit back on the shelf.
		if newStatus == enums.OrderItemStatusCancelled || newStatus == enums.OrderItemStatusReturned {
			if err := s.restoreStock(ctx, tx, item); err != nil {
				return err
			}
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventItemStatusChanged,
			AggregateType: enums.AggregateOrderItem,
			AggregateID:   item.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()},
			Data: payloads.ItemStatusChangedEvent{
				OrderID:   order.ID,
				ItemID:    item.ID,
				OldStatus: oldStatus,
				NewStatus: newStatus,
				ChangedAt: time.Now().UTC(),
			},
		}); err != nil {
			return err
		}

		return s.recomputeOrderStatus(ctx, tx, actor, order)
	})
}

// CancelOrder cancels every pre-delivery item of the order and restores each
// item's stock in one transaction. Orders already delivered or cancelled are
// rejected.
func (s *Service) CancelOrder(ctx context.Context, actor Actor, orderID uuid.UUID) error {
	order, err := s.orderRepo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load order")
	}
	if order.Status == enums.OrderStatusDelivered || order.Status == enums.OrderStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
	}

	isBuyer := order.BuyerID == actor.UserID
	isSeller, err := s.isOwningSeller(ctx, actor, order)
	if err != nil {
		return err
	}
	switch {
	case isSeller:
	case isBuyer:
		// Buyers may only walk away before the seller starts work.
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order is already being fulfilled")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this order")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		items, err := repo.FindOrderItemsByOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load order items")
		}

		changedAt := time.Now().UTC()
		for _, item := range items {
			if !transitionAllowed(item.Status, enums.OrderItemStatusCancelled) {
				continue
			}
			if err := repo.UpdateOrderItemStatus(ctx, item.ID, enums.OrderItemStatusCancelled); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to cancel order item")
			}
			if err := s.restoreStock(ctx, tx, &item); err != nil {
				return err
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventItemStatusChanged,
				AggregateType: enums.AggregateOrderItem,
				AggregateID:   item.ID,
				Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()},
				Data: payloads.ItemStatusChangedEvent{
					OrderID:   order.ID,
					ItemID:    item.ID,
					OldStatus: item.Status,
					NewStatus: enums.OrderItemStatusCancelled,
					ChangedAt: changedAt,
				},
			}); err != nil {
				return err
			}
		}

		return s.recomputeOrderStatus(ctx, tx, actor, order)
	})
}

func transitionAllowed(from, to enums.OrderItemStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func (s *Service) authorizeTransition(ctx context.Context, actor Actor, order *models.Order, from, to enums.OrderItemStatus) error {
	isBuyer := order.BuyerID == actor.UserID
	isSeller, err := s.isOwningSeller(ctx, actor, order)
	if err != nil {
		return err
	}

	switch to {
	case enums.OrderItemStatusProcessed, enums.OrderItemStatusShipped, enums.OrderItemStatusDelivered, enums.OrderItemStatusReturned:
		if !isSeller {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the selling party may advance fulfillment")
		}
	case enums.OrderItemStatusToReturn:
		if !isBuyer {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer may request a return")
		}
	case enums.OrderItemStatusCancelled:
		if isSeller {
			return nil
		}
		if !isBuyer {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this order")
		}
		if from != enums.OrderItemStatusPending {
			return pkgerrors.New(pkgerrors.CodeForbidden, "buyers may only cancel pending items")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported target status")
	}
	return nil
}

func (s *Service) isOwningSeller(ctx context.Context, actor Actor, order *models.Order) (bool, error) {
	switch {
	case order.ShopID != nil:
		shop, err := s.sellers.FindShop(ctx, *order.ShopID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load shop")
		}
		return shop.OwnerUserID == actor.UserID, nil
	case order.WarehouseID != nil:
		warehouse, err := s.sellers.FindWarehouse(ctx, *order.WarehouseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load warehouse")
		}
		return warehouse.OwnerUserID == actor.UserID, nil
	}
	return false, nil
}

// restoreStock credits the pool the item references: the shop listing for
// retail items, the warehouse listing for wholesale items.
func (s *Service) restoreStock(ctx context.Context, tx *gorm.DB, item *models.OrderItem) error {
	var ref inventory.Ref
	switch {
	case item.ShopInventoryID != nil:
		ref = inventory.Ref{Kind: enums.InventoryKindShop, ID: *item.ShopInventoryID}
	case item.WarehouseInventoryID != nil:
		ref = inventory.Ref{Kind: enums.InventoryKindWarehouse, ID: *item.WarehouseInventoryID}
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, "order item references no inventory")
	}
	return inventory.Increment(ctx, tx, ref, item.Quantity)
}

func (s *Service) recomputeOrderStatus(ctx context.Context, tx *gorm.DB, actor Actor, order *models.Order) error {
	repo := s.orderRepo.WithTx(tx)
	items, err := repo.FindOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to reload order items")
	}
	statuses := make([]enums.OrderItemStatus, 0, len(items))
	for _, item := range items {
		statuses = append(statuses, item.Status)
	}

	derived := orders.DeriveOrderStatus(statuses)
	if derived == order.Status {
		return nil
	}
	if err := repo.UpdateOrderStatus(ctx, order.ID, derived); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update order status")
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()},
		Data: payloads.OrderStatusChangedEvent{
			OrderID:   order.ID,
			BuyerID:   order.BuyerID,
			OldStatus: order.Status,
			NewStatus: derived,
			ChangedAt: time.Now().UTC(),
		},
	}); err != nil {
		return err
	}

	if err := s.notify.NotifyStatusChanged(ctx, tx, order.BuyerID, order.ID,
		"Order "+derived.String(),
		fmt.Sprintf("Your order is now %s.", derived),
	); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "status change notification failed")
	}
	return nil
}
