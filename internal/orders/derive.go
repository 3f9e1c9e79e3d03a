package orders

import (
	"github.com/kevmwangi/shoplink-backend/pkg/enums"
)

// DeriveOrderStatus recomputes the aggregate order status from its item
// statuses. The stored Order.status column is a cache of this function;
// callers must re-run it inside the same transaction as any item mutation.
//
// Precedence: cancelled when every item is cancelled; delivered when every
// surviving item reached the delivered family (delivered, to_return,
// returned); shipped when any surviving item is in transit; processed when
// all surviving items are at least processed; pending otherwise. A pending
// return does not regress a delivered order.
func DeriveOrderStatus(statuses []enums.OrderItemStatus) enums.OrderStatus {
	if len(statuses) == 0 {
		return enums.OrderStatusPending
	}

	active := make([]enums.OrderItemStatus, 0, len(statuses))
	for _, st := range statuses {
		if st != enums.OrderItemStatusCancelled {
			active = append(active, st)
		}
	}
	if len(active) == 0 {
		return enums.OrderStatusCancelled
	}

	allDelivered := true
	anyShipped := false
	allProcessed := true
	for _, st := range active {
		if !inDeliveredFamily(st) {
			allDelivered = false
		}
		if st == enums.OrderItemStatusShipped {
			anyShipped = true
		}
		if !atLeastProcessed(st) {
			allProcessed = false
		}
	}

	switch {
	case allDelivered:
		return enums.OrderStatusDelivered
	case anyShipped:
		return enums.OrderStatusShipped
	case allProcessed:
		return enums.OrderStatusProcessed
	default:
		return enums.OrderStatusPending
	}
}

func inDeliveredFamily(st enums.OrderItemStatus) bool {
	switch st {
	case enums.OrderItemStatusDelivered, enums.OrderItemStatusToReturn, enums.OrderItemStatusReturned:
		return true
	default:
		return false
	}
}

func atLeastProcessed(st enums.OrderItemStatus) bool {
	switch st {
	case enums.OrderItemStatusProcessed, enums.OrderItemStatusShipped,
		enums.OrderItemStatusDelivered, enums.OrderItemStatusToReturn, enums.OrderItemStatusReturned:
		return true
	default:
		return false
	}
}
