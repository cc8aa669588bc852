package model

import "time"

// DeletionWindow is how long a CREATED order may wait for payment.
const DeletionWindow = 24 * time.Hour

var statusClasses = map[OrderStatus]string{
	OrderStatusCreated:    "created",
	OrderStatusProcessing: "processing",
	OrderStatusShipping:   "shipping",
	OrderStatusDelivered:  "delivered",
	OrderStatusAnnulled:   "annulled",
	OrderStatusRefunded:   "returned",
}

// StatusClass maps a status to its display category. Unknown statuses map to "".
func StatusClass(status OrderStatus) string {
	return statusClasses[status]
}

// CanRepay is true iff the order still awaits payment.
func CanRepay(order OrderBaseInfo) bool {
	return order.Status == OrderStatusCreated
}

// TimeRemainingForDeletion is the advisory re-payment window left, rounded to
// the nearest hour. It is zero for non-CREATED orders and never negative.
func TimeRemainingForDeletion(order OrderBaseInfo, now time.Time) time.Duration {
	if !CanRepay(order) {
		return 0
	}
	remaining := DeletionWindow - now.Sub(order.OrderDate)
	if remaining <= 0 {
		return 0
	}
	if remaining > DeletionWindow {
		remaining = DeletionWindow
	}
	return remaining.Round(time.Hour)
}

// DeletionExpired reports whether the raw window of a CREATED order has elapsed.
func DeletionExpired(order OrderBaseInfo, now time.Time) bool {
	return CanRepay(order) && now.Sub(order.OrderDate) >= DeletionWindow
}
