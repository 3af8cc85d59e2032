package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateDispatch         OutboxAggregateType = "dispatch"
	AggregateShopOrder        OutboxAggregateType = "shop_order"
	AggregateCounterpartySale OutboxAggregateType = "counterparty_sale"
	AggregateReturn           OutboxAggregateType = "return_doc"
	AggregateIncoming         OutboxAggregateType = "incoming"
	AggregateDebtPayment      OutboxAggregateType = "debt_payment"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateDispatch,
	AggregateShopOrder,
	AggregateCounterpartySale,
	AggregateReturn,
	AggregateIncoming,
	AggregateDebtPayment,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventDispatchCreated         OutboxEventType = "dispatch_created"
	EventDispatchAccepted        OutboxEventType = "dispatch_accepted"
	EventShopOrderCreated        OutboxEventType = "shop_order_created"
	EventCounterpartySaleCreated OutboxEventType = "counterparty_sale_created"
	EventReturnCreated           OutboxEventType = "return_created"
	EventIncomingRecorded        OutboxEventType = "incoming_recorded"
	EventDebtPaid                OutboxEventType = "debt_paid"
)

var validEventTypes = []OutboxEventType{
	EventDispatchCreated,
	EventDispatchAccepted,
	EventShopOrderCreated,
	EventCounterpartySaleCreated,
	EventReturnCreated,
	EventIncomingRecorded,
	EventDebtPaid,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
