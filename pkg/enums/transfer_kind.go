package enums

// TransferKind labels the document type a ledger transfer commits. It is used
// for metrics and log fields.
type TransferKind string

const (
	TransferKindIncoming         TransferKind = "incoming"
	TransferKindDispatchCreate   TransferKind = "dispatch_create"
	TransferKindDispatchAccept   TransferKind = "dispatch_accept"
	TransferKindShopOrder        TransferKind = "shop_order"
	TransferKindCounterpartySale TransferKind = "counterparty_sale"
	TransferKindManagerReturn    TransferKind = "manager_return"
	TransferKindShopReturn       TransferKind = "shop_return"
	TransferKindDebtPayment      TransferKind = "debt_payment"
)
