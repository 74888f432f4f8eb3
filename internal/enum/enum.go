package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusNew       = "new"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
)

// PendingOrderStatuses are the statuses shown on the order boards.
var PendingOrderStatuses = []string{
	OrderStatusNew,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
}

const (
	TableStatusFree     = "free"
	TableStatusOccupied = "occupied"
)

// ── Group B: Checkout vocabulary (CHECK constrained in DB) ──

const (
	DeliveryTypeDelivery = "delivery"
	DeliveryTypePickup   = "pickup"
	DeliveryTypeDineIn   = "dine_in"
	// DeliveryTypeOnline is accepted on input only and normalized to
	// delivery or pickup before anything is written.
	DeliveryTypeOnline = "online"
)

const (
	PaymentMethodCash       = "cash"
	PaymentMethodCreditCard = "credit_card"
	PaymentMethodDebitCard  = "debit_card"
	PaymentMethodPix        = "pix"
)

// PaymentMethods lists every accepted payment method.
var PaymentMethods = []string{
	PaymentMethodCash,
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodPix,
}

const (
	OrderSourcePDV  = "pdv"
	OrderSourceMenu = "menu"
)

const (
	CashMovementEntry = "entry"
	CashMovementExit  = "exit"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	UserRoleOwner   = "OWNER"
	UserRoleManager = "MANAGER"
	UserRoleCashier = "CASHIER"
	UserRoleWaiter  = "WAITER"
)

// ── Group D: Configurable labels (no DB constraint) ──

const CashCategorySale = "venda"

// ReportPresets are the accepted report windows, in days.
var ReportPresets = []int{7, 15, 30, 60}
