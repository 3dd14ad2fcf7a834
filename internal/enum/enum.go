package enum

// ── State machines (CHECK constrained in DB) ──

const (
	OrderStatusCreated   = "Created"
	OrderStatusSubmitted = "Submitted"
	OrderStatusCancelled = "Cancelled"
	OrderStatusCompleted = "Completed"
)

const (
	DishStatusOnShelf  = "OnShelf"
	DishStatusOffShelf = "OffShelf"
)

// ── Option selection modes ──

const (
	OptionTypeSingle   = "Single"
	OptionTypeMultiple = "Multiple"
)

// ── Roles (CHECK constrained in DB) ──

const (
	UserRoleAdmin    = "ADMIN"
	UserRoleCustomer = "CUSTOMER"
)
