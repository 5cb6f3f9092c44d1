package entity

// Expense categories an employee can pick for a line
const (
	CategoryFlights        = "flights"
	CategoryAccommodation  = "accommodation"
	CategoryFood           = "food"
	CategoryTransportation = "transportation"
	CategoryMiscellaneous  = "miscellaneous"
)

// Categories lists the employee-facing expense categories
var Categories = []string{
	CategoryFlights,
	CategoryAccommodation,
	CategoryFood,
	CategoryTransportation,
	CategoryMiscellaneous,
}

// Entity type names used by notifications and status history
const (
	EntityReport        = "report"
	EntityTravelRequest = "travel_request"
)

// Notification status constants
const (
	NotificationStatusPending = "pending"
	NotificationStatusSent    = "sent"
	NotificationStatusFailed  = "failed"
)

// Actor roles
const (
	RoleEmployee   = "employee"
	RoleManager    = "manager"
	RoleAccounting = "accounting"
	RoleAdmin      = "admin"
)
