package event

// Type identifies the kind of notification event the engine emits
type Type string

const (
	TypeSubmitted             Type = "submitted"
	TypeApproved              Type = "approved"
	TypeRejected              Type = "rejected"
	TypeSkipped               Type = "skipped"
	TypeForwardedToAccounting Type = "forwarded_to_accounting"
)

// AllTypes lists every event kind, in the order handlers are usually registered
var AllTypes = []Type{
	TypeSubmitted,
	TypeApproved,
	TypeRejected,
	TypeSkipped,
	TypeForwardedToAccounting,
}

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeSubmitted,
		TypeApproved,
		TypeRejected,
		TypeSkipped,
		TypeForwardedToAccounting:
		return true
	default:
		return false
	}
}
