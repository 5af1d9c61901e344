package domain

// Role identifies which side of a channel a connection serves.
type Role string

const (
	RolePublisher  Role = "publisher"
	RoleSubscriber Role = "subscriber"
)

// Roles lists every role in a stable order.
var Roles = []Role{RolePublisher, RoleSubscriber}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RolePublisher || r == RoleSubscriber
}

// ConnectionGuard represents one tracked connection. Release must be safe to
// call more than once; only the first call has an effect.
type ConnectionGuard interface {
	Release()
}

// ConnectionTracker records the lifetime of relay connections.
type ConnectionTracker interface {
	Acquire(channel string, role Role) ConnectionGuard
}
