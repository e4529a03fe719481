package role

// Well-known role names. Both are seeded at startup and referenced by the
// access policy: Administrator gates privileged operations, Guest is the
// fallback when a request assigns no roles.
const (
	Administrator = "Administrator"
	Guest         = "Guest"
)

type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
