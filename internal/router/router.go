package router

import (
	"github.com/edgerelay/edgerelay/internal/backend"
)

// Strategy picks the backend for the next request, or nil when no backend
// is eligible. Alternative routing policies (weighted, least-connections)
// would be additional implementations of this interface.
type Strategy interface {
	Select() *backend.Backend
}
