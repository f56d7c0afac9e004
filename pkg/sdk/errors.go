package dbconsole

import "github.com/kailas-cloud/dbconsole/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidParameter  = domain.ErrInvalidParameter
	ErrMalformedResponse = domain.ErrMalformedResponse
	ErrRemoteFailure     = domain.ErrRemoteFailure
	ErrNotFound          = domain.ErrNotFound
	ErrUnsupportedFile   = domain.ErrUnsupportedFile
)

// EngineMessage returns the engine's own error text when err carries one.
func EngineMessage(err error) (string, bool) {
	return domain.RemoteMessage(err)
}
