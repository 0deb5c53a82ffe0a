package cmn

import "github.com/pkg/errors"

// Sentinel errors the backend boundary translates provider-specific errors
// into, the way AIStore's cmn package constructs typed NewErrXxx helpers
// for its own cluster errors (see xact/xs/tcb.go's cmn.NewErrAborted,
// cmn.NewErrXactUsePrev).
var (
	ErrNotFound                = errors.New("object not found")
	ErrThrottled               = errors.New("storage endpoint throttled the request")
	ErrEndpointChaosFailed     = errors.New("endpoint chaos-failed")
	ErrDestinationNotEncrypted = errors.New("destination_not_encrypted")
	ErrUnknownEndpointKind     = errors.New("unknown endpoint kind")
	ErrUnknownEndpoint         = errors.New("unknown endpoint name")
)

// WrapEndpoint attaches the offending endpoint name to an error without
// losing the original cause, so callers can still errors.Is/Cause through
// it.
func WrapEndpoint(err error, name string) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, "endpoint %q", name)
}
