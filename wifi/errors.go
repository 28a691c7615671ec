package wifi

import "errors"

var (
	ErrNotSupported    = errors.New("not supported")
	ErrNotFound        = errors.New("not found")
	ErrNotAvailable    = errors.New("not available")
	ErrOperationFailed = errors.New("operation failed")

	// ErrPermissionDenied is returned by radios when the caller lacks access
	// to scan results or the configured network list.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidProfile is returned when the radio refuses to register a
	// connection profile.
	ErrInvalidProfile = errors.New("radio rejected the profile")
	// ErrEnableRejected is returned when a registered network could not be
	// activated.
	ErrEnableRejected = errors.New("radio refused to enable the network")
)
