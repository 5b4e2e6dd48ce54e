package capture

import "errors"

// ErrStopped is returned by Next once the converter's driver has finished.
var ErrStopped = errors.New("converter stopped")
