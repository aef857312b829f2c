package surface

import "errors"

// ErrNoServices is returned when regex extraction finds zero services
// across all supplied proto content.
var ErrNoServices = errors.New("surface: no services found in proto content")
