package panel

import "errors"

// ErrUnknownPanel is returned for a panel name that has no plan.
var ErrUnknownPanel = errors.New("unknown panel")
