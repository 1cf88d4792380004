package domain

import "errors"

// ErrDataIntegrity marks a missing price, account or table row that a life cannot proceed without.
var ErrDataIntegrity = errors.New("data integrity error")

// ErrConfiguration marks an unrecognized enum value or an invalid parameter set.
var ErrConfiguration = errors.New("configuration error")
