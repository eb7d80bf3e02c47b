package booking

import "errors"

var (
	ErrOutsideBusinessHours = errors.New("appointments are only available Monday-Saturday, within business hours")
	ErrInvalidStatus        = errors.New("invalid appointment status")
)
