package model

import "errors"

// ErrNoAppointment is returned when an appointment is required but unset.
var ErrNoAppointment = errors.New("no appointment scheduled")
