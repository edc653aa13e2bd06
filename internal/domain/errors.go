package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails business rule validation
// (e.g. a seed row with an empty city name, a non-CSV upload).
// Handlers should map this to HTTP 400.
var ErrValidation = errors.New("validation error")

// ErrUnknownLocation is returned by the reference resolver when a location id
// has no matching reference row.
var ErrUnknownLocation = errors.New("unknown location id")

// ErrUnknownEventCode is returned by the reference resolver when an event code
// has no matching reference row.
var ErrUnknownEventCode = errors.New("unknown event code")

// ErrInvalidOffset is returned when a UTC offset string is not of the form ±HH:MM.
var ErrInvalidOffset = errors.New("invalid utc offset")

// ErrMissingColumn is returned by the CSV reader when a required header is absent.
var ErrMissingColumn = errors.New("missing required column")
