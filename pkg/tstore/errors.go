package tstore

import "errors"

var (
	// ErrNotFound is the explicit sentinel for a primary key that matched no
	// row in the qualified table. Controllers translate it into a 404.
	ErrNotFound = errors.New("record not found")

	// ErrEmptyData is returned when Create or Update receives no fields.
	ErrEmptyData = errors.New("no fields provided")

	// ErrInvalidFieldName is returned when a field name does not map to a
	// plain snake_case column identifier.
	ErrInvalidFieldName = errors.New("invalid field name")
)
