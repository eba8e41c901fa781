package catalog

import "errors"

var (
	// ErrNotFound is returned when an id is not in the mirror. No store call
	// is made in that case.
	ErrNotFound = errors.New("product not found")
	// ErrInvalidItem is returned when a write would break the item schema,
	// e.g. an itemType the category does not list.
	ErrInvalidItem = errors.New("invalid product")
	// ErrUpload is returned by ReplaceImage when the media host rejects the file.
	ErrUpload = errors.New("image upload failed")
)
