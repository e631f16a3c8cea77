package plant

import "errors"

var (
	ErrNameRequired           = errors.New("plant name is required")
	ErrNameTooLong            = errors.New("plant name must not exceed 200 characters")
	ErrScientificNameRequired = errors.New("scientific name is required")
	ErrPlantNotFound          = errors.New("plant not found")
)
