package models

import (
	"github.com/go-playground/validator/v10"
)

// Validate is the shared struct validator for inputs validated outside gin binding
var Validate = validator.New()
