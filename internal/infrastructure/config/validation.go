package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator is a wrapper around go-playground/validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate validates a struct using validation tags
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return v.formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors into readable messages
func (v *Validator) formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, e := range validationErrs {
			messages = append(messages, fmt.Sprintf(
				"field '%s' failed validation: %s (value: '%v')",
				e.Field(),
				e.Tag(),
				e.Value(),
			))
		}
		return fmt.Errorf("validation failed:\n  %s", strings.Join(messages, "\n  "))
	}
	return err
}

// ValidateConfig validates the entire configuration, plus the cross-field
// rules tags cannot express
func ValidateConfig(cfg *Config) error {
	if err := NewValidator().Validate(cfg); err != nil {
		return err
	}

	facilities := cfg.World.NumWarehouses + cfg.World.NumSuppliers + cfg.World.NumStores + cfg.World.NumGasStations
	if facilities > cfg.World.Width*cfg.World.Height {
		return fmt.Errorf("facility count %d exceeds grid node count %d", facilities, cfg.World.Width*cfg.World.Height)
	}
	if cfg.Agents.Store.MaxQuantity < cfg.Agents.Store.MinQuantity {
		return fmt.Errorf("store max_quantity %d below min_quantity %d", cfg.Agents.Store.MaxQuantity, cfg.Agents.Store.MinQuantity)
	}
	if cfg.Agents.Store.MaxQuantity > cfg.Agents.Vehicle.Capacity {
		return fmt.Errorf("store max_quantity %d exceeds vehicle capacity %d, orders could never be carried", cfg.Agents.Store.MaxQuantity, cfg.Agents.Vehicle.Capacity)
	}
	return nil
}
