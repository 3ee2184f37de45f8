package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aleister1102/keywatch/internal/common"
	"github.com/go-playground/validator/v10"
)

// newValidator returns a validator with the application's custom rules registered.
func newValidator() *validator.Validate {
	validate := validator.New()

	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "trace", "debug", "info", "warn", "error", "fatal", "panic":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "console", "text", "json":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("timerkind", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", TimerKindTicker, TimerKindAlarm:
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("sqlitepath", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return validate
}

// ValidateConfig performs validation on the GlobalConfig structure.
func ValidateConfig(cfg *GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", common.ErrInvalidConfiguration)
	}
	return formatValidationError(newValidator().Struct(cfg))
}

// ValidateMonitorConfig validates only the user-editable monitor section.
func ValidateMonitorConfig(mc MonitorConfig) error {
	return formatValidationError(newValidator().Struct(mc))
}

func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%w: %v", common.ErrInvalidConfiguration, err)
	}

	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := fmt.Sprintf("Validation failed for '%s': rule '%s'", e.Namespace(), e.Tag())
		if e.Param() != "" {
			msg += fmt.Sprintf(" (expected: %s)", e.Param())
		}
		if e.Value() != nil && e.Value() != "" {
			msg += fmt.Sprintf(", actual: '%v'", e.Value())
		}
		messages = append(messages, msg)
	}
	return fmt.Errorf("%w: validation failed:\n  %s", common.ErrInvalidConfiguration, strings.Join(messages, "\n  "))
}
