package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

// Validator checks `validate` struct tags and reports failures as ConfigError
type Validator struct {
	validate *validator.Validate
}

// NewValidator names fields by their config keys ("batch.workers") where a
// mapstructure tag exists, so errors point at what the user has to edit.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate returns a ConfigError for the first failing field; the message
// lists every failure.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return err
	}

	messages := make([]string, len(failures))
	for i, f := range failures {
		messages[i] = fmt.Sprintf("%s must satisfy %s (got %v)", fieldKey(f), describeTag(f), f.Value())
	}
	return shared.NewConfigError(fieldKey(failures[0]), strings.Join(messages, "; "))
}

// fieldKey drops the root struct name: "Config.batch.workers" -> "batch.workers"
func fieldKey(f validator.FieldError) string {
	_, key, found := strings.Cut(f.Namespace(), ".")
	if !found {
		return f.Field()
	}
	return key
}

func describeTag(f validator.FieldError) string {
	if f.Param() == "" {
		return f.Tag()
	}
	return f.Tag() + "=" + f.Param()
}

// ValidateConfig checks struct tags and then the labeling rules that span
// several fields, such as the burn window and strategy/mode compatibility.
func ValidateConfig(cfg *Config) error {
	if err := NewValidator().Validate(cfg); err != nil {
		return err
	}
	if _, err := cfg.Labeling.Params(); err != nil {
		return err
	}
	if _, err := cfg.Labeling.BurnWindow(); err != nil {
		return err
	}
	return nil
}
