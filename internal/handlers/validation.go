package handlers

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/norar1/fireportal/internal/models"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators installs the barangay, purok and permit_status rules on
// gin's validator and reports field errors by their JSON names. It is safe
// to call more than once.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}

		v.RegisterTagNameFunc(jsonFieldName)

		rules := map[string]validator.Func{
			"barangay": func(fl validator.FieldLevel) bool {
				return models.IsBarangay(fl.Field().String())
			},
			"purok": func(fl validator.FieldLevel) bool {
				return models.IsPurok(fl.Field().String())
			},
			"permit_status": func(fl validator.FieldLevel) bool {
				return models.Status(fl.Field().String()).Valid()
			},
		}
		for tag, fn := range rules {
			if err := v.RegisterValidation(tag, fn); err != nil {
				registerErr = fmt.Errorf("failed to register %s validation: %w", tag, err)
				return
			}
		}
	})
	return registerErr
}

func mustRegisterValidators() {
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}
