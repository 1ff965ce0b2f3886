package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Spok95/pressops/internal/domain/errs"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check validates a command and reports failures as field -> tag.
func check(cmd any) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		// drop the command type name
		ns := fe.Namespace()
		if _, rest, ok := strings.Cut(ns, "."); ok {
			ns = rest
		}
		fields[ns] = fe.Tag()
	}
	return &errs.ValidationError{Fields: fields}
}

// checkLines validates every material line up front. Field names carry the
// line index, e.g. "materials[1].quantity".
func checkLines(field string, lines []MaterialLine) error {
	fields := map[string]string{}
	for i, l := range lines {
		err := l.entry().Validate()
		var ve *errs.ValidationError
		if errors.As(err, &ve) {
			for k, v := range ve.Fields {
				fields[fmt.Sprintf("%s[%d].%s", field, i, k)] = v
			}
		} else if err != nil {
			return err
		}
	}
	if len(fields) > 0 {
		return &errs.ValidationError{Fields: fields}
	}
	return nil
}
