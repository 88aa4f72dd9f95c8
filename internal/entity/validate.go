package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	v, err := newValidator()
	if err != nil {
		panic(err)
	}
	validate = v
}

func newValidator() (*validator.Validate, error) {
	v := validator.New()
	if err := v.RegisterValidation("asset_name", validateAssetName); err != nil {
		return nil, fmt.Errorf("register asset_name: %w", err)
	}
	v.RegisterStructValidation(validateProductPictures, Product{})
	return v, nil
}

// validateAssetName rejects names that would escape the flat asset namespace.
func validateAssetName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

func validateProductPictures(sl validator.StructLevel) {
	p := sl.Current().Interface().(Product)
	seen := make(map[string]bool, len(p.ProductPictures))
	for _, pic := range p.ProductPictures {
		if seen[pic.FileName] {
			sl.ReportError(p.ProductPictures, "ProductPictures", "ProductPictures", "unique_file_name", pic.FileName)
			return
		}
		seen[pic.FileName] = true
	}
}

// FieldError describes one rejected field.
type FieldError struct {
	Field   string
	Message string
}

// InvalidError is returned when a record fails validation before it is sent.
type InvalidError struct {
	Kind   Kind
	Fields []FieldError
}

func (e *InvalidError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Kind, strings.Join(msgs, "; "))
}

// Validate checks a record of the given kind against its field rules.
func Validate(kind Kind, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %s: %w", kind, err)
	}

	out := &InvalidError{Kind: kind}
	for _, fe := range verrs {
		field := fe.Field()
		param := fe.Param()

		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", field)
		case "len":
			message = fmt.Sprintf("%s must be exactly %s characters", field, param)
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, param)
		case "gt", "gte", "lte":
			message = fmt.Sprintf("%s is out of range (%s %s)", field, fe.Tag(), param)
		case "asset_name":
			message = fmt.Sprintf("%s must be a plain file name", field)
		case "unique_file_name":
			message = fmt.Sprintf("%s contains %q more than once", field, param)
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}

		out.Fields = append(out.Fields, FieldError{Field: fe.Namespace(), Message: message})
	}
	return out
}
