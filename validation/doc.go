// Package validation checks stage parameters and configuration.
//
// Struct tag validation uses go-playground/validator; field names in
// messages follow the mapstructure tags. The programmatic Validator collects
// errors for checks that tags cannot express. Both report INVALID_INPUT.
//
//	type scaleParams struct {
//	    Factor float64 `mapstructure:"factor" validate:"gt=0"`
//	}
//	err := validation.ValidateStruct(p)
//
//	err := validation.New().Extents("shape", shape).Validate()
package validation
