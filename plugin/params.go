package plugin

import (
	"github.com/go-viper/mapstructure/v2"

	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/validation"
)

// DecodeParams decodes a process file's params into out, a pointer to a
// struct with mapstructure and validate tags. Values are converted
// leniently ("2" decodes into a float) but unknown keys are rejected.
func DecodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
		Result:           out,
	})
	if err != nil {
		return errors.Internal(err)
	}
	if err := dec.Decode(params); err != nil {
		return errors.InvalidInput("params", err.Error())
	}
	return validation.ValidateStruct(out)
}
