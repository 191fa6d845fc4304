package styles

import (
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	motionerrors "github.com/go-drift/motiontest/pkg/errors"
)

// decodeProps builds AnimationProps from a map keyed by computed-style
// names. Scalars decode weakly, so YAML values like 2 or 1.5 land as
// "2" and "1.5" without the caller quoting them. Keys that match no
// property are an error.
func decodeProps(op string, fields map[string]any) (AnimationProps, error) {
	var props AnimationProps
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &props,
		Metadata:         &md,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return AnimationProps{}, &motionerrors.ConfigError{Op: op, Field: "fields", Reason: "decoder setup failed", Value: err}
	}
	if err := dec.Decode(fields); err != nil {
		return AnimationProps{}, &motionerrors.ConfigError{Op: op, Field: "fields", Reason: "not a valid property bag", Value: err}
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		return AnimationProps{}, &motionerrors.ConfigError{Op: op, Field: strings.Join(md.Unused, ", "), Reason: "not a recognized property"}
	}
	return props, nil
}
