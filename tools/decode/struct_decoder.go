package decode

import (
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Options controls decode behavior.
type Options struct {
	// WeaklyTypedInput enables lenient conversion (default true),
	// e.g. "123" -> int, 1.0 -> int64.
	WeaklyTypedInput bool
}

func DefaultOptions() Options {
	return Options{WeaklyTypedInput: true}
}

// FromMap decodes a loose JSON object (map[string]any) into a typed struct T.
// Field matching uses the `json` tag, so API payloads and storage records can
// share one set of tags. RFC3339 strings decode into time.Time fields.
func FromMap[T any](m map[string]any, opts ...Options) (*T, error) {
	if m == nil {
		return nil, errors.New("decode: nil map")
	}

	cfg := DefaultOptions()
	if len(opts) > 0 {
		cfg = opts[0]
	}

	var out T
	decCfg := &mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: cfg.WeaklyTypedInput,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05.999999999Z07:00"),
		),
	}

	dec, err := mapstructure.NewDecoder(decCfg)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := dec.Decode(m); err != nil {
		return nil, errors.WithStack(err)
	}
	return &out, nil
}
