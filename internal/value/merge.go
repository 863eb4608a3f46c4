package value

import "slices"

// MergeOption configures Merge.
type MergeOption func(*mergeConfig)

type mergeConfig struct {
	skipKeys []string
	override bool
}

// WithOverride controls whether colliding non-map values in the target are
// replaced (the default) or kept.
func WithOverride(override bool) MergeOption {
	return func(c *mergeConfig) {
		c.override = override
	}
}

// WithSkipKeys ignores the named source keys at every depth.
func WithSkipKeys(keys ...string) MergeOption {
	return func(c *mergeConfig) {
		c.skipKeys = append(c.skipKeys, keys...)
	}
}

// Merge deep-merges source into target and returns target.
//
// For each source key:
//   - when both sides hold a Map, the maps are merged recursively;
//   - when the source holds a Map and target already holds a non-map value
//     under the key, the target value is kept;
//   - otherwise the source value is assigned, unless override is off and the
//     key already exists in target.
//
// Lists, times, bytes and scalars are atomic: they are overwritten, never
// combined. Assigned values are deep copies, so target never aliases source.
// A nil target is replaced by a new Map.
func Merge(target, source Map, opts ...MergeOption) Map {
	cfg := mergeConfig{override: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if target == nil {
		target = Map{}
	}
	mergeInto(target, source, &cfg)
	return target
}

func mergeInto(target, source Map, cfg *mergeConfig) {
	for _, key := range source.SortedKeys() {
		if slices.Contains(cfg.skipKeys, key) {
			continue
		}
		src := source[key]
		existing, exists := target[key]

		srcMap, srcIsMap := src.(Map)
		dstMap, dstIsMap := existing.(Map)
		if exists && srcIsMap {
			switch {
			case dstIsMap && dstMap != nil:
				mergeInto(dstMap, srcMap, cfg)
			case dstIsMap:
				target[key] = Clone(src)
			}
			continue
		}

		if cfg.override || !exists {
			target[key] = Clone(src)
		}
	}
}
