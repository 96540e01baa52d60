package configloader

import "encoding/json"

// DeepMerge merges src into dst per the spec's JSON merge rule: a scalar
// or array on src replaces the destination value outright; objects merge
// key-wise, recursing into shared keys; an explicit JSON null on src
// deletes the corresponding destination key. dst and src are both
// expected to unmarshal into valid JSON values; the result is
// re-marshaled deterministically (sorted object keys, Go's
// encoding/json default) so repeated merges of the same inputs are
// byte-equal.
func DeepMerge(dst, src json.RawMessage) (json.RawMessage, error) {
	if len(dst) == 0 {
		return src, nil
	}
	if len(src) == 0 {
		return dst, nil
	}

	var dstVal, srcVal any
	if err := json.Unmarshal(dst, &dstVal); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(src, &srcVal); err != nil {
		return nil, err
	}

	merged := mergeValues(dstVal, srcVal)
	return json.Marshal(merged)
}

// mergeValues implements the merge rule at the decoded-value level.
func mergeValues(dst, src any) any {
	srcMap, srcIsObj := src.(map[string]any)
	dstMap, dstIsObj := dst.(map[string]any)

	if !srcIsObj || !dstIsObj {
		// Scalars and arrays: source replaces destination outright.
		// A bare top-level `null` src is handled by the caller
		// (object key deletion); a non-object src here simply wins.
		return src
	}

	out := make(map[string]any, len(dstMap)+len(srcMap))
	for k, v := range dstMap {
		out[k] = v
	}
	for k, v := range srcMap {
		if v == nil {
			delete(out, k)
			continue
		}
		if existing, ok := out[k]; ok {
			out[k] = mergeValues(existing, v)
		} else {
			out[k] = v
		}
	}
	return out
}

// MergeAll folds a sequence of overlays onto an empty base, in order:
// global ⊕ env-type ⊕ own config_data.
func MergeAll(layers ...json.RawMessage) (json.RawMessage, error) {
	var acc json.RawMessage
	for _, l := range layers {
		merged, err := DeepMerge(acc, l)
		if err != nil {
			return nil, err
		}
		acc = merged
	}
	if acc == nil {
		acc = json.RawMessage(`{}`)
	}
	return acc, nil
}
