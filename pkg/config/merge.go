package config

import "dario.cat/mergo"

// mergeOverride merges src into dst, letting any non-zero field in src
// override the corresponding field in dst. Used to layer an operator's
// triage.yaml on top of the built-in defaults without the operator having
// to restate every option.
func mergeOverride(dst, src any) error {
	return mergo.Merge(dst, src, mergo.WithOverride)
}
