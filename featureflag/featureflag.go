// Package featureflag toggles optional voxd behaviors, such as dumping
// trees after a load or skipping pack validation, from configuration.
package featureflag

// FeatureFlag holds the set of flags enabled for this process.
type FeatureFlag map[Flag]struct{}

// New builds the flag set from the configured flag names. Unknown names
// are kept so a typo still shows up when the set is logged.
func New(flags []string) FeatureFlag {
	ff := make(FeatureFlag, len(flags))
	for _, f := range flags {
		ff[Flag(f)] = struct{}{}
	}
	return ff
}

// IfSet calls do when the flag is enabled.
func (f FeatureFlag) IfSet(flag Flag, do func()) {
	if _, ok := f[flag]; ok {
		do()
	}
}

// IfNotSet calls do when the flag is not enabled.
func (f FeatureFlag) IfNotSet(flag Flag, do func()) {
	if _, ok := f[flag]; !ok {
		do()
	}
}
