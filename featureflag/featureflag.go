package featureflag

import "sort"

// FeatureFlag is a lookup map for render features that are enabled or
// disabled.
type FeatureFlag map[Flag]struct{}

// New returns feature flags initialized with a list of flags.
func New(flags []string) FeatureFlag {
	featureFlag := make(FeatureFlag)
	for _, f := range flags {
		if f == "" {
			continue
		}
		featureFlag[Flag(f)] = struct{}{}
	}
	return featureFlag
}

func (f FeatureFlag) IsSet(flag Flag) bool {
	_, ok := f[flag]
	return ok
}

// IfSet runs do if flag is set.
func (f FeatureFlag) IfSet(flag Flag, do func()) {
	if !f.IsSet(flag) {
		return
	}
	do()
}

// IfNotSet runs do if flag is not set.
func (f FeatureFlag) IfNotSet(flag Flag, do func()) {
	if f.IsSet(flag) {
		return
	}
	do()
}

// Flags returns the set flags, sorted.
func (f FeatureFlag) Flags() []string {
	flags := make([]string, 0, len(f))
	for flag := range f {
		flags = append(flags, string(flag))
	}
	sort.Strings(flags)
	return flags
}
