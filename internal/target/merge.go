package target

import (
	"maps"
	"slices"
)

func override[T any](def T, user *T) T {
	if user != nil {
		return *user
	}
	return def
}

// Merge resolves a user target against a default target.
//
// Scalars and sub-objects are overridden field by field, flag lists are
// an ordered union without duplicates (default entries first), libraries
// are concatenated, and per-mode settings are merged for each mode on its
// own. The directory layout always comes from the default, placed under
// the user's target identifier.
func Merge(name string, user *UserTarget, def *Config) (*Config, error) {
	if user.Target == "" {
		return nil, &ConfigurationError{Field: "target", Value: "", Reason: "must not be empty"}
	}

	cfg := &Config{
		Name:     name,
		Target:   user.Target,
		Compiler: override(def.Compiler, user.Compiler),
		Standards: Languages{
			C:   override(def.Standards.C, user.Standards.C),
			Cpp: override(def.Standards.Cpp, user.Standards.Cpp),
		},
		Tools:          mergeTools(def.Tools, user.Tools),
		Warnings:       union(def.Warnings, user.Warnings),
		SuppressErrors: union(def.SuppressErrors, user.SuppressErrors),
		Libraries:      slices.Concat(def.Libraries, user.Libraries),
		Filter: Filter{
			Expr:    override(def.Filter.Expr, user.Filter.Expr),
			Exclude: union(def.Filter.Exclude, user.Filter.Exclude),
		},
		Layout: def.Layout,
	}

	var err error
	cfg.Macros, err = mergeModes(def.Macros, user.Macros, func(d, u map[string]string) (map[string]string, error) {
		out := maps.Clone(d)
		if out == nil {
			out = make(map[string]string, len(u))
		}
		maps.Copy(out, u)
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	cfg.Optimizations, err = mergeModes(def.Optimizations, user.Optimizations, func(d Optimizations, u UserOptimizations) (Optimizations, error) {
		out := Optimizations{
			Level: override(d.Level, u.Level),
			LTO:   override(d.LTO, u.LTO),
			Flags: slices.Clone(d.Flags),
		}
		if u.Flags != nil {
			out.Flags = slices.Clone(u.Flags)
		}
		if !validLevel(out.Level) {
			return Optimizations{}, &ConfigurationError{
				Field:  "optimization level",
				Value:  out.Level,
				Reason: "is not a valid level",
				Valid:  append([]string{"0", "1", "2", "3"}, namedLevels...),
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	cfg.Debug, err = mergeModes(def.Debug, user.Debug, func(d Debug, u *Debug) (Debug, error) {
		if u != nil && u.Flags != nil {
			return Debug{Flags: slices.Clone(u.Flags)}, nil
		}
		return Debug{Flags: slices.Clone(d.Flags)}, nil
	})
	if err != nil {
		return nil, err
	}

	cfg.Flags, err = mergeModes(def.Flags, user.Flags, func(d, u []string) ([]string, error) {
		return union(d, u), nil
	})
	if err != nil {
		return nil, err
	}

	for _, lib := range cfg.Libraries {
		if _, err := lib.BinaryFlags(); err != nil {
			return nil, err
		}
	}

	if cfg.Directories, err = def.Layout.Fill(user.Target); err != nil {
		return nil, err
	}
	return cfg, nil
}

func mergeTools(def Tools, user UserTools) Tools {
	out := Tools{
		Mkdir:     override(def.Mkdir, user.Mkdir),
		Rm:        override(def.Rm, user.Rm),
		Find:      override(def.Find, user.Find),
		Time:      override(def.Time, user.Time),
		Profilers: maps.Clone(def.Profilers),
	}
	if out.Profilers == nil {
		out.Profilers = make(map[string]string, len(user.Profilers))
	}
	for name, command := range user.Profilers {
		if command == "" {
			// an empty command switches a default profiler off
			delete(out.Profilers, name)
			continue
		}
		out.Profilers[name] = command
	}
	return out
}
