package target

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"regexp"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/pelletier/go-toml/v2"

	"github.com/qobs-build/mmake/internal/fspath"
)

var ErrNoTargets = errors.New("configuration defines no [[targets]]")

// Project is a loaded configuration file.
type Project struct {
	Name    string            `toml:"name"`
	Vendor  map[string]string `toml:"vendor,omitempty"`
	Targets []*Config         `toml:"targets"`
}

// Target looks a target up by name, or else by target identifier.
func (p *Project) Target(name string) (*Config, error) {
	for _, t := range p.Targets {
		if t.Name == name {
			return t, nil
		}
	}
	for _, t := range p.Targets {
		if t.Target == name {
			return t, nil
		}
	}
	return nil, &ConfigurationError{
		Field:  "target",
		Value:  name,
		Reason: "is not defined",
		Valid:  p.TargetNames(),
	}
}

func (p *Project) TargetNames() []string {
	names := make([]string, len(p.Targets))
	for i, t := range p.Targets {
		names[i] = t.Name
	}
	return names
}

// ConfigEnv is the environment {{ }} blocks and conditional sections are
// evaluated in.
type ConfigEnv struct {
	TargetOS   string            `expr:"target_os"`
	TargetArch string            `expr:"target_arch"`
	Dialect    string            `expr:"dialect"`
	Environ    map[string]string `expr:"environ"`
}

func NewConfigEnv(d *fspath.Dialect) ConfigEnv {
	environ := make(map[string]string)
	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			environ[k] = v
		}
	}

	return ConfigEnv{
		TargetOS:   runtime.GOOS,
		TargetArch: runtime.GOARCH,
		Dialect:    d.Name,
		Environ:    environ,
	}
}

var exprRegex = regexp.MustCompile(`\{\{(.+?)\}\}`)

// evaluateString replaces every {{...}} block in s with its value.
func evaluateString(s string, env ConfigEnv) (string, error) {
	matches := exprRegex.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var sb strings.Builder
	lastIndex := 0
	for _, m := range matches {
		sb.WriteString(s[lastIndex:m[0]])

		expression := strings.TrimSpace(s[m[2]:m[3]])
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return "", fmt.Errorf("failed to compile expression %q: %w", expression, err)
		}
		result, err := expr.Run(program, env)
		if err != nil {
			return "", fmt.Errorf("failed to run expression %q: %w", expression, err)
		}

		fmt.Fprint(&sb, result)
		lastIndex = m[1]
	}
	sb.WriteString(s[lastIndex:])

	return sb.String(), nil
}

// processExpressions walks decoded TOML data, evaluating {{ }} blocks in
// strings and folding in conditional tables whose key holds.
func processExpressions(data any, env ConfigEnv) (any, error) {
	switch v := data.(type) {
	case map[string]any:
		return processTable(v, env)
	case []any:
		for i, item := range v {
			processed, err := processExpressions(item, env)
			if err != nil {
				return nil, err
			}
			v[i] = processed
		}
		return v, nil
	case string:
		return evaluateString(v, env)
	default:
		return data, nil
	}
}

// isCondition reports whether a table key is a boolean expression rather
// than a field name.
func isCondition(key string, env ConfigEnv) bool {
	_, err := expr.Compile(key, expr.Env(env), expr.AsBool())
	return err == nil
}

func processTable(table map[string]any, env ConfigEnv) (map[string]any, error) {
	base := make(map[string]any, len(table))
	var conditions []string
	for key, val := range table {
		if _, ok := val.(map[string]any); ok && isCondition(key, env) {
			conditions = append(conditions, key)
			continue
		}
		processed, err := processExpressions(val, env)
		if err != nil {
			return nil, err
		}
		base[key] = processed
	}

	// sorted so that overlapping sections merge the same way every run
	slices.Sort(conditions)
	for _, cond := range conditions {
		program, err := expr.Compile(cond, expr.Env(env), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("failed to compile condition %q: %w", cond, err)
		}
		result, err := expr.Run(program, env)
		if err != nil {
			return nil, fmt.Errorf("failed to run condition %q: %w", cond, err)
		}
		if matched, ok := result.(bool); !ok || !matched {
			continue
		}

		section, err := processTable(table[cond].(map[string]any), env)
		if err != nil {
			return nil, fmt.Errorf("in section %q: %w", cond, err)
		}
		deepMerge(base, section)
	}
	return base, nil
}

// deepMerge merges src into dst: tables recursively, arrays by appending,
// anything else by replacement.
func deepMerge(dst, src map[string]any) {
	for key, sv := range src {
		switch s := sv.(type) {
		case map[string]any:
			if d, ok := dst[key].(map[string]any); ok {
				deepMerge(d, s)
				continue
			}
		case []any:
			if d, ok := dst[key].([]any); ok {
				dst[key] = append(d, s...)
				continue
			}
		}
		dst[key] = sv
	}
}

func mustMarshal(v any) []byte {
	b, err := toml.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

type rawLibrary struct {
	Include string `toml:"include"`
	Binary  string `toml:"binary"`
}

type rawOptimizations struct {
	Level any      `toml:"level"`
	LTO   *string  `toml:"lto"`
	Flags []string `toml:"flags"`
}

type rawTarget struct {
	Name           string                  `toml:"name"`
	Target         string                  `toml:"target"`
	Compiler       any                     `toml:"compiler"`
	Standards      UserLanguages           `toml:"standards"`
	Tools          UserTools               `toml:"tools"`
	Warnings       []string                `toml:"warnings"`
	SuppressErrors []string                `toml:"suppress-errors"`
	Macros         Modes[map[string]any]   `toml:"macros"`
	Libraries      []rawLibrary            `toml:"libraries"`
	Optimizations  Modes[rawOptimizations] `toml:"optimizations"`
	Debug          Modes[*Debug]           `toml:"debug"`
	Flags          Modes[[]string]         `toml:"flags"`
	Filter         UserFilter              `toml:"filter"`
}

type rawProject struct {
	Name    string            `toml:"name"`
	Vendor  map[string]string `toml:"vendor"`
	Targets []rawTarget       `toml:"targets"`
}

func scalarString(field string, v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case bool:
		return strconv.FormatBool(val), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("%s: unexpected type %T", field, v)
	}
}

func parseCompiler(v any) (*Compiler, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		c, err := CompilerByName(val)
		if err != nil {
			return nil, err
		}
		return &c, nil
	case map[string]any:
		var c Compiler
		if err := toml.Unmarshal(mustMarshal(val), &c); err != nil {
			return nil, fmt.Errorf("failed to parse compiler table: %w", err)
		}
		if c.Compilers.C == "" || c.Compilers.Cpp == "" {
			return nil, &ConfigurationError{Field: "compiler", Value: c.Name, Reason: "must name both a c and a cpp compiler"}
		}
		if c.Name == "" {
			c.Name = "custom"
		}
		c = c.completed()
		return &c, nil
	default:
		return nil, fmt.Errorf("compiler: expected a profile name or a table, got %T", v)
	}
}

func (r *rawTarget) userTarget(d *fspath.Dialect) (*UserTarget, error) {
	u := &UserTarget{
		Target:         r.Target,
		Standards:      r.Standards,
		Tools:          r.Tools,
		Warnings:       r.Warnings,
		SuppressErrors: r.SuppressErrors,
		Debug:          r.Debug,
		Flags:          r.Flags,
		Filter:         r.Filter,
	}
	if u.Target == "" {
		u.Target = r.Name
	}

	var err error
	if u.Compiler, err = parseCompiler(r.Compiler); err != nil {
		return nil, err
	}

	u.Macros, err = mergeModes(Modes[map[string]string]{}, r.Macros, func(_ map[string]string, raw map[string]any) (map[string]string, error) {
		if raw == nil {
			return nil, nil
		}
		macros := make(map[string]string, len(raw))
		for name, v := range raw {
			s, err := scalarString("macro "+name, v)
			if err != nil {
				return nil, err
			}
			macros[name] = s
		}
		return macros, nil
	})
	if err != nil {
		return nil, err
	}

	u.Optimizations, err = mergeModes(Modes[UserOptimizations]{}, r.Optimizations, func(_ UserOptimizations, raw rawOptimizations) (UserOptimizations, error) {
		o := UserOptimizations{LTO: raw.LTO, Flags: raw.Flags}
		if raw.Level != nil {
			level, err := scalarString("optimization level", raw.Level)
			if err != nil {
				return o, err
			}
			o.Level = &level
		}
		return o, nil
	})
	if err != nil {
		return nil, err
	}

	for _, lib := range r.Libraries {
		var l Library
		if l.Include, err = parseOptional(lib.Include, d); err != nil {
			return nil, fmt.Errorf("library include: %w", err)
		}
		if l.Binary, err = parseOptional(lib.Binary, d); err != nil {
			return nil, fmt.Errorf("library binary: %w", err)
		}
		u.Libraries = append(u.Libraries, l)
	}
	return u, nil
}

func parseOptional(raw string, d *fspath.Dialect) (fspath.Path, error) {
	if raw == "" {
		return fspath.Empty(d), nil
	}
	return fspath.Parse(raw, d)
}

// LoadProject reads a configuration and merges each of its targets over
// the default target of dialect d.
func LoadProject(rdr io.Reader, env ConfigEnv, d *fspath.Dialect) (*Project, error) {
	var rawConfig map[string]any
	dec := toml.NewDecoder(rdr)
	if err := dec.Decode(&rawConfig); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			return nil, errors.New(derr.String())
		}
		return nil, err
	}

	processed, err := processExpressions(rawConfig, env)
	if err != nil {
		return nil, fmt.Errorf("error processing expressions in config: %w", err)
	}

	var raw rawProject
	if err := toml.Unmarshal(mustMarshal(processed), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(raw.Targets) == 0 {
		return nil, ErrNoTargets
	}

	def := Default(d)
	p := &Project{Name: raw.Name, Vendor: raw.Vendor}
	seen := make(map[string]bool, len(raw.Targets))
	dirs := make(map[string]string, len(raw.Targets))
	for i := range raw.Targets {
		rt := &raw.Targets[i]
		if rt.Name == "" {
			return nil, &ConfigurationError{Field: "target name", Value: "", Reason: fmt.Sprintf("is missing in [[targets]] #%d", i+1)}
		}
		if seen[rt.Name] {
			return nil, &ConfigurationError{Field: "target name", Value: rt.Name, Reason: "is defined twice"}
		}
		seen[rt.Name] = true

		user, err := rt.userTarget(d)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", rt.Name, err)
		}
		cfg, err := Merge(rt.Name, user, def)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", rt.Name, err)
		}
		if other, ok := dirs[cfg.Target]; ok {
			return nil, &ConfigurationError{
				Field:  "target",
				Value:  cfg.Target,
				Reason: fmt.Sprintf("is used by both %q and %q", other, rt.Name),
			}
		}
		dirs[cfg.Target] = rt.Name
		p.Targets = append(p.Targets, cfg)
	}
	return p, nil
}

// LoadProjectFromFile opens path and loads it with LoadProject.
func LoadProjectFromFile(path string, env ConfigEnv, d *fspath.Dialect) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadProject(bufio.NewReader(f), env, d)
}

// Vendors returns the vendored source names in a stable order.
func (p *Project) Vendors() []string {
	return slices.Sorted(maps.Keys(p.Vendor))
}
