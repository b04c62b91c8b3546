package target

import "regexp"

// Selector picks what to do: "[-]target[:[mode-prefix]]".
//
// A leading '-' skips generating the Makefiles. A ':' additionally runs
// make in every mode starting with the prefix. An empty target means every
// target.
type Selector struct {
	Target string
	Skip   bool
	Run    bool
	Modes  []Mode
}

var selectorRegex = regexp.MustCompile(`^(-?)([^:]*)(:?)(.*)$`)

// ParseSelector splits a selector and resolves its mode prefix.
func ParseSelector(s string) (Selector, error) {
	m := selectorRegex.FindStringSubmatch(s)
	if m == nil {
		return Selector{}, &ConfigurationError{Field: "selector", Value: s, Reason: "is not of the form [-]target[:mode]"}
	}
	modes, err := ModesWithPrefix(m[4])
	if err != nil {
		return Selector{}, err
	}
	return Selector{Target: m[2], Skip: m[1] == "-", Run: m[3] == ":", Modes: modes}, nil
}

// Targets returns the configured targets the selector names.
func (s Selector) Targets(p *Project) ([]*Config, error) {
	if s.Target == "" {
		return p.Targets, nil
	}
	t, err := p.Target(s.Target)
	if err != nil {
		return nil, err
	}
	return []*Config{t}, nil
}
