package fcheck

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Constants are substituted for "${name}" in directive bodies. They are set up
// before a run and not changed by it.
type Constants map[string]string

// Set adds a "name=value" definition. The value is everything after the
// first '='.
func (cs Constants) Set(def string) error {
	name, val, ok := strings.Cut(def, "=")
	if !ok {
		return fmt.Errorf("constant definition '%s' lacks '='", def)
	}
	if name = strings.TrimSpace(name); name == "" {
		return fmt.Errorf("constant definition '%s' lacks a name", def)
	}
	cs[name] = val
	return nil
}

// Load adds the constants from a YAML mapping of names to scalar values.
func (cs Constants) Load(data []byte) error {
	var m map[string]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return err
	}
	for k, v := range m {
		if k == "" {
			return errors.New("empty constant name")
		}
		cs[k] = v
	}
	return nil
}

// LoadConstants reads a YAML constant file into cs.
func LoadConstants(cs Constants, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	if err = cs.Load(data); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	return nil
}

func (cs Constants) Names() []string {
	res := make([]string, 0, len(cs))
	for n := range cs {
		res = append(res, n)
	}
	sort.Strings(res)
	return res
}
