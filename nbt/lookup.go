package nbt

import "strings"

// Lookup follows a slash-separated path of member names through nested compounds,
// starting at t's value, and returns the value found or nil. The path "/Level/xPos"
// on a chunk root returns the xPos member of the Level compound. An empty path
// returns t's own value.
func (t NamedTag) Lookup(path string) Value {
	current := t.Value
	for _, name := range strings.Split(path, "/") {
		if name == "" {
			continue
		}
		compound, ok := current.(Compound)
		if !ok {
			return nil
		}
		if current, ok = compound.Get(name); !ok {
			return nil
		}
	}
	return current
}
