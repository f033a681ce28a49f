package metaconfig

import "github.com/and161185/metricspush/model"

// Kind tells which shape a config lookup produced.
type Kind int

const (
	Absent  Kind = iota // no entry for the name
	Plain               // entry without alias
	Aliased             // entry with alias
)

// Entry is the result of a config lookup.
type Entry struct {
	Kind Kind
	Meta model.ConfigEntry
}

// Lookup returns the entry for name.
func (c Config) Lookup(name string) Entry {
	meta, ok := c[name]
	switch {
	case !ok:
		return Entry{Kind: Absent}
	case meta.Alias != nil:
		return Entry{Kind: Aliased, Meta: meta}
	default:
		return Entry{Kind: Plain, Meta: meta}
	}
}

// Target returns the alias target, or "" unless the entry is Aliased.
func (e Entry) Target() string {
	if e.Kind != Aliased {
		return ""
	}
	return e.Meta.Alias.Name
}

// AliasLabels returns the labels injected by the alias, nil unless Aliased.
func (e Entry) AliasLabels() map[string]string {
	if e.Kind != Aliased {
		return nil
	}
	return e.Meta.Alias.Labels
}
