package metaconfig

import (
	"strings"

	"github.com/and161185/metricspush/model"
)

// Resolution is the effective metadata of one record.
type Resolution struct {
	Family     string // post-alias name, not yet normalized
	Help       string
	Type       model.MetricType
	Labels     map[string]string
	Conflict   bool   // own and family types are both declared and differ
	OwnType    string // type declared on the record's own entry
	FamilyType string // type declared on the family's entry
}

// Resolve computes family, help, type and labels for rec.
//
// Precedence: the record's own entry, then the family's entry, then the record itself.
// Labels start from the alias labels and are overwritten by the record's tags.
func (c Config) Resolve(rec *model.Record) Resolution {
	own := c.Lookup(rec.Name)

	family := rec.Name
	if t := own.Target(); t != "" {
		family = t
	}
	fam := own
	if family != rec.Name {
		fam = c.Lookup(family)
	}

	res := Resolution{
		Family:     family,
		OwnType:    own.Meta.Type,
		FamilyType: fam.Meta.Type,
	}

	switch {
	case own.Meta.Help != "":
		res.Help = own.Meta.Help
	case fam.Meta.Help != "":
		res.Help = fam.Meta.Help
	}

	switch {
	case own.Meta.Type != "":
		res.Type, _ = model.ParseMetricType(own.Meta.Type)
	case fam.Meta.Type != "":
		res.Type, _ = model.ParseMetricType(fam.Meta.Type)
	default:
		res.Type = rec.Type
	}
	if res.Type == "" {
		res.Type = model.Gauge
	}

	res.Conflict = own.Meta.Type != "" && fam.Meta.Type != "" &&
		!strings.EqualFold(own.Meta.Type, fam.Meta.Type)

	res.Labels = mergeLabels(own.AliasLabels(), rec.Tags)
	return res
}

func mergeLabels(base, overlay map[string]string) map[string]string {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
