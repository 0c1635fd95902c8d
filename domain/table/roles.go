package table

import (
	"sort"
	"strings"
	"time"

	"clinaudit/domain/core"
)

// Role is the semantic role a column plays during an audit. Roles are
// derived from names and dtypes, never stored.
type Role string

const (
	RoleTarget     Role = "target"
	RoleIdentifier Role = "identifier"
	RoleCognitive  Role = "cognitive"
	RoleSite       Role = "site"
	RoleTemporal   Role = "temporal"
	RoleFeature    Role = "feature"
)

// TokenTable maps a role to the lowercase substrings that mark a column as
// playing that role. It is plain data so deployments can extend token lists
// without touching the resolution logic.
type TokenTable map[Role][]string

// DefaultTokenTable returns the built-in role tokens.
func DefaultTokenTable() TokenTable {
	return TokenTable{
		RoleIdentifier: {"patientid", "id", "identifier", "doctorincharge"},
		RoleCognitive: {
			"mmse", "functional", "adl", "memory", "behavior", "behaviour",
			"confusion", "disorientation", "personality",
		},
		RoleSite:     {"site", "hospital", "center", "centre", "clinic", "location"},
		RoleTemporal: {"date", "year"},
	}
}

// Preferred target names and fallback hint words, checked in order.
var (
	targetPreferred = []core.ColumnName{"Diagnosis", "diagnosis"}
	targetHints     = []string{"diagnosis", "label", "target", "alz", "outcome"}
)

// ColumnsWithRole returns the names whose lowercased form contains any of the
// role's tokens, deduplicated and sorted for deterministic output.
func (tt TokenTable) ColumnsWithRole(d *Dataset, role Role) []core.ColumnName {
	tokens := tt[role]
	seen := map[core.ColumnName]struct{}{}
	var out []core.ColumnName
	for _, name := range d.Names() {
		lower := strings.ToLower(name.String())
		for _, tok := range tokens {
			if strings.Contains(lower, tok) {
				if _, dup := seen[name]; !dup {
					seen[name] = struct{}{}
					out = append(out, name)
				}
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// columnsWithRoleUnsorted preserves dataset column order; the temporal probe
// needs "first matched" semantics rather than alphabetical order.
func (tt TokenTable) columnsWithRoleUnsorted(d *Dataset, role Role) []core.ColumnName {
	tokens := tt[role]
	var out []core.ColumnName
	for _, name := range d.Names() {
		lower := strings.ToLower(name.String())
		for _, tok := range tokens {
			if strings.Contains(lower, tok) {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// DetectTarget resolves the target column. Resolution order: preferred exact
// names, case-insensitive hint match, then a single binary-valued column.
// Two or more binary candidates is an ambiguity, not a choice to make.
func DetectTarget(d *Dataset) (core.ColumnName, error) {
	for _, name := range targetPreferred {
		if d.HasColumn(name) {
			return name, nil
		}
	}

	lower := map[string]core.ColumnName{}
	for _, name := range d.Names() {
		lower[strings.ToLower(name.String())] = name
	}
	for _, hint := range targetHints {
		if name, ok := lower[hint]; ok {
			return name, nil
		}
	}

	var binary []core.ColumnName
	for _, c := range d.Columns() {
		if c.IsBinary() {
			binary = append(binary, c.Name)
		}
	}
	if len(binary) == 1 {
		return binary[0], nil
	}
	return "", core.NewTargetAmbiguousError(binary)
}

// IdentifierColumns returns the id-like columns.
func (tt TokenTable) IdentifierColumns(d *Dataset) []core.ColumnName {
	return tt.ColumnsWithRole(d, RoleIdentifier)
}

// CognitiveColumns returns the cognitive/composite score columns.
func (tt TokenTable) CognitiveColumns(d *Dataset) []core.ColumnName {
	return tt.ColumnsWithRole(d, RoleCognitive)
}

// SiteColumn returns the first site/group column, if any.
func (tt TokenTable) SiteColumn(d *Dataset) (core.ColumnName, bool) {
	candidates := tt.ColumnsWithRole(d, RoleSite)
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0], true
}

// Layouts probed when checking whether a column's values are dates.
var dateLayouts = []string{
	"2006-01-02", "2006/01/02", "01/02/2006", "2006-01-02 15:04:05",
	time.RFC3339,
}

// TemporalColumn returns the temporal column, if any. Among name-matched
// candidates it prefers the first whose values parse as dates, then the first
// integer-typed one (years), then the first match with no value validation.
func (tt TokenTable) TemporalColumn(d *Dataset) (core.ColumnName, bool) {
	candidates := tt.columnsWithRoleUnsorted(d, RoleTemporal)
	if len(candidates) == 0 {
		return "", false
	}
	for _, name := range candidates {
		c, _ := d.Column(name)
		if columnParsesAsDates(c) {
			return name, true
		}
	}
	for _, name := range candidates {
		c, _ := d.Column(name)
		if c.IsIntegerTyped() {
			return name, true
		}
	}
	return candidates[0], true
}

func columnParsesAsDates(c Column) bool {
	if c.DType != DTypeCategorical {
		return false
	}
	probed := false
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			continue
		}
		probed = true
		if _, ok := parseDate(c.Strings[i]); !ok {
			return false
		}
	}
	return probed
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTemporal converts a temporal column value at row i to a sortable key.
// Dates sort by epoch; numeric years sort by value; anything else sorts by
// its raw string.
func ParseTemporal(c Column, i int) (float64, string) {
	if c.DType == DTypeNumeric {
		return c.Floats[i], ""
	}
	if t, ok := parseDate(c.Strings[i]); ok {
		return float64(t.Unix()), ""
	}
	return 0, c.Strings[i]
}
