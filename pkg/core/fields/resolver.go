package fields

import "fmt"

type indexed struct {
	field  Field
	family Family
	label  string
}

var (
	canonical map[Field]indexed
	aliases   map[string]indexed
	ordered   []Field
)

func init() {
	canonical, aliases, ordered = buildIndex(catalog)
}

// buildIndex precomputes the reverse alias index. A surface string claimed by
// two different fields is a catalog bug and panics at startup.
func buildIndex(cat map[Family][]entry) (map[Field]indexed, map[string]indexed, []Field) {
	byField := make(map[Field]indexed)
	byAlias := make(map[string]indexed)
	var order []Field

	claim := func(s string, ix indexed) {
		if prev, ok := byAlias[s]; ok && prev.field != ix.field {
			panic(fmt.Sprintf("fields: alias %q claimed by both %s and %s", s, prev.field, ix.field))
		}
		byAlias[s] = ix
	}

	for _, fam := range Families {
		for _, e := range cat[fam] {
			if _, dup := byField[e.field]; dup {
				panic(fmt.Sprintf("fields: canonical field %s declared twice", e.field))
			}
			ix := indexed{field: e.field, family: fam, label: e.label}
			byField[e.field] = ix
			order = append(order, e.field)
			claim(e.label, ix)
			for _, a := range e.aliases {
				claim(a, ix)
			}
		}
	}

	// A canonical identifier must never double as another field's alias.
	for f, ix := range byField {
		if prev, ok := byAlias[string(f)]; ok && prev.field != ix.field {
			panic(fmt.Sprintf("fields: canonical name %s is an alias of %s", f, prev.field))
		}
	}
	return byField, byAlias, order
}

// Resolve maps a raw label onto its canonical field name. The canonical
// identifier itself matches first, then the alias lists in family order.
// Labels that match nothing come back unchanged.
func Resolve(label string) string {
	if f, ok := Lookup(label); ok {
		return string(f)
	}
	return label
}

// Lookup is Resolve with an explicit hit flag.
func Lookup(label string) (Field, bool) {
	if ix, ok := canonical[Field(label)]; ok {
		return ix.field, true
	}
	if ix, ok := aliases[label]; ok {
		return ix.field, true
	}
	return "", false
}

// IsCanonical reports whether key is one of the catalog identifiers.
func IsCanonical(key string) bool {
	_, ok := canonical[Field(key)]
	return ok
}

// FamilyOf returns the statement family a label resolves into.
func FamilyOf(label string) (Family, bool) {
	f, ok := Lookup(label)
	if !ok {
		return 0, false
	}
	return canonical[f].family, true
}

// Label returns the Chinese display name of a field, or the identifier when
// the field is not in the catalog.
func Label(f Field) string {
	if ix, ok := canonical[f]; ok {
		return ix.label
	}
	return string(f)
}

// Aliases returns the surface forms registered for f, display label first.
func Aliases(f Field) []string {
	ix, ok := canonical[f]
	if !ok {
		return nil
	}
	for _, e := range catalog[ix.family] {
		if e.field == f {
			out := make([]string, 0, len(e.aliases)+1)
			out = append(out, e.label)
			return append(out, e.aliases...)
		}
	}
	return nil
}

// All lists every canonical field in catalog order.
func All() []Field {
	out := make([]Field, len(ordered))
	copy(out, ordered)
	return out
}

// ByFamily lists the canonical fields of one family in catalog order.
func ByFamily(fam Family) []Field {
	entries := catalog[fam]
	out := make([]Field, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.field)
	}
	return out
}

func IsBalanceSheetItem(label string) bool    { return inFamily(label, BalanceSheet) }
func IsIncomeStatementItem(label string) bool { return inFamily(label, IncomeStatement) }
func IsCashFlowItem(label string) bool        { return inFamily(label, CashFlow) }

func inFamily(label string, fam Family) bool {
	got, ok := FamilyOf(label)
	return ok && got == fam
}
