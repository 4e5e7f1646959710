package migrate

import (
	"sort"
	"strings"

	"github.com/mesh-intelligence/reshape/pkg/schema"
)

// Recreate reasons, reported in trigger order. All but reasonChangedColumns
// are structural: they can invalidate declarations on referencing tables
// and therefore cascade foreign-key removal onto them.
const (
	reasonPrimaryKey     = "primary key"
	reasonUniques        = "uniques"
	reasonFKs            = "fks"
	reasonUniqueIndexes  = "unique indexes"
	reasonAddedColumns   = "added columns"
	reasonChangedColumns = "changed columns"
)

// tableChange is the classification result for one table present in both
// snapshots. A table with no reasons and no column bookkeeping is
// unchanged; reasons schedule a full recreation.
type tableChange struct {
	name       string
	reasons    []string
	structural bool // any structural trigger fired

	addedColumns   []string // present only in the desired table
	removedColumns []string // present only in the current table
}

func (tc *tableChange) recreate() bool { return len(tc.reasons) > 0 }

// classifyTable compares the current and desired shape of one table.
func classifyTable(from, to *schema.Table) *tableChange {
	tc := &tableChange{name: to.Name()}

	structural := func(reason string) {
		tc.reasons = append(tc.reasons, reason)
		tc.structural = true
	}

	if pkSignature(from) != pkSignature(to) {
		structural(reasonPrimaryKey)
	}
	if !equalSets(uniqueSignatures(from), uniqueSignatures(to)) {
		structural(reasonUniques)
	}
	if !equalSets(fkSignatures(from), fkSignatures(to)) {
		structural(reasonFKs)
	}
	if unmigratedUniqueIndex(from, to) {
		// A unique index the desired shape does not retain is migrated
		// into a declarative UNIQUE constraint, which only a rebuild can
		// express. An identically shaped unique index on the desired side
		// keeps the index as an index, so equal shapes stay stable.
		structural(reasonUniqueIndexes)
	}

	for _, name := range to.ColumnNames() {
		if !from.HasColumn(name) {
			tc.addedColumns = append(tc.addedColumns, name)
		}
	}
	if len(tc.addedColumns) > 0 {
		structural(reasonAddedColumns)
	}

	for _, name := range from.ColumnNames() {
		if !to.HasColumn(name) {
			tc.removedColumns = append(tc.removedColumns, name)
		}
	}

	if sharedColumnsEdited(from, to) {
		// A pure column edit forces a rebuild of this table but does not
		// cascade to referencing tables.
		tc.reasons = append(tc.reasons, reasonChangedColumns)
	}

	return tc
}

func sharedColumnsEdited(from, to *schema.Table) bool {
	for _, fc := range from.Columns() {
		tcol, err := to.Column(fc.Name())
		if err != nil {
			continue
		}
		if !fc.SameDefinition(tcol) {
			return true
		}
	}
	return false
}

// pkSignature renders the primary key as a name-sorted canonical form.
func pkSignature(t *schema.Table) string {
	pk := t.PrimaryKey()
	names := make([]string, len(pk))
	for i, c := range pk {
		names[i] = c.Name()
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// uniqueSignatures renders each unique constraint as its sorted column
// list, producing an order-independent set.
func uniqueSignatures(t *schema.Table) []string {
	var sigs []string
	for _, u := range t.Uniques() {
		names := make([]string, 0, len(u.Columns()))
		for _, c := range u.Columns() {
			names = append(names, c.Name())
		}
		sort.Strings(names)
		sigs = append(sigs, strings.Join(names, ","))
	}
	return sigs
}

// fkSignatures renders each foreign key in the canonical form
// local-columns->target-columns@target-table|onDelete|onUpdate.
func fkSignatures(t *schema.Table) []string {
	var sigs []string
	for _, fk := range t.ForeignKeys() {
		sigs = append(sigs, fkSignature(fk))
	}
	return sigs
}

func fkSignature(fk *schema.ForeignKey) string {
	local := make([]string, 0, len(fk.Columns()))
	for _, c := range fk.Columns() {
		local = append(local, c.Name())
	}
	target := make([]string, 0, len(fk.TargetColumns()))
	for _, c := range fk.TargetColumns() {
		target = append(target, c.Name())
	}
	return strings.Join(local, ",") + "->" + strings.Join(target, ",") +
		"@" + fk.Target().Name() +
		"|" + string(fk.OnDelete()) + "|" + string(fk.OnUpdate())
}

// unmigratedUniqueIndex reports whether the current table carries a
// unique index whose shape no desired unique index matches, ignoring
// the index name. Renames of an otherwise identical unique index are
// handled by the per-name index diff instead of a rebuild.
func unmigratedUniqueIndex(from, to *schema.Table) bool {
	retained := make(map[string]bool)
	for _, ix := range to.Indexes() {
		if ix.Unique() {
			retained[indexSignature(ix)] = true
		}
	}
	for _, ix := range from.Indexes() {
		if ix.Unique() && !retained[indexSignature(ix)] {
			return true
		}
	}
	return false
}

// indexSignature renders an index's identity-relevant shape: owning table,
// uniqueness, and ordered column list. The (snapshot-unique) name is the
// lookup key and compared by the caller.
func indexSignature(ix *schema.Index) string {
	names := make([]string, 0, len(ix.Columns()))
	for _, c := range ix.Columns() {
		names = append(names, c.Name())
	}
	unique := "0"
	if ix.Unique() {
		unique = "1"
	}
	return ix.Table().Name() + "|" + unique + "|" + strings.Join(names, ",")
}

// equalSets compares two signature lists as order-independent sets.
func equalSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
