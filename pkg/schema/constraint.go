package schema

// Action is a referential action for ON DELETE / ON UPDATE clauses.
type Action string

// Referential actions.
const (
	NoAction   Action = "NO ACTION"
	Restrict   Action = "RESTRICT"
	SetNull    Action = "SET NULL"
	SetDefault Action = "SET DEFAULT"
	Cascade    Action = "CASCADE"
)

// validActions is the set of recognized referential actions.
var validActions = map[Action]bool{
	NoAction:   true,
	Restrict:   true,
	SetNull:    true,
	SetDefault: true,
	Cascade:    true,
}

// Valid reports whether the action is one of the recognized values.
func (a Action) Valid() bool { return validActions[a] }

// Unique is a declarative UNIQUE constraint over an ordered column list.
// All columns belong to the owning table and appear at most once.
type Unique struct {
	table   *Table
	columns []*Column
}

// Table returns the owning table.
func (u *Unique) Table() *Table { return u.table }

// Columns returns the constraint's columns in declaration order.
func (u *Unique) Columns() []*Column { return u.columns }

// ForeignKey relates an ordered list of local columns to a matching list
// of columns on a different table of the same snapshot. Self-referencing
// foreign keys are disallowed.
type ForeignKey struct {
	table         *Table
	target        *Table
	columns       []*Column
	targetColumns []*Column
	onDelete      Action
	onUpdate      Action
}

// Table returns the owning table.
func (fk *ForeignKey) Table() *Table { return fk.table }

// Target returns the referenced table.
func (fk *ForeignKey) Target() *Table { return fk.target }

// Columns returns the local columns in declaration order.
func (fk *ForeignKey) Columns() []*Column { return fk.columns }

// TargetColumns returns the referenced columns in declaration order.
func (fk *ForeignKey) TargetColumns() []*Column { return fk.targetColumns }

// OnDelete returns the ON DELETE action.
func (fk *ForeignKey) OnDelete() Action { return fk.onDelete }

// OnUpdate returns the ON UPDATE action.
func (fk *ForeignKey) OnUpdate() Action { return fk.onUpdate }

// Index is a named index over an ordered column list. Index names are
// unique at snapshot scope so the recreate bookkeeping can address them
// without qualification.
type Index struct {
	table   *Table
	name    string
	unique  bool
	columns []*Column
}

// Name returns the index name.
func (ix *Index) Name() string { return ix.name }

// Table returns the owning table.
func (ix *Index) Table() *Table { return ix.table }

// Unique reports whether the index enforces uniqueness.
func (ix *Index) Unique() bool { return ix.unique }

// Columns returns the indexed columns in declaration order.
func (ix *Index) Columns() []*Column { return ix.columns }
