package schema

// Table is a named collection of columns, primary-key slots, unique
// constraints, foreign keys, and indexes. A Table is exclusively owned by
// one Snapshot and is created through Snapshot.CreateTable.
type Table struct {
	snapshot *Snapshot
	name     string

	columns     map[string]*Column
	columnOrder []string // insertion order; determines emitted DDL column order

	primaryKey  []*Column
	uniques     []*Unique
	foreignKeys []*ForeignKey
	indexes     map[string]*Index
	indexOrder  []string
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Snapshot returns the owning snapshot.
func (t *Table) Snapshot() *Snapshot { return t.snapshot }

// CreateColumn creates a column with the given name and canonical type and
// links it to the table. Returns ErrDuplicateName if a column with that
// name already exists.
func (t *Table) CreateColumn(name string, ctype ColumnType) (*Column, error) {
	if name == "" {
		return nil, structuralf("table %q: empty column name", t.name)
	}
	if _, ok := t.columns[name]; ok {
		return nil, duplicated("column", t.name, name)
	}
	c := &Column{table: t, name: name, ctype: ctype}
	t.columns[name] = c
	t.columnOrder = append(t.columnOrder, name)
	return c, nil
}

// Column returns the column with the given name.
// Returns ErrNotFound if no such column exists.
func (t *Table) Column(name string) (*Column, error) {
	c, ok := t.columns[name]
	if !ok {
		return nil, missing("column", t.name, name)
	}
	return c, nil
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// Columns returns all columns in insertion order.
func (t *Table) Columns() []*Column {
	cols := make([]*Column, 0, len(t.columnOrder))
	for _, name := range t.columnOrder {
		cols = append(cols, t.columns[name])
	}
	return cols
}

// ColumnNames returns the column names in insertion order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columnOrder))
	copy(names, t.columnOrder)
	return names
}

// RemoveColumn removes the named column and every reference to it in the
// primary key, unique constraints, foreign keys, and indexes of this
// table. Returns ErrNotFound if no such column exists.
func (t *Table) RemoveColumn(name string) error {
	c, ok := t.columns[name]
	if !ok {
		return missing("column", t.name, name)
	}
	delete(t.columns, name)
	t.columnOrder = removeString(t.columnOrder, name)

	t.primaryKey = removeColumn(t.primaryKey, c)

	var uniques []*Unique
	for _, u := range t.uniques {
		u.columns = removeColumn(u.columns, c)
		if len(u.columns) > 0 {
			uniques = append(uniques, u)
		}
	}
	t.uniques = uniques

	var fks []*ForeignKey
	for _, fk := range t.foreignKeys {
		if containsColumn(fk.columns, c) {
			continue // a foreign key cannot survive losing a member column
		}
		fks = append(fks, fk)
	}
	t.foreignKeys = fks

	for _, ixName := range append([]string(nil), t.indexOrder...) {
		ix := t.indexes[ixName]
		if containsColumn(ix.columns, c) {
			t.dropIndex(ixName)
		}
	}
	return nil
}

// RenameColumn remaps the column identity from old to new. The column
// object itself is reused, so constraints referencing it stay valid.
func (t *Table) RenameColumn(oldName, newName string) error {
	c, ok := t.columns[oldName]
	if !ok {
		return missing("column", t.name, oldName)
	}
	if newName == "" {
		return structuralf("table %q: empty column name", t.name)
	}
	if _, ok := t.columns[newName]; ok {
		return duplicated("column", t.name, newName)
	}
	delete(t.columns, oldName)
	c.name = newName
	t.columns[newName] = c
	for i, n := range t.columnOrder {
		if n == oldName {
			t.columnOrder[i] = newName
			break
		}
	}
	return nil
}

// SetPrimaryKey assigns the column to primary-key slot n (1-based). Slots
// must be filled contiguously: n has to be exactly one past the last
// assigned slot, and a column can appear only once. Violations return a
// structural violation error.
func (t *Table) SetPrimaryKey(c *Column, slot int) error {
	if c == nil || c.table != t {
		return structuralf("table %q: primary key column does not belong to this table", t.name)
	}
	if slot < 1 {
		return structuralf("table %q: primary key slot %d is not positive", t.name, slot)
	}
	if slot <= len(t.primaryKey) {
		return structuralf("table %q: primary key slot %d already occupied", t.name, slot)
	}
	if slot != len(t.primaryKey)+1 {
		return structuralf("table %q: primary key slot %d would leave slot %d unset",
			t.name, slot, len(t.primaryKey)+1)
	}
	if containsColumn(t.primaryKey, c) {
		return structuralf("table %q: column %q already part of the primary key", t.name, c.name)
	}
	t.primaryKey = append(t.primaryKey, c)
	return nil
}

// PrimaryKey returns the primary-key columns in slot order.
func (t *Table) PrimaryKey() []*Column {
	pk := make([]*Column, len(t.primaryKey))
	copy(pk, t.primaryKey)
	return pk
}

// AddUnique appends a UNIQUE constraint over the given columns.
// Returns a structural violation if the list is empty, contains a
// duplicate, or references a column of another table.
func (t *Table) AddUnique(columns ...*Column) (*Unique, error) {
	if len(columns) == 0 {
		return nil, structuralf("table %q: unique constraint with no columns", t.name)
	}
	seen := make(map[*Column]bool, len(columns))
	for _, c := range columns {
		if c == nil || c.table != t {
			return nil, structuralf("table %q: unique constraint references a foreign column", t.name)
		}
		if seen[c] {
			return nil, structuralf("table %q: duplicate column %q in unique constraint", t.name, c.name)
		}
		seen[c] = true
	}
	u := &Unique{table: t, columns: append([]*Column(nil), columns...)}
	t.uniques = append(t.uniques, u)
	return u, nil
}

// Uniques returns the table's unique constraints in declaration order.
func (t *Table) Uniques() []*Unique {
	us := make([]*Unique, len(t.uniques))
	copy(us, t.uniques)
	return us
}

// AddForeignKey appends a foreign key relating columns of this table to
// targetColumns on target. The target must be a different table of the
// same snapshot, the lists must be equal-length, non-empty, and free of
// duplicates, and each action must be recognized.
func (t *Table) AddForeignKey(target *Table, columns, targetColumns []*Column, onDelete, onUpdate Action) (*ForeignKey, error) {
	if target == nil {
		return nil, structuralf("table %q: foreign key without a target table", t.name)
	}
	if target == t {
		return nil, structuralf("table %q: self-referencing foreign key", t.name)
	}
	if target.snapshot != t.snapshot {
		return nil, structuralf("table %q: foreign key targets table %q of another snapshot", t.name, target.name)
	}
	if len(columns) == 0 || len(columns) != len(targetColumns) {
		return nil, structuralf("table %q: foreign key column lists must be non-empty and equal-length", t.name)
	}
	if !onDelete.Valid() || !onUpdate.Valid() {
		return nil, structuralf("table %q: unrecognized referential action", t.name)
	}
	seenLocal := make(map[*Column]bool, len(columns))
	seenTarget := make(map[*Column]bool, len(targetColumns))
	for i := range columns {
		lc, tc := columns[i], targetColumns[i]
		if lc == nil || lc.table != t {
			return nil, structuralf("table %q: foreign key references a column of another table", t.name)
		}
		if tc == nil || tc.table != target {
			return nil, structuralf("table %q: foreign key target column does not belong to %q", t.name, target.name)
		}
		if seenLocal[lc] {
			return nil, structuralf("table %q: duplicate column %q in foreign key", t.name, lc.name)
		}
		if seenTarget[tc] {
			return nil, structuralf("table %q: duplicate target column %q in foreign key", t.name, tc.name)
		}
		seenLocal[lc] = true
		seenTarget[tc] = true
	}
	fk := &ForeignKey{
		table:         t,
		target:        target,
		columns:       append([]*Column(nil), columns...),
		targetColumns: append([]*Column(nil), targetColumns...),
		onDelete:      onDelete,
		onUpdate:      onUpdate,
	}
	t.foreignKeys = append(t.foreignKeys, fk)
	return fk, nil
}

// ForeignKeys returns the table's foreign keys in declaration order.
func (t *Table) ForeignKeys() []*ForeignKey {
	fks := make([]*ForeignKey, len(t.foreignKeys))
	copy(fks, t.foreignKeys)
	return fks
}

// RemoveForeignKey removes the given foreign key from the table.
// Returns ErrNotFound if the key does not belong to the table.
func (t *Table) RemoveForeignKey(fk *ForeignKey) error {
	for i, have := range t.foreignKeys {
		if have == fk {
			t.foreignKeys = append(t.foreignKeys[:i], t.foreignKeys[i+1:]...)
			return nil
		}
	}
	return missing("foreign key", t.name, "")
}

// CreateIndex creates a named index over the given columns. Index names
// are unique across the whole snapshot; the columns must belong to this
// table and appear at most once.
func (t *Table) CreateIndex(name string, unique bool, columns ...*Column) (*Index, error) {
	if name == "" {
		return nil, structuralf("table %q: empty index name", t.name)
	}
	if owner, ok := t.snapshot.indexOwner[name]; ok {
		return nil, duplicated("index", owner, name)
	}
	if len(columns) == 0 {
		return nil, structuralf("table %q: index %q with no columns", t.name, name)
	}
	seen := make(map[*Column]bool, len(columns))
	for _, c := range columns {
		if c == nil || c.table != t {
			return nil, structuralf("table %q: index %q references a foreign column", t.name, name)
		}
		if seen[c] {
			return nil, structuralf("table %q: duplicate column %q in index %q", t.name, c.name, name)
		}
		seen[c] = true
	}
	ix := &Index{table: t, name: name, unique: unique, columns: append([]*Column(nil), columns...)}
	t.indexes[name] = ix
	t.indexOrder = append(t.indexOrder, name)
	t.snapshot.indexOwner[name] = t.name
	return ix, nil
}

// Index returns the index with the given name.
// Returns ErrNotFound if no such index exists on this table.
func (t *Table) Index(name string) (*Index, error) {
	ix, ok := t.indexes[name]
	if !ok {
		return nil, missing("index", t.name, name)
	}
	return ix, nil
}

// Indexes returns the table's indexes in creation order.
func (t *Table) Indexes() []*Index {
	ixs := make([]*Index, 0, len(t.indexOrder))
	for _, name := range t.indexOrder {
		ixs = append(ixs, t.indexes[name])
	}
	return ixs
}

// RemoveIndex removes the named index.
// Returns ErrNotFound if no such index exists on this table.
func (t *Table) RemoveIndex(name string) error {
	if _, ok := t.indexes[name]; !ok {
		return missing("index", t.name, name)
	}
	t.dropIndex(name)
	return nil
}

func (t *Table) dropIndex(name string) {
	delete(t.indexes, name)
	t.indexOrder = removeString(t.indexOrder, name)
	delete(t.snapshot.indexOwner, name)
}

func removeString(list []string, s string) []string {
	for i, have := range list {
		if have == s {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func removeColumn(list []*Column, c *Column) []*Column {
	for i, have := range list {
		if have == c {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func containsColumn(list []*Column, c *Column) bool {
	for _, have := range list {
		if have == c {
			return true
		}
	}
	return false
}
