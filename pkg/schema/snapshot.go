package schema

// Snapshot is a point-in-time schema: an insertion-ordered, name-unique
// collection of tables. It also tracks index names at snapshot scope.
type Snapshot struct {
	tables     map[string]*Table
	tableOrder []string
	indexOwner map[string]string // index name -> owning table name
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		tables:     make(map[string]*Table),
		indexOwner: make(map[string]string),
	}
}

// CreateTable creates a table with the given name and links it to the
// snapshot. Returns ErrDuplicateName if a table with that name exists.
func (s *Snapshot) CreateTable(name string) (*Table, error) {
	if name == "" {
		return nil, structuralf("empty table name")
	}
	if _, ok := s.tables[name]; ok {
		return nil, duplicated("table", name, name)
	}
	t := &Table{
		snapshot: s,
		name:     name,
		columns:  make(map[string]*Column),
		indexes:  make(map[string]*Index),
	}
	s.tables[name] = t
	s.tableOrder = append(s.tableOrder, name)
	return t, nil
}

// Table returns the table with the given name.
// Returns ErrNotFound if no such table exists.
func (s *Snapshot) Table(name string) (*Table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, missing("table", name, "")
	}
	return t, nil
}

// HasTable reports whether a table with the given name exists.
func (s *Snapshot) HasTable(name string) bool {
	_, ok := s.tables[name]
	return ok
}

// Tables returns all tables in insertion order.
func (s *Snapshot) Tables() []*Table {
	ts := make([]*Table, 0, len(s.tableOrder))
	for _, name := range s.tableOrder {
		ts = append(ts, s.tables[name])
	}
	return ts
}

// Empty reports whether the snapshot contains no tables.
func (s *Snapshot) Empty() bool { return len(s.tables) == 0 }

// IndexByName resolves an index by its snapshot-unique name.
func (s *Snapshot) IndexByName(name string) (*Index, bool) {
	owner, ok := s.indexOwner[name]
	if !ok {
		return nil, false
	}
	t, ok := s.tables[owner]
	if !ok {
		return nil, false
	}
	ix, ok := t.indexes[name]
	return ix, ok
}

// RemoveTable removes the named table and its index registrations.
// Returns ErrNotFound if no such table exists, and a structural violation
// if another table still holds a foreign key targeting it.
func (s *Snapshot) RemoveTable(name string) error {
	t, ok := s.tables[name]
	if !ok {
		return missing("table", name, "")
	}
	for _, other := range s.tables {
		if other == t {
			continue
		}
		for _, fk := range other.foreignKeys {
			if fk.target == t {
				return structuralf("table %q is still referenced by a foreign key on %q", name, other.name)
			}
		}
	}
	for ixName := range t.indexes {
		delete(s.indexOwner, ixName)
	}
	delete(s.tables, name)
	s.tableOrder = removeString(s.tableOrder, name)
	return nil
}

// RenameTable remaps the table identity from old to new. The table object
// is reused, so foreign keys targeting it stay valid.
func (s *Snapshot) RenameTable(oldName, newName string) error {
	t, ok := s.tables[oldName]
	if !ok {
		return missing("table", oldName, "")
	}
	if newName == "" {
		return structuralf("empty table name")
	}
	if _, ok := s.tables[newName]; ok {
		return duplicated("table", newName, newName)
	}
	delete(s.tables, oldName)
	t.name = newName
	s.tables[newName] = t
	for i, n := range s.tableOrder {
		if n == oldName {
			s.tableOrder[i] = newName
			break
		}
	}
	for ixName := range t.indexes {
		s.indexOwner[ixName] = newName
	}
	return nil
}
