package schema

// Verify re-checks every structural invariant across the whole snapshot:
// ownership back-links, name uniqueness, constraint membership, and
// primary-key slot assignment. The factory methods enforce the same rules
// at construction time; Verify exists as the explicit gate the diff engine
// runs before any statement is generated, so a snapshot mutated through a
// bug cannot produce destructive statements.
func (s *Snapshot) Verify() error {
	seenIndexes := make(map[string]string)
	for _, name := range s.tableOrder {
		t, ok := s.tables[name]
		if !ok || t.name != name {
			return structuralf("table registry out of sync for %q", name)
		}
		if t.snapshot != s {
			return structuralf("table %q is not linked to this snapshot", name)
		}
		if err := t.verify(seenIndexes); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) verify(seenIndexes map[string]string) error {
	for _, name := range t.columnOrder {
		c, ok := t.columns[name]
		if !ok || c.name != name {
			return structuralf("table %q: column registry out of sync for %q", t.name, name)
		}
		if c.table != t {
			return structuralf("table %q: column %q is not linked to this table", t.name, name)
		}
	}
	if len(t.columnOrder) != len(t.columns) {
		return structuralf("table %q: column registry out of sync", t.name)
	}

	seenPK := make(map[*Column]bool, len(t.primaryKey))
	for _, c := range t.primaryKey {
		if c.table != t {
			return structuralf("table %q: primary key references a foreign column", t.name)
		}
		if seenPK[c] {
			return structuralf("table %q: column %q assigned to two primary key slots", t.name, c.name)
		}
		seenPK[c] = true
	}

	for _, u := range t.uniques {
		if len(u.columns) == 0 {
			return structuralf("table %q: unique constraint with no columns", t.name)
		}
		seen := make(map[*Column]bool, len(u.columns))
		for _, c := range u.columns {
			if c.table != t {
				return structuralf("table %q: unique constraint references a foreign column", t.name)
			}
			if seen[c] {
				return structuralf("table %q: duplicate column %q in unique constraint", t.name, c.name)
			}
			seen[c] = true
		}
	}

	for _, fk := range t.foreignKeys {
		if fk.target == t {
			return structuralf("table %q: self-referencing foreign key", t.name)
		}
		if fk.target == nil || fk.target.snapshot != t.snapshot {
			return structuralf("table %q: foreign key targets a table outside this snapshot", t.name)
		}
		if !t.snapshot.HasTable(fk.target.name) {
			return structuralf("table %q: foreign key targets removed table %q", t.name, fk.target.name)
		}
		if len(fk.columns) == 0 || len(fk.columns) != len(fk.targetColumns) {
			return structuralf("table %q: foreign key column lists must be non-empty and equal-length", t.name)
		}
		seenLocal := make(map[*Column]bool, len(fk.columns))
		seenTarget := make(map[*Column]bool, len(fk.targetColumns))
		for i := range fk.columns {
			lc, tc := fk.columns[i], fk.targetColumns[i]
			if lc.table != t {
				return structuralf("table %q: foreign key references a column of another table", t.name)
			}
			if tc.table != fk.target {
				return structuralf("table %q: foreign key target column does not belong to %q", t.name, fk.target.name)
			}
			if seenLocal[lc] || seenTarget[tc] {
				return structuralf("table %q: duplicate column in foreign key", t.name)
			}
			seenLocal[lc] = true
			seenTarget[tc] = true
		}
		if !fk.onDelete.Valid() || !fk.onUpdate.Valid() {
			return structuralf("table %q: unrecognized referential action", t.name)
		}
	}

	for _, name := range t.indexOrder {
		ix, ok := t.indexes[name]
		if !ok || ix.name != name {
			return structuralf("table %q: index registry out of sync for %q", t.name, name)
		}
		if owner, dup := seenIndexes[name]; dup {
			return structuralf("index %q declared on both %q and %q", name, owner, t.name)
		}
		seenIndexes[name] = t.name
		if owner, ok := t.snapshot.indexOwner[name]; !ok || owner != t.name {
			return structuralf("table %q: index %q missing from the snapshot registry", t.name, name)
		}
		if len(ix.columns) == 0 {
			return structuralf("table %q: index %q with no columns", t.name, name)
		}
		for _, c := range ix.columns {
			if c.table != t {
				return structuralf("table %q: index %q references a foreign column", t.name, name)
			}
		}
	}
	return nil
}
