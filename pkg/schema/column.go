package schema

// ColumnType is one of the five canonical storage types, or the empty
// TypeUnknown sentinel for source types that could not be mapped. An
// unknown type survives introspection (with a warning) but is unusable
// for statement generation.
type ColumnType string

// Canonical column types.
const (
	TypeInteger ColumnType = "INTEGER"
	TypeText    ColumnType = "TEXT"
	TypeReal    ColumnType = "REAL"
	TypeBlob    ColumnType = "BLOB"
	TypeNull    ColumnType = "NULL"
	TypeUnknown ColumnType = ""
)

// Numeric reports whether the type takes numeric literals. Used when a
// temporary default has to be synthesized for existing rows.
func (t ColumnType) Numeric() bool {
	return t == TypeInteger || t == TypeReal
}

// Column is a single table column. Its identity is its name within the
// owning table; renaming goes through Table.RenameColumn, which remaps
// the identity key.
type Column struct {
	table *Table

	name          string
	ctype         ColumnType
	notNull       bool
	dflt          string // SQL-encoded literal, valid only when hasDefault
	hasDefault    bool
	autoIncrement bool
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Type returns the canonical column type.
func (c *Column) Type() ColumnType { return c.ctype }

// Table returns the owning table.
func (c *Column) Table() *Table { return c.table }

// NotNull reports whether the column carries a NOT NULL constraint.
func (c *Column) NotNull() bool { return c.notNull }

// SetNotNull sets or clears the NOT NULL constraint.
func (c *Column) SetNotNull(notNull bool) { c.notNull = notNull }

// Default returns the SQL-encoded default literal and whether one is set.
func (c *Column) Default() (string, bool) { return c.dflt, c.hasDefault }

// SetDefault sets the default to an already SQL-encoded literal.
func (c *Column) SetDefault(literal string) {
	c.dflt = literal
	c.hasDefault = true
}

// ClearDefault removes the default literal.
func (c *Column) ClearDefault() {
	c.dflt = ""
	c.hasDefault = false
}

// AutoIncrement reports whether the auto-increment flag is set.
func (c *Column) AutoIncrement() bool { return c.autoIncrement }

// SetAutoIncrement sets the auto-increment flag. The flag is rendered in
// generated statements but carries no further semantics here.
func (c *Column) SetAutoIncrement(v bool) { c.autoIncrement = v }

// SameDefinition reports whether two columns agree on type, nullability,
// and default literal. Names are compared by the caller.
func (c *Column) SameDefinition(other *Column) bool {
	if c.ctype != other.ctype || c.notNull != other.notNull {
		return false
	}
	if c.hasDefault != other.hasDefault {
		return false
	}
	return !c.hasDefault || c.dflt == other.dflt
}
