// Package declarative turns a user-authored schema definition into a
// snapshot. Definitions name column types by runtime class (string, int,
// float, bool, bytes, time) rather than storage type; the build maps each
// class to its canonical storage form and encodes default values as SQL
// literals.
package declarative

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/reshape/pkg/schema"
)

// ErrUnknownClass reports a column class with no storage mapping. This is
// fatal at the definition boundary: a definition that cannot be stored
// cannot be planned against.
var ErrUnknownClass = errors.New("unknown column class")

// Definition is the root of a declarative schema document.
type Definition struct {
	Tables []TableDef `yaml:"tables" mapstructure:"tables"`
}

// TableDef declares one table.
type TableDef struct {
	Name        string          `yaml:"name" mapstructure:"name"`
	Columns     []ColumnDef     `yaml:"columns" mapstructure:"columns"`
	PrimaryKey  []string        `yaml:"primary_key" mapstructure:"primary_key"`
	Uniques     [][]string      `yaml:"uniques" mapstructure:"uniques"`
	ForeignKeys []ForeignKeyDef `yaml:"foreign_keys" mapstructure:"foreign_keys"`
	Indexes     []IndexDef      `yaml:"indexes" mapstructure:"indexes"`
}

// ColumnDef declares one column by runtime class.
type ColumnDef struct {
	Name          string `yaml:"name" mapstructure:"name"`
	Class         string `yaml:"class" mapstructure:"class"`
	NotNull       bool   `yaml:"not_null" mapstructure:"not_null"`
	Default       any    `yaml:"default" mapstructure:"default"`
	AutoIncrement bool   `yaml:"auto_increment" mapstructure:"auto_increment"`
}

// ForeignKeyDef declares one foreign key toward another table in the
// same definition.
type ForeignKeyDef struct {
	Columns       []string `yaml:"columns" mapstructure:"columns"`
	Target        string   `yaml:"target" mapstructure:"target"`
	TargetColumns []string `yaml:"target_columns" mapstructure:"target_columns"`
	OnDelete      string   `yaml:"on_delete" mapstructure:"on_delete"`
	OnUpdate      string   `yaml:"on_update" mapstructure:"on_update"`
}

// IndexDef declares one secondary index.
type IndexDef struct {
	Name    string   `yaml:"name" mapstructure:"name"`
	Unique  bool     `yaml:"unique" mapstructure:"unique"`
	Columns []string `yaml:"columns" mapstructure:"columns"`
}

// classTypes maps runtime classes to canonical storage types. Booleans
// store as 0/1 integers and times as text, matching how the engine's
// drivers bind those classes.
var classTypes = map[string]schema.ColumnType{
	"string":   schema.TypeText,
	"text":     schema.TypeText,
	"int":      schema.TypeInteger,
	"integer":  schema.TypeInteger,
	"int64":    schema.TypeInteger,
	"bool":     schema.TypeInteger,
	"boolean":  schema.TypeInteger,
	"float":    schema.TypeReal,
	"float64":  schema.TypeReal,
	"real":     schema.TypeReal,
	"bytes":    schema.TypeBlob,
	"blob":     schema.TypeBlob,
	"time":     schema.TypeText,
	"datetime": schema.TypeText,
}

// Build materializes def into a snapshot. Tables and columns land in a
// first pass so foreign keys can resolve their targets in a second pass
// regardless of declaration order. The returned snapshot is verified.
func Build(def Definition) (*schema.Snapshot, error) {
	snap := schema.NewSnapshot()
	for _, td := range def.Tables {
		if err := buildTable(snap, td); err != nil {
			return nil, err
		}
	}
	for _, td := range def.Tables {
		if err := buildForeignKeys(snap, td); err != nil {
			return nil, err
		}
	}
	if err := snap.Verify(); err != nil {
		return nil, fmt.Errorf("verifying definition: %w", err)
	}
	return snap, nil
}

func buildTable(snap *schema.Snapshot, td TableDef) error {
	t, err := snap.CreateTable(td.Name)
	if err != nil {
		return fmt.Errorf("table %q: %w", td.Name, err)
	}
	for _, cd := range td.Columns {
		ctype, ok := classTypes[cd.Class]
		if !ok {
			return fmt.Errorf("%w: %q on column %q.%q", ErrUnknownClass, cd.Class, td.Name, cd.Name)
		}
		c, err := t.CreateColumn(cd.Name, ctype)
		if err != nil {
			return fmt.Errorf("column %q.%q: %w", td.Name, cd.Name, err)
		}
		c.SetNotNull(cd.NotNull)
		c.SetAutoIncrement(cd.AutoIncrement)
		if cd.Default != nil {
			literal, err := schema.EncodeDefault(cd.Default)
			if err != nil {
				return fmt.Errorf("default of %q.%q: %w", td.Name, cd.Name, err)
			}
			c.SetDefault(literal)
		}
	}
	for slot, name := range td.PrimaryKey {
		c, err := t.Column(name)
		if err != nil {
			return fmt.Errorf("primary key of %q: %w", td.Name, err)
		}
		if err := t.SetPrimaryKey(c, slot+1); err != nil {
			return fmt.Errorf("primary key of %q: %w", td.Name, err)
		}
	}
	for _, names := range td.Uniques {
		columns, err := resolveColumns(t, names)
		if err != nil {
			return fmt.Errorf("unique constraint of %q: %w", td.Name, err)
		}
		if _, err := t.AddUnique(columns...); err != nil {
			return fmt.Errorf("unique constraint of %q: %w", td.Name, err)
		}
	}
	for _, id := range td.Indexes {
		columns, err := resolveColumns(t, id.Columns)
		if err != nil {
			return fmt.Errorf("index %q on %q: %w", id.Name, td.Name, err)
		}
		if _, err := t.CreateIndex(id.Name, id.Unique, columns...); err != nil {
			return fmt.Errorf("index %q on %q: %w", id.Name, td.Name, err)
		}
	}
	return nil
}

func buildForeignKeys(snap *schema.Snapshot, td TableDef) error {
	if len(td.ForeignKeys) == 0 {
		return nil
	}
	t, err := snap.Table(td.Name)
	if err != nil {
		return fmt.Errorf("table %q: %w", td.Name, err)
	}
	for _, fd := range td.ForeignKeys {
		target, err := snap.Table(fd.Target)
		if err != nil {
			return fmt.Errorf("foreign key on %q: %w", td.Name, err)
		}
		local, err := resolveColumns(t, fd.Columns)
		if err != nil {
			return fmt.Errorf("foreign key on %q: %w", td.Name, err)
		}
		refs, err := resolveColumns(target, fd.TargetColumns)
		if err != nil {
			return fmt.Errorf("foreign key on %q: %w", td.Name, err)
		}
		if _, err := t.AddForeignKey(target, local, refs, action(fd.OnDelete), action(fd.OnUpdate)); err != nil {
			return fmt.Errorf("foreign key on %q: %w", td.Name, err)
		}
	}
	return nil
}

func resolveColumns(t *schema.Table, names []string) ([]*schema.Column, error) {
	columns := make([]*schema.Column, len(names))
	for i, name := range names {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		columns[i] = c
	}
	return columns, nil
}

func action(s string) schema.Action {
	if s == "" {
		return schema.NoAction
	}
	return schema.Action(s)
}
