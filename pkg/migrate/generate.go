package migrate

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/reshape/pkg/schema"
)

// Statement generation. Pure functions from schema entities to literal
// statement text; validation happened at model construction and
// classification time, so nothing here checks semantics.

// quoteIdent double-quotes an identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func joinIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

func columnNames(cols []*schema.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name()
	}
	return names
}

// renderColumn renders a column definition with the given default literal
// in place of the column's declared one. An unrecognized type renders
// without a type token.
func renderColumn(c *schema.Column, dflt string, hasDefault bool) string {
	parts := []string{quoteIdent(c.Name())}
	if c.Type() != schema.TypeUnknown {
		parts = append(parts, string(c.Type()))
	}
	if c.NotNull() {
		parts = append(parts, "NOT NULL")
	}
	if c.AutoIncrement() {
		parts = append(parts, "AUTO_INCREMENT")
	}
	if hasDefault {
		parts = append(parts, "DEFAULT "+dflt)
	}
	return strings.Join(parts, " ")
}

// columnDef renders a column definition with its declared default.
func columnDef(c *schema.Column) string {
	dflt, has := c.Default()
	return renderColumn(c, dflt, has)
}

// referencesClause renders the inline reference clause of a single-column
// foreign key.
func referencesClause(fk *schema.ForeignKey) string {
	return fmt.Sprintf("REFERENCES %s (%s) ON DELETE %s ON UPDATE %s",
		quoteIdent(fk.Target().Name()),
		quoteIdent(fk.TargetColumns()[0].Name()),
		fk.OnDelete(), fk.OnUpdate())
}

// createTableSQL renders a full CREATE TABLE statement for the table's
// shape under the given name (the shadow-table step creates the desired
// shape under a temporary name). Single-column foreign keys are rendered
// inline only when inlineRefs is set; the planner re-adds them through
// the global foreign-key phase instead, because a referenced table may
// not have its final shape yet when this statement runs.
func createTableSQL(t *schema.Table, name string, inlineRefs bool) string {
	var defs []string
	for _, c := range t.Columns() {
		def := columnDef(c)
		if inlineRefs {
			for _, fk := range t.ForeignKeys() {
				if len(fk.Columns()) == 1 && fk.Columns()[0] == c {
					def += " " + referencesClause(fk)
				}
			}
		}
		defs = append(defs, def)
	}
	if pk := t.PrimaryKey(); len(pk) > 0 {
		defs = append(defs, "PRIMARY KEY ("+joinIdents(columnNames(pk))+")")
	}
	for _, fk := range t.ForeignKeys() {
		if len(fk.Columns()) > 1 {
			defs = append(defs, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s) ON DELETE %s ON UPDATE %s",
				joinIdents(columnNames(fk.Columns())),
				quoteIdent(fk.Target().Name()),
				joinIdents(columnNames(fk.TargetColumns())),
				fk.OnDelete(), fk.OnUpdate()))
		}
	}
	for _, u := range t.Uniques() {
		defs = append(defs, "UNIQUE ("+joinIdents(columnNames(u.Columns()))+")")
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))
}

func dropTableSQL(name string) string {
	return "DROP TABLE " + quoteIdent(name)
}

func dropColumnSQL(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", quoteIdent(table), quoteIdent(column))
}

// addColumnStatements renders the statements that add a column to an
// existing table. A NOT NULL column without a declared default is added
// in two steps: first with a synthesized temporary default so existing
// rows obtain a legal value, then redefined to its real enforced shape.
func addColumnStatements(table string, c *schema.Column) []string {
	_, hasDefault := c.Default()
	if !c.NotNull() || hasDefault {
		return []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quoteIdent(table), columnDef(c))}
	}
	temp := "''"
	if c.Type().Numeric() {
		temp = "0"
	}
	return []string{
		fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quoteIdent(table), renderColumn(c, temp, true)),
		modifyColumnSQL(table, c, nil),
	}
}

// modifyColumnSQL redefines a column in place. With a foreign key it adds
// the reference clause; without one it re-states the bare definition,
// which is how a single-column foreign key is dropped on an engine that
// cannot alter constraints directly.
func modifyColumnSQL(table string, c *schema.Column, fk *schema.ForeignKey) string {
	def := columnDef(c)
	if fk != nil {
		def += " " + referencesClause(fk)
	}
	return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s", quoteIdent(table), def)
}

func createIndexSQL(ix *schema.Index) string {
	unique := ""
	if ix.Unique() {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
		unique, quoteIdent(ix.Name()), quoteIdent(ix.Table().Name()),
		joinIdents(columnNames(ix.Columns())))
}

func dropIndexSQL(name string) string {
	return "DROP INDEX IF EXISTS " + quoteIdent(name)
}

// shadowName synthesizes the randomized temporary name the recreate
// protocol builds its replacement table under.
func shadowName(table string) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return table + "_shadow_" + suffix
}

// recreateStatements renders the six-step recreate protocol for one
// table: current shape from, desired shape to.
//
//  1. Add every desired-only column to the current table, with a
//     temporary default: numeric types get 0; columns participating in
//     the desired primary key or a single-column UNIQUE get none yet;
//     otherwise the declared default if present.
//  2. Backfill each added unique-participating column with a distinct
//     synthesized random numeric value so the copy cannot collide.
//  3. Create the shadow table under a randomized temporary name with the
//     desired columns, primary key, uniques, and multi-column foreign
//     keys. Single-column references are re-added by the global phase.
//  4. Copy rows, selecting exactly the desired column list; current-only
//     columns are dropped by omission.
//  5. Drop the current table.
//  6. Rename the shadow to the original name.
func recreateStatements(from, to *schema.Table) []string {
	name := to.Name()
	var stmts []string

	mustBeUnique := uniqueSingleMembers(to)
	var backfill []string
	for _, c := range to.Columns() {
		if from.HasColumn(c.Name()) {
			continue
		}
		var dflt string
		var has bool
		switch {
		case c.Type().Numeric():
			dflt, has = "0", true
		case mustBeUnique[c.Name()]:
			// Left without a value until the backfill below.
		default:
			dflt, has = c.Default()
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s",
			quoteIdent(from.Name()), renderColumn(c, dflt, has)))
		if mustBeUnique[c.Name()] {
			backfill = append(backfill, c.Name())
		}
	}
	for _, column := range backfill {
		stmts = append(stmts, fmt.Sprintf("UPDATE %s SET %s = ABS(RANDOM())",
			quoteIdent(from.Name()), quoteIdent(column)))
	}

	shadow := shadowName(name)
	stmts = append(stmts, createTableSQL(to, shadow, false))

	cols := joinIdents(to.ColumnNames())
	stmts = append(stmts, fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		quoteIdent(shadow), cols, cols, quoteIdent(from.Name())))

	stmts = append(stmts, dropTableSQL(from.Name()))
	stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s RENAME TO %s",
		quoteIdent(shadow), quoteIdent(name)))
	return stmts
}

// uniqueSingleMembers returns the names of columns that participate in
// the table's primary key or in any single-column unique constraint.
func uniqueSingleMembers(t *schema.Table) map[string]bool {
	members := make(map[string]bool)
	for _, c := range t.PrimaryKey() {
		members[c.Name()] = true
	}
	for _, u := range t.Uniques() {
		if cols := u.Columns(); len(cols) == 1 {
			members[cols[0].Name()] = true
		}
	}
	return members
}
