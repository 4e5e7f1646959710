// Package introspect builds a schema snapshot from a live SQLite
// database by reading its catalog: table names from sqlite_master, then
// per-table column, index, and foreign-key rows from the corresponding
// PRAGMAs. Engine-internal tables are skipped, and an optional name
// prefix restricts which tables populate the snapshot.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mesh-intelligence/reshape/pkg/schema"
)

// Options configures introspection.
type Options struct {
	// Prefix, when non-empty, restricts the snapshot to tables whose
	// name carries the prefix.
	Prefix string

	// Logger receives non-fatal warnings (unmapped column types,
	// unresolvable foreign-key targets). Defaults to slog.Default().
	Logger *slog.Logger
}

// FromDB reads the catalog of db into a fresh snapshot. Two passes:
// tables with their columns, primary keys, uniques, and indexes first,
// then every foreign key, so targets are resolvable regardless of
// catalog order. A foreign key whose target was filtered out of the
// snapshot is dropped with a warning rather than failing the build.
func FromDB(ctx context.Context, db *sql.DB, opts Options) (*schema.Snapshot, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	names, err := tableNames(ctx, db, opts.Prefix)
	if err != nil {
		return nil, err
	}

	snap := schema.NewSnapshot()
	for _, name := range names {
		t, err := snap.CreateTable(name)
		if err != nil {
			return nil, fmt.Errorf("adding table %q: %w", name, err)
		}
		if err := loadColumns(ctx, db, t, log); err != nil {
			return nil, err
		}
		if err := loadIndexes(ctx, db, t); err != nil {
			return nil, err
		}
	}
	for _, name := range names {
		t, err := snap.Table(name)
		if err != nil {
			return nil, fmt.Errorf("resolving table %q: %w", name, err)
		}
		if err := loadForeignKeys(ctx, db, snap, t, log); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

func tableNames(ctx context.Context, db *sql.DB, prefix string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func loadColumns(ctx context.Context, db *sql.DB, t *schema.Table, log *slog.Logger) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", t.Name()))
	if err != nil {
		return fmt.Errorf("table_info %q: %w", t.Name(), err)
	}
	defer rows.Close()

	type pkEntry struct {
		column *schema.Column
		slot   int
	}
	var pk []pkEntry
	for rows.Next() {
		var (
			cid       int
			name      string
			declared  string
			notNull   int
			dfltValue sql.NullString
			pkSlot    int
		)
		if err := rows.Scan(&cid, &name, &declared, &notNull, &dfltValue, &pkSlot); err != nil {
			return fmt.Errorf("table_info scan %q: %w", t.Name(), err)
		}
		ctype := mapDeclaredType(declared)
		if ctype == schema.TypeUnknown {
			log.Warn("unmapped column type",
				"table", t.Name(), "column", name, "declared", declared)
		}
		c, err := t.CreateColumn(name, ctype)
		if err != nil {
			return fmt.Errorf("adding column %q.%q: %w", t.Name(), name, err)
		}
		c.SetNotNull(notNull != 0)
		if dfltValue.Valid {
			// The catalog stores the default as its SQL-encoded literal.
			c.SetDefault(dfltValue.String)
		}
		if pkSlot > 0 {
			pk = append(pk, pkEntry{column: c, slot: pkSlot})
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// table_info reports primary-key positions 1-based but in column
	// order; assign contiguously by slot.
	for want := 1; want <= len(pk); want++ {
		for _, entry := range pk {
			if entry.slot == want {
				if err := t.SetPrimaryKey(entry.column, want); err != nil {
					return fmt.Errorf("primary key of %q: %w", t.Name(), err)
				}
			}
		}
	}
	return nil
}

func loadIndexes(ctx context.Context, db *sql.DB, t *schema.Table) error {
	listRows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%q)", t.Name()))
	if err != nil {
		return fmt.Errorf("index_list %q: %w", t.Name(), err)
	}
	defer listRows.Close()

	type indexEntry struct {
		name   string
		unique bool
		origin string
	}
	var entries []indexEntry
	for listRows.Next() {
		var (
			seq     int
			name    string
			unique  int
			origin  string
			partial int
		)
		if err := listRows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return fmt.Errorf("index_list scan %q: %w", t.Name(), err)
		}
		entries = append(entries, indexEntry{name: name, unique: unique == 1, origin: origin})
	}
	if err := listRows.Err(); err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.origin == "pk" {
			continue // already captured through table_info
		}
		columns, err := indexColumns(ctx, db, t, entry.name)
		if err != nil {
			return err
		}
		if entry.origin == "u" {
			// A declared UNIQUE constraint surfaces in the catalog as an
			// automatic unique index; fold it back into the model form.
			if _, err := t.AddUnique(columns...); err != nil {
				return fmt.Errorf("unique constraint of %q: %w", t.Name(), err)
			}
			continue
		}
		if _, err := t.CreateIndex(entry.name, entry.unique, columns...); err != nil {
			return fmt.Errorf("index %q on %q: %w", entry.name, t.Name(), err)
		}
	}
	return nil
}

func indexColumns(ctx context.Context, db *sql.DB, t *schema.Table, index string) ([]*schema.Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%q)", index))
	if err != nil {
		return nil, fmt.Errorf("index_info %q: %w", index, err)
	}
	defer rows.Close()

	var columns []*schema.Column
	for rows.Next() {
		var (
			seqno int
			cid   int
			name  sql.NullString
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, fmt.Errorf("index_info scan %q: %w", index, err)
		}
		if !name.Valid {
			continue // expression member, not a plain column
		}
		c, err := t.Column(name.String)
		if err != nil {
			return nil, fmt.Errorf("index %q member: %w", index, err)
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

func loadForeignKeys(ctx context.Context, db *sql.DB, snap *schema.Snapshot, t *schema.Table, log *slog.Logger) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%q)", t.Name()))
	if err != nil {
		return fmt.Errorf("foreign_key_list %q: %w", t.Name(), err)
	}
	defer rows.Close()

	// Rows are keyed by a composite id+seq so multi-column keys can be
	// reassembled in declaration order.
	type fkEntry struct {
		target   string
		columns  []string
		refs     []string
		onUpdate string
		onDelete string
	}
	fkMap := make(map[int]*fkEntry)
	var order []int
	for rows.Next() {
		var (
			id       int
			seq      int
			target   string
			from     string
			to       sql.NullString
			onUpdate string
			onDelete string
			match    string
		)
		if err := rows.Scan(&id, &seq, &target, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return fmt.Errorf("foreign_key_list scan %q: %w", t.Name(), err)
		}
		entry, ok := fkMap[id]
		if !ok {
			entry = &fkEntry{target: target, onUpdate: onUpdate, onDelete: onDelete}
			fkMap[id] = entry
			order = append(order, id)
		}
		entry.columns = append(entry.columns, from)
		entry.refs = append(entry.refs, to.String)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range order {
		entry := fkMap[id]
		if entry.target == t.Name() {
			// The model forbids self-referencing keys; surviving would
			// abort the whole walk over a table we cannot represent.
			log.Warn("dropping self-referencing foreign key",
				"table", t.Name())
			continue
		}
		target, err := snap.Table(entry.target)
		if err != nil {
			log.Warn("dropping foreign key with unresolvable target",
				"table", t.Name(), "target", entry.target)
			continue
		}
		local := make([]*schema.Column, len(entry.columns))
		refs := make([]*schema.Column, len(entry.refs))
		for i := range entry.columns {
			if local[i], err = t.Column(entry.columns[i]); err != nil {
				return fmt.Errorf("foreign key on %q: %w", t.Name(), err)
			}
			refName := entry.refs[i]
			if refName == "" {
				// Referencing the target's primary key implicitly.
				pk := target.PrimaryKey()
				if i >= len(pk) {
					log.Warn("dropping foreign key with implicit target outside the primary key",
						"table", t.Name(), "target", entry.target)
					refs = nil
					break
				}
				refs[i] = pk[i]
				continue
			}
			if refs[i], err = target.Column(refName); err != nil {
				return fmt.Errorf("foreign key target on %q: %w", t.Name(), err)
			}
		}
		if refs == nil {
			continue
		}
		onDelete := mapAction(entry.onDelete)
		onUpdate := mapAction(entry.onUpdate)
		if _, err := t.AddForeignKey(target, local, refs, onDelete, onUpdate); err != nil {
			return fmt.Errorf("foreign key on %q: %w", t.Name(), err)
		}
	}
	return nil
}

// mapDeclaredType folds a declared catalog type into the canonical
// vocabulary using the engine's affinity rules. Unrecognized types map to
// the empty sentinel.
func mapDeclaredType(declared string) schema.ColumnType {
	d := strings.ToUpper(strings.TrimSpace(declared))
	switch {
	case d == "":
		return schema.TypeBlob
	case strings.Contains(d, "INT"):
		return schema.TypeInteger
	case strings.Contains(d, "CHAR"), strings.Contains(d, "CLOB"), strings.Contains(d, "TEXT"):
		return schema.TypeText
	case strings.Contains(d, "BLOB"):
		return schema.TypeBlob
	case strings.Contains(d, "REAL"), strings.Contains(d, "FLOA"), strings.Contains(d, "DOUB"):
		return schema.TypeReal
	case d == "NULL":
		return schema.TypeNull
	default:
		return schema.TypeUnknown
	}
}

// mapAction folds a catalog referential action into the model form.
func mapAction(action string) schema.Action {
	a := schema.Action(strings.ToUpper(strings.TrimSpace(action)))
	if a.Valid() {
		return a
	}
	return schema.NoAction
}
