package migrate

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/reshape/pkg/schema"
)

// Options configures a diff run.
type Options struct {
	// CreationMode marks the run as a bulk initial creation. It requires
	// an empty current snapshot and suppresses every foreign-key-add
	// operation, since bulk-created tables cannot guarantee that a
	// referenced table exists mid-batch.
	CreationMode bool
}

// Diff compares the current snapshot against the desired one and returns
// the ordered migration plan. Both snapshots are verified first; any
// structural violation aborts before a single statement is produced.
func Diff(from, to *schema.Snapshot, opts Options) (*Plan, error) {
	if err := from.Verify(); err != nil {
		return nil, fmt.Errorf("verifying current snapshot: %w", err)
	}
	if err := to.Verify(); err != nil {
		return nil, fmt.Errorf("verifying desired snapshot: %w", err)
	}
	if opts.CreationMode && !from.Empty() {
		return nil, ErrModeViolation
	}

	// One classification pass over the tables present in both snapshots.
	changes := make(map[string]*tableChange)
	var shared []string
	for _, tt := range to.Tables() {
		ft, err := from.Table(tt.Name())
		if err != nil {
			continue
		}
		tc := classifyTable(ft, tt)
		changes[tc.name] = tc
		shared = append(shared, tc.name)
	}

	var addedTables, removedTables []string
	for _, tt := range to.Tables() {
		if !from.HasTable(tt.Name()) {
			addedTables = append(addedTables, tt.Name())
		}
	}
	for _, ft := range from.Tables() {
		if !to.HasTable(ft.Name()) {
			removedTables = append(removedTables, ft.Name())
		}
	}

	// Tables whose structure is about to disappear or change shape. Only
	// these invalidate declarations on referencing tables; a pure
	// column edit does not cascade.
	affected := make(map[string]bool)
	for _, name := range removedTables {
		affected[name] = true
	}
	for _, name := range shared {
		if tc := changes[name]; tc.recreate() && tc.structural {
			affected[name] = true
		}
	}

	plan := &Plan{Summary: newSummary()}
	add := func(op Operation) { plan.Operations = append(plan.Operations, op) }

	// 1. Remove indexes no longer desired or structurally changed.
	// Removal bookkeeping for dropped or rebuilt tables is folded into
	// those operations (dropping a table destroys its indexes).
	for _, ft := range from.Tables() {
		if !to.HasTable(ft.Name()) {
			continue
		}
		if tc := changes[ft.Name()]; tc != nil && tc.recreate() {
			continue
		}
		for _, ix := range ft.Indexes() {
			toIx, ok := to.IndexByName(ix.Name())
			if ok && indexSignature(toIx) == indexSignature(ix) {
				continue
			}
			add(Operation{
				Kind:       OpRemoveIndex,
				Table:      ft.Name(),
				Name:       ix.Name(),
				Statements: []string{dropIndexSQL(ix.Name())},
			})
		}
	}

	// 2. Drop single-column foreign keys referencing a table that is
	// about to be removed or rebuilt. Tables that are themselves removed
	// or rebuilt handle their own declarations.
	droppedRefs := make(map[string]bool)
	for _, ft := range from.Tables() {
		name := ft.Name()
		if !to.HasTable(name) {
			continue
		}
		if tc := changes[name]; tc != nil && tc.recreate() {
			continue
		}
		for _, fk := range ft.ForeignKeys() {
			if len(fk.Columns()) != 1 || !affected[fk.Target().Name()] {
				continue
			}
			col := fk.Columns()[0]
			droppedRefs[name] = true
			add(Operation{
				Kind:       OpDropForeignKey,
				Table:      name,
				Name:       col.Name(),
				Statements: []string{modifyColumnSQL(name, col, nil)},
			})
		}
	}

	// 3. Create brand-new tables.
	for _, name := range addedTables {
		tt, err := to.Table(name)
		if err != nil {
			return nil, contractf("desired table %q vanished during planning", name)
		}
		add(Operation{
			Kind:       OpCreateTable,
			Table:      name,
			Statements: []string{createTableSQL(tt, name, false)},
		})
	}

	// 4. Drop removed tables.
	for _, name := range removedTables {
		add(Operation{
			Kind:       OpRemoveTable,
			Table:      name,
			Statements: []string{dropTableSQL(name)},
		})
	}

	// 5. Add new standalone columns. The incremental path is classified
	// (tableChange.addedColumns) but never emitted: every new column on a
	// surviving table routes through recreation instead.

	// 6. Drop standalone removed columns, only for tables that are not
	// being recreated; recreation drops columns by omission in the copy.
	for _, name := range shared {
		tc := changes[name]
		if tc.recreate() {
			continue
		}
		for _, column := range tc.removedColumns {
			add(Operation{
				Kind:       OpRemoveColumn,
				Table:      name,
				Name:       column,
				Statements: []string{dropColumnSQL(name, column)},
			})
		}
	}

	// 7. Recreate every table scheduled for recreation.
	for _, name := range shared {
		tc := changes[name]
		if !tc.recreate() {
			continue
		}
		ft, err := from.Table(name)
		if err != nil {
			return nil, contractf("current table %q vanished during planning", name)
		}
		tt, err := to.Table(name)
		if err != nil {
			return nil, contractf("desired table %q vanished during planning", name)
		}
		add(Operation{
			Kind:       OpRecreateTable,
			Table:      name,
			Statements: recreateStatements(ft, tt),
		})
	}

	// 8. Re-add single-column foreign keys to tables that are new, were
	// rebuilt without their reference clauses, or had references dropped
	// in phase 2. Skipped entirely in creation mode. Multi-column keys
	// are only ever expressed inline at creation/recreation time.
	if !opts.CreationMode {
		for _, tt := range to.Tables() {
			name := tt.Name()
			isNew := !from.HasTable(name)
			tc := changes[name]
			isRecreated := tc != nil && tc.recreate()
			for _, fk := range tt.ForeignKeys() {
				if len(fk.Columns()) != 1 {
					continue
				}
				if !isNew && !isRecreated && !(droppedRefs[name] && affected[fk.Target().Name()]) {
					continue
				}
				col := fk.Columns()[0]
				add(Operation{
					Kind:       OpAddForeignKey,
					Table:      name,
					Name:       col.Name(),
					Statements: []string{modifyColumnSQL(name, col, fk)},
				})
			}
		}
	}

	// 9. Add new or changed indexes. Indexes of new or rebuilt tables are
	// (re)created even when unchanged, since no earlier step carries them
	// over.
	for _, tt := range to.Tables() {
		name := tt.Name()
		isNew := !from.HasTable(name)
		tc := changes[name]
		isRecreated := tc != nil && tc.recreate()
		for _, ix := range tt.Indexes() {
			fromIx, ok := from.IndexByName(ix.Name())
			unchanged := ok && indexSignature(fromIx) == indexSignature(ix)
			if unchanged && !isNew && !isRecreated {
				continue
			}
			add(Operation{
				Kind:       OpAddIndex,
				Table:      name,
				Name:       ix.Name(),
				Statements: []string{createIndexSQL(ix)},
			})
		}
	}

	plan.Summary.AddedTables = addedTables
	plan.Summary.RemovedTables = removedTables
	for _, name := range shared {
		tc := changes[name]
		if len(tc.addedColumns) > 0 {
			plan.Summary.AddedColumns[name] = tc.addedColumns
		}
		if len(tc.removedColumns) > 0 {
			plan.Summary.RemovedColumns[name] = tc.removedColumns
		}
		if tc.recreate() {
			plan.Summary.Recreated[name] = strings.Join(tc.reasons, ", ")
		}
	}
	return plan, nil
}
