// Plan command: compute and print the migration without executing it.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/reshape/internal/apply"
	"github.com/mesh-intelligence/reshape/internal/declarative"
	"github.com/mesh-intelligence/reshape/internal/introspect"
	"github.com/mesh-intelligence/reshape/pkg/migrate"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the statements that would migrate the database",
	Long: `Plan introspects the database, diffs it against the schema definition,
and prints the resulting statements without executing anything.

Example:
  reshape plan --db app.db --schema schema.yaml`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	plan, err := buildPlan(cmd)
	if err != nil {
		return err
	}
	if plan.Empty() {
		fmt.Println("schema is up to date")
		return nil
	}

	for _, stmt := range plan.Statements() {
		fmt.Println(stmt + ";")
	}
	fmt.Println()
	printSummary(plan.Summary)
	return nil
}

// buildPlan loads the declarative definition, introspects the database,
// and diffs the two. Shared by plan and apply.
func buildPlan(cmd *cobra.Command) (*migrate.Plan, error) {
	def, err := loadDefinition(resolveSchema())
	if err != nil {
		return nil, err
	}
	desired, err := declarative.Build(def)
	if err != nil {
		return nil, err
	}

	dbPath, err := resolveDB()
	if err != nil {
		return nil, err
	}
	db, err := apply.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	current, err := introspect.FromDB(cmd.Context(), db, introspect.Options{Prefix: resolvePrefix()})
	if err != nil {
		return nil, err
	}

	return migrate.Diff(current, desired, migrate.Options{CreationMode: flagCreate})
}

func printSummary(s migrate.Summary) {
	if len(s.AddedTables) > 0 {
		fmt.Printf("tables added:   %s\n", strings.Join(s.AddedTables, ", "))
	}
	if len(s.RemovedTables) > 0 {
		fmt.Printf("tables removed: %s\n", strings.Join(s.RemovedTables, ", "))
	}
	for table, columns := range s.AddedColumns {
		fmt.Printf("columns added on %s: %s\n", table, strings.Join(columns, ", "))
	}
	for table, columns := range s.RemovedColumns {
		fmt.Printf("columns removed on %s: %s\n", table, strings.Join(columns, ", "))
	}
	for table, reasons := range s.Recreated {
		fmt.Printf("table rebuilt: %s (%s)\n", table, reasons)
	}
}
