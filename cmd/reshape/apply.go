// Apply command: compute the migration and execute it.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/reshape/internal/apply"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Migrate the database to match the schema definition",
	Long: `Apply introspects the database, diffs it against the schema definition,
and executes the resulting statements inside one transaction.

Example:
  reshape apply --db app.db --schema schema.yaml`,
	Args: cobra.NoArgs,
	RunE: runApply,
}

func runApply(cmd *cobra.Command, args []string) error {
	plan, err := buildPlan(cmd)
	if err != nil {
		return err
	}
	if plan.Empty() {
		fmt.Println("schema is up to date")
		return nil
	}

	dbPath, err := resolveDB()
	if err != nil {
		return err
	}
	db, err := apply.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := apply.Run(cmd.Context(), db, plan); err != nil {
		return err
	}

	fmt.Printf("applied %d statements\n", len(plan.Statements()))
	printSummary(plan.Summary)
	return nil
}
