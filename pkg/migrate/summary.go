package migrate

// Summary is the human-readable change report derived from the same
// classification data the plan is generated from. Column entries cover
// tables present in both snapshots; columns of created or removed tables
// are implied by their table entry.
type Summary struct {
	AddedTables    []string
	RemovedTables  []string
	AddedColumns   map[string][]string // table -> added column names
	RemovedColumns map[string][]string // table -> removed column names
	Recreated      map[string]string   // table -> joined recreate reasons
}

func newSummary() Summary {
	return Summary{
		AddedColumns:   make(map[string][]string),
		RemovedColumns: make(map[string][]string),
		Recreated:      make(map[string]string),
	}
}

// Empty reports whether the summary records no changes at all.
func (s Summary) Empty() bool {
	return len(s.AddedTables) == 0 &&
		len(s.RemovedTables) == 0 &&
		len(s.AddedColumns) == 0 &&
		len(s.RemovedColumns) == 0 &&
		len(s.Recreated) == 0
}
