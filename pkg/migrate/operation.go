package migrate

// OpKind tags an operation with the phase of the plan it belongs to.
type OpKind string

// Operation kinds, listed in global emission order. Later phases depend on
// earlier ones completing: a table must not be referenced while it is
// being removed or rebuilt, and foreign keys and indexes can only be
// re-established once every table has its final shape.
const (
	OpRemoveIndex    OpKind = "remove-index"
	OpDropForeignKey OpKind = "drop-foreign-key"
	OpCreateTable    OpKind = "create-table"
	OpRemoveTable    OpKind = "remove-table"
	OpAddColumn      OpKind = "add-column"
	OpRemoveColumn   OpKind = "remove-column"
	OpRecreateTable  OpKind = "recreate-table"
	OpAddForeignKey  OpKind = "add-foreign-key"
	OpAddIndex       OpKind = "add-index"
)

// Operation is one classified change together with its rendered literal
// statements. A recreate operation carries the full six-step sequence.
type Operation struct {
	Kind       OpKind
	Table      string
	Name       string // column or index name where applicable
	Statements []string
}

// Plan is the ordered operation list produced by Diff, plus the derived
// human-readable summary. The caller applies the flattened statements as
// one all-or-nothing unit.
type Plan struct {
	Operations []Operation
	Summary    Summary
}

// Statements flattens the plan into the literal statement list, in
// emission order.
func (p *Plan) Statements() []string {
	var stmts []string
	for _, op := range p.Operations {
		stmts = append(stmts, op.Statements...)
	}
	return stmts
}

// Empty reports whether the plan contains no operations.
func (p *Plan) Empty() bool { return len(p.Operations) == 0 }

// ByKind returns the subset of operations with the given kind.
func (p *Plan) ByKind(kind OpKind) []Operation {
	var ops []Operation
	for _, op := range p.Operations {
		if op.Kind == kind {
			ops = append(ops, op)
		}
	}
	return ops
}
