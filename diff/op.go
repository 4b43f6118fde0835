// Package diff compares declared entities against a live database and emits
// the operations that reconcile the two.
package diff

import (
	"fmt"

	"github.com/entdef/entdef/entity"
)

// Op is one reconciliation step, rendered as executable SQL.
type Op interface {
	Target() entity.Entity
	Statements() []string
	String() string
}

// ReversibleOp is an Op whose effect can be undone. Reverse is pure: it
// builds the inverse operation from state captured at diff time, it does not
// touch the database.
type ReversibleOp interface {
	Op
	Reverse() Op
}

// CreateOp creates an entity that does not exist on the database.
type CreateOp struct {
	target entity.Entity
}

func NewCreateOp(target entity.Entity) *CreateOp { return &CreateOp{target: target} }

func (op *CreateOp) Target() entity.Entity { return op.target }
func (op *CreateOp) Statements() []string  { return []string{op.target.CreateStatement()} }
func (op *CreateOp) Reverse() Op           { return &DropOp{target: op.target} }
func (op *CreateOp) String() string        { return fmt.Sprintf("create %s", op.target.Identity()) }

// DropOp drops a live entity that is no longer declared.
type DropOp struct {
	target  entity.Entity
	Cascade bool
}

func NewDropOp(target entity.Entity, cascade bool) *DropOp {
	return &DropOp{target: target, Cascade: cascade}
}

func (op *DropOp) Target() entity.Entity { return op.target }
func (op *DropOp) Statements() []string  { return []string{op.target.DropStatement(op.Cascade)} }
func (op *DropOp) Reverse() Op           { return &CreateOp{target: op.target} }
func (op *DropOp) String() string        { return fmt.Sprintf("drop %s", op.target.Identity()) }

// ReplaceOp swaps a live entity's definition for the declared one. The prior
// entity carries the live definition captured at diff time, which is what
// makes the reverse possible without another database round trip.
type ReplaceOp struct {
	target entity.Entity
	prior  entity.Entity
}

func NewReplaceOp(target, prior entity.Entity) *ReplaceOp {
	return &ReplaceOp{target: target, prior: prior}
}

func (op *ReplaceOp) Target() entity.Entity { return op.target }
func (op *ReplaceOp) Prior() entity.Entity  { return op.prior }
func (op *ReplaceOp) Statements() []string  { return op.target.ReplaceStatements() }
func (op *ReplaceOp) Reverse() Op           { return &RevertOp{target: op.prior} }
func (op *ReplaceOp) String() string        { return fmt.Sprintf("replace %s", op.target.Identity()) }

// RevertOp reinstalls a previously captured definition. It is only ever built
// as the reverse of a ReplaceOp and has no reverse of its own: the definition
// it would need was never captured.
type RevertOp struct {
	target entity.Entity
}

func (op *RevertOp) Target() entity.Entity { return op.target }
func (op *RevertOp) Statements() []string  { return op.target.ReplaceStatements() }
func (op *RevertOp) Reverse() Op           { return nil }
func (op *RevertOp) String() string        { return fmt.Sprintf("revert %s", op.target.Identity()) }
