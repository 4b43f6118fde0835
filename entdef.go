package entdef

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/entdef/entdef/database"
	"github.com/entdef/entdef/diff"
	"github.com/entdef/entdef/entity"
)

type Options struct {
	DryRun      bool
	SkipDrop    bool
	BeforeApply string
	Config      diff.Config
}

// Main function shared by all commands
func Run(db database.Database, declared []entity.Entity, options *Options) {
	ops, err := Reconcile(db, declared, options.Config)
	if err != nil {
		logrus.Fatalf("Error computing plan: %s", err)
	}
	if len(ops) == 0 {
		fmt.Println("-- Nothing is modified --")
		return
	}

	if options.DryRun {
		showOps(ops, options.SkipDrop, options.BeforeApply)
		return
	}

	if err := Apply(db, ops, options.SkipDrop, options.BeforeApply); err != nil {
		logrus.Fatal(err)
	}
}

// Reconcile computes the plan that brings db in line with declared. It only
// reads: every probe runs in a rolled-back transaction.
func Reconcile(db database.Database, declared []entity.Entity, config diff.Config) ([]diff.Op, error) {
	return diff.NewEngine(db, config).Run(declared)
}

// Apply executes a plan inside one transaction. Any statement failing rolls
// the whole plan back.
func Apply(db database.Database, ops []diff.Op, skipDrop bool, beforeApply string) error {
	sess, err := database.NewSession(db)
	if err != nil {
		return err
	}

	fmt.Println("-- Apply --")
	if len(beforeApply) > 0 {
		fmt.Println(beforeApply)
		if err := sess.Exec(beforeApply); err != nil {
			sess.Rollback()
			return err
		}
	}
	for _, op := range ops {
		if skipDrop && isDrop(op) {
			fmt.Printf("-- Skipped: %s --\n", op)
			continue
		}
		for _, stmt := range op.Statements() {
			fmt.Println(stmt)
			if err := sess.Exec(stmt); err != nil {
				sess.Rollback()
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}
	return sess.Commit()
}

func isDrop(op diff.Op) bool {
	_, ok := op.(*diff.DropOp)
	return ok
}

func showOps(ops []diff.Op, skipDrop bool, beforeApply string) {
	fmt.Println("-- dry run --")
	if len(beforeApply) > 0 {
		fmt.Println(beforeApply)
	}
	for _, op := range ops {
		if skipDrop && isDrop(op) {
			fmt.Printf("-- Skipped: %s --\n", op)
			continue
		}
		fmt.Println(strings.Join(op.Statements(), "\n"))
	}
}
