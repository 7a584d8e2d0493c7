// SPDX-License-Identifier: MIT

package treelik

import (
	"golang.org/x/sync/errgroup"
)

// Scheduler runs ntasks independent tasks. Tasks only read shared state and
// write to their own output slot, so any execution order is valid. Run
// returns the first task error, if any.
type Scheduler interface {
	Run(ntasks int, task func(i int) error) error
}

// Sequential runs tasks one after another on the calling goroutine and stops
// at the first error.
type Sequential struct{}

// Run implements Scheduler.
func (Sequential) Run(ntasks int, task func(i int) error) error {
	for i := 0; i < ntasks; i++ {
		if err := task(i); err != nil {
			return err
		}
	}
	return nil
}

// Pool runs tasks on at most Workers goroutines. Workers < 1 means one
// goroutine per task.
type Pool struct {
	Workers int
}

// Run implements Scheduler. Tasks already started run to completion even
// after another task fails.
func (p Pool) Run(ntasks int, task func(i int) error) error {
	var g errgroup.Group
	if p.Workers > 0 {
		g.SetLimit(p.Workers)
	}
	for i := 0; i < ntasks; i++ {
		g.Go(func() error { return task(i) })
	}
	return g.Wait()
}
