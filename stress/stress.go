// Package stress drives random, concurrent load against a dirtree.Tree
// and surfaces the first failure. It exists to exercise spec §8
// scenario 6 (many goroutines, many operations, a prepopulated tree)
// as a reusable property-test driver rather than a one-off benchmark,
// the way the teacher's ilock_test.go benchmarkLocking harness drove
// load against an ilock.Mutex.
package stress

import (
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/AaRaBiNoZa/concurrent-directory-tree"
	"golang.org/x/sync/errgroup"
)

// Op identifies which tree operation a worker should attempt next.
type Op int

const (
	OpList Op = iota
	OpCreate
	OpRemove
	OpMove
)

// Config controls a single Run invocation.
type Config struct {
	Workers      int
	OpsPerWorker int
	// WriteRatio is the fraction of operations, in [0,1], that should be
	// a Create, Remove, or Move rather than a List.
	WriteRatio float32
	// Seed makes each worker's sequence of operations reproducible;
	// worker w seeds its generator with Seed+w.
	Seed int64
}

// Stats counts operations that actually succeeded during a Run, so a
// caller can assert the tree was genuinely exercised rather than having
// every operation rejected up front.
type Stats struct {
	Lists   int64
	Creates int64
	Removes int64
	Moves   int64
}

// Run prepopulates tree with a small fixed layout, then launches
// cfg.Workers goroutines, each performing cfg.OpsPerWorker random valid
// operations on random paths built from the prepopulated names (a
// generated path need not exist). It returns the
// first error any worker's operation returns that is not one of the
// tree's defined symbolic errors (those are expected outcomes of
// racing creates/removes/moves, not failures of the driver), along with
// counts of operations that actually succeeded.
func Run(tree *dirtree.Tree, cfg Config) (Stats, error) {
	prepopulate(tree, 8)

	var stats Stats
	g := new(errgroup.Group)
	for w := 0; w < cfg.Workers; w++ {
		worker := w
		g.Go(func() error {
			rng := rand.New(rand.NewSource(cfg.Seed + int64(worker)))
			for i := 0; i < cfg.OpsPerWorker; i++ {
				if err := oneOp(tree, rng, cfg.WriteRatio, &stats); err != nil {
					return fmt.Errorf("worker %d op %d: %w", worker, i, err)
				}
			}
			return nil
		})
	}
	return stats, g.Wait()
}

func prepopulate(tree *dirtree.Tree, n int) {
	for i := 0; i < n; i++ {
		_ = tree.Create("/" + seedName(i) + "/")
	}
}

// oneOp performs one randomly chosen operation, recording it in stats
// when it actually succeeds. Any of the tree's defined symbolic errors
// (not-found, already-exists, not-empty, busy, illegal-move,
// invalid-argument) are expected under concurrent load and are
// swallowed here; only an unrecognized error is returned to the caller.
// A panic is not recovered.
func oneOp(tree *dirtree.Tree, rng *rand.Rand, writeRatio float32, stats *Stats) error {
	path := randomPath(rng)
	var err error
	if rng.Float32() >= writeRatio {
		_, err = tree.List(path)
		if err == nil {
			atomic.AddInt64(&stats.Lists, 1)
		}
	} else {
		switch rng.Intn(3) {
		case 0:
			err = tree.Create(path)
			if err == nil {
				atomic.AddInt64(&stats.Creates, 1)
			}
		case 1:
			err = tree.Remove(path)
			if err == nil {
				atomic.AddInt64(&stats.Removes, 1)
			}
		case 2:
			err = tree.Move(path, randomPath(rng))
			if err == nil {
				atomic.AddInt64(&stats.Moves, 1)
			}
		}
	}
	if isExpectedTreeError(err) {
		return nil
	}
	return err
}

// randomPath builds a path of depth 0, 1, or 2 out of seedName-produced
// components, so every generated path satisfies the [a-z]{1..MAX_NAME}
// grammar of path.go's isValidName and actually reaches real nodes
// instead of being rejected with ErrInvalidArgument before doing any
// work.
func randomPath(rng *rand.Rand) string {
	depth := rng.Intn(3)
	path := "/"
	for i := 0; i < depth; i++ {
		path += seedName(rng.Intn(8)) + "/"
	}
	return path
}

// seedName maps an index to a distinct, valid, lowercase-letters-only
// path component, the same base-26 letter-digit technique tree_test.go's
// randomLowerName uses.
func seedName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 0, 4)
	for i >= 0 {
		b = append(b, letters[i%26])
		i = i/26 - 1
	}
	return string(b)
}

func isExpectedTreeError(err error) bool {
	if err == nil {
		return true
	}
	for _, sentinel := range []error{
		dirtree.ErrNotFound,
		dirtree.ErrAlreadyExists,
		dirtree.ErrNotEmpty,
		dirtree.ErrBusy,
		dirtree.ErrIllegalMove,
		dirtree.ErrInvalidArgument,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
