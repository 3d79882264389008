// Package synchro implements the per-node reader/writer coordinator that
// backs every node of a concurrent directory tree.
//
// Many nodes may be read at once but only one thread may modify a node at
// a time. A naive reader/writer monitor is either writer-preferring (and
// starves readers) or reader-preferring (and starves writers). This
// implementation uses explicit batch handoff instead: a departing writer
// authorizes exactly the readers already queued at release time to
// proceed as one batch, and the last reader to leave hands the permit
// directly to a single queued writer. Replacing either handoff with a
// plain broadcast reintroduces starvation of one class or the other.
//
// A third class of waiter, the remover, is woken only once a node is
// fully idle: no active readers or writers and no one queued. This lets
// the tree layer safely destroy a node once every thread already inside
// it has drained. The synchronizer does not itself refuse new permits
// while a removal is pending; the tree layer keeps new threads away by
// holding the parent's write permit throughout.
package synchro

import "sync"

// Synchro coordinates concurrent access to a single tree node. The zero
// value is not usable; construct one with New.
type Synchro struct {
	mu sync.Mutex

	canRead   *sync.Cond // readers block here
	canWrite  *sync.Cond // writers block here
	canRemove *sync.Cond // the remover blocks here

	readersActive  int
	writerActive   bool
	readersWaiting int
	writersWaiting int

	// batchToAdmit is the remaining size of a reader batch a departing
	// writer has authorized. A reader that wakes while this is positive
	// consumes one slot and proceeds even if writers have since queued.
	batchToAdmit int

	// handoffToWriter is set by the last departing reader to hand the
	// permit directly to one queued writer, bypassing the writers-queue
	// predicate check.
	handoffToWriter bool

	// removalPending marks that some thread wants this node quiesced
	// for destruction; once set, no further predicate below blocks on
	// it directly, but new readers/writers are still admitted until the
	// tree layer stops presenting this node to new traversals (the tree
	// layer is responsible for ensuring no new arrivals, per spec: the
	// caller holds the parent's write permit throughout quiescence).
	removalPending bool
}

// New returns a ready-to-use Synchro in the initial, fully-idle state.
func New() *Synchro {
	s := &Synchro{}
	s.canRead = sync.NewCond(&s.mu)
	s.canWrite = sync.NewCond(&s.mu)
	s.canRemove = sync.NewCond(&s.mu)
	return s
}

// AcquireRead blocks until the calling thread may hold a read permit on
// this node, then grants it.
func (s *Synchro) AcquireRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.writerActive || s.handoffToWriter || s.writersWaiting > 0 {
		s.readersWaiting++
		s.canRead.Wait()
		s.readersWaiting--

		if s.batchToAdmit > 0 {
			s.batchToAdmit--
			break
		}
	}
	s.readersActive++
}

// ReleaseRead surrenders a read permit previously granted by
// AcquireRead.
func (s *Synchro) ReleaseRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseReadLocked()
}

func (s *Synchro) releaseReadLocked() {
	s.readersActive--
	if s.readersActive != 0 || s.batchToAdmit != 0 {
		return
	}
	if s.writersWaiting > 0 {
		s.handoffToWriter = true
		s.canWrite.Signal()
		return
	}
	if s.removalPending && s.idleLocked() {
		s.canRemove.Broadcast()
	}
}

// AcquireWrite blocks until the calling thread may hold the exclusive
// write permit on this node, then grants it.
func (s *Synchro) AcquireWrite() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquireWriteLocked()
}

func (s *Synchro) acquireWriteLocked() {
	s.writersWaiting++
	for !s.handoffToWriter && (s.readersActive > 0 || s.writerActive || s.batchToAdmit > 0) {
		s.canWrite.Wait()
	}
	s.writersWaiting--
	s.handoffToWriter = false
	s.writerActive = true
}

// ReleaseWrite surrenders the write permit. At most one of the wakeup
// arms below fires: a waiting reader batch takes priority over a
// waiting writer, and the remover is only ever woken when neither class
// is waiting, preventing either class from starving the other.
func (s *Synchro) ReleaseWrite() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writerActive = false
	switch {
	case s.readersWaiting > 0:
		s.batchToAdmit = s.readersWaiting
		s.canRead.Broadcast()
	case s.writersWaiting > 0:
		s.handoffToWriter = true
		s.canWrite.Signal()
	case s.removalPending && s.idleLocked():
		s.canRemove.Broadcast()
	}
}

// UpgradeReadToWrite atomically converts a held read permit into a write
// permit. It is not merely an optimization over ReleaseRead followed by
// AcquireWrite: performing the transition under one mutex acquisition
// closes the window in which another writer could interpose between the
// tree layer establishing that this node is on-path and the intended
// mutation.
func (s *Synchro) UpgradeReadToWrite() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readersActive--
	s.acquireWriteLocked()
}

// QuiesceForRemoval flags the node for removal and blocks until it is
// fully idle: no active or waiting readers, no active or waiting
// writers. The caller must already hold the write permit on this node's
// parent, which prevents any new thread from reaching this node through
// the tree; QuiesceForRemoval only needs to drain threads already inside
// it.
func (s *Synchro) QuiesceForRemoval() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removalPending = true
	for !s.idleLocked() {
		s.canRemove.Wait()
	}
}

// CancelRemoval clears the removal-pending flag, restoring the node to
// its normal operating state. Used when a remove operation discovers the
// victim is non-empty after quiescing it.
func (s *Synchro) CancelRemoval() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removalPending = false
}

func (s *Synchro) idleLocked() bool {
	return s.readersActive == 0 && !s.writerActive &&
		s.readersWaiting == 0 && s.writersWaiting == 0
}
