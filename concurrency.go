package ppknn

import "sync"

// SlotLocker is an array of independently lockable cells, one per EncItem
// slot. spec.md §5 requires compare-exchange to acquire its two slots in
// ascending index order to avoid deadlock, and the buffer to be lockable
// per-cell rather than as a whole (spec.md §9, "do not wrap the whole
// array").
type SlotLocker struct {
	locks []sync.Mutex
}

// NewSlotLocker allocates a locker with n independently lockable slots.
func NewSlotLocker(n int) *SlotLocker {
	return &SlotLocker{locks: make([]sync.Mutex, n)}
}

// LockPair locks slots i and j in ascending index order, then returns an
// unlock function for both. Calling it with i == j locks the single slot
// once.
func (l *SlotLocker) LockPair(i, j int) (unlock func()) {
	if i == j {
		l.locks[i].Lock()
		return func() { l.locks[i].Unlock() }
	}
	lo, hi := i, j
	if lo > hi {
		lo, hi = hi, lo
	}
	l.locks[lo].Lock()
	l.locks[hi].Lock()
	return func() {
		l.locks[hi].Unlock()
		l.locks[lo].Unlock()
	}
}

// Parallel runs each task concurrently and waits for all of them to
// finish, returning the error of the lowest-indexed failing task (if any).
// ComputeDistancesParallel uses it to run distance-engine rows
// concurrently; the sorter does not use it, and the sequential path remains
// the default everywhere else in this package.
func Parallel(tasks ...func() error) error {
	var wg sync.WaitGroup
	errs := make([]error, len(tasks))
	wg.Add(len(tasks))
	for i, task := range tasks {
		i, task := i, task
		go func() {
			defer wg.Done()
			errs[i] = task()
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
