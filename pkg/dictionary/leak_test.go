//go:build test

package dictionary

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"sync"
	"testing"

	"github.com/bastiangx/wordindex/pkg/index"
	"github.com/charmbracelet/log"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

const leakSets = 4

// newChurnLoader writes leakSets sets of n records and opens a loader that
// can only hold two of them, so lookups keep mapping and unmapping files.
func newChurnLoader(t *testing.T, n int) *Loader {
	t.Helper()
	dir := t.TempDir()
	for s := 0; s < leakSets; s++ {
		b := index.NewBuilder(true)
		for i := 0; i < n; i++ {
			b.Add2(uint32(i/3), uint32(i), uint32(s))
		}
		store, err := b.Build()
		if err != nil {
			t.Fatalf("building set %d: %v", s, err)
		}
		if err := WriteSet(dir, fmt.Sprintf("set%d", s), DefaultLayout(), store); err != nil {
			t.Fatalf("writing set %d: %v", s, err)
		}
	}
	return NewLoader(dir, Options{UseMmap: true, MaxOpen: 2})
}

func lookupOnce(l *Loader, op int) error {
	name := fmt.Sprintf("set%d", op%leakSets)
	return l.With(name, func(st *index.Store) error {
		_ = st.Values(uint32(op % 1000))
		_, err := st.Values2(uint32(op % 1000))
		return err
	})
}

func TestMemoryLeakBasic(t *testing.T) {
	for _, iterations := range []int{100, 1000, 5000} {
		t.Run(fmt.Sprintf("iterations_%d", iterations), func(t *testing.T) {
			l := newChurnLoader(t, 3000)
			defer l.Close()

			var baseline runtime.MemStats
			runtime.GC()
			runtime.ReadMemStats(&baseline)
			baselineGoroutines := runtime.NumGoroutine()

			for i := 0; i < iterations; i++ {
				if err := lookupOnce(l, i); err != nil {
					t.Fatalf("lookup %d: %v", i, err)
				}
			}

			var final runtime.MemStats
			runtime.GC()
			runtime.ReadMemStats(&final)

			memDelta := int64(final.Alloc) - int64(baseline.Alloc)
			goroutineDelta := runtime.NumGoroutine() - baselineGoroutines
			memPerOp := float64(memDelta) / float64(iterations)

			t.Logf("iterations=%d mem_delta=%d bytes mem_per_op=%.2f goroutine_delta=%d",
				iterations, memDelta, memPerOp, goroutineDelta)

			if memPerOp > 1000 {
				t.Errorf("excessive memory usage per operation: %.2f bytes", memPerOp)
			}
			if goroutineDelta > 2 {
				t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
			}
		})
	}
}

func TestMemoryLeakConcurrent(t *testing.T) {
	memFile, err := os.Create(filepath.Join(t.TempDir(), "concurrent_memory.prof"))
	if err != nil {
		t.Fatalf("profile file creation failed: %v", err)
	}
	defer memFile.Close()

	l := newChurnLoader(t, 3000)
	defer l.Close()

	var baseline runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&baseline)
	baselineGoroutines := runtime.NumGoroutine()

	const workers, perWorker = 8, 500
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if err := lookupOnce(l, w*perWorker+i); err != nil {
					errs <- err
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent lookup: %v", err)
	}

	var final runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&final)

	memDelta := int64(final.Alloc) - int64(baseline.Alloc)
	goroutineDelta := runtime.NumGoroutine() - baselineGoroutines
	memPerOp := float64(memDelta) / float64(workers*perWorker)

	t.Logf("workers=%d ops=%d mem_delta=%d bytes mem_per_op=%.2f goroutine_delta=%d",
		workers, workers*perWorker, memDelta, memPerOp, goroutineDelta)

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		t.Errorf("heap profile write failed: %v", err)
	}
	if memPerOp > 1000 {
		t.Errorf("excessive memory usage per operation: %.2f bytes", memPerOp)
	}
	if goroutineDelta > 3 {
		t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
	}
	if st := l.GetStats(); st.LoadedSets > 2 {
		t.Errorf("loader holds %d sets, max is 2", st.LoadedSets)
	}
}
