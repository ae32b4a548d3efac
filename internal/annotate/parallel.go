package annotate

import (
	"runtime"
	"sync"

	"github.com/pintron/pintron/internal/model"
)

// WorkItem holds an isoform ready for annotation.
type WorkItem struct {
	Seq     int
	Isoform *model.Isoform
}

// WorkResult holds the annotation report for a single isoform.
type WorkResult struct {
	Seq    int
	Report Report
}

// ParallelAnnotate annotates work items using a pool of workers. Each worker
// mutates only the isoform it received; the genome and PAS evidence are
// shared read-only. Results arrive in completion order; use OrderedCollect
// to consume them by sequence number. If workers is 0, runtime.NumCPU() is
// used.
func (a *Annotator) ParallelAnnotate(items <-chan WorkItem, locus *Locus, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for item := range items {
				results <- WorkResult{
					Seq:    item.Seq,
					Report: a.annotateIsoform(item.Isoform, locus),
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
