// Package scan streams a corpus file through a pool of worker goroutines,
// each segmenting its chunks with its own Segmenter, and folds the partial
// statistics into a single total. Chunking is byte-aligned, not
// token-aligned: the DP restarts at automaton state 0 for each chunk, so
// segmentations at chunk boundaries may differ from a global optimum. This
// is an accepted approximation: training targets a statistical objective,
// not exact compression.
package scan

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/vocabtrain/vocabtrain/internal/errs"
	"github.com/vocabtrain/vocabtrain/internal/segment"
	"github.com/vocabtrain/vocabtrain/internal/vocab"
)

// DefaultChunkSize is the fixed chunk size the scanner reads the corpus in.
const DefaultChunkSize = 16 * 1024 * 1024

// jobQueueCapacity bounds outstanding work and, with it, peak memory to
// roughly workers*(chunkSize+DP overhead) plus in-flight chunks.
const jobQueueCapacity = 2

// ProgressFunc is invoked as chunks are drained, reporting cumulative bytes
// scanned and wall-clock elapsed since the scan started. It is purely an
// observability hook. A nil ProgressFunc is always valid.
type ProgressFunc func(scannedBytes uint64, elapsed time.Duration)

// Scan reads path in DefaultChunkSize chunks (or chunkSize if positive),
// dispatches them across workers goroutines (or runtime.NumCPU() if
// workers <= 0), and returns the commutatively-reduced TokenStats for the
// whole file. ts is cloned once per worker so each worker's Segmenter is
// self-contained and read-only with respect to the caller's TokenSet.
func Scan(ts *vocab.TokenSet, path string, workers, chunkSize int, onProgress ProgressFunc) (*segment.TokenStats, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCorruptInput, err)
	}
	defer f.Close()

	jobs := make(chan []byte, jobQueueCapacity)
	results := make(chan *segment.TokenStats, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			seg := segment.New(ts.Clone())
			for chunk := range jobs {
				_, stats := seg.Segment(chunk)
				results <- stats
			}
		}()
	}

	total := segment.NewTokenStats(ts.NTokens())
	start := time.Now()
	reader := bufio.NewReaderSize(f, chunkSize)
	buf := make([]byte, chunkSize)
	jobsInFlight := 0

	drainAvailable := func() {
		for {
			select {
			case stats := <-results:
				jobsInFlight--
				_ = total.Add(stats)
				if onProgress != nil {
					onProgress(total.ScannedBytes, time.Since(start))
				}
			default:
				return
			}
		}
	}

	var readErr error
readLoop:
	for {
		n, rerr := io.ReadFull(reader, buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			jobs <- chunk
			jobsInFlight++
		}
		drainAvailable()

		switch rerr {
		case nil:
			continue
		case io.EOF, io.ErrUnexpectedEOF:
			break readLoop
		default:
			readErr = rerr
			break readLoop
		}
	}
	close(jobs)

	for jobsInFlight > 0 {
		stats := <-results
		jobsInFlight--
		_ = total.Add(stats)
		if onProgress != nil {
			onProgress(total.ScannedBytes, time.Since(start))
		}
	}
	wg.Wait()
	close(results)

	if readErr != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCorruptInput, readErr)
	}
	return total, nil
}
