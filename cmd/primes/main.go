// primes computes every prime below a limit with a pool of workers that
// coordinate exclusively through an object space.
//
// The master seeds the space with the primes below 10, then repeatedly
// publishes segment tasks covering [known, known²). Workers claim a task
// by taking it, look up the primes at or below √end with a ranged read,
// trial-divide the segment, deposit each prime they find, and write the
// task back marked finished. The master blocks on the finished tasks
// before opening the next round, so every divisor a worker needs is
// already in the space.
//
// Usage:
//
//	primes [--limit N] [--workers N]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/calvinalkan/objectspace/pkg/objectspace"
)

// segment is one unit of work: sieve [Start, End) and report back.
type segment struct {
	Finished bool  `json:"finished"`
	Start    int64 `json:"start"`
	End      int64 `json:"end"`
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("primes", pflag.ContinueOnError)

	limit := fs.Int64P("limit", "l", 1_000_000, "compute primes below this bound")
	workers := fs.IntP("workers", "w", 4, "number of sieve workers")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	if *limit < 2 {
		return fmt.Errorf("limit must be at least 2, got %d", *limit)
	}

	if *workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *workers)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	space := objectspace.New()

	for _, p := range []int64{2, 3, 5, 7} {
		if p >= *limit {
			break
		}

		if err := objectspace.Write(space, p); err != nil {
			return fmt.Errorf("seeding primes: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < *workers; i++ {
		g.Go(func() error { return sieveWorker(ctx, space) })
	}

	masterErr := distribute(ctx, space, *limit, *workers)

	// Workers block on the next unfinished segment; cancel to release
	// them once the master is done.
	stop()

	if err := g.Wait(); err != nil {
		return err
	}

	if masterErr != nil {
		return masterErr
	}

	primes, err := objectspace.ReadAllRange[int64](space, "", objectspace.Below(objectspace.Int(*limit)))
	if err != nil {
		return fmt.Errorf("collecting primes: %w", err)
	}

	for _, p := range primes {
		fmt.Println(p)
	}

	fmt.Fprintf(os.Stderr, "%d primes below %d\n", len(primes), *limit)

	return nil
}

// distribute publishes segment tasks in rounds. Each round covers
// [known, min(known², limit)): by then every prime a worker could need
// as a divisor is at most √end < known and already deposited.
func distribute(ctx context.Context, space *objectspace.Space, limit int64, workers int) error {
	known := int64(10)

	for known < limit {
		upper := min(known*known, limit)

		issued := 0

		step := max((upper-known)/int64(workers), 1)

		for lo := known; lo < upper; lo += step {
			seg := segment{Start: lo, End: min(lo+step, upper)}

			if err := objectspace.Write(space, seg); err != nil {
				return fmt.Errorf("publishing segment: %w", err)
			}

			issued++
		}

		for i := 0; i < issued; i++ {
			_, err := objectspace.TakeKey[segment](ctx, space, "finished", objectspace.Bool(true))
			if err != nil {
				return fmt.Errorf("awaiting segments: %w", err)
			}
		}

		known = upper
	}

	return nil
}

// sieveWorker claims unfinished segments until the context ends.
func sieveWorker(ctx context.Context, space *objectspace.Space) error {
	for {
		seg, err := objectspace.TakeKey[segment](ctx, space, "finished", objectspace.Bool(false))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return err
		}

		divisors, err := objectspace.ReadAllRange[int64](space, "",
			objectspace.AtMost(objectspace.Int(isqrt(seg.End-1))))
		if err != nil {
			return fmt.Errorf("reading divisors: %w", err)
		}

		for n := seg.Start; n < seg.End; n++ {
			if !divisibleByAny(n, divisors) {
				if err := objectspace.Write(space, n); err != nil {
					return fmt.Errorf("depositing prime: %w", err)
				}
			}
		}

		seg.Finished = true

		if err := objectspace.Write(space, seg); err != nil {
			return fmt.Errorf("finishing segment: %w", err)
		}
	}
}

func divisibleByAny(n int64, divisors []int64) bool {
	for _, d := range divisors {
		if d*d > n {
			return false
		}

		if n%d == 0 {
			return true
		}
	}

	return false
}

// isqrt returns the integer square root of n.
func isqrt(n int64) int64 {
	if n < 0 {
		return 0
	}

	r := int64(0)
	for (r+1)*(r+1) <= n {
		r++
	}

	return r
}
