// Command delay waits for a configurable duration, then exits.
//
// Grounded on original_source's example/delay.cpp: argv[1], if given, is a
// millisecond count (default 100ms).
package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/kcoro/structasync"
)

func main() {
	os.Exit(async.Run(run, os.Args))
}

func run(ctx context.Context, ex async.Executor, argv []string) int {
	delay := 100 * time.Millisecond
	if len(argv) > 1 {
		ms, err := strconv.Atoi(argv[1])
		if err != nil {
			return 2
		}
		delay = time.Duration(ms) * time.Millisecond
	}

	if err := async.Sleep(ctx, ex, delay); err != nil {
		return 1
	}
	return 0
}
