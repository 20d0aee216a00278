// Command channel demonstrates a producer/consumer pair over an
// async.Channel: the producer writes 0..3 then closes; the consumer reads
// until the channel reports it is no longer open.
//
// Grounded on original_source's example/channel.cpp end-to-end scenario.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kcoro/structasync"
)

func main() {
	os.Exit(async.Run(run, os.Args))
}

func run(ctx context.Context, ex async.Executor, _ []string) int {
	ch := async.NewChannel[int](0)

	producer := async.NewEagerTask[struct{}](ctx, ex, func(ctx context.Context) (struct{}, error) {
		for i := 0; i < 4; i++ {
			if err := ch.Write(ctx, i); err != nil {
				return struct{}{}, err
			}
		}
		ch.Close()
		return struct{}{}, nil
	})

	for ch.IsOpen() {
		v, err := ch.Read(ctx)
		if err != nil {
			break
		}
		fmt.Println(v)
	}

	if _, err := producer.Await(ctx); err != nil {
		return 1
	}
	return 0
}
