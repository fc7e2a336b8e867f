package concurrency_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/vnykmshr/goguard/pkg/ratelimit/concurrency"
)

// Example demonstrates bounding concurrent work with permits
func Example() {
	limiter, err := concurrency.NewSafe(2)
	if err != nil {
		panic(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Wait(context.Background()); err != nil {
				return
			}
			defer limiter.Release()
			// at most 2 goroutines reach this point at once
		}()
	}
	wg.Wait()

	fmt.Println(limiter.InUse())

	// Output: 0
}
