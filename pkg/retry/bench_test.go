package retry

import (
	"context"
	"testing"
)

func BenchmarkExecuteSuccess(b *testing.B) {
	r, err := NewWithConfigSafe(Config{MaxAttempts: 3})
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	op := func(_ context.Context) error { return nil }

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Execute(ctx, op)
	}
}
