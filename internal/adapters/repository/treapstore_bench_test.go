package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
)

func populate(b *testing.B, store *TreapStore, n int) {
	b.Helper()
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1)) //nolint:gosec // benchmark data
	for i := 0; i < n; i++ {
		if err := store.Record(ctx, score(fmt.Sprintf("cell-%d", i), rng.Float64())); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTreapStore_Record(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer func() { _ = store.Close() }()
	populate(b, store, 100_000)

	rng := rand.New(rand.NewSource(2)) //nolint:gosec // benchmark data
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Record(ctx, score(fmt.Sprintf("cell-%d", rng.Intn(100_000)), rng.Float64()))
	}
}

func BenchmarkTreapStore_TopN(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer func() { _ = store.Close() }()
	populate(b, store, 100_000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.TopN(ctx, 50)
	}
}

func BenchmarkTreapStore_ParallelMixed(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer func() { _ = store.Close() }()
	populate(b, store, 10_000)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		rng := rand.New(rand.NewSource(rand.Int63())) //nolint:gosec // benchmark data
		for pb.Next() {
			if rng.Intn(10) < 8 {
				_, _ = store.TopN(ctx, 10)
			} else {
				_ = store.Record(ctx, score(fmt.Sprintf("cell-%d", rng.Intn(10_000)), rng.Float64()))
			}
		}
	})
}
