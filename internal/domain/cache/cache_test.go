package cache_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/firewatch/internal/domain/cache"
	"github.com/okian/firewatch/internal/domain/reading"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new cache", t, func() {
		Convey("When created with default options", func() {
			c := cache.New[string, int]()

			Convey("Then it is empty", func() {
				So(c, ShouldNotBeNil)
				So(c.Len(), ShouldEqual, 0)
				_, ok := c.Get(ctx, "missing")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When storing a value", func() {
			c := cache.New[string, int]()
			c.Put(ctx, "a", 1)

			Convey("Then it can be read back", func() {
				v, ok := c.Get(ctx, "a")
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 1)
				So(c.Len(), ShouldEqual, 1)
			})

			Convey("And overwriting keeps a single entry", func() {
				c.Put(ctx, "a", 2)
				v, _ := c.Get(ctx, "a")
				So(v, ShouldEqual, 2)
				So(c.Len(), ShouldEqual, 1)
			})
		})

		Convey("When keyed by readings", func() {
			c := cache.New[reading.Reading, float64]()
			r := reading.Default()
			c.Put(ctx, r, 0.42)

			Convey("Then an equal reading hits", func() {
				v, ok := c.Get(ctx, reading.Default())
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 0.42)
			})

			Convey("Then a different reading misses", func() {
				other := r
				other.WindSpeed++
				_, ok := c.Get(ctx, other)
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestCacheEviction(t *testing.T) {
	ctx := context.Background()

	Convey("Given a bounded cache of three", t, func() {
		c := cache.New[string, int](cache.WithMaxSize(3))
		for i, k := range []string{"a", "b", "c"} {
			c.Put(ctx, k, i)
		}

		Convey("When a fourth key is added", func() {
			c.Put(ctx, "d", 3)

			Convey("Then the oldest key is evicted", func() {
				So(c.Len(), ShouldEqual, 3)
				_, ok := c.Get(ctx, "a")
				So(ok, ShouldBeFalse)
				for _, k := range []string{"b", "c", "d"} {
					_, ok := c.Get(ctx, k)
					So(ok, ShouldBeTrue)
				}
			})

			Convey("And eviction continues in insertion order", func() {
				c.Put(ctx, "e", 4)
				_, ok := c.Get(ctx, "b")
				So(ok, ShouldBeFalse)
				_, ok = c.Get(ctx, "c")
				So(ok, ShouldBeTrue)
			})
		})
	})

	Convey("Given a cache of one", t, func() {
		c := cache.New[string, int](cache.WithMaxSize(1))
		c.Put(ctx, "a", 1)
		c.Put(ctx, "b", 2)

		Convey("Then only the newest survives", func() {
			So(c.Len(), ShouldEqual, 1)
			_, ok := c.Get(ctx, "a")
			So(ok, ShouldBeFalse)
			v, ok := c.Get(ctx, "b")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 2)
		})
	})

	Convey("Given an unbounded cache", t, func() {
		c := cache.New[int, int](cache.WithMaxSize(0))
		const n = 1000
		for i := 0; i < n; i++ {
			c.Put(ctx, i, i*i)
		}

		Convey("Then nothing is evicted", func() {
			So(c.Len(), ShouldEqual, int64(n))
			for i := 0; i < n; i++ {
				v, ok := c.Get(ctx, i)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, i*i)
			}
		})
	})
}

func TestCacheConcurrency(t *testing.T) {
	Convey("Given a cache shared by goroutines", t, func() {
		c := cache.New[string, int](cache.WithMaxSize(1000))
		const goroutines = 10
		const perGoroutine = 100

		Convey("When they write and read concurrently", func() {
			var wg sync.WaitGroup
			for g := 0; g < goroutines; g++ {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					for j := 0; j < perGoroutine; j++ {
						key := fmt.Sprintf("k-%d-%d", id, j)
						c.Put(context.Background(), key, j)
						c.Get(context.Background(), key)
					}
				}(g)
			}
			wg.Wait()

			Convey("Then every entry fits without eviction", func() {
				So(c.Len(), ShouldEqual, int64(goroutines*perGoroutine))
			})
		})
	})
}
