package scraper_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"vasiluta.ro/plism/scraper"
)

type slicePager struct {
	pages [][]int
	calls int
}

func (p *slicePager) PageZeroOffset() int { return 0 }

func (p *slicePager) NextPageOffset(t int, page []int) int { return t + 1 }

func (p *slicePager) GetPage(_ context.Context, offset int) ([]int, error) {
	p.calls++
	if offset >= len(p.pages) {
		return nil, nil
	}
	return p.pages[offset], nil
}

func TestWalk(t *testing.T) {
	convey.Convey("Given a paged listing", t, func() {
		ctx := context.Background()
		p := &slicePager{pages: [][]int{{50, 30}, {20, 0, 10}, {5}}}
		var got []int
		yield := func(v int) error {
			got = append(got, v)
			return nil
		}

		convey.Convey("When walking until a zero", func() {
			err := scraper.Walk[int, int](ctx, p, func(v int) bool { return v == 0 }, yield)

			convey.Convey("Then the zero and everything after it are excluded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldResemble, []int{50, 30, 20})
				convey.So(p.calls, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When nothing stops the walk", func() {
			err := scraper.Walk[int, int](ctx, p, nil, yield)

			convey.Convey("Then it ends at the first empty page", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldResemble, []int{50, 30, 20, 0, 10, 5})
				convey.So(p.calls, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When yield fails", func() {
			boom := errors.New("boom")
			err := scraper.Walk[int, int](ctx, p, nil, func(v int) error { return boom })

			convey.Convey("Then the error is returned", func() {
				convey.So(err, convey.ShouldEqual, boom)
			})
		})
	})
}

func TestRunBatch(t *testing.T) {
	convey.Convey("Given a batch with failing jobs", t, func() {
		var running, peak, done int32
		job := func(fail bool) func(context.Context) error {
			return func(context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				atomic.AddInt32(&done, 1)
				if fail {
					return errors.New("failed")
				}
				return nil
			}
		}
		var jobs []scraper.Job
		for i := 0; i < 20; i++ {
			jobs = append(jobs, scraper.Job{Name: "job", Run: job(i%5 == 0)})
		}

		errs := scraper.RunBatch(context.Background(), 3, jobs)

		convey.Convey("Then every job runs and failures are collected", func() {
			convey.So(int(atomic.LoadInt32(&done)), convey.ShouldEqual, 20)
			convey.So(errs, convey.ShouldHaveLength, 4)
			convey.So(errs[0].Job, convey.ShouldEqual, "job")
		})

		convey.Convey("Then concurrency stays within the limit", func() {
			convey.So(int(atomic.LoadInt32(&peak)), convey.ShouldBeLessThanOrEqualTo, 3)
		})
	})
}

func TestClientGet(t *testing.T) {
	convey.Convey("Given a retrying client", t, func() {
		ctx := context.Background()
		c := &scraper.Client{HTTP: scraper.NewClient(4, time.Second), Retries: 2, Backoff: time.Millisecond}

		convey.Convey("When the server answers", func() {
			var ua string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ua = r.UserAgent()
				w.Write([]byte("ok"))
			}))
			defer srv.Close()

			resp, err := c.Get(ctx, srv.URL)

			convey.Convey("Then the response is returned with the browser user agent", func() {
				convey.So(err, convey.ShouldBeNil)
				resp.Body.Close()
				convey.So(ua, convey.ShouldEqual, scraper.UserAgent)
			})
		})

		convey.Convey("When the server returns an error status", func() {
			var hits int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer srv.Close()

			_, err := c.Get(ctx, srv.URL)

			convey.Convey("Then it fails without retrying", func() {
				convey.So(errors.Is(err, scraper.ErrStatus), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, srv.URL+": 500")
				convey.So(int(atomic.LoadInt32(&hits)), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When nothing listens", func() {
			l, err := net.Listen("tcp", "127.0.0.1:0")
			convey.So(err, convey.ShouldBeNil)
			addr := l.Addr().String()
			l.Close()

			_, err = c.Get(ctx, "http://"+addr)

			convey.Convey("Then it gives up after the retries", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "retries exhausted")
			})
		})
	})
}
