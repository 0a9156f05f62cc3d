package worker

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestSleepRespectsCancellation(t *testing.T) {
	c := qt.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	c.Assert(sleep(ctx, time.Minute), qt.IsFalse)
	c.Assert(time.Since(start) < time.Second, qt.IsTrue)
}

func TestSleepElapses(t *testing.T) {
	c := qt.New(t)

	c.Assert(sleep(context.Background(), time.Millisecond), qt.IsTrue)
}
