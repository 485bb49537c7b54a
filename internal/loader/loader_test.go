package loader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go-jobpilot-automation/internal/driver/drivertest"
)

const sel = ".job-card"

func fastLoader() *Loader {
	l := New()
	l.Settle = time.Millisecond
	return l
}

func TestLoadAllStopsOnPlateau(t *testing.T) {
	sess := drivertest.New()
	sess.CountSeq[sel] = []int{10, 20, 30, 30, 30}

	count, err := fastLoader().LoadAll(context.Background(), sess, sel)
	assert.NoError(t, err)
	assert.Equal(t, 30, count)
	// 10, 20, 30 grew; then two stagnant reads end the loop
	assert.Equal(t, 4, sess.ScrollCount)
}

func TestLoadAllEmptyFeed(t *testing.T) {
	sess := drivertest.New()
	sess.CountSeq[sel] = []int{0, 0, 0}

	count, err := fastLoader().LoadAll(context.Background(), sess, sel)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestLoadAllIterationCeiling(t *testing.T) {
	sess := drivertest.New()
	// grows forever
	var seq []int
	for i := 1; i <= 100; i++ {
		seq = append(seq, i*10)
	}
	sess.CountSeq[sel] = seq

	l := fastLoader()
	l.MaxIterations = 5
	count, err := l.LoadAll(context.Background(), sess, sel)
	assert.NoError(t, err)
	assert.Equal(t, 50, count)
}

func TestLoadAllScrollErrorsAreStagnation(t *testing.T) {
	sess := drivertest.New()
	sess.CountSeq[sel] = []int{10, 10, 10, 10}
	sess.ScrollErr = errors.New("script blew up")

	count, err := fastLoader().LoadAll(context.Background(), sess, sel)
	assert.NoError(t, err)
	assert.Equal(t, 10, count)
	// first iteration: growth to 10, scroll error ticks once;
	// second iteration: stagnant read makes two
	assert.Equal(t, 1, sess.ScrollCount)
}

func TestLoadAllCancelled(t *testing.T) {
	sess := drivertest.New()
	sess.CountSeq[sel] = []int{10, 20, 30}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	count, err := fastLoader().LoadAll(ctx, sess, sel)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, count)
}
