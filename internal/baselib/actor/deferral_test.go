package actor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

func TestDeferralSettlesExactlyOnce(t *testing.T) {
	d := NewDeferral()
	d.Resolve(1)
	d.Resolve(2)
	d.Reject(errors.New("ignored"))

	value, err := unpackResult(d.Future().Await(context.Background()))
	require.NoError(t, err)
	require.Equal(t, 1, value)
}

func TestDeferralOnCompleteFiresForAlreadySettled(t *testing.T) {
	d := NewDeferral()
	d.Resolve("done")

	fired := make(chan any, 1)
	d.Future().OnComplete(context.Background(), func(res fn.Result[any]) {
		value, _ := unpackResult(res)
		fired <- value
	})

	select {
	case v := <-fired:
		require.Equal(t, "done", v)
	case <-time.After(time.Second):
		t.Fatal("OnComplete callback never fired")
	}
}

func TestDeferralAwaitRespectsContextCancellation(t *testing.T) {
	d := NewDeferral()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	res := d.Future().Await(ctx)
	_, err := unpackResult(res)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
