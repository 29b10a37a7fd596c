package payment

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		query string
		ok    bool
	}{
		{"status=successful&tx_ref=ORD-1&transaction_id=99", true},
		{"status=cancelled&tx_ref=ORD-1&transaction_id=99", false},
		{"status=successful&tx_ref=ORD-1", false},
		{"status=successful&transaction_id=99", false},
		{"", false},
	}
	for _, tt := range tests {
		q, err := url.ParseQuery(tt.query)
		require.NoError(t, err)
		cb, ok := ParseCallback(q)
		assert.Equal(t, tt.ok, ok, tt.query)
		if ok {
			assert.Equal(t, Callback{TxRef: "ORD-1", TransactionID: "99"}, cb)
		}
	}
}

func TestStripCallback(t *testing.T) {
	u, err := url.Parse("https://shop.example/orders/ORD-1?status=successful&tx_ref=ORD-1&transaction_id=99&tab=items")
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example/orders/ORD-1?tab=items", StripCallback(u))

	u, _ = url.Parse("/orders/ORD-1?status=successful&tx_ref=ORD-1&transaction_id=99")
	assert.Equal(t, "/orders/ORD-1", StripCallback(u))
}

func TestVerifier_SingleCallForConcurrentDuplicates(t *testing.T) {
	v := NewVerifier()
	cb := Callback{TxRef: "ORD-1", TransactionID: "99"}

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	slow := func(context.Context, Callback) error {
		calls.Add(1)
		close(started)
		<-release
		return nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		firstErr = v.Verify(context.Background(), cb, slow)
	}()
	<-started

	assert.True(t, v.Verifying("ORD-1"))
	err := v.Verify(context.Background(), cb, slow)
	assert.ErrorIs(t, err, ErrInFlight)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, v.Verifying("ORD-1"))
}

func TestVerifier_AllowsRetryAfterFailure(t *testing.T) {
	v := NewVerifier()
	cb := Callback{TxRef: "ORD-1", TransactionID: "99"}
	boom := errors.New("gateway timeout")

	err := v.Verify(context.Background(), cb, func(context.Context, Callback) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = v.Verify(context.Background(), cb, func(context.Context, Callback) error { return nil })
	assert.NoError(t, err)
}

func TestVerifier_DifferentTransactionsRunIndependently(t *testing.T) {
	v := NewVerifier()
	inner := Callback{TxRef: "ORD-1", TransactionID: "2"}

	err := v.Verify(context.Background(), Callback{TxRef: "ORD-1", TransactionID: "1"}, func(ctx context.Context, _ Callback) error {
		return v.Verify(ctx, inner, func(context.Context, Callback) error { return nil })
	})
	assert.NoError(t, err)
}
