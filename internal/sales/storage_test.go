package sales

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLocalStorage_AppendRead(t *testing.T) {
	ctx := context.Background()
	l := NewLocalStorage()
	sale := &Sale{
		ID:     "s1",
		Seller: "alice",
		Items:  []LineItem{{ProductID: "p", Quantity: 1, UnitPrice: decimal.NewFromInt(3)}},
	}

	require.NoError(t, l.Append(ctx, sale))
	assert.ErrorIs(t, l.Append(ctx, sale), ErrAlreadyExists)
	assert.ErrorIs(t, l.Append(ctx, &Sale{}), ErrEmptyID)

	got, err := l.Read(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Seller)

	_, err = l.Read(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_RecordsAreImmutable(t *testing.T) {
	ctx := context.Background()
	l := NewLocalStorage()
	sale := &Sale{ID: "s1", Seller: "alice", Items: []LineItem{{ProductID: "p", Quantity: 1}}}
	require.NoError(t, l.Append(ctx, sale))

	sale.Items[0].Quantity = 99
	got, err := l.Read(ctx, "s1")
	require.NoError(t, err)
	got.Items[0].Quantity = 42

	again, err := l.Read(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Items[0].Quantity)
}

func TestLocalStorage_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	l := NewLocalStorage()
	for _, s := range []*Sale{
		{ID: "1", Seller: "alice"},
		{ID: "2", Seller: "bob"},
		{ID: "3", Seller: "alice"},
	} {
		require.NoError(t, l.Append(ctx, s))
	}

	alice, err := l.ListBySeller(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alice, 2)
	assert.Equal(t, "3", alice[0].ID)
	assert.Equal(t, "1", alice[1].ID)

	all, err := l.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "3", all[0].ID)

	none, err := l.ListBySeller(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}
