package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider_Lifecycle(t *testing.T) {
	p := NewMockProvider()
	ctx := context.Background()

	id, err := p.CreateIntent(ctx, 6800, "GBP")
	require.NoError(t, err)
	assert.Contains(t, id, "pi_")

	refunded, err := p.Refund(ctx, id)
	require.NoError(t, err)
	assert.False(t, refunded, "нельзя вернуть неоплаченное")

	ok, err := p.Confirm(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	refunded, err = p.Refund(ctx, id)
	require.NoError(t, err)
	assert.True(t, refunded)

	_, err = p.Confirm(ctx, "pi_unknown")
	assert.ErrorIs(t, err, ErrIntentNotFound)

	_, err = p.CreateIntent(ctx, -1, "GBP")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
