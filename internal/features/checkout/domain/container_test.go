package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainer_SetPayer(t *testing.T) {
	c := NewContainer()
	assert.ErrorIs(t, c.SetPayer(*testPayer), ErrPayerLocked)

	c.ActiveStep = StepAuth
	require.NoError(t, c.SetPayer(*testPayer))
	assert.Equal(t, testPayer.Email, c.Payer.Email)

	c.ActiveStep = StepPayment
	assert.ErrorIs(t, c.SetPayer(Payer{Email: "other@example.com", FullName: "Other"}), ErrPayerLocked)
	assert.Equal(t, testPayer.Email, c.Payer.Email)
}

func TestContainer_Continue(t *testing.T) {
	c := NewContainer()

	assert.ErrorIs(t, c.Continue(true), ErrEmptyCart)
	require.NoError(t, c.Continue(false))
	assert.Equal(t, StepAuth, c.ActiveStep)

	assert.ErrorIs(t, c.Continue(false), ErrPayerRequired)
	require.NoError(t, c.SetPayer(*testPayer))
	require.NoError(t, c.Continue(false))
	assert.Equal(t, StepShipping, c.ActiveStep)

	assert.ErrorIs(t, c.Continue(false), ErrShippingRequired)
	c.SetShipping(*testAddress)
	require.NoError(t, c.Continue(false))
	assert.Equal(t, StepSummary, c.ActiveStep)

	require.NoError(t, c.Continue(false))
	assert.Equal(t, StepPayment, c.ActiveStep)

	assert.ErrorIs(t, c.Continue(false), ErrTransactionRequired)
	c.SetTransaction("tx_1", "CARD")
	require.NoError(t, c.Continue(false))
	assert.Equal(t, StepStatus, c.ActiveStep)

	assert.ErrorIs(t, c.Continue(false), ErrNoNextStep)
}

func TestContainer_BackDropsTransaction(t *testing.T) {
	c := &Container{ActiveStep: StepStatus, Payer: testPayer, ShippingData: testAddress}
	c.SetTransaction("tx_1", "CARD")

	require.NoError(t, c.Back())
	assert.Equal(t, StepPayment, c.ActiveStep)
	assert.Equal(t, "tx_1", c.TransactionID)

	require.NoError(t, c.Back())
	assert.Equal(t, StepSummary, c.ActiveStep)
	assert.Empty(t, c.TransactionID)
	assert.Empty(t, c.PaymentMethod)
}

func TestContainer_GoTo(t *testing.T) {
	c := &Container{ActiveStep: StepSummary, Payer: testPayer, ShippingData: testAddress}

	assert.ErrorIs(t, c.GoTo(StepPayment), ErrForwardJump)
	assert.ErrorIs(t, c.GoTo(StepSummary), ErrForwardJump)
	assert.ErrorIs(t, c.GoTo("ELSEWHERE"), ErrInvalidStep)

	require.NoError(t, c.GoTo(StepAuth))
	assert.Equal(t, StepAuth, c.ActiveStep)
	assert.NotNil(t, c.Payer)
}

func TestContainer_ApplyGuards(t *testing.T) {
	c := &Container{ActiveStep: StepPayment, Payer: testPayer, ShippingData: testAddress, TransactionID: "tx_1"}

	assert.False(t, c.ApplyGuards(false))
	assert.True(t, c.ApplyGuards(true))
	assert.Equal(t, StepCart, c.ActiveStep)
	assert.Empty(t, c.TransactionID)
}

func TestContainer_Reset(t *testing.T) {
	c := &Container{ActiveStep: StepPayment, Payer: testPayer, ShippingData: testAddress, TransactionID: "tx_1"}
	c.Reset()
	assert.Equal(t, *NewContainer(), *c)
}

func TestContainer_Clone(t *testing.T) {
	c := &Container{ActiveStep: StepShipping, Payer: &Payer{Email: "a@example.com", FullName: "A"}}
	cp := c.Clone()
	cp.Payer.Email = "b@example.com"
	assert.Equal(t, "a@example.com", c.Payer.Email)
}

func TestSnapshot(t *testing.T) {
	c := &Container{ActiveStep: StepStatus, Payer: testPayer, ShippingData: testAddress, TransactionID: "tx_1", PaymentMethod: "CARD"}

	snap := c.Snapshot()
	assert.Equal(t, StepPayment, snap.ActiveStep)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "tx_1")

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(raw, &decoded))
	restored := Rehydrate(decoded)
	assert.Equal(t, StepPayment, restored.ActiveStep)
	assert.Equal(t, testPayer.Email, restored.Payer.Email)
	assert.Equal(t, testAddress.City, restored.ShippingData.City)
	assert.Empty(t, restored.TransactionID)
}

func TestRehydrate(t *testing.T) {
	t.Run("StatusCoerced", func(t *testing.T) {
		c := Rehydrate(Snapshot{Version: snapshotVersion, ActiveStep: StepStatus, Payer: testPayer})
		assert.Equal(t, StepPayment, c.ActiveStep)
	})

	t.Run("UnknownStep", func(t *testing.T) {
		c := Rehydrate(Snapshot{Version: snapshotVersion, ActiveStep: "GONE", Payer: testPayer})
		assert.Equal(t, StepCart, c.ActiveStep)
		assert.NotNil(t, c.Payer)
	})

	t.Run("UnknownVersion", func(t *testing.T) {
		c := Rehydrate(Snapshot{Version: 7, ActiveStep: StepSummary})
		assert.Equal(t, StepCart, c.ActiveStep)
	})
}
