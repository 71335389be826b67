package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(sessionID string) Record {
	return Record{
		SessionID:     sessionID,
		Amount:        12.5,
		Currency:      "usd",
		ReaderEmail:   "reader@example.com",
		OrderID:       "ord_1",
		BookTitle:     "Dune",
		Date:          "2024-05-01",
		PaymentStatus: "paid",
	}
}

func TestInsertIfAbsent(t *testing.T) {
	db := newMockDynamo()
	ledger := NewLedger(db, testPaymentsTable)
	ctx := context.Background()

	inserted, err := ledger.InsertIfAbsent(ctx, testRecord("cs_1"))
	require.NoError(t, err)
	assert.True(t, inserted)

	// A second insert for the same session must report the existing record,
	// not overwrite or fail.
	inserted, err = ledger.InsertIfAbsent(ctx, testRecord("cs_1"))
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, 1, db.count(testPaymentsTable))

	inserted, err = ledger.InsertIfAbsent(ctx, testRecord("cs_2"))
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, 2, db.count(testPaymentsTable))
}

func TestGetBySession(t *testing.T) {
	db := newMockDynamo()
	ledger := NewLedger(db, testPaymentsTable)
	ctx := context.Background()

	got, err := ledger.GetBySession(ctx, "cs_missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ledger.InsertIfAbsent(ctx, testRecord("cs_1"))
	require.NoError(t, err)

	got, err = ledger.GetBySession(ctx, "cs_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "cs_1", got.SessionID)
	assert.Equal(t, 12.5, got.Amount)
	assert.Equal(t, "Dune", got.BookTitle)
}

func TestListByEmail(t *testing.T) {
	db := newMockDynamo()
	ledger := NewLedger(db, testPaymentsTable)
	ctx := context.Background()

	recA := testRecord("cs_1")
	recB := testRecord("cs_2")
	recC := testRecord("cs_3")
	recC.ReaderEmail = "other@example.com"
	for _, rec := range []Record{recA, recB, recC} {
		_, err := ledger.InsertIfAbsent(ctx, rec)
		require.NoError(t, err)
	}

	got, err := ledger.ListByEmail(ctx, "reader@example.com")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = ledger.ListByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, got)
}
