package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAt(t *testing.T, path, driver string) *Database {
	t.Helper()
	db, err := Open(context.Background(), Options{Path: path, Driver: driver, Seed: true, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return db
}

func tempDB(t *testing.T) *Database {
	t.Helper()
	db := openAt(t, filepath.Join(t.TempDir(), "test.db"), "")
	t.Cleanup(func() { db.Close() })
	return db
}

type state struct {
	Books []Book
	Sales []Sale
}

// snapshot captures every book and sale row for before/after comparisons.
func snapshot(t *testing.T, d *Database) state {
	t.Helper()
	var s state
	require.NoError(t, d.db.Select(&s.Books, `SELECT bid,btitle,bprice,bstock FROM book ORDER BY bid`))
	require.NoError(t, d.db.Select(&s.Sales, `SELECT sid,sdate,mid,bid,sqty,sdiscount,stotal FROM sale ORDER BY sid`))
	return s
}

func countRows(t *testing.T, d *Database, table string) int {
	t.Helper()
	var n int
	require.NoError(t, d.db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}

func TestSeedIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.db")

	db := openAt(t, path, "")
	require.NoError(t, db.Seed(context.Background()))
	require.NoError(t, db.Close())

	db = openAt(t, path, "")
	defer db.Close()

	assert.Equal(t, 3, countRows(t, db, "member"))
	assert.Equal(t, 3, countRows(t, db, "book"))
	assert.Equal(t, 4, countRows(t, db, "sale"))
	assert.Equal(t, seedSales, snapshot(t, db).Sales)
}

func TestSeedDoesNotOverwriteExistingRows(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	_, err := db.AddSale(ctx, SaleRequest{Date: "2024-02-01", MemberID: "M001", BookID: "B001", Qty: 2, Discount: 50})
	require.NoError(t, err)
	require.NoError(t, db.Seed(ctx))

	b, err := db.GetBook(ctx, "B001")
	require.NoError(t, err)
	assert.EqualValues(t, 48, b.Stock)
	assert.Equal(t, 5, countRows(t, db, "sale"))
}

func TestAddSaleEndToEnd(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	before := snapshot(t, db)

	sale, err := db.AddSale(ctx, SaleRequest{Date: "2024-02-01", MemberID: "M001", BookID: "B001", Qty: 2, Discount: 50})
	require.NoError(t, err)
	assert.EqualValues(t, 5, sale.ID)
	assert.EqualValues(t, 1150, sale.Total)

	after := snapshot(t, db)
	require.Len(t, after.Sales, len(before.Sales)+1)
	assert.Equal(t, *sale, after.Sales[len(after.Sales)-1])

	// Only B001 changes, by exactly the quantity sold.
	for i, b := range after.Books {
		want := before.Books[i]
		if b.ID == "B001" {
			want.Stock -= 2
		}
		assert.Equal(t, want, b)
	}
}

func TestAddSaleInsufficientStockChangesNothing(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	_, err := db.AddSale(ctx, SaleRequest{Date: "2024-02-01", MemberID: "M001", BookID: "B001", Qty: 2, Discount: 50})
	require.NoError(t, err)
	before := snapshot(t, db)

	_, err = db.AddSale(ctx, SaleRequest{Date: "2024-02-02", MemberID: "M001", BookID: "B001", Qty: 999, Discount: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))

	var se *StockError
	require.True(t, errors.As(err, &se))
	assert.EqualValues(t, 48, se.Available)
	assert.EqualValues(t, 999, se.Requested)

	assert.Equal(t, before, snapshot(t, db))
}

func TestAddSaleSellsEntireStock(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	_, err := db.AddSale(ctx, SaleRequest{Date: "2024-02-01", MemberID: "M002", BookID: "B003", Qty: 20})
	require.NoError(t, err)

	b, err := db.GetBook(ctx, "B003")
	require.NoError(t, err)
	assert.EqualValues(t, 0, b.Stock)

	_, err = db.AddSale(ctx, SaleRequest{Date: "2024-02-01", MemberID: "M002", BookID: "B003", Qty: 1})
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestAddSaleUnknownReferences(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	before := snapshot(t, db)

	tests := []struct {
		name     string
		memberID string
		bookID   string
		entity   string
	}{
		{"unknown member", "M999", "B001", "member"},
		{"unknown book", "M001", "B999", "book"},
		{"both unknown", "M999", "B999", "member"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := db.AddSale(ctx, SaleRequest{Date: "2024-02-01", MemberID: tc.memberID, BookID: tc.bookID, Qty: 1})
			require.ErrorIs(t, err, ErrNotFound)
			var nf *NotFoundError
			require.True(t, errors.As(err, &nf))
			assert.Equal(t, tc.entity, nf.Entity)
		})
	}
	assert.Equal(t, before, snapshot(t, db))
}

func TestAddSaleRejectsInvalidInput(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	before := snapshot(t, db)

	tests := []struct {
		name string
		req  SaleRequest
		want error
	}{
		{"slash date", SaleRequest{Date: "2024/02/01", MemberID: "M001", BookID: "B001", Qty: 1}, ErrInvalidDate},
		{"short date", SaleRequest{Date: "2024-2-1", MemberID: "M001", BookID: "B001", Qty: 1}, ErrInvalidDate},
		{"zero qty", SaleRequest{Date: "2024-02-01", MemberID: "M001", BookID: "B001", Qty: 0}, ErrInvalidNumber},
		{"negative qty", SaleRequest{Date: "2024-02-01", MemberID: "M001", BookID: "B001", Qty: -3}, ErrInvalidNumber},
		{"negative discount", SaleRequest{Date: "2024-02-01", MemberID: "M001", BookID: "B001", Qty: 1, Discount: -1}, ErrInvalidNumber},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := db.AddSale(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, before, snapshot(t, db))
}

func TestAddSaleAllowsNegativeTotal(t *testing.T) {
	db := tempDB(t)

	sale, err := db.AddSale(context.Background(), SaleRequest{Date: "2024-02-01", MemberID: "M003", BookID: "B001", Qty: 1, Discount: 5000})
	require.NoError(t, err)
	assert.EqualValues(t, -4400, sale.Total)
}

func TestAddSaleRollsBackOnWriteFailure(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	// The sale insert succeeds; the stock update then aborts.
	_, err := db.db.Exec(`CREATE TRIGGER fail_stock BEFORE UPDATE ON book BEGIN SELECT RAISE(ABORT, 'stock locked'); END;`)
	require.NoError(t, err)
	before := snapshot(t, db)

	_, err = db.AddSale(ctx, SaleRequest{Date: "2024-02-01", MemberID: "M001", BookID: "B001", Qty: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	assert.Contains(t, err.Error(), "stock locked")

	assert.Equal(t, before, snapshot(t, db))
}

func TestClosedDatabaseReportsStorageFailure(t *testing.T) {
	db := openAt(t, filepath.Join(t.TempDir(), "closed.db"), "")
	require.NoError(t, db.Close())

	_, err := db.AddSale(context.Background(), SaleRequest{Date: "2024-02-01", MemberID: "M001", BookID: "B001", Qty: 1})
	assert.ErrorIs(t, err, ErrStorage)

	_, err = db.SaleReport(context.Background())
	assert.ErrorIs(t, err, ErrStorage)
}

func TestUpdateSaleDiscountRecomputesTotal(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	sale, err := db.AddSale(ctx, SaleRequest{Date: "2024-02-01", MemberID: "M001", BookID: "B001", Qty: 2, Discount: 50})
	require.NoError(t, err)

	updated, err := db.UpdateSaleDiscount(ctx, sale.ID, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1200, updated.Total)
	assert.EqualValues(t, 0, updated.Discount)

	stored, err := db.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, *updated, *stored)
	assert.Equal(t, sale.Qty, stored.Qty)
	assert.Equal(t, sale.MemberID, stored.MemberID)

	b, err := db.GetBook(ctx, "B001")
	require.NoError(t, err)
	assert.EqualValues(t, 48, b.Stock)
}

func TestUpdateSaleDiscountUsesCurrentPrice(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	_, err := db.db.Exec(`UPDATE book SET bprice = 700 WHERE bid = 'B001'`)
	require.NoError(t, err)

	// Seed sale 1 sold 2 x B001 at the old price of 600.
	updated, err := db.UpdateSaleDiscount(ctx, 1, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 1300, updated.Total)
}

func TestUpdateSaleDiscountErrors(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	before := snapshot(t, db)

	_, err := db.UpdateSaleDiscount(ctx, 42, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.UpdateSaleDiscount(ctx, 1, -10)
	assert.ErrorIs(t, err, ErrInvalidNumber)

	assert.Equal(t, before, snapshot(t, db))
}

func TestDeleteSaleKeepsStock(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	sale, err := db.AddSale(ctx, SaleRequest{Date: "2024-02-01", MemberID: "M001", BookID: "B001", Qty: 2, Discount: 50})
	require.NoError(t, err)

	require.NoError(t, db.DeleteSale(ctx, sale.ID))

	b, err := db.GetBook(ctx, "B001")
	require.NoError(t, err)
	assert.EqualValues(t, 48, b.Stock, "deleting a sale does not restore stock")

	_, err = db.GetSale(ctx, sale.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = db.DeleteSale(ctx, sale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewSaleIDsAreNotReused(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	req := SaleRequest{Date: "2024-02-01", MemberID: "M002", BookID: "B002", Qty: 1}

	first, err := db.AddSale(ctx, req)
	require.NoError(t, err)
	require.NoError(t, db.DeleteSale(ctx, first.ID))

	second, err := db.AddSale(ctx, req)
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestSaleReport(t *testing.T) {
	db := tempDB(t)

	rows, err := db.SaleReport(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, ReportRow{
		SaleID: 1, Date: "2024-01-15", MemberName: "Alice", BookTitle: "Python Programming",
		Price: 600, Qty: 2, Discount: 100, Total: 1100,
	}, rows[0])
	for i, r := range rows {
		assert.EqualValues(t, i+1, r.SaleID)
	}
}

func TestListSales(t *testing.T) {
	db := tempDB(t)

	sales, err := db.ListSales(context.Background())
	require.NoError(t, err)
	require.Len(t, sales, 4)
	assert.Equal(t, SaleSummary{SaleID: 3, MemberName: "Alice", Date: "2024-01-17", BookID: "B003", Qty: 3}, sales[2])
}

func TestSchemaEnforcesReferences(t *testing.T) {
	db := tempDB(t)

	_, err := db.db.Exec(`INSERT INTO sale(sdate,mid,bid,sqty,sdiscount,stotal) VALUES('2024-02-01','M404','B001',1,0,600)`)
	assert.Error(t, err)

	_, err = db.db.Exec(`UPDATE book SET bstock = -1 WHERE bid = 'B001'`)
	assert.Error(t, err)
}

func TestPureGoDriver(t *testing.T) {
	db := openAt(t, filepath.Join(t.TempDir(), "purego.db"), DriverPureGo)
	defer db.Close()

	sale, err := db.AddSale(context.Background(), SaleRequest{Date: "2024-02-01", MemberID: "M001", BookID: "B001", Qty: 2, Discount: 50})
	require.NoError(t, err)
	assert.EqualValues(t, 1150, sale.Total)
	assert.Equal(t, 5, countRows(t, db, "sale"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Path: filepath.Join(t.TempDir(), "x.db"), Driver: "postgres"})
	assert.Error(t, err)
}
