package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Open.
const (
	DriverCGO    = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPureGo = "sqlite"  // modernc.org/sqlite
)

// Options configures Open.
type Options struct {
	Path   string
	Driver string // DriverCGO when empty
	Seed   bool
	Logger zerolog.Logger
}

// Database provides the sale workflows on top of a single SQLite connection.
type Database struct {
	db  *sqlx.DB
	log zerolog.Logger

	addSaleStmt        *sqlx.Stmt
	decrementStockStmt *sqlx.Stmt
}

// Open opens (or creates) the SQLite database at opts.Path, applies the schema,
// optionally seeds the demo rows and prepares common statements.
func Open(ctx context.Context, opts Options) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	driver := opts.Driver
	if driver == "" {
		driver = DriverCGO
	}
	dsn, err := buildDSN(driver, opts.Path)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One process-wide connection; pragmas set via the DSN stay in effect.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	d := &Database{db: db, log: opts.Logger}
	if opts.Seed {
		if err := d.Seed(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	if err := d.prepareStatements(ctx); err != nil {
		db.Close()
		return nil, err
	}
	d.log.Debug().Str("path", opts.Path).Str("driver", driver).Msg("database opened")
	return d, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.addSaleStmt != nil {
		d.addSaleStmt.Close()
	}
	if d.decrementStockStmt != nil {
		d.decrementStockStmt.Close()
	}
	return d.db.Close()
}

func buildDSN(driver, path string) (string, error) {
	switch driver {
	case DriverCGO:
		return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", path), nil
	case DriverPureGo:
		return fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path), nil
	default:
		return "", fmt.Errorf("unsupported sqlite driver %q", driver)
	}
}

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

// Column names match the original bookstore.db layout.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS member (
        mid    TEXT PRIMARY KEY,
        mname  TEXT NOT NULL,
        mphone TEXT NOT NULL,
        memail TEXT
    );`,
	`CREATE TABLE IF NOT EXISTS book (
        bid    TEXT PRIMARY KEY,
        btitle TEXT NOT NULL,
        bprice INTEGER NOT NULL CHECK (bprice >= 0),
        bstock INTEGER NOT NULL CHECK (bstock >= 0)
    );`,
	`CREATE TABLE IF NOT EXISTS sale (
        sid       INTEGER PRIMARY KEY AUTOINCREMENT,
        sdate     TEXT NOT NULL,
        mid       TEXT NOT NULL REFERENCES member(mid),
        bid       TEXT NOT NULL REFERENCES book(bid),
        sqty      INTEGER NOT NULL CHECK (sqty > 0),
        sdiscount INTEGER NOT NULL CHECK (sdiscount >= 0),
        stotal    INTEGER NOT NULL
    );`,
}

func applySchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements(ctx context.Context) error {
	var err error
	if d.addSaleStmt, err = d.db.PreparexContext(ctx,
		`INSERT INTO sale(sdate,mid,bid,sqty,sdiscount,stotal) VALUES(?,?,?,?,?,?)`); err != nil {
		return err
	}
	if d.decrementStockStmt, err = d.db.PreparexContext(ctx,
		`UPDATE book SET bstock = bstock - ? WHERE bid = ? AND bstock >= ?`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Lookups
// ---------------------------------------------------------------------------

type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func getMember(ctx context.Context, q queryer, id string) (*Member, error) {
	var m Member
	err := q.GetContext(ctx, &m, `SELECT mid,mname,mphone,memail FROM member WHERE mid=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "member", ID: id}
	}
	if err != nil {
		return nil, storageErr("get member", err)
	}
	return &m, nil
}

func getBook(ctx context.Context, q queryer, id string) (*Book, error) {
	var b Book
	err := q.GetContext(ctx, &b, `SELECT bid,btitle,bprice,bstock FROM book WHERE bid=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "book", ID: id}
	}
	if err != nil {
		return nil, storageErr("get book", err)
	}
	return &b, nil
}

func getSale(ctx context.Context, q queryer, id int64) (*Sale, error) {
	var s Sale
	err := q.GetContext(ctx, &s, `SELECT sid,sdate,mid,bid,sqty,sdiscount,stotal FROM sale WHERE sid=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "sale", ID: fmt.Sprint(id)}
	}
	if err != nil {
		return nil, storageErr("get sale", err)
	}
	return &s, nil
}

// GetMember fetches a single member.
func (d *Database) GetMember(ctx context.Context, id string) (*Member, error) {
	return getMember(ctx, d.db, id)
}

// GetBook fetches a single book including its current stock.
func (d *Database) GetBook(ctx context.Context, id string) (*Book, error) {
	return getBook(ctx, d.db, id)
}

// GetSale fetches a single sale row.
func (d *Database) GetSale(ctx context.Context, id int64) (*Sale, error) {
	return getSale(ctx, d.db, id)
}

// ListMembers returns all members ordered by id.
func (d *Database) ListMembers(ctx context.Context) ([]Member, error) {
	var out []Member
	if err := d.db.SelectContext(ctx, &out, `SELECT mid,mname,mphone,memail FROM member ORDER BY mid`); err != nil {
		return nil, storageErr("list members", err)
	}
	return out, nil
}

// ListBooks returns the catalog with current stock ordered by id.
func (d *Database) ListBooks(ctx context.Context) ([]Book, error) {
	var out []Book
	if err := d.db.SelectContext(ctx, &out, `SELECT bid,btitle,bprice,bstock FROM book ORDER BY bid`); err != nil {
		return nil, storageErr("list books", err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Sale workflows
// ---------------------------------------------------------------------------

// AddSale records a sale and decrements the book's stock in one transaction.
//
// Validation runs in this order: date shape, quantity, discount, member and
// book existence, stock. Nothing is written unless every check passes; a
// failure after the writes begin rolls the transaction back and is returned as
// a StorageError.
func (d *Database) AddSale(ctx context.Context, req SaleRequest) (*Sale, error) {
	if err := ValidateDate(req.Date); err != nil {
		return nil, err
	}
	if err := ValidateQty(req.Qty); err != nil {
		return nil, err
	}
	if err := ValidateDiscount(req.Discount); err != nil {
		return nil, err
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin sale", err)
	}
	defer tx.Rollback()

	if _, err := getMember(ctx, tx, req.MemberID); err != nil {
		return nil, err
	}
	book, err := getBook(ctx, tx, req.BookID)
	if err != nil {
		return nil, err
	}
	if book.Stock < req.Qty {
		return nil, &StockError{BookID: book.ID, Available: book.Stock, Requested: req.Qty}
	}

	sale := &Sale{
		Date:     req.Date,
		MemberID: req.MemberID,
		BookID:   req.BookID,
		Qty:      req.Qty,
		Discount: req.Discount,
		Total:    Total(book.Price, req.Qty, req.Discount),
	}

	res, err := tx.StmtxContext(ctx, d.addSaleStmt).ExecContext(ctx,
		sale.Date, sale.MemberID, sale.BookID, sale.Qty, sale.Discount, sale.Total)
	if err != nil {
		return nil, d.fail("insert sale", err)
	}
	if sale.ID, err = res.LastInsertId(); err != nil {
		return nil, d.fail("insert sale", err)
	}

	res, err = tx.StmtxContext(ctx, d.decrementStockStmt).ExecContext(ctx, sale.Qty, sale.BookID, sale.Qty)
	if err != nil {
		return nil, d.fail("decrement stock", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, d.fail("decrement stock", err)
	} else if n == 0 {
		return nil, d.fail("decrement stock", fmt.Errorf("book %s changed during sale", sale.BookID))
	}

	if err := tx.Commit(); err != nil {
		return nil, d.fail("commit sale", err)
	}

	d.log.Info().
		Int64("sid", sale.ID).
		Str("bid", sale.BookID).
		Int64("qty", sale.Qty).
		Int64("total", sale.Total).
		Msg("sale recorded")
	return sale, nil
}

// SaleReport joins sales with member and book rows ordered by sale id.
// Sales whose member or book row is missing are not reported.
func (d *Database) SaleReport(ctx context.Context) ([]ReportRow, error) {
	var rows []ReportRow
	err := d.db.SelectContext(ctx, &rows, `
        SELECT s.sid, s.sdate, m.mname, b.btitle, b.bprice, s.sqty, s.sdiscount, s.stotal
        FROM sale s
        JOIN member m ON s.mid = m.mid
        JOIN book b ON s.bid = b.bid
        ORDER BY s.sid`)
	if err != nil {
		return nil, storageErr("sale report", err)
	}
	return rows, nil
}

// ListSales returns the selection list used by the update and delete
// workflows, ordered by sale id.
func (d *Database) ListSales(ctx context.Context) ([]SaleSummary, error) {
	var rows []SaleSummary
	err := d.db.SelectContext(ctx, &rows, `
        SELECT s.sid, m.mname, s.sdate, s.bid, s.sqty
        FROM sale s
        JOIN member m ON s.mid = m.mid
        ORDER BY s.sid`)
	if err != nil {
		return nil, storageErr("list sales", err)
	}
	return rows, nil
}

// UpdateSaleDiscount replaces a sale's discount and recomputes its total from
// the book's current price and the sale's original quantity. Quantity, member
// and book are never changed. Stock is not touched.
func (d *Database) UpdateSaleDiscount(ctx context.Context, saleID, discount int64) (*Sale, error) {
	if err := ValidateDiscount(discount); err != nil {
		return nil, err
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin update", err)
	}
	defer tx.Rollback()

	sale, err := getSale(ctx, tx, saleID)
	if err != nil {
		return nil, err
	}
	book, err := getBook(ctx, tx, sale.BookID)
	if err != nil {
		return nil, err
	}

	sale.Discount = discount
	sale.Total = Total(book.Price, sale.Qty, discount)
	if _, err := tx.ExecContext(ctx, `UPDATE sale SET sdiscount=?, stotal=? WHERE sid=?`,
		sale.Discount, sale.Total, sale.ID); err != nil {
		return nil, d.fail("update sale", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, d.fail("commit update", err)
	}

	d.log.Info().Int64("sid", sale.ID).Int64("discount", discount).Int64("total", sale.Total).Msg("sale updated")
	return sale, nil
}

// DeleteSale removes a sale row. The referenced book's stock is left as is.
func (d *Database) DeleteSale(ctx context.Context, saleID int64) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("begin delete", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM sale WHERE sid=?`, saleID)
	if err != nil {
		return d.fail("delete sale", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return d.fail("delete sale", err)
	}
	if n == 0 {
		return &NotFoundError{Entity: "sale", ID: fmt.Sprint(saleID)}
	}
	if err := tx.Commit(); err != nil {
		return d.fail("commit delete", err)
	}

	d.log.Info().Int64("sid", saleID).Msg("sale deleted")
	return nil
}

// fail logs a write-path failure and wraps it as a StorageError.
func (d *Database) fail(op string, err error) error {
	d.log.Error().Err(err).Str("op", op).Msg("transaction rolled back")
	return storageErr(op, err)
}
