package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

// Demo data. Sale ids are fixed so re-seeding never appends duplicates.
var (
	seedMembers = []Member{
		{ID: "M001", Name: "Alice", Phone: "0912-345678", Email: nullString("alice@example.com")},
		{ID: "M002", Name: "Bob", Phone: "0923-456789", Email: nullString("bob@example.com")},
		{ID: "M003", Name: "Cathy", Phone: "0934-567890", Email: nullString("cathy@example.com")},
	}
	seedBooks = []Book{
		{ID: "B001", Title: "Python Programming", Price: 600, Stock: 50},
		{ID: "B002", Title: "Data Science Basics", Price: 800, Stock: 30},
		{ID: "B003", Title: "Machine Learning Guide", Price: 1200, Stock: 20},
	}
	seedSales = []Sale{
		{ID: 1, Date: "2024-01-15", MemberID: "M001", BookID: "B001", Qty: 2, Discount: 100, Total: 1100},
		{ID: 2, Date: "2024-01-16", MemberID: "M002", BookID: "B002", Qty: 1, Discount: 50, Total: 750},
		{ID: 3, Date: "2024-01-17", MemberID: "M001", BookID: "B003", Qty: 3, Discount: 200, Total: 3400},
		{ID: 4, Date: "2024-01-18", MemberID: "M003", BookID: "B001", Qty: 1, Discount: 0, Total: 600},
	}
)

// Seed inserts the demo members, books and sales, skipping rows whose id
// already exists. Safe to run on every startup.
//
// Seed sales do not touch book stock; the seeded stock figures are the
// on-hand counts after those sales.
func (d *Database) Seed(ctx context.Context) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	var inserted int64
	count := func(n int64, err error) error {
		if err != nil {
			return err
		}
		inserted += n
		return nil
	}

	for _, m := range seedMembers {
		res, err := tx.NamedExecContext(ctx,
			`INSERT OR IGNORE INTO member(mid,mname,mphone,memail) VALUES(:mid,:mname,:mphone,:memail)`, m)
		if err != nil {
			return fmt.Errorf("seed member %s: %w", m.ID, err)
		}
		if err := count(res.RowsAffected()); err != nil {
			return err
		}
	}
	for _, b := range seedBooks {
		res, err := tx.NamedExecContext(ctx,
			`INSERT OR IGNORE INTO book(bid,btitle,bprice,bstock) VALUES(:bid,:btitle,:bprice,:bstock)`, b)
		if err != nil {
			return fmt.Errorf("seed book %s: %w", b.ID, err)
		}
		if err := count(res.RowsAffected()); err != nil {
			return err
		}
	}
	for _, s := range seedSales {
		res, err := tx.NamedExecContext(ctx,
			`INSERT OR IGNORE INTO sale(sid,sdate,mid,bid,sqty,sdiscount,stotal)
             VALUES(:sid,:sdate,:mid,:bid,:sqty,:sdiscount,:stotal)`, s)
		if err != nil {
			return fmt.Errorf("seed sale %d: %w", s.ID, err)
		}
		if err := count(res.RowsAffected()); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	if inserted > 0 {
		d.log.Info().Int64("rows", inserted).Msg("seeded demo data")
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}
