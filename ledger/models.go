package ledger

import "database/sql"

// Member is a customer identified by a stable code such as "M001".
// Members are only created by seed data.
type Member struct {
	ID    string         `db:"mid"`
	Name  string         `db:"mname"`
	Phone string         `db:"mphone"`
	Email sql.NullString `db:"memail"`
}

// Book is a catalog entry with a unit price and on-hand stock.
type Book struct {
	ID    string `db:"bid"`
	Title string `db:"btitle"`
	Price int64  `db:"bprice"`
	Stock int64  `db:"bstock"`
}

// Sale links one member, one book, a quantity, a discount and the total
// computed when the row was written.
type Sale struct {
	ID       int64  `db:"sid"`
	Date     string `db:"sdate"`
	MemberID string `db:"mid"`
	BookID   string `db:"bid"`
	Qty      int64  `db:"sqty"`
	Discount int64  `db:"sdiscount"`
	Total    int64  `db:"stotal"`
}

// SaleRequest carries the user-supplied fields of a new sale.
type SaleRequest struct {
	Date     string
	MemberID string
	BookID   string
	Qty      int64
	Discount int64
}

// ReportRow is one line of the sales report.
type ReportRow struct {
	SaleID     int64  `db:"sid"`
	Date       string `db:"sdate"`
	MemberName string `db:"mname"`
	BookTitle  string `db:"btitle"`
	Price      int64  `db:"bprice"`
	Qty        int64  `db:"sqty"`
	Discount   int64  `db:"sdiscount"`
	Total      int64  `db:"stotal"`
}

// SaleSummary is the short form used when picking a sale to update or delete.
type SaleSummary struct {
	SaleID     int64  `db:"sid"`
	MemberName string `db:"mname"`
	Date       string `db:"sdate"`
	BookID     string `db:"bid"`
	Qty        int64  `db:"sqty"`
}

// Total returns price*qty - discount. The result may be negative.
func Total(price, qty, discount int64) int64 {
	return price*qty - discount
}
