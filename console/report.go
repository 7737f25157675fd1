package console

import (
	"fmt"
	"io"
	"strings"

	"bookstore-ledger/ledger"
)

const ruleWidth = 50

// WriteReport prints one block per sale in sale-id order.
func WriteReport(w io.Writer, rows []ledger.ReportRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No sales recorded.")
		return
	}
	rule := strings.Repeat("-", ruleWidth)
	for i, r := range rows {
		fmt.Fprintf(w, "\n==================== Sales Report ====================\n")
		fmt.Fprintf(w, "Sale #%d\n", i+1)
		fmt.Fprintf(w, "Sale ID: %d\n", r.SaleID)
		fmt.Fprintf(w, "Date: %s\n", r.Date)
		fmt.Fprintf(w, "Member: %s\n", r.MemberName)
		fmt.Fprintf(w, "Title: %s\n", r.BookTitle)
		fmt.Fprintln(w, rule)
		fmt.Fprintln(w, "Price\tQty\tDiscount\tSubtotal")
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", ledger.Money(r.Price), r.Qty, ledger.Money(r.Discount), ledger.Money(r.Total))
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Sale total: %s\n", ledger.Money(r.Total))
		fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	}
}

// WriteCatalog prints books with their current stock.
func WriteCatalog(w io.Writer, books []ledger.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books in catalog.")
		return
	}
	fmt.Fprintf(w, "%-6s %-30s %10s %6s\n", "ID", "Title", "Price", "Stock")
	fmt.Fprintln(w, strings.Repeat("-", 55))
	for _, b := range books {
		fmt.Fprintln(w, ledger.PrettyBook(b))
	}
}
