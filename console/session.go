// Package console implements the interactive menu and the prompt/response
// sequence of each sale workflow.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"bookstore-ledger/ledger"
)

// Store is the subset of *ledger.Manager the console needs.
type Store interface {
	AddSale(ctx context.Context, req ledger.SaleRequest) (*ledger.Sale, error)
	SaleReport(ctx context.Context) ([]ledger.ReportRow, error)
	ListSales(ctx context.Context) ([]ledger.SaleSummary, error)
	UpdateSaleDiscount(ctx context.Context, saleID, discount int64) (*ledger.Sale, error)
	DeleteSale(ctx context.Context, saleID int64) error
}

// Session reads user input line by line and writes prompts and results to out.
type Session struct {
	store Store
	sc    *bufio.Scanner
	out   io.Writer
	log   zerolog.Logger
}

func NewSession(store Store, in io.Reader, out io.Writer, log zerolog.Logger) *Session {
	return &Session{store: store, sc: bufio.NewScanner(in), out: out, log: log}
}

// Run shows the menu until the user picks exit, enters a blank line or input
// ends. Workflow errors are reported to the user and never end the loop.
func (s *Session) Run(ctx context.Context) error {
	for {
		s.printMenu()
		choice, ok := s.ask("Choose an option (Enter to exit): ")
		if !ok {
			return s.sc.Err()
		}
		switch choice {
		case "1":
			s.AddSale(ctx)
		case "2":
			s.PrintReport(ctx)
		case "3":
			s.UpdateSale(ctx)
		case "4":
			s.DeleteSale(ctx)
		case "5", "":
			return nil
		default:
			s.println("=> Please enter a valid option (1-5)")
		}
	}
}

func (s *Session) printMenu() {
	s.println("*************** Menu ***************")
	s.println("1. Add sale")
	s.println("2. Show sales report")
	s.println("3. Update sale")
	s.println("4. Delete sale")
	s.println("5. Exit")
	s.println("************************************")
}

// AddSale collects a new sale. A bad date aborts at once; quantity and
// discount are asked for again until they parse.
func (s *Session) AddSale(ctx context.Context) {
	date, ok := s.ask("Sale date (YYYY-MM-DD): ")
	if !ok {
		return
	}
	if err := ledger.ValidateDate(date); err != nil {
		s.println("=> Error: invalid date format")
		return
	}

	memberID, ok := s.ask("Member ID: ")
	if !ok {
		return
	}
	bookID, ok := s.ask("Book ID: ")
	if !ok {
		return
	}

	qty, ok := s.askInt("Quantity: ", func(n int64) string {
		if ledger.ValidateQty(n) != nil {
			return "=> Error: quantity must be a positive integer, please try again"
		}
		return ""
	})
	if !ok {
		return
	}
	discount, ok := s.askInt("Discount amount: ", func(n int64) string {
		if ledger.ValidateDiscount(n) != nil {
			return "=> Error: discount cannot be negative, please try again"
		}
		return ""
	})
	if !ok {
		return
	}

	sale, err := s.store.AddSale(ctx, ledger.SaleRequest{
		Date:     date,
		MemberID: memberID,
		BookID:   bookID,
		Qty:      qty,
		Discount: discount,
	})
	if err != nil {
		s.report("add sale", err)
		return
	}
	s.printf("=> Sale recorded! (total: %s)\n", ledger.Money(sale.Total))
}

// PrintReport writes every sale joined with member and book details.
func (s *Session) PrintReport(ctx context.Context) {
	rows, err := s.store.SaleReport(ctx)
	if err != nil {
		s.report("sale report", err)
		return
	}
	WriteReport(s.out, rows)
}

// UpdateSale changes the discount of one sale. Any invalid input cancels the
// operation without asking again.
func (s *Session) UpdateSale(ctx context.Context) {
	sales, err := s.store.ListSales(ctx)
	if err != nil {
		s.report("list sales", err)
		return
	}
	s.printSaleList(sales)
	s.println("================================")

	input, ok := s.ask("Select the sale to update (number, or Enter to cancel): ")
	if !ok || input == "" {
		return
	}
	choice, err := strconv.Atoi(input)
	if err != nil || choice < 1 || choice > len(sales) {
		s.println("Error: please enter a valid number")
		return
	}
	selected := sales[choice-1]

	input, ok = s.ask("New discount amount: ")
	if !ok {
		return
	}
	discount, err := strconv.ParseInt(input, 10, 64)
	if err != nil {
		s.println("Error: please enter a valid number")
		return
	}
	if ledger.ValidateDiscount(discount) != nil {
		s.println("Error: discount cannot be negative")
		return
	}

	sale, err := s.store.UpdateSaleDiscount(ctx, selected.SaleID, discount)
	if err != nil {
		s.report("update sale", err)
		return
	}
	s.printf("=> Sale %d updated! (total: %s)\n", sale.ID, ledger.Money(sale.Total))
}

// DeleteSale removes one sale. Invalid selections are asked for again until
// a valid one is given or the user cancels with a blank line.
func (s *Session) DeleteSale(ctx context.Context) {
	sales, err := s.store.ListSales(ctx)
	if err != nil {
		s.report("list sales", err)
		return
	}
	s.printSaleList(sales)

	for {
		s.println("================================")
		input, ok := s.ask("Select the sale to delete (number, or Enter to cancel): ")
		if !ok || input == "" {
			return
		}
		choice, err := strconv.Atoi(input)
		if err != nil || choice < 1 || choice > len(sales) {
			s.println("Error: please enter a valid number")
			continue
		}
		sid := sales[choice-1].SaleID
		if err := s.store.DeleteSale(ctx, sid); err != nil {
			s.report("delete sale", err)
			return
		}
		s.printf("=> Sale %d deleted\n", sid)
		return
	}
}

func (s *Session) printSaleList(sales []ledger.SaleSummary) {
	s.println("\n======== Sales ========")
	for i, sale := range sales {
		s.printf("%d. Sale ID: %d - Member: %s - Date: %s\n", i+1, sale.SaleID, sale.MemberName, sale.Date)
	}
}

// report prints a workflow error in user terms.
func (s *Session) report(op string, err error) {
	s.log.Debug().Err(err).Str("op", op).Msg("workflow aborted")

	var stock *ledger.StockError
	var missing *ledger.NotFoundError
	switch {
	case errors.As(err, &stock):
		s.printf("=> Error: insufficient stock (in stock: %d)\n", stock.Available)
	case errors.As(err, &missing):
		s.printf("=> Error: invalid %s ID %q\n", missing.Entity, missing.ID)
	case errors.Is(err, ledger.ErrInvalidDate):
		s.println("=> Error: invalid date format")
	default:
		s.printf("=> Error: %v\n", err)
	}
}

// ask prints prompt and returns the trimmed next line. ok is false when input
// has ended.
func (s *Session) ask(prompt string) (string, bool) {
	fmt.Fprint(s.out, prompt)
	if !s.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.sc.Text()), true
}

// askInt repeats prompt until the answer parses as an integer and check
// returns an empty message.
func (s *Session) askInt(prompt string, check func(int64) string) (int64, bool) {
	for {
		text, ok := s.ask(prompt)
		if !ok {
			return 0, false
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			s.println("=> Error: quantity and discount must be integers, please try again")
			continue
		}
		if msg := check(n); msg != "" {
			s.println(msg)
			continue
		}
		return n, true
	}
}

func (s *Session) println(a ...any)               { fmt.Fprintln(s.out, a...) }
func (s *Session) printf(format string, a ...any) { fmt.Fprintf(s.out, format, a...) }
