package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Manager is a thin façade over the Database, keeping CLI code simple.
type Manager struct {
	db *Database
}

// NewManager opens (or creates) the SQLite database described by opts.
func NewManager(ctx context.Context, opts Options) (*Manager, error) {
	db, err := Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Manager{db: db}, nil
}

// Close closes the underlying database.
func (m *Manager) Close() error { return m.db.Close() }

// ------------------ Catalog ------------------

func (m *Manager) GetMember(ctx context.Context, id string) (*Member, error) {
	return m.db.GetMember(ctx, id)
}
func (m *Manager) GetBook(ctx context.Context, id string) (*Book, error) { return m.db.GetBook(ctx, id) }
func (m *Manager) ListMembers(ctx context.Context) ([]Member, error)     { return m.db.ListMembers(ctx) }
func (m *Manager) ListBooks(ctx context.Context) ([]Book, error)         { return m.db.ListBooks(ctx) }

// ------------------ Sales ------------------

func (m *Manager) AddSale(ctx context.Context, req SaleRequest) (*Sale, error) {
	return m.db.AddSale(ctx, req)
}

func (m *Manager) SaleReport(ctx context.Context) ([]ReportRow, error) {
	return m.db.SaleReport(ctx)
}

func (m *Manager) ListSales(ctx context.Context) ([]SaleSummary, error) {
	return m.db.ListSales(ctx)
}

func (m *Manager) UpdateSaleDiscount(ctx context.Context, saleID, discount int64) (*Sale, error) {
	return m.db.UpdateSaleDiscount(ctx, saleID, discount)
}

func (m *Manager) DeleteSale(ctx context.Context, saleID int64) error {
	return m.db.DeleteSale(ctx, saleID)
}

// ------------------ Utilities ------------------

// Money formats an amount with thousands separators, e.g. 1,150.
func Money(v int64) string { return humanize.Comma(v) }

// PrettyBook formats a book for catalog lists.
func PrettyBook(b Book) string {
	return fmt.Sprintf("%-6s %-30s %10s %6d", b.ID, truncate(b.Title, 30), Money(b.Price), b.Stock)
}

// PrettyMember formats a member for catalog lists.
func PrettyMember(m Member) string {
	email := "-"
	if m.Email.Valid && strings.TrimSpace(m.Email.String) != "" {
		email = m.Email.String
	}
	return fmt.Sprintf("%-6s %-20s %-14s %s", m.ID, truncate(m.Name, 20), m.Phone, email)
}

func truncate(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}
