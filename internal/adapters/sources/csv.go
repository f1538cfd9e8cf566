package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/eshaffer321/closeready/internal/domain/money"
	"github.com/eshaffer321/closeready/internal/domain/recon"
)

// ErrMissingColumn is returned when a CSV header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// dateLayouts are tried in order when parsing date cells.
var dateLayouts = []string{time.DateOnly, time.RFC3339}

// CSVPayoutSource reads payouts from a CSV export with the header
// id,amount,currency,arrival_date[,status][,org_id]. Amounts are decimal
// major units ("100.50").
type CSVPayoutSource struct {
	Path string
}

// NewCSVPayoutSource creates a payout source over a CSV file
func NewCSVPayoutSource(path string) *CSVPayoutSource {
	return &CSVPayoutSource{Path: path}
}

// Name returns "csv"
func (s *CSVPayoutSource) Name() string { return "csv" }

// FetchPayouts parses the file and keeps rows in the period and org
func (s *CSVPayoutSource) FetchPayouts(ctx context.Context, opts FetchOptions) ([]recon.Payout, error) {
	rows, err := readCSVFile(ctx, s.Path, []string{"id", "amount", "currency", "arrival_date"}, func(r row) (recon.Payout, error) {
		amount, err := money.ParseCents(r.get("amount"))
		if err != nil {
			return recon.Payout{}, fmt.Errorf("amount: %w", err)
		}
		arrival, err := parseDate(r.get("arrival_date"))
		if err != nil {
			return recon.Payout{}, fmt.Errorf("arrival_date: %w", err)
		}
		return recon.Payout{
			ID:          r.get("id"),
			AmountCents: amount,
			Currency:    r.get("currency"),
			ArrivalDate: arrival,
			Status:      r.get("status"),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]recon.Payout, 0, len(rows))
	for _, p := range rows {
		if p.orgID != "" && opts.OrgID != "" && p.orgID != opts.OrgID {
			continue
		}
		if !opts.Period.Start.IsZero() && !opts.Period.Contains(p.value.ArrivalDate) {
			continue
		}
		out = append(out, p.value)
	}
	return out, nil
}

// CSVDepositSource reads ledger deposits from a CSV export with the header
// id,amount,currency,txn_date[,memo][,org_id].
type CSVDepositSource struct {
	Path string
}

// NewCSVDepositSource creates a deposit source over a CSV file
func NewCSVDepositSource(path string) *CSVDepositSource {
	return &CSVDepositSource{Path: path}
}

// Name returns "csv"
func (s *CSVDepositSource) Name() string { return "csv" }

// FetchDeposits parses the file and keeps rows in the period and org
func (s *CSVDepositSource) FetchDeposits(ctx context.Context, opts FetchOptions) ([]recon.Deposit, error) {
	rows, err := readCSVFile(ctx, s.Path, []string{"id", "amount", "currency", "txn_date"}, func(r row) (recon.Deposit, error) {
		amount, err := money.ParseCents(r.get("amount"))
		if err != nil {
			return recon.Deposit{}, fmt.Errorf("amount: %w", err)
		}
		txn, err := parseDate(r.get("txn_date"))
		if err != nil {
			return recon.Deposit{}, fmt.Errorf("txn_date: %w", err)
		}
		return recon.Deposit{
			ID:          r.get("id"),
			AmountCents: amount,
			Currency:    r.get("currency"),
			TxnDate:     txn,
			Memo:        r.get("memo"),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]recon.Deposit, 0, len(rows))
	for _, d := range rows {
		if d.orgID != "" && opts.OrgID != "" && d.orgID != opts.OrgID {
			continue
		}
		if !opts.Period.Start.IsZero() && !opts.Period.Contains(d.value.TxnDate) {
			continue
		}
		out = append(out, d.value)
	}
	return out, nil
}

// row gives header-keyed access to one CSV record
type row struct {
	cols   map[string]int
	record []string
}

func (r row) get(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

type parsed[T any] struct {
	value T
	orgID string
}

func readCSVFile[T any](ctx context.Context, path string, required []string, parseFn func(row) (T, error)) ([]parsed[T], error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	out, err := readCSV(ctx, file, required, parseFn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// readCSV parses records with a header row, applying parseFn to each data
// row. Rows are numbered from 1 after the header in error messages.
func readCSV[T any](ctx context.Context, r io.Reader, required []string, parseFn func(row) (T, error)) ([]parsed[T], error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	var out []parsed[T]
	for rowIndex := 1; ; rowIndex++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV at row %d: %w", rowIndex, err)
		}
		if isBlank(record) {
			continue
		}

		r := row{cols: cols, record: record}
		value, err := parseFn(r)
		if err != nil {
			return nil, fmt.Errorf("error parsing row %d: %w", rowIndex, err)
		}
		out = append(out, parsed[T]{value: value, orgID: r.get("org_id")})
	}

	return out, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
