// Package statement turns raw bank statement rows into bank transactions.
package statement

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DateLayouts are the accepted statement date formats, tried in order.
var DateLayouts = []string{"2006-01-02", "01/02/2006", time.RFC3339}

// RawRow is one unparsed statement line. Amount columns are decimal strings; blank means zero
// for debit and credit and "not supplied" for balance. Line is the source file line, when
// there is one.
type RawRow struct {
	Line        int    `json:"-"`
	Date        string `json:"date" validate:"required"`
	Description string `json:"description" validate:"max=512"`
	Reference   string `json:"reference" validate:"max=128"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Balance     string `json:"balance"`
}

// Importer converts raw rows into Unreconciled bank transactions.
type Importer struct {
	validate *validator.Validate
	newID    func() string
}

// NewImporter creates an Importer that assigns ids with newID.
func NewImporter(newID func() string) *Importer {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Importer{validate: v, newID: newID}
}

// Convert parses every row. Valid rows are returned even when others fail; failures are
// reported together in an *apperrors.ImportError. Rows are numbered by their source line,
// or by 1-based position when they have none.
func (im *Importer) Convert(rows []RawRow) ([]domain.BankTransaction, error) {
	txns := make([]domain.BankTransaction, 0, len(rows))
	var rowErrors []apperrors.RowError

	for i, row := range rows {
		rowNo := row.Line
		if rowNo == 0 {
			rowNo = i + 1
		}
		txn, errs := im.convertRow(row, rowNo)
		if len(errs) > 0 {
			rowErrors = append(rowErrors, errs...)
			continue
		}
		txns = append(txns, txn)
	}

	if len(rowErrors) > 0 {
		return txns, &apperrors.ImportError{Rows: rowErrors}
	}
	return txns, nil
}

func (im *Importer) convertRow(row RawRow, rowNo int) (domain.BankTransaction, []apperrors.RowError) {
	row = trimRow(row)
	var errs []apperrors.RowError

	if err := im.validate.Struct(row); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return domain.BankTransaction{}, []apperrors.RowError{{Row: rowNo, Message: err.Error()}}
		}
		for _, fe := range verrs {
			errs = append(errs, apperrors.RowError{Row: rowNo, Field: fe.Field(), Message: fieldMessage(fe)})
		}
	}

	var date time.Time
	if row.Date != "" {
		d, err := ParseDate(row.Date)
		if err != nil {
			errs = append(errs, apperrors.RowError{Row: rowNo, Field: "date", Message: err.Error()})
		}
		date = d
	}

	debit, err := parseAmount(row.Debit)
	if err != nil {
		errs = append(errs, apperrors.RowError{Row: rowNo, Field: "debit", Message: err.Error()})
	}
	credit, err := parseAmount(row.Credit)
	if err != nil {
		errs = append(errs, apperrors.RowError{Row: rowNo, Field: "credit", Message: err.Error()})
	}

	var balance decimal.NullDecimal
	if row.Balance != "" {
		b, err := decimal.NewFromString(strings.ReplaceAll(row.Balance, ",", ""))
		switch {
		case err != nil:
			errs = append(errs, apperrors.RowError{Row: rowNo, Field: "balance", Message: fmt.Sprintf("invalid amount %q", row.Balance)})
		case !domain.WithinScale(b):
			errs = append(errs, apperrors.RowError{Row: rowNo, Field: "balance", Message: scaleMessage(row.Balance)})
		default:
			balance = decimal.NewNullDecimal(b)
		}
	}

	if len(errs) > 0 {
		return domain.BankTransaction{}, errs
	}

	switch {
	case !debit.IsZero() && !credit.IsZero():
		return domain.BankTransaction{}, []apperrors.RowError{{Row: rowNo, Message: "row has both a debit and a credit amount"}}
	case debit.IsZero() && credit.IsZero():
		return domain.BankTransaction{}, []apperrors.RowError{{Row: rowNo, Message: "row has no debit or credit amount"}}
	}

	return domain.BankTransaction{
		BankTransactionID: im.newID(),
		RowNo:             rowNo,
		Date:              date,
		Description:       row.Description,
		Reference:         row.Reference,
		DebitAmount:       debit,
		CreditAmount:      credit,
		RunningBalance:    balance,
		Status:            domain.Unreconciled,
	}, nil
}

// ParseDate parses a statement date in any of DateLayouts.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or MM/DD/YYYY", s)
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount %q must not be negative", s)
	}
	if !domain.WithinScale(d) {
		return decimal.Zero, errors.New(scaleMessage(s))
	}
	return d, nil
}

func scaleMessage(s string) string {
	return fmt.Sprintf("amount %q has more than %d decimal places", s, domain.MaxAmountScale)
}

// JoinRowErrors adds rowErrs to the result of Convert. It returns nil when there are no
// errors at all, otherwise one *apperrors.ImportError ordered by row.
func JoinRowErrors(convertErr error, rowErrs []apperrors.RowError) error {
	if len(rowErrs) == 0 {
		return convertErr
	}
	all := append([]apperrors.RowError(nil), rowErrs...)
	var importErr *apperrors.ImportError
	switch {
	case errors.As(convertErr, &importErr):
		all = append(all, importErr.Rows...)
	case convertErr != nil:
		return convertErr
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Row < all[j].Row })
	return &apperrors.ImportError{Rows: all}
}

func trimRow(r RawRow) RawRow {
	return RawRow{
		Line:        r.Line,
		Date:        strings.TrimSpace(r.Date),
		Description: strings.TrimSpace(r.Description),
		Reference:   strings.TrimSpace(r.Reference),
		Debit:       strings.TrimSpace(r.Debit),
		Credit:      strings.TrimSpace(r.Credit),
		Balance:     strings.TrimSpace(r.Balance),
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
