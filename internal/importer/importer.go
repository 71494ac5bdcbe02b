// Package importer loads customers from the legacy semicolon-separated CSV
// export into the database.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"minicrm/internal/apperror"
	"minicrm/internal/models"
)

// Column headers of the export.
const (
	ColumnFirstName = "Ad"
	ColumnLastName  = "Soyad"
	ColumnPhone     = "Telefon"
	ColumnEmail     = "Email"
	ColumnAddress   = "Adres"
)

// UnknownFirstName replaces an empty first name.
const UnknownFirstName = "Bilinmiyor"

const byteOrderMark = "\ufeff"

// Stats summarizes an import run.
type Stats struct {
	Total     int `json:"total"`
	Success   int `json:"success"`
	Duplicate int `json:"duplicate"`
	Invalid   int `json:"invalid"`
}

// CustomerCreator is the part of the customer service the importer needs.
type CustomerCreator interface {
	CreateCustomer(ctx context.Context, customer *models.Customer) error
}

// Importer turns CSV rows into customers.
type Importer struct {
	customers CustomerCreator
	validate  *validator.Validate
	log       *logrus.Entry
}

// New creates an Importer that stores customers through customers.
func New(customers CustomerCreator, log *logrus.Entry) *Importer {
	return &Importer{
		customers: customers,
		validate:  validator.New(),
		log:       log.WithField("component", "importer"),
	}
}

// Import reads every row of r. Rows whose phone or email already belongs to a
// customer count as duplicates; rows the database rejects count as invalid.
// Only a malformed file or a cancelled context stops the run early.
func (i *Importer) Import(ctx context.Context, r io.Reader) (Stats, error) {
	var stats Stats

	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return stats, nil
	}
	if err != nil {
		return stats, fmt.Errorf("failed to read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for idx, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, byteOrderMark))] = idx
	}

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		stats.Total++
		customer := i.toCustomer(columns, record)
		entry := i.log.WithFields(logrus.Fields{"line": line, "first_name": customer.FirstName})

		err = i.customers.CreateCustomer(ctx, customer)
		switch {
		case err == nil:
			stats.Success++
			entry.WithField("customer_id", customer.ID).Debug("customer imported")
		case apperror.IsKind(err, apperror.KindCustomerAlreadyExists):
			stats.Duplicate++
			entry.Info("duplicate skipped")
		default:
			stats.Invalid++
			entry.WithError(err).Warn("row rejected")
		}
	}
	return stats, nil
}

func (i *Importer) toCustomer(columns map[string]int, record []string) *models.Customer {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	firstName := strings.ReplaceAll(field(ColumnFirstName), `"`, "")
	if firstName == "" {
		firstName = UnknownFirstName
	}
	customer := &models.Customer{
		FirstName: firstName,
		LastName:  optional(field(ColumnLastName)),
		Phone:     optional(field(ColumnPhone)),
		Address:   optional(field(ColumnAddress)),
	}
	// Invalid addresses are dropped, the row is still imported.
	if email := field(ColumnEmail); email != "" && i.validate.Var(email, "email") == nil {
		customer.Email = &email
	}
	return customer
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
