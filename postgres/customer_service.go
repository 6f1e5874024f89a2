package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prior-it/vatengine/core"
)

func NewCustomerService(DB *DB) *CustomerService {
	return &CustomerService{DB}
}

// Postgres implementation of the core CustomerService interface.
type CustomerService struct {
	db *DB
}

// Force struct to implement the core interface
var _ core.CustomerService = &CustomerService{}

const customerColumns = `id, name, address, country, postal_code, tax_id, tax_id_validated,
	vat_rate, vat_reason, vat_country, vat_basis, vat_reverse_charge, vat_determined_at`

type customerRow struct {
	ID               int32
	Name             string
	Address          *string
	Country          *string
	PostalCode       *string
	TaxID            *string
	TaxIDValidated   bool
	VATRate          *float64
	VATReason        *string
	VATCountry       *string
	VATBasis         *string
	VATReverseCharge bool
	VATDeterminedAt  *time.Time
}

func scanCustomer(row pgx.CollectableRow) (customerRow, error) {
	var c customerRow
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Address,
		&c.Country,
		&c.PostalCode,
		&c.TaxID,
		&c.TaxIDValidated,
		&c.VATRate,
		&c.VATReason,
		&c.VATCountry,
		&c.VATBasis,
		&c.VATReverseCharge,
		&c.VATDeterminedAt,
	)
	return c, err
}

// CreateCustomer implements core.CustomerService.CreateCustomer
func (s *CustomerService) CreateCustomer(
	ctx context.Context,
	data core.CustomerCreateData,
) (*core.Customer, error) {
	rows, err := s.db.Query(ctx, `
		INSERT INTO customers (name, address, country, postal_code, tax_id, tax_id_validated)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+customerColumns,
		data.Name,
		data.Address,
		data.Country,
		data.PostalCode,
		data.TaxID,
		data.TaxIDValidated,
	)
	if err != nil {
		return nil, ConvertPgError(err)
	}
	customer, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		return nil, ConvertPgError(err)
	}
	return convertCustomer(customer)
}

// GetCustomer implements core.CustomerService.GetCustomer
func (s *CustomerService) GetCustomer(ctx context.Context, id core.CustomerID) (*core.Customer, error) {
	rows, err := s.db.Query(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, int32(id))
	if err != nil {
		return nil, ConvertPgError(err)
	}
	customer, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		return nil, ConvertPgError(err)
	}
	return convertCustomer(customer)
}

// ListCustomers implements core.CustomerService.ListCustomers
func (s *CustomerService) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	rows, err := s.db.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY id`)
	if err != nil {
		return nil, ConvertPgError(err)
	}
	customers, err := pgx.CollectRows(rows, scanCustomer)
	if err != nil {
		return nil, ConvertPgError(err)
	}
	result := make([]core.Customer, 0, len(customers))
	for _, c := range customers {
		customer, err := convertCustomer(c)
		if err != nil {
			return nil, err
		}
		result = append(result, *customer)
	}
	return result, nil
}

// SaveVATDecision implements core.CustomerService.SaveVATDecision
func (s *CustomerService) SaveVATDecision(
	ctx context.Context,
	id core.CustomerID,
	decision core.VATDecision,
) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE customers
		SET vat_rate = $2, vat_reason = $3, vat_country = $4, vat_basis = $5,
			vat_reverse_charge = $6, vat_determined_at = NOW()
		WHERE id = $1`,
		int32(id),
		decision.Rate,
		decision.Reason,
		decision.Country.String(),
		string(decision.Basis),
		decision.ReverseCharge,
	)
	if err != nil {
		return ConvertPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cannot save VAT decision for customer %v: %w", id, core.ErrNotFound)
	}
	return nil
}

// DeleteCustomer implements core.CustomerService.DeleteCustomer
func (s *CustomerService) DeleteCustomer(ctx context.Context, id core.CustomerID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, int32(id))
	return ConvertPgError(err)
}

func convertCustomer(c customerRow) (*core.Customer, error) {
	id, err := core.NewCustomerID(uint(c.ID))
	if err != nil {
		return nil, err
	}
	customer := &core.Customer{
		ID:             id,
		Name:           c.Name,
		Address:        c.Address,
		Country:        c.Country,
		PostalCode:     c.PostalCode,
		TaxID:          c.TaxID,
		TaxIDValidated: c.TaxIDValidated,
		DeterminedAt:   c.VATDeterminedAt,
	}
	if c.VATRate != nil {
		customer.VAT = &core.VATDecision{
			Rate:          *c.VATRate,
			Reason:        core.Value(c.VATReason),
			ReverseCharge: c.VATReverseCharge,
			Country:       core.CountryCode(core.Value(c.VATCountry)),
			Basis:         core.Basis(core.Value(c.VATBasis)),
		}
	}
	return customer, nil
}
