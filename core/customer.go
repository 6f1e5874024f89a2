package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

/**
 * DOMAIN
 */

type Customer struct {
	ID             CustomerID
	Name           string
	Address        *string
	Country        *string
	PostalCode     *string
	TaxID          *string
	TaxIDValidated bool
	// The last persisted decision, nil if the customer was never determined.
	VAT          *VATDecision
	DeterminedAt *time.Time
}

type (
	CustomerID uint
)

func (id CustomerID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// NewCustomerID parses a customer id from any unsigned integer.
func NewCustomerID(id uint) (CustomerID, error) {
	if id == 0 {
		return 0, errors.New("CustomerID cannot be 0")
	}
	return CustomerID(id), nil
}

// ParseCustomerID parses a string into a customer id.
func ParseCustomerID(id string) (CustomerID, error) {
	integerID, err := strconv.Atoi(id)
	if err != nil {
		return 0, fmt.Errorf("cannot parse customer id: %w", err)
	}
	if integerID < 0 {
		return 0, errors.New("cannot parse customer id: customer ids cannot be negative")
	}
	customerID, err := NewCustomerID(uint(integerID))
	if err != nil {
		return 0, fmt.Errorf("cannot parse customer id: %w", err)
	}
	return customerID, nil
}

// TaxProfile returns the tax-relevant view of this customer.
// validated overrides the stored validation flag, e.g. after a fresh registry check.
func (c *Customer) TaxProfile(validated bool) CustomerTaxProfile {
	return CustomerTaxProfile{
		Country:     c.Country,
		PostalCode:  c.PostalCode,
		Address:     c.Address,
		TaxID:       c.TaxID,
		IsValidated: validated,
	}
}

/**
 * APPLICATION
 */

type CustomerCreateData struct {
	Name           string
	Address        *string
	Country        *string
	PostalCode     *string
	TaxID          *string
	TaxIDValidated bool
}

type CustomerService interface {
	// Create a new customer with the specified data.
	CreateCustomer(ctx context.Context, data CustomerCreateData) (*Customer, error)
	// Retrieve the customer with the specified id or ErrNotFound if no such customer exists.
	GetCustomer(ctx context.Context, id CustomerID) (*Customer, error)
	// Retrieve all existing customers.
	ListCustomers(ctx context.Context) ([]Customer, error)
	// Persist a VAT decision onto the customer, ErrNotFound if no such customer exists.
	SaveVATDecision(ctx context.Context, id CustomerID, decision VATDecision) error
	// Delete the customer with the specified id.
	DeleteCustomer(ctx context.Context, id CustomerID) error
}

// TaxIDValidator checks a tax identifier against an external registry.
// Implementations are best-effort: callers treat any error as "not validated".
type TaxIDValidator interface {
	ValidateTaxID(ctx context.Context, id TaxID) (bool, error)
}
