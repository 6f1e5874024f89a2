package postgres_test

import (
	"context"
	"testing"

	"github.com/prior-it/vatengine/core"
	"github.com/prior-it/vatengine/postgres"
	"github.com/prior-it/vatengine/tests"
	"github.com/prior-it/vatengine/vat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerService(t *testing.T) {
	db := tests.DB(t)
	service := postgres.NewCustomerService(db)
	ctx := context.Background()
	defer tests.DeleteAllCustomers(service)

	t.Run("ok: create customer", func(t *testing.T) {
		data := tests.FakeCustomer()
		data.Country = core.Ptr("FR")
		customer, err := service.CreateCustomer(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, data.Name, customer.Name)
		assert.Equal(t, *data.Address, *customer.Address)
		assert.Equal(t, "FR", *customer.Country)
		assert.Nil(t, customer.PostalCode)
		assert.Nil(t, customer.VAT, "A new customer should not have a VAT decision")
	})

	t.Run("ok: save and read back a VAT decision", func(t *testing.T) {
		data := tests.FakeCustomer()
		data.Country = core.Ptr("FI")
		customer, err := service.CreateCustomer(ctx, data)
		require.NoError(t, err)

		decision := vat.Calculate(customer.TaxProfile(false))
		require.NoError(t, service.SaveVATDecision(ctx, customer.ID, decision))

		stored, err := service.GetCustomer(ctx, customer.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.VAT)
		assert.Equal(t, decision, *stored.VAT)
		assert.NotNil(t, stored.DeterminedAt)
	})

	t.Run("ok: list customers", func(t *testing.T) {
		tests.DeleteAllCustomers(service)
		for range 3 {
			_, err := service.CreateCustomer(ctx, tests.FakeCustomer())
			require.NoError(t, err)
		}
		customers, err := service.ListCustomers(ctx)
		require.NoError(t, err)
		assert.Len(t, customers, 3)
	})

	t.Run("err: duplicate tax id", func(t *testing.T) {
		data := tests.FakeCustomer()
		data.TaxID = core.Ptr("ATU" + tests.Faker.Numerify("########"))
		_, err := service.CreateCustomer(ctx, data)
		require.NoError(t, err)

		_, err = service.CreateCustomer(ctx, data)
		assert.ErrorIs(t, err, core.ErrConflict)
	})

	t.Run("err: deleted customer is not found", func(t *testing.T) {
		customer, err := service.CreateCustomer(ctx, tests.FakeCustomer())
		require.NoError(t, err)
		require.NoError(t, service.DeleteCustomer(ctx, customer.ID))

		deleted, err := service.GetCustomer(ctx, customer.ID)
		assert.Nil(t, deleted)
		assert.ErrorIs(t, err, core.ErrNotFound)

		err = service.SaveVATDecision(ctx, customer.ID, core.VATDecision{})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestMigrations(t *testing.T) {
	db := tests.DB(t)
	ctx := context.Background()

	t.Run("ok: down and up again", func(t *testing.T) {
		require.NoError(t, db.MigrateDown(ctx))
		_, err := db.Exec(ctx, "SELECT vat_rate FROM customers")
		require.Error(t, err, "The VAT columns should be gone after rolling back the last migration")

		require.NoError(t, db.Migrate(ctx))
		_, err = db.Exec(ctx, "SELECT vat_rate FROM customers")
		assert.NoError(t, err)
	})
}
