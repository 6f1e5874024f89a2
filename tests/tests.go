package tests

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"
	"github.com/prior-it/vatengine/core"
	"github.com/prior-it/vatengine/postgres"
)

var Faker = gofakeit.New(rand.Uint64())

// DB connects to the database in DATABASE_URL and migrates a fresh schema that is dropped after the test.
// Tests that need a database are skipped when no database is configured.
func DB(t *testing.T) *postgres.DB {
	t.Helper()
	ctx := context.Background()
	if err := godotenv.Load("../.env"); err != nil {
		log.Printf("Could not load the .env file: %v", err)
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("To test database functionality, set the DATABASE_URL env variable to a valid database")
	}
	schema := fmt.Sprintf("test_%d", Faker.Uint32())
	db, err := postgres.NewDBInSchema(ctx, url, schema)
	if err != nil {
		t.Fatalf("Cannot connect to the test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.DeleteSchema(context.Background(), schema); err != nil {
			t.Errorf("Cannot delete test schema: %v", err)
		}
		db.Close()
	})

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Cannot migrate the test database: %v", err)
	}

	return db
}

func DeleteAllCustomers(service core.CustomerService) {
	ctx := context.Background()
	customers, err := service.ListCustomers(ctx)
	Check(err)
	for _, customer := range customers {
		Check(service.DeleteCustomer(ctx, customer.ID))
	}
}

// FakeCustomer returns create data for a German customer with a random street address.
func FakeCustomer() core.CustomerCreateData {
	addr := Faker.Address()
	line := addr.Street + ", " + Faker.Numerify("#####") + " " + addr.City
	return core.CustomerCreateData{
		Name:    Faker.Company(),
		Address: &line,
	}
}

func Check(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
