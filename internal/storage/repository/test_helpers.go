package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/99sellers/leadgen/internal/models"
)

// TestDataFactory содержит методы для наполнения тестовой БД.
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных.
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя и возвращает его UID.
func (f *TestDataFactory) CreateUser(t *testing.T, email, role string) string {
	var uid string
	err := f.storage.DB.QueryRow(`INSERT INTO users (email, first_name, last_name, password_hash, role)
		VALUES ($1, 'Test', 'User', 'hashedpassword', $2)
		RETURNING uid`, email, role).Scan(&uid)
	require.NoError(t, err)
	return uid
}

// CreateSubscription создает тестовую запись подписки и возвращает её ID.
func (f *TestDataFactory) CreateSubscription(t *testing.T, userUID string, plan models.PlanType,
	status models.SubscriptionStatus, endDate *time.Time) int {
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO subscriptions
		(user_uid, plan, status, billing_cycle, start_date, end_date, auto_renew)
		VALUES ($1, $2, $3, 'monthly', NOW(), $4, TRUE)
		RETURNING id`, userUID, plan, status, endDate).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateOwner создает тестового собственника и возвращает его ID.
func (f *TestDataFactory) CreateOwner(t *testing.T, fullName, phone, email string) int {
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO owners (full_name, phone, email, mailing_address)
		VALUES ($1, $2, $3, '')
		RETURNING id`, fullName, phone, email).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateProperty создает тестовый объект недвижимости и возвращает его ID.
func (f *TestDataFactory) CreateProperty(t *testing.T, address, city, state, zip string,
	estimatedValue float64, ownerID *int) int {
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO properties
		(address, city, state, zip, property_type, estimated_value, owner_id)
		VALUES ($1, $2, $3, $4, 'Single Family', $5, $6)
		RETURNING id`, address, city, state, zip, estimatedValue, ownerID).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateAuction создает тестовую запись о торгах и возвращает её ID.
func (f *TestDataFactory) CreateAuction(t *testing.T, propertyID int, auctionDate time.Time, openingBid float64) int {
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO auctions
		(property_id, auction_date, opening_bid, trustee, case_number, status)
		VALUES ($1, $2, $3, 'Test Trustee', 'CASE-001', 'scheduled')
		RETURNING id`, propertyID, auctionDate, openingBid).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateLoan создает тестовое залоговое обязательство и возвращает его ID.
func (f *TestDataFactory) CreateLoan(t *testing.T, propertyID int, amount float64, status string) int {
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO loans
		(property_id, lender, amount, interest_rate, status)
		VALUES ($1, 'Test Bank', $2, 6.5, $3)
		RETURNING id`, propertyID, amount, status).Scan(&id)
	require.NoError(t, err)
	return id
}

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	dbPort := nat.Port("5432/tcp")
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{string(dbPort)},
		Env: map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForSQL(dbPort, "pgx", func(host string, port nat.Port) string {
			return fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())
		}).WithStartupTimeout(3 * time.Minute),
	}

	postgresContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start container")

	host, err := postgresContainer.Host(ctx)
	require.NoError(t, err, "failed to get host")
	port, err := postgresContainer.MappedPort(ctx, dbPort)
	require.NoError(t, err, "failed to get port")

	connStr := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	storage, err := New(connStr)
	require.NoError(t, err, "failed to create storage")

	createTestSchema(t, storage.DB)

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.DB.Close()
		}
		if postgresContainer != nil {
			_ = postgresContainer.Terminate(ctx)
		}
	}

	return storage, cleanup
}

func createTestSchema(t *testing.T, db *sql.DB) {
	_, err := db.Exec(`
        DROP TABLE IF EXISTS loans CASCADE;
        DROP TABLE IF EXISTS auctions CASCADE;
        DROP TABLE IF EXISTS properties CASCADE;
        DROP TABLE IF EXISTS owners CASCADE;
        DROP TABLE IF EXISTS subscriptions CASCADE;
        DROP TABLE IF EXISTS users CASCADE;

        CREATE EXTENSION IF NOT EXISTS "pgcrypto";

        CREATE TABLE users (
            uid UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            email TEXT NOT NULL UNIQUE,
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'user',
            trial_used BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );

        CREATE TABLE subscriptions (
            id SERIAL PRIMARY KEY,
            user_uid UUID NOT NULL REFERENCES users(uid) ON DELETE CASCADE,
            plan TEXT NOT NULL,
            status TEXT NOT NULL,
            billing_cycle TEXT NOT NULL DEFAULT 'monthly',
            start_date TIMESTAMPTZ,
            end_date TIMESTAMPTZ,
            trial_start TIMESTAMPTZ,
            trial_end TIMESTAMPTZ,
            auto_renew BOOLEAN NOT NULL DEFAULT TRUE,
            provider_id TEXT,
            cancel_reason TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );

        CREATE TABLE owners (
            id SERIAL PRIMARY KEY,
            full_name TEXT NOT NULL,
            phone TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            mailing_address TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );

        CREATE TABLE properties (
            id SERIAL PRIMARY KEY,
            address TEXT NOT NULL,
            city TEXT NOT NULL,
            state TEXT NOT NULL,
            zip TEXT NOT NULL,
            property_type TEXT NOT NULL DEFAULT '',
            bedrooms INT NOT NULL DEFAULT 0,
            bathrooms NUMERIC(3,1) NOT NULL DEFAULT 0,
            square_feet INT NOT NULL DEFAULT 0,
            estimated_value NUMERIC(14,2) NOT NULL DEFAULT 0,
            owner_id INT REFERENCES owners(id) ON DELETE SET NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );

        CREATE TABLE auctions (
            id SERIAL PRIMARY KEY,
            property_id INT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
            auction_date TIMESTAMPTZ,
            opening_bid NUMERIC(14,2) NOT NULL DEFAULT 0,
            trustee TEXT NOT NULL DEFAULT '',
            case_number TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'scheduled',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );

        CREATE TABLE loans (
            id SERIAL PRIMARY KEY,
            property_id INT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
            lender TEXT NOT NULL DEFAULT '',
            amount NUMERIC(14,2) NOT NULL DEFAULT 0,
            interest_rate NUMERIC(5,2) NOT NULL DEFAULT 0,
            default_date TIMESTAMPTZ,
            status TEXT NOT NULL DEFAULT 'current',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );

        CREATE INDEX idx_subscriptions_user_uid ON subscriptions(user_uid);
        CREATE INDEX idx_properties_owner_id ON properties(owner_id);
        CREATE INDEX idx_auctions_property_id ON auctions(property_id);
        CREATE INDEX idx_loans_property_id ON loans(property_id);
    `)
	require.NoError(t, err, "failed to create tables")
}
