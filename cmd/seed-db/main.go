// Command seed-db loads demo sellers, customers, bikes, and API keys into the
// database. Bikes come from a JSON file, optionally gzip-compressed.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/pedalworks/bike-rental/internal/postgres"
)

type bikeJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Deposit     decimal.Decimal `json:"deposit"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image"`
}

const (
	upsertSellerSQL = `INSERT INTO sellers (id, name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email,
			phone = EXCLUDED.phone, address = EXCLUDED.address, updated_at = now()`

	upsertCustomerSQL = `INSERT INTO customers (id, username, email, profile_image)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, email = EXCLUDED.email,
			profile_image = EXCLUDED.profile_image, updated_at = now()`

	upsertBikeSQL = `INSERT INTO bikes (id, name, category, description, price, deposit, stock, image_url, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, category = EXCLUDED.category,
			description = EXCLUDED.description, price = EXCLUDED.price, deposit = EXCLUDED.deposit,
			stock = EXCLUDED.stock, image_url = EXCLUDED.image_url, updated_at = now()`

	upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, role, subject_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET key_hash = EXCLUDED.key_hash, name = EXCLUDED.name,
			role = EXCLUDED.role, subject_id = EXCLUDED.subject_id`
)

const (
	demoSellerID   = "seller-demo"
	demoCustomerID = "customer-demo"
)

func main() {
	var (
		databaseURL  string
		bikesFile    string
		customerKey  string
		sellerKey    string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&bikesFile, "bikes-file", "db/seed/bikes.json", "path to bikes JSON file (.gz supported)")
	flag.StringVar(&customerKey, "customer-key", "", "customer API key to seed (or RENT_SEED_CUSTOMER_KEY env)")
	flag.StringVar(&sellerKey, "seller-key", "", "seller API key to seed (or RENT_SEED_SELLER_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or RENT_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if customerKey == "" {
		customerKey = os.Getenv("RENT_SEED_CUSTOMER_KEY")
	}
	if sellerKey == "" {
		sellerKey = os.Getenv("RENT_SEED_SELLER_KEY")
	}
	if customerKey == "" || sellerKey == "" {
		slog.Error("API keys are required: set --customer-key/--seller-key or RENT_SEED_CUSTOMER_KEY/RENT_SEED_SELLER_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("RENT_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, bikesFile, customerKey, sellerKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, bikesFile, customerKey, sellerKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedIdentities(ctx, pool); err != nil {
		return errors.Wrap(err, "seed identities")
	}

	if err := seedBikes(ctx, pool, bikesFile); err != nil {
		return errors.Wrap(err, "seed bikes")
	}

	if err := seedAPIKeys(ctx, pool, customerKey, sellerKey, pepper); err != nil {
		return errors.Wrap(err, "seed api keys")
	}

	return nil
}

func seedIdentities(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding demo seller and customer")

	_, err := pool.Exec(ctx, upsertSellerSQL,
		demoSellerID, "PedalWorks Demo Shop", "shop@pedalworks.test", "+1-555-0100", "1 Demo Street")
	if err != nil {
		return errors.Wrap(err, "upsert seller")
	}

	_, err = pool.Exec(ctx, upsertCustomerSQL,
		demoCustomerID, "demo", "demo@pedalworks.test", "")
	if err != nil {
		return errors.Wrap(err, "upsert customer")
	}

	return nil
}

func seedBikes(ctx context.Context, pool *pgxpool.Pool, bikesFile string) error {
	slog.Info("reading bikes file", slog.String("path", bikesFile))

	data, err := readMaybeGzipped(bikesFile)
	if err != nil {
		return errors.Wrap(err, "read bikes file")
	}

	var bikes []bikeJSON
	if err := json.Unmarshal(data, &bikes); err != nil {
		return errors.Wrap(err, "parse bikes JSON")
	}

	slog.Info("upserting bikes", slog.Int("count", len(bikes)))

	for _, b := range bikes {
		_, err := pool.Exec(ctx, upsertBikeSQL,
			b.ID, b.Name, b.Category, b.Description, b.Price, b.Deposit, b.Stock, b.Image, demoSellerID)
		if err != nil {
			return errors.Wrapf(err, "upsert bike %s", b.ID)
		}

		slog.Info("upserted bike", slog.String("id", b.ID), slog.String("name", b.Name))
	}

	return nil
}

func seedAPIKeys(ctx context.Context, pool *pgxpool.Pool, customerKey, sellerKey, pepper string) error {
	slog.Info("seeding API keys")

	keys := []struct {
		id, key, name, role, subject string
	}{
		{"customer-default", customerKey, "Demo customer key", "customer", demoCustomerID},
		{"seller-default", sellerKey, "Demo seller key", "seller", demoSellerID},
	}

	for _, k := range keys {
		if _, err := pool.Exec(ctx, upsertAPIKeySQL,
			k.id, hashKey(k.key, pepper), k.name, k.role, k.subject); err != nil {
			return errors.Wrapf(err, "upsert API key %s", k.id)
		}

		slog.Info("upserted API key", slog.String("id", k.id), slog.String("role", k.role))
	}

	return nil
}

func hashKey(key, pepper string) string {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// readMaybeGzipped reads the file, transparently decompressing .gz files.
func readMaybeGzipped(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(r)
}
