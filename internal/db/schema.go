package db

import "context"

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash BYTEA NOT NULL,
    role          TEXT NOT NULL CHECK (role IN ('customer', 'shopper')),
    name          TEXT NOT NULL,
    phone         TEXT NOT NULL,
    is_available  BOOLEAN NOT NULL DEFAULT FALSE,
    rating        DOUBLE PRECISION NOT NULL DEFAULT 5.0,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS orders (
    id                    BIGSERIAL PRIMARY KEY,
    customer_id           BIGINT NOT NULL REFERENCES users (id),
    shopper_id            BIGINT REFERENCES users (id),
    status                TEXT NOT NULL DEFAULT 'pending',
    items                 JSONB NOT NULL DEFAULT '[]',
    notes                 TEXT,
    total                 DOUBLE PRECISION NOT NULL DEFAULT 0,
    service_fee           DOUBLE PRECISION NOT NULL DEFAULT 0,
    is_paid               BOOLEAN NOT NULL DEFAULT FALSE,
    latitude              DOUBLE PRECISION,
    longitude             DOUBLE PRECISION,
    location_at           TIMESTAMPTZ,
    estimated_delivery_at TIMESTAMPTZ,
    created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders (customer_id);
CREATE INDEX IF NOT EXISTS idx_orders_shopper ON orders (shopper_id);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status);

CREATE TABLE IF NOT EXISTS reviews (
    id         BIGSERIAL PRIMARY KEY,
    order_id   BIGINT NOT NULL REFERENCES orders (id),
    from_id    BIGINT NOT NULL REFERENCES users (id),
    to_id      BIGINT NOT NULL REFERENCES users (id),
    rating     INTEGER NOT NULL,
    comment    TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_reviews_to ON reviews (to_id);

CREATE TABLE IF NOT EXISTS outbox_tasks (
    id           UUID PRIMARY KEY,
    topic        TEXT NOT NULL,
    key          TEXT NOT NULL,
    payload      JSONB NOT NULL,
    status       TEXT NOT NULL DEFAULT 'CREATED',
    attempts     INTEGER NOT NULL DEFAULT 0,
    last_error   TEXT,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox_tasks (status, created_at);
`

// InitSchema creates the tables on startup; every statement is idempotent.
func InitSchema(ctx context.Context, database *Database) error {
	_, err := database.Exec(ctx, schema)
	return err
}
