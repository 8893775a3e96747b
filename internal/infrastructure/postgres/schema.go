package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema DDL idempotente del ledger. Los CHECK repiten en la base las invariantes de
// contadores para que ni una escritura fuera del ledger pueda romperlas.
const schema = `
CREATE TABLE IF NOT EXISTS locations (
    id             TEXT PRIMARY KEY,
    company_id     TEXT        NOT NULL,
    name           TEXT        NOT NULL,
    multi_location BOOLEAN     NOT NULL DEFAULT FALSE,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_locations_company ON locations (company_id);

CREATE TABLE IF NOT EXISTS products (
    id                  TEXT PRIMARY KEY,
    company_id          TEXT          NOT NULL,
    name                TEXT          NOT NULL,
    category            TEXT          NOT NULL DEFAULT '',
    unit                TEXT          NOT NULL DEFAULT 'und',
    stock               NUMERIC(18,4) NOT NULL DEFAULT 0,
    reserved_stock      NUMERIC(18,4) NOT NULL DEFAULT 0,
    low_stock_threshold NUMERIC(18,4) NOT NULL DEFAULT 0,
    location_id         TEXT REFERENCES locations (id),
    version             BIGINT        NOT NULL DEFAULT 1,
    created_at          TIMESTAMPTZ   NOT NULL DEFAULT now(),
    updated_at          TIMESTAMPTZ   NOT NULL DEFAULT now(),
    CONSTRAINT products_counters_chk CHECK (reserved_stock >= 0 AND reserved_stock <= stock)
);
CREATE INDEX IF NOT EXISTS idx_products_company ON products (company_id, name);

CREATE TABLE IF NOT EXISTS stock_levels (
    product_id  TEXT          NOT NULL REFERENCES products (id),
    location_id TEXT          NOT NULL REFERENCES locations (id),
    quantity    NUMERIC(18,4) NOT NULL DEFAULT 0,
    reserved    NUMERIC(18,4) NOT NULL DEFAULT 0,
    version     BIGINT        NOT NULL DEFAULT 1,
    updated_at  TIMESTAMPTZ   NOT NULL DEFAULT now(),
    PRIMARY KEY (product_id, location_id),
    CONSTRAINT stock_levels_counters_chk CHECK (reserved >= 0 AND reserved <= quantity)
);

CREATE TABLE IF NOT EXISTS stock_movements (
    id                  TEXT PRIMARY KEY,
    seq                 BIGINT GENERATED ALWAYS AS IDENTITY UNIQUE,
    company_id          TEXT          NOT NULL,
    type                TEXT          NOT NULL CHECK (type IN ('IN', 'OUT', 'TRANSFER', 'ADJUSTMENT')),
    product_id          TEXT          NOT NULL REFERENCES products (id),
    product_name        TEXT          NOT NULL DEFAULT '',
    quantity            NUMERIC(18,4) NOT NULL,
    from_location_id    TEXT REFERENCES locations (id),
    to_location_id      TEXT REFERENCES locations (id),
    "timestamp"         TIMESTAMPTZ   NOT NULL DEFAULT clock_timestamp(),
    user_id             TEXT          NOT NULL DEFAULT '',
    user_name           TEXT          NOT NULL DEFAULT '',
    reason              TEXT          NOT NULL DEFAULT '',
    reference           TEXT          NOT NULL DEFAULT '',
    is_audit            BOOLEAN       NOT NULL DEFAULT FALSE,
    system_count_before NUMERIC(18,4),
    physical_count      NUMERIC(18,4)
);
CREATE INDEX IF NOT EXISTS idx_movements_company_order ON stock_movements (company_id, "timestamp" DESC, seq DESC);
CREATE INDEX IF NOT EXISTS idx_movements_product_order ON stock_movements (product_id, "timestamp" DESC, seq DESC);

CREATE TABLE IF NOT EXISTS sales (
    id           TEXT PRIMARY KEY,
    company_id   TEXT          NOT NULL,
    product_id   TEXT          NOT NULL REFERENCES products (id),
    product_name TEXT          NOT NULL DEFAULT '',
    location_id  TEXT          NOT NULL REFERENCES locations (id),
    quantity     NUMERIC(18,4) NOT NULL CHECK (quantity > 0),
    status       TEXT          NOT NULL CHECK (status IN ('Pending', 'Fulfilled', 'Cancelled')),
    guide_number TEXT          NOT NULL,
    movement_id  TEXT,
    created_by   TEXT          NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ   NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ   NOT NULL DEFAULT now(),
    version      BIGINT        NOT NULL DEFAULT 1,
    UNIQUE (company_id, guide_number)
);
CREATE INDEX IF NOT EXISTS idx_sales_company_status ON sales (company_id, status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_sales_product_pending ON sales (product_id) WHERE status = 'Pending';

CREATE TABLE IF NOT EXISTS productions (
    id            TEXT PRIMARY KEY,
    company_id    TEXT          NOT NULL,
    product_id    TEXT          NOT NULL REFERENCES products (id),
    product_name  TEXT          NOT NULL DEFAULT '',
    quantity      NUMERIC(18,4) NOT NULL CHECK (quantity > 0),
    location_id   TEXT          NOT NULL REFERENCES locations (id),
    materials     JSONB         NOT NULL DEFAULT '[]',
    status        TEXT          NOT NULL CHECK (status IN ('Pending', 'Transferred')),
    date          TIMESTAMPTZ   NOT NULL DEFAULT now(),
    registered_by TEXT          NOT NULL DEFAULT '',
    movement_id   TEXT,
    version       BIGINT        NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_productions_company ON productions (company_id, date DESC);

CREATE TABLE IF NOT EXISTS company_counters (
    company_id TEXT   NOT NULL,
    name       TEXT   NOT NULL,
    value      BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (company_id, name)
);
`

// EnsureSchema crea las tablas del ledger si no existen.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("crear esquema: %w", err)
	}
	return nil
}
