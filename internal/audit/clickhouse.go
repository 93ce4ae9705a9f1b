package audit

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/amm-validator/internal/constants"
)

// ClickHouseOptions locates the audit database.
type ClickHouseOptions struct {
	Addr     string
	Database string
	Username string
	Password string
}

// ClickHouseStore appends decision events to a MergeTree table.
type ClickHouseStore struct {
	conn driver.Conn
	log  logrus.FieldLogger
}

func NewClickHouseStore(ctx context.Context, opts ClickHouseOptions, log logrus.FieldLogger) (*ClickHouseStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	s := &ClickHouseStore{conn: conn, log: log}
	if err := s.ensureSchema(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	log.WithField("addr", opts.Addr).Info("connected to ClickHouse")
	return s, nil
}

func (c *ClickHouseStore) ensureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			at        DateTime64(3, 'UTC'),
			pool_id   String,
			action    LowCardinality(String),
			accepted  Bool,
			code      LowCardinality(String),
			message   String,
			tx_fee    UInt64,
			inputs    UInt16,
			outputs   UInt16
		) ENGINE = MergeTree
		ORDER BY (pool_id, at)
	`, constants.ClickHouseDecisionsTable)
	if err := c.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("create decisions table: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) Record(ctx context.Context, ev *DecisionEvent) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			at, pool_id, action, accepted, code, message, tx_fee, inputs, outputs
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, constants.ClickHouseDecisionsTable)

	err := c.conn.Exec(ctx, query,
		ev.At,
		ev.PoolID,
		ev.Action,
		ev.Accepted,
		ev.Code,
		ev.Message,
		ev.TxFee,
		uint16(min(ev.Inputs, 0xffff)),
		uint16(min(ev.Outputs, 0xffff)),
	)
	if err != nil {
		return fmt.Errorf("failed to insert decision: %w", err)
	}
	return nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
