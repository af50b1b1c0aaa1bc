// Package sources opens the book a statement is built from and new
// documents are recorded in: local CSV files, a remote table API or
// PostgreSQL.
package sources

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cleared-dev/billing/internal/billing"
	"github.com/cleared-dev/billing/internal/config"
	"github.com/cleared-dev/billing/internal/customers"
	"github.com/cleared-dev/billing/internal/model"
	"github.com/cleared-dev/billing/internal/statement"
	"github.com/cleared-dev/billing/internal/tableapi"
)

// Set is an open source: the statement readers, the customer list and the
// book that records new documents, plus whatever must be released afterwards.
type Set struct {
	statement.InvoiceReader
	statement.PaymentReader
	Kind      string
	Customers *customers.Service
	Book      *billing.Service

	saveCustomer func(ctx context.Context, c model.Customer) error
	close        func()
}

// Close releases the underlying connections.
func (s *Set) Close() {
	if s.close != nil {
		s.close()
	}
}

// AddCustomer validates and stores a new customer, returning it as stored.
func (s *Set) AddCustomer(ctx context.Context, c model.Customer) (model.Customer, error) {
	if err := s.Customers.Add(c); err != nil {
		return model.Customer{}, err
	}
	added, _ := s.Customers.Get(c.Name)
	if err := s.saveCustomer(ctx, added); err != nil {
		return model.Customer{}, err
	}
	return added, nil
}

// Open picks the source configured in cfg. dataDir is used by the csv source.
func Open(ctx context.Context, cfg *config.Config, dataDir string, logger *zap.Logger) (*Set, error) {
	kind := cfg.Source.Kind
	if kind == "" {
		kind = config.SourceCSV
	}
	logger = logger.With(zap.String("source", kind))

	switch kind {
	case config.SourceCSV:
		custs, err := customers.Load(dataDir)
		if err != nil {
			return nil, err
		}
		book := billing.NewService(billing.NewFileStore(dataDir), custs)
		return &Set{
			InvoiceReader: book,
			PaymentReader: book,
			Kind:          kind,
			Customers:     custs,
			Book:          book,
			saveCustomer: func(context.Context, model.Customer) error {
				return custs.Save(dataDir)
			},
		}, nil

	case config.SourceAPI:
		client, err := tableapi.NewClient(tableapi.Config{
			BaseURL: cfg.Source.API.BaseURL,
			APIKey:  cfg.Source.API.APIKey,
		})
		if err != nil {
			return nil, err
		}
		remote := NewRemote(client, logger)
		logger.Debug("using table api", zap.String("base_url", cfg.Source.API.BaseURL))
		list, err := remote.LoadCustomers(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading customers: %w", err)
		}
		custs := customers.NewService(list)
		return &Set{
			InvoiceReader: remote,
			PaymentReader: remote,
			Kind:          kind,
			Customers:     custs,
			Book:          billing.NewService(remote, custs),
			saveCustomer:  remote.AppendCustomer,
		}, nil

	case config.SourcePostgres:
		pool, err := Connect(ctx, cfg.Source.Postgres.DSN, cfg.Source.Postgres.MaxConns)
		if err != nil {
			return nil, err
		}
		pg := NewPostgres(pool, logger)
		logger.Debug("connected to postgres",
			zap.Int32("max_conns", pool.Config().MaxConns))
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		list, err := pg.LoadCustomers(ctx)
		if err != nil {
			pool.Close()
			return nil, err
		}
		custs := customers.NewService(list)
		return &Set{
			InvoiceReader: pg,
			PaymentReader: pg,
			Kind:          kind,
			Customers:     custs,
			Book:          billing.NewService(pg, custs),
			saveCustomer:  pg.AppendCustomer,
			close:         pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown source kind %q", kind)
}
