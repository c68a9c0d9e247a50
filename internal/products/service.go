package products

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/angelmondragon/farmconnect-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/farmconnect-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is the inventory oracle consulted by cart and checkout flows.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	Consume(ctx context.Context, lines []StockLine) (*Consumption, error)
	Restore(ctx context.Context, consumption *Consumption) error
}

// StockLine is a quantity of one product taken out of the catalog.
type StockLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// Consumption records what Consume changed so that Restore can undo it.
type Consumption struct {
	Lines []StockLine
	// Retired holds full snapshots of listings deleted because they sold out.
	Retired []models.Product
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
	now  func() time.Time
}

// NewService wires the oracle to its repository and transaction runner.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	return byID, nil
}

// Consume takes every line out of stock in one transaction. A listing that
// reaches zero is deleted in the same transaction. Nothing changes when any
// line cannot be satisfied.
func (s *service) Consume(ctx context.Context, lines []StockLine) (*Consumption, error) {
	merged := mergeLines(lines)
	result := &Consumption{Lines: merged}
	now := s.now().UTC()

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, line := range merged {
			ok, err := repo.DecrementIfAvailable(ctx, line.ProductID, line.Quantity, now)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}

			product, err := repo.FindByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Newf(pkgerrors.CodeNotFound, "Product %s is no longer available", line.ProductID)
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
			}
			if !ok {
				return pkgerrors.Newf(pkgerrors.CodeOutOfStock, "Only %d units of %s available", product.Quantity, product.Name)
			}

			if product.Quantity <= 0 {
				if err := repo.Delete(ctx, product.ID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retire sold out product")
				}
				result.Retired = append(result.Retired, *product)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Restore puts consumed stock back and re-creates retired listings.
func (s *service) Restore(ctx context.Context, consumption *Consumption) error {
	if consumption == nil || len(consumption.Lines) == 0 {
		return nil
	}
	now := s.now().UTC()

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, retired := range consumption.Retired {
			snapshot := retired
			snapshot.Quantity = 0
			if err := repo.Create(ctx, &snapshot); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recreate retired product")
			}
		}
		for _, line := range consumption.Lines {
			if err := repo.Increment(ctx, line.ProductID, line.Quantity, now); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
			}
		}
		return nil
	})
}

// mergeLines sums duplicate products and orders lines by id so concurrent
// checkouts lock rows in the same order.
func mergeLines(lines []StockLine) []StockLine {
	totals := map[uuid.UUID]int{}
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		totals[line.ProductID] += line.Quantity
	}
	merged := make([]StockLine, 0, len(totals))
	for id, qty := range totals {
		merged = append(merged, StockLine{ProductID: id, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].ProductID.String() < merged[j].ProductID.String()
	})
	return merged
}
