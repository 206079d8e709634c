package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/vanshika/downline/internal/domain"
)

// Store keeps members and deals in PostgreSQL.
type Store struct {
	DB *gorm.DB
}

// Open connects to the DSN and sizes the connection pool.
func Open(dsn string, maxOpenConns int) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB from gorm.DB: %w", err)
	}
	if maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// AutoMigrate creates the tables from the models. It is the fallback when no
// migrations directory is configured.
func (s *Store) AutoMigrate() error {
	return s.DB.AutoMigrate(&ProfileModel{}, &DealModel{})
}

func (s *Store) UpsertMember(ctx context.Context, member domain.Member) error {
	if member.ID == "" {
		return errors.New("member id is required")
	}
	model := toProfileModel(member)
	err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"upline_id", "first_name", "last_name", "email", "is_admin", "updated_at"}),
		}).
		Create(model).Error
	if err != nil {
		return fmt.Errorf("upsert member %s: %w", member.ID, err)
	}
	return nil
}

func (s *Store) UpsertDeal(ctx context.Context, deal domain.Deal) error {
	if deal.ID == "" {
		return errors.New("deal id is required")
	}
	if deal.OwnerID == "" {
		return errors.New("deal owner id is required")
	}
	model := toDealModel(deal)
	err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"agent_id", "occurred_at", "monthly_premium", "carrier", "product", "status", "client_name", "updated_at",
			}),
		}).
		Create(model).Error
	if err != nil {
		return fmt.Errorf("upsert deal %s: %w", deal.ID, err)
	}
	return nil
}

// ListMembers returns profiles ordered by creation time then id.
func (s *Store) ListMembers(ctx context.Context, filter domain.MemberFilter) ([]domain.Member, error) {
	var rows []ProfileModel
	if err := s.DB.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Limit(filter.EffectiveLimit()).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	members := make([]domain.Member, len(rows))
	for i := range rows {
		members[i] = toDomainMember(&rows[i])
	}
	return members, nil
}

// ListDeals returns deals ordered by occurrence then id.
func (s *Store) ListDeals(ctx context.Context, filter domain.DealFilter) ([]domain.Deal, error) {
	q := s.DB.WithContext(ctx).Model(&DealModel{})
	if filter.Since != nil && !filter.Since.IsZero() {
		q = q.Where("occurred_at >= ?", filter.Since.UTC())
	}
	if len(filter.OwnerIDs) > 0 {
		q = q.Where("agent_id IN ?", filter.OwnerIDs)
	}

	var rows []DealModel
	if err := q.Order("occurred_at ASC, id ASC").
		Limit(filter.EffectiveLimit()).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}

	deals := make([]domain.Deal, len(rows))
	for i := range rows {
		deals[i] = toDomainDeal(&rows[i])
	}
	return deals, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
