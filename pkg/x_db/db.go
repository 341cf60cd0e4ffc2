// file:cas/pkg/x_db/db.go

// Package x_db persists CAS datasets in a SQL database through gorm.
package x_db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rskv-p/cas/pkg/x_cas"
	"github.com/rskv-p/cas/pkg/x_imp"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("dataset not found")
	ErrTypeMismatch = errors.New("dataset value type mismatch")
)

//---------------------
// Models
//---------------------

// Dataset is a named set of keys of one value type.
type Dataset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:128" json:"name"`
	ValueType string    `gorm:"size:16" json:"value_type"`
	Keys      int       `json:"keys"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is one key of a dataset. Values are stored in their text form.
type Record struct {
	ID        uint   `gorm:"primaryKey"`
	DatasetID uint   `gorm:"index"`
	Path      string `gorm:"size:1024"`
	Value     string `gorm:"size:1024"`
	DID       uint64 `gorm:"column:did;index"`
}

//---------------------
// DAO
//---------------------

// DAO wraps a gorm connection.
type DAO struct {
	db    *gorm.DB
	batch int
	log   zerolog.Logger
}

// Open connects and migrates the schema.
func Open(cfg Config, log zerolog.Logger) (*DAO, error) {
	dial, err := cfg.dialector()
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dial, &gorm.Config{
		Logger: newLogAdapter(log, cfg.gormLevel(), cfg.SlowThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Type, err)
	}
	d := &DAO{db: db, batch: cfg.BatchSize, log: log}
	if d.batch <= 0 {
		d.batch = defaultCfg.BatchSize
	}
	if err := d.Migrate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DAO) GetDB() *gorm.DB { return d.db }

// Migrate creates or updates the tables.
func (d *DAO) Migrate() error {
	if err := d.db.AutoMigrate(&Dataset{}, &Record{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (d *DAO) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Datasets lists the stored datasets by name.
func (d *DAO) Datasets(ctx context.Context) ([]Dataset, error) {
	var out []Dataset
	err := d.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

// Drop removes a dataset and its records.
func (d *DAO) Drop(ctx context.Context, name string) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ds, err := find(tx, name)
		if err != nil {
			return err
		}
		if err := tx.Where("dataset_id = ?", ds.ID).Delete(&Record{}).Error; err != nil {
			return err
		}
		return tx.Delete(&ds).Error
	})
}

func find(tx *gorm.DB, name string) (Dataset, error) {
	var ds Dataset
	err := tx.Where("name = ?", name).First(&ds).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ds, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return ds, err
}

//---------------------
// Keys
//---------------------

// Save stores keys under name, replacing an existing dataset of that name.
func Save[V x_cas.Value](ctx context.Context, d *DAO, name string, keys []x_cas.Key[V]) error {
	start := time.Now()
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if old, err := find(tx, name); err == nil {
			if err := tx.Where("dataset_id = ?", old.ID).Delete(&Record{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&old).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		ds := Dataset{Name: name, ValueType: x_cas.TypeName[V](), Keys: len(keys)}
		if err := tx.Create(&ds).Error; err != nil {
			return err
		}
		if len(keys) == 0 {
			return nil
		}
		recs := make([]Record, len(keys))
		for i, k := range keys {
			recs[i] = Record{
				DatasetID: ds.ID,
				Path:      x_cas.JoinPath(k.Path),
				Value:     x_imp.FormatValue(k.Value),
				DID:       k.DID,
			}
		}
		return tx.CreateInBatches(recs, d.batch).Error
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	d.log.Debug().Str("dataset", name).Int("keys", len(keys)).Dur("took", time.Since(start)).Msg("dataset saved")
	return nil
}

// Load reads back the keys of a dataset in insertion order.
func Load[V x_cas.Value](ctx context.Context, d *DAO, name string) ([]x_cas.Key[V], error) {
	db := d.db.WithContext(ctx)
	ds, err := find(db, name)
	if err != nil {
		return nil, err
	}
	if want := x_cas.TypeName[V](); ds.ValueType != want {
		return nil, fmt.Errorf("%w: %s holds %s, not %s", ErrTypeMismatch, name, ds.ValueType, want)
	}

	keys := make([]x_cas.Key[V], 0, ds.Keys)
	var batch []Record
	err = db.Where("dataset_id = ?", ds.ID).
		FindInBatches(&batch, d.batch, func(_ *gorm.DB, _ int) error {
			for _, r := range batch {
				v, err := x_imp.ParseValue[V](r.Value)
				if err != nil {
					return fmt.Errorf("record %d: %w", r.ID, err)
				}
				keys = append(keys, x_cas.Key[V]{Path: x_cas.SplitPath(r.Path), Value: v, DID: r.DID})
			}
			return nil
		}).Error
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return keys, nil
}
