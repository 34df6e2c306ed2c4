package settings

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/lms-ally/syncer/src/utils/logger"
	"github.com/lms-ally/syncer/src/utils/model"
	"github.com/lms-ally/syncer/src/utils/task"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists watermarks and the delivery mode in the settings table
type Store struct {
	db  *gorm.DB
	log *logrus.Entry

	// Write retrying, 0 disables it
	maxElapsedTime time.Duration
	maxInterval    time.Duration
}

func NewStore(db *gorm.DB) (self *Store) {
	self = new(Store)
	self.db = db
	self.log = logger.NewSublogger("settings")
	return
}

func (self *Store) WithRetry(maxElapsedTime, maxInterval time.Duration) *Store {
	self.maxElapsedTime = maxElapsedTime
	self.maxInterval = maxInterval
	return self
}

func (self *Store) get(ctx context.Context, tx *gorm.DB, name model.SettingName) (value string, ok bool, err error) {
	var setting model.Setting
	err = tx.WithContext(ctx).
		Where("name = ?", name).
		First(&setting).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return
	}
	return setting.Value, true, nil
}

func (self *Store) set(ctx context.Context, tx *gorm.DB, name model.SettingName, value string) error {
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&model.Setting{Name: name, Value: value}).
		Error
}

func (self *Store) write(ctx context.Context, f func() error) error {
	if self.maxElapsedTime <= 0 {
		return f()
	}
	return task.NewRetry().
		WithContext(ctx).
		WithMaxElapsedTime(self.maxElapsedTime).
		WithMaxInterval(self.maxInterval).
		WithOnError(func(err error) {
			self.log.WithError(err).Warn("Failed to save setting, retrying")
		}).
		Run(f)
}

// GetInt64 returns 0 for settings that were never saved
func (self *Store) GetInt64(ctx context.Context, name model.SettingName) (out int64, err error) {
	value, ok, err := self.get(ctx, self.db, name)
	if err != nil || !ok || value == "" {
		return
	}
	return strconv.ParseInt(value, 10, 64)
}

func (self *Store) SetInt64(ctx context.Context, name model.SettingName, value int64) error {
	return self.write(ctx, func() error {
		return self.set(ctx, self.db, name, strconv.FormatInt(value, 10))
	})
}

// Advance saves the watermark only if it moves forward. Returns true if it got saved.
func (self *Store) Advance(ctx context.Context, name model.SettingName, value int64) (advanced bool, err error) {
	err = self.write(ctx, func() error {
		advanced = false
		return self.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			current, ok, err := self.get(ctx, tx, name)
			if err != nil {
				return err
			}
			if ok && current != "" {
				saved, err := strconv.ParseInt(current, 10, 64)
				if err != nil {
					return err
				}
				if saved >= value {
					return nil
				}
			}

			err = self.set(ctx, tx, name, strconv.FormatInt(value, 10))
			if err != nil {
				return err
			}
			advanced = true
			return nil
		})
	})
	if err != nil {
		return
	}

	if advanced {
		self.log.WithField("name", name).WithField("value", value).Debug("Watermark advanced")
	}
	return
}

func (self *Store) IsCliOnly(ctx context.Context) (bool, error) {
	v, err := self.GetInt64(ctx, model.SettingPushCliOnly)
	return v == 1, err
}

func (self *Store) SetCliOnly(ctx context.Context, cliOnly bool) error {
	var v int64
	if cliOnly {
		v = 1
	}
	self.log.WithField("cli_only", cliOnly).Info("Setting push mode")
	return self.SetInt64(ctx, model.SettingPushCliOnly, v)
}
