package store

import (
	"context"

	"github.com/Luismorlan/feedsim/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// CurrentRound returns the latest round, creating the zero round on an empty
// store.
func (s *GormStore) CurrentRound(ctx context.Context) (model.Round, error) {
	var round model.Round
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Order("id DESC").First(&round).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			round = model.Round{Day: 0, Hour: 0}
			return tx.Create(&round).Error
		}
		return err
	})
	return round, errors.Wrap(err, "fail to read current round")
}

// RoundAt returns the round labelled (day, hour), creating it if the clock
// never reached it before.
func (s *GormStore) RoundAt(ctx context.Context, day, hour int) (model.Round, error) {
	var round model.Round
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("day = ? AND hour = ?", day, hour).First(&round).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			round = model.Round{Day: day, Hour: hour}
			return tx.Create(&round).Error
		}
		return err
	})
	return round, errors.Wrapf(err, "fail to advance clock to day %d hour %d", day, hour)
}
