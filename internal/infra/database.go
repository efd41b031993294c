package infra

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// consultaLenta is the threshold above which a statement is logged at warn.
const consultaLenta = 200 * time.Millisecond

// NewDatabase opens the GORM connection pool. The schema is owned by the SQL
// migrations (see Migrar); GORM never creates or alters tables. Timestamps
// are stored in UTC.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  gormZerolog{umbral: consultaLenta},
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// gormZerolog sends GORM's output to the global zerolog logger. Only failed
// and slow statements are logged; not-found is a normal outcome here.
type gormZerolog struct {
	umbral time.Duration
}

func (l gormZerolog) LogMode(logger.LogLevel) logger.Interface { return l }

func (gormZerolog) Info(_ context.Context, msg string, args ...interface{}) {
	log.Info().Msgf("gorm: "+msg, args...)
}

func (gormZerolog) Warn(_ context.Context, msg string, args ...interface{}) {
	log.Warn().Msgf("gorm: "+msg, args...)
}

func (gormZerolog) Error(_ context.Context, msg string, args ...interface{}) {
	log.Error().Msgf("gorm: "+msg, args...)
}

func (l gormZerolog) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	dur := time.Since(begin)
	var ev *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		ev = log.Error().Err(err)
	case l.umbral > 0 && dur > l.umbral:
		ev = log.Warn().Str("lenta", l.umbral.String())
	default:
		return
	}
	sql, filas := fc()
	ev.Dur("duracion", dur).Int64("filas", filas).Str("sql", sql).Msg("gorm")
}
