package db

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations применяет схему счетов, признаков и ограничений и возвращает итоговую версию
func RunMigrations(dsn string, migrationsPath string, log *slog.Logger) (uint, error) {
	if dsn == "" {
		return 0, errors.New("DSN для миграций не может быть пустым")
	}
	if migrationsPath == "" {
		return 0, errors.New("путь к файлам миграций не может быть пустым")
	}

	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return 0, fmt.Errorf("не удалось создать экземпляр мигратора: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warn("ошибка при закрытии мигратора",
				slog.Any("source_error", srcErr),
				slog.Any("db_error", dbErr))
		}
	}()

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info("схема БД актуальна, новых миграций нет")
	case err != nil:
		return 0, fmt.Errorf("ошибка при выполнении миграций: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("ошибка при проверке версии миграций: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("обнаружена 'грязная' миграция версии %d. Исправьте вручную", version)
	}

	return version, nil
}
