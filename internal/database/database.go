// Package database 提供 MySQL 连接、事务辅助与数据库迁移功能。
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// 注册 mysql 驱动，sql.Open("mysql", dsn) 依赖它
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/Ihury/graodireto-tech-blog-api/internal/config"
)

// DB 封装数据库连接
type DB struct {
	*sql.DB
	logger *zap.Logger
	dsn    string
}

// New 根据配置建立连接
func New(cfg *config.Config, logger *zap.Logger) (*DB, error) {
	db, err := Open(cfg.DSN(), logger)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.DBName),
	)
	return db, nil
}

// Open 使用 DSN 建立连接并 Ping，测试中直接传入容器的 DSN
func Open(dsn string, logger *zap.Logger) (*DB, error) {
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{DB: sqlDB, logger: logger, dsn: dsn}, nil
}

// WithTx 在事务中执行 fn，fn 返回错误时回滚
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// newMigrate 使用独立连接创建 migrate 实例，避免迁移出错影响主连接。
// 返回的 close 函数同时关闭 migrate 实例与独立连接。
func (db *DB) newMigrate(migrationsDir string) (*migrate.Migrate, func(), error) {
	migrateSQLDB, err := sql.Open("mysql", db.dsn+"&multiStatements=true")
	if err != nil {
		return nil, nil, fmt.Errorf("open database for migration: %w", err)
	}

	driver, err := mysql.WithInstance(migrateSQLDB, &mysql.Config{})
	if err != nil {
		_ = migrateSQLDB.Close()
		return nil, nil, fmt.Errorf("create mysql driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsDir),
		"mysql",
		driver,
	)
	if err != nil {
		_ = migrateSQLDB.Close()
		return nil, nil, fmt.Errorf("create migrate instance: %w", err)
	}

	return m, func() {
		_, _ = m.Close()
		_ = migrateSQLDB.Close()
	}, nil
}

// RunMigrations 执行所有未执行的向上迁移。
// 在 HTTP 服务启动前调用，保证处理请求时表结构已就绪。
func (db *DB) RunMigrations(migrationsDir string) error {
	m, closeFn, err := db.newMigrate(migrationsDir)
	if err != nil {
		return err
	}
	defer closeFn()

	currentVersion, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("get current version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d, please check and fix manually", currentVersion)
	}

	db.logger.Info("current migration version", zap.Uint("version", currentVersion))

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			db.logger.Info("no new migrations to apply")
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}

	newVersion, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("get new version: %w", err)
	}

	db.logger.Info("migrations completed successfully",
		zap.Uint("from_version", currentVersion),
		zap.Uint("to_version", newVersion),
	)
	return nil
}

// MigrateDown 回滚 steps 个版本，生产环境慎用
func (db *DB) MigrateDown(migrationsDir string, steps int) error {
	m, closeFn, err := db.newMigrate(migrationsDir)
	if err != nil {
		return err
	}
	defer closeFn()

	currentVersion, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d", currentVersion)
	}

	db.logger.Info("starting migration rollback",
		zap.Uint("current_version", currentVersion),
		zap.Int("steps", steps),
	)

	if err := m.Steps(-steps); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}

	newVersion, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("get new version: %w", err)
	}

	db.logger.Info("migration rollback completed",
		zap.Uint("from_version", currentVersion),
		zap.Uint("to_version", newVersion),
	)
	return nil
}

// MigrationVersion 返回当前迁移版本与脏状态，尚未迁移时版本为0
func (db *DB) MigrationVersion(migrationsDir string) (uint, bool, error) {
	m, closeFn, err := db.newMigrate(migrationsDir)
	if err != nil {
		return 0, false, err
	}
	defer closeFn()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get current version: %w", err)
	}
	return version, dirty, nil
}

// ForceMigrationVersion 强制设置迁移版本以清除脏状态，只在人工修复后使用
func (db *DB) ForceMigrationVersion(migrationsDir string, version uint) error {
	m, closeFn, err := db.newMigrate(migrationsDir)
	if err != nil {
		return err
	}
	defer closeFn()

	db.logger.Info("forcing migration version", zap.Uint("version", version))

	if err := m.Force(int(version)); err != nil {
		return fmt.Errorf("force migration version: %w", err)
	}

	db.logger.Info("migration version forced successfully", zap.Uint("version", version))
	return nil
}

// MigrateToVersion 迁移到指定版本，可向上也可向下
func (db *DB) MigrateToVersion(migrationsDir string, version uint) error {
	m, closeFn, err := db.newMigrate(migrationsDir)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := m.Migrate(version); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			db.logger.Info("already at target version", zap.Uint("version", version))
			return nil
		}
		return fmt.Errorf("migrate to version %d: %w", version, err)
	}

	db.logger.Info("migrated to version", zap.Uint("version", version))
	return nil
}
