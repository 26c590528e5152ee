package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"
)

// parseDSN 根据 DSN 选择驱动
// postgres:// 与 postgresql:// 使用 lib/pq，其余视为 sqlite 文件路径（可带 sqlite:// 前缀）
func parseDSN(dsn string) (driver, source string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return driverPostgres, dsn
	case strings.HasPrefix(dsn, "sqlite://"):
		return driverSQLite, strings.TrimPrefix(dsn, "sqlite://")
	default:
		return driverSQLite, dsn
	}
}

// OpenDB 打开数据库连接并初始化表结构
func OpenDB(dsn string) (*sqlx.DB, error) {
	driver, source := parseDSN(dsn)

	if driver == driverSQLite && !strings.HasPrefix(source, "file:") && source != ":memory:" {
		// 确保目录存在
		if err := os.MkdirAll(filepath.Dir(source), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == driverSQLite {
		// sqlite 单写者，串行化连接避免 database is locked
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitSchema 初始化表结构
func InitSchema(db *sqlx.DB) error {
	// 时间统一存 unix 纳秒，sqlite 与 postgres 行为一致
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		priority TEXT NOT NULL,
		priority_rank INTEGER NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		data TEXT,
		created_at BIGINT NOT NULL,
		read_at BIGINT,
		delivery_status TEXT NOT NULL
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create notifications table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_notifications_order ON notifications(created_at DESC, priority_rank DESC, id);`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_read_at ON notifications(read_at);`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_priority ON notifications(priority);`,
	}
	for _, stmt := range indexes {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create notifications index: %w", err)
		}
	}
	return nil
}
