package database

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrUnsupportedDriver = errors.New("database: unsupported driver")

type Opts struct {
	Driver             string
	DSN                string
	Host               string
	Port               int
	Username           string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string
}

func NewGorm(o Opts) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch o.Driver {
	case "postgres":
		dsn := o.DSN
		if dsn == "" {
			dsn = PostgresDSN(o)
		}
		log.Println("[db] postgres dsn =", MaskDSN(dsn))
		dial = postgres.Open(dsn)
	case "mysql":
		dsn := o.DSN
		if dsn == "" {
			dsn = MySQLDSN(o)
		}
		log.Println("[db] mysql dsn =", MaskDSN(dsn))
		dial = mysql.Open(dsn)
	case "sqlite":
		dsn := o.DSN
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		dial = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, o.Driver)
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel(o.LogLevel)),
		TranslateError: true, // 唯一键冲突转为 gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if o.Driver == "sqlite" {
		// sqlite 单写者
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(o.MaxOpenConns)
		sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)

	db = db.Session(&gorm.Session{
		PrepareStmt:            true, // 预编译缓存
		SkipDefaultTransaction: true,
	})
	return db, nil
}

// Migrate drop 为 true 时先删表再建表（测试环境重置数据）
func Migrate(db *gorm.DB, drop bool, models ...any) error {
	if drop {
		if err := db.Migrator().DropTable(models...); err != nil {
			return fmt.Errorf("drop tables: %w", err)
		}
	}
	return db.AutoMigrate(models...)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func PostgresDSN(o Opts) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(o.Username, o.Password),
		Host:   fmt.Sprintf("%s:%d", o.Host, o.Port),
		Path:   "/" + o.Name,
	}
	q := url.Values{}
	if o.SSLMode != "" {
		q.Set("sslmode", o.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// MySQLDSN go-sql-driver 格式：user:pass@tcp(host:port)/db?...
func MySQLDSN(o Opts) string {
	port := o.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=Local",
		o.Username, o.Password, o.Host, port, o.Name)
}

// MaskDSN 打日志前隐藏密码
func MaskDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.User != nil {
		return u.Redacted()
	}
	if at := strings.LastIndex(dsn, "@"); at > 0 {
		if colon := strings.Index(dsn[:at], ":"); colon > 0 {
			return dsn[:colon+1] + "****" + dsn[at:]
		}
	}
	return dsn
}

func logLevel(s string) logger.LogLevel {
	switch s {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
