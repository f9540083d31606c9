package mysql

import (
	"database/sql"
	"fmt"
	"time"

	mysqlDriver "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/ninja0404/token-radar/pkg/config"
	"github.com/ninja0404/token-radar/pkg/logger"
)

type wrapper struct {
	db     *gorm.DB
	sqldb  *sql.DB
	config *Config
}

type Config struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	User     string `yaml:"user" json:"user" toml:"user"`
	Password string `yaml:"password" json:"password" toml:"password"`
	Host     string `yaml:"host" json:"host" toml:"host"`
	Port     int    `yaml:"port" json:"port" toml:"port"`
	Database string `yaml:"database" json:"database" toml:"database"`

	// 连接超时，如 "10s"
	Timeout string `yaml:"timeout" json:"timeout" toml:"timeout"`

	MaxPoolSize     int             `yaml:"max_pool_size" json:"max_pool_size" toml:"max_pool_size"`
	MaxIdleSize     int             `yaml:"max_idle_size" json:"max_idle_size" toml:"max_idle_size"`
	MaxIdleDuration config.Duration `yaml:"max_idle_ts" json:"max_idle_ts" toml:"max_idle_ts"`
	SqlOpenDebug    bool            `yaml:"open_debug" json:"open_debug" toml:"open_debug"`
	LogLevel        string          `yaml:"log_level" json:"log_level" toml:"log_level"`
}

func createDatabase(srcConf *Config) (*wrapper, error) {
	cnf := validateConfig(srcConf)
	dsn := getDsn(cnf)

	gormConfig := gorm.Config{
		Logger: NewGormLogger(logger.DefaultL1().Named("mysql"), mappingLoggerLevel(cnf.LogLevel, cnf.SqlOpenDebug)),
	}

	db, err := gorm.Open(mysqlDriver.Open(dsn), &gormConfig)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	err = sqlDB.Ping()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cnf.MaxPoolSize)
	sqlDB.SetMaxIdleConns(cnf.MaxIdleSize)
	sqlDB.SetConnMaxIdleTime(cnf.MaxIdleDuration.Std())

	return &wrapper{
		db:     db,
		sqldb:  sqlDB,
		config: cnf,
	}, nil
}

func validateConfig(cnf *Config) *Config {
	out := *cnf
	if out.Timeout == "" {
		out.Timeout = "10s"
	}
	if out.MaxPoolSize <= 0 {
		out.MaxPoolSize = 20
	}
	if out.MaxIdleSize <= 0 {
		out.MaxIdleSize = 5
	}
	if out.MaxIdleDuration <= 0 {
		out.MaxIdleDuration = config.Duration(10 * time.Minute)
	}
	return &out
}

func getDsn(cnf *Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%s",
		cnf.User, cnf.Password, cnf.Host, cnf.Port, cnf.Database, cnf.Timeout)
}
