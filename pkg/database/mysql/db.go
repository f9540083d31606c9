package mysql

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	cnf "github.com/ninja0404/token-radar/pkg/config"
	"github.com/ninja0404/token-radar/pkg/logger"
)

const (
	DEFAULT_DB     = "default"
	DEFAULT_CONFIG = "mysql"
)

var dbs map[string]*wrapper

func init() {
	dbs = make(map[string]*wrapper)
}

// SetupDatabaseFromDefaultConfig 从默认配置键初始化默认库
func SetupDatabaseFromDefaultConfig() error {
	return setupDatabaseFromConfig(DEFAULT_DB, DEFAULT_CONFIG)
}

func setupDatabaseFromConfig(name string, configKey string) (err error) {
	var config Config
	err = cnf.Get(configKey).Scan(&config)
	if err != nil {
		return err
	}
	newDB, err := createDatabase(&config)
	if err != nil {
		return err
	}
	dbs[name] = newDB
	logger.Info(
		"mysql database connected",
		logger.String("name", name),
		logger.String("host", config.Host),
		logger.Int("port", config.Port),
		logger.String("database", config.Database),
	)
	return nil
}

// GetDb 获取默认库连接
func GetDb() (*gorm.DB, error) {
	return GetDbByName(DEFAULT_DB)
}

func GetDbByName(name string) (*gorm.DB, error) {
	w, ok := dbs[name]
	if !ok {
		return nil, errors.Errorf("database %s not initialized", name)
	}
	return w.db, nil
}

// Stop 关闭所有库连接
func Stop() error {
	var merr error
	for dname, w := range dbs {
		if err := w.sqldb.Close(); err != nil {
			merr = multierror.Append(merr, errors.Wrapf(err, "close database %s", dname))
		}
	}
	dbs = make(map[string]*wrapper)
	return merr
}
