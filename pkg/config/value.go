package config

import (
	"encoding/json"
	"os"
	"time"

	simple "github.com/bitly/go-simplejson"
)

// Value 配置树上的一个节点
type Value interface {
	Scan(v interface{}) error
	String(def string) string
	Int(def int) int
	Int64(def int64) int64
	Float64(def float64) float64
	Bool(def bool) bool
	Duration(def time.Duration) time.Duration
	StringSlice(def []string) []string
	Bytes() []byte
	Exists() bool
}

type jsonValue struct {
	sj *simple.Json
}

func (v *jsonValue) Scan(out interface{}) error {
	b, err := v.sj.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (v *jsonValue) String(def string) string {
	return v.sj.MustString(def)
}

func (v *jsonValue) Int(def int) int {
	return v.sj.MustInt(def)
}

func (v *jsonValue) Int64(def int64) int64 {
	return v.sj.MustInt64(def)
}

func (v *jsonValue) Float64(def float64) float64 {
	return v.sj.MustFloat64(def)
}

func (v *jsonValue) Bool(def bool) bool {
	return v.sj.MustBool(def)
}

func (v *jsonValue) Duration(def time.Duration) time.Duration {
	s, err := v.sj.String()
	if err != nil {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func (v *jsonValue) StringSlice(def []string) []string {
	return v.sj.MustStringArray(def)
}

func (v *jsonValue) Bytes() []byte {
	b, _ := v.sj.MarshalJSON()
	return b
}

func (v *jsonValue) Exists() bool {
	return v.sj.Interface() != nil
}

// replaceEnvVars 支持在配置文件里引用 ${ENV_VAR} 形式的环境变量
func replaceEnvVars(data []byte) []byte {
	return []byte(os.Expand(string(data), func(key string) string {
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		// 未定义的变量原样保留，避免吞掉诸如 "$(...)" 的内容
		return "${" + key + "}"
	}))
}
