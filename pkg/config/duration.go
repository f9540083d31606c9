package config

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Duration 配置文件里的时间段。既接受"30s"/"5m"形式的字符串，也接受纳秒数字
type Duration time.Duration

// Std 转回标准库类型
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON 序列化为"5m0s"形式的字符串
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON 字符串走time.ParseDuration，数字按纳秒处理
func (d *Duration) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return errors.Wrapf(err, "parse duration %q", s)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.Wrap(err, "parse duration")
	}
	*d = Duration(n)
	return nil
}
