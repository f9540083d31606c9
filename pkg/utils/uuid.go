package utils

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// GenerateResultID 生成按时间有序的检测结果ID
func GenerateResultID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
