package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// FieldErr ...
func FieldErr(err error) Field {
	return zap.Error(err)
}

// FieldKey ...
func FieldKey(value string) Field {
	return String("key", value)
}

// FieldSource 数据源名称
func FieldSource(value string) Field {
	return String("source", value)
}

// FieldToken 代币地址
func FieldToken(value string) Field {
	return String("token", value)
}

// FieldSignature 交易签名
func FieldSignature(value string) Field {
	return String("signature", value)
}

// FieldEvent ...
func FieldEvent(value string) Field {
	return String("event", value)
}

// FieldPriority 分析任务优先级
func FieldPriority(value int) Field {
	return Int("priority", value)
}

// FieldCost 耗时(毫秒，保留3位)
func FieldCost(value time.Duration) Field {
	return String("cost", fmt.Sprintf("%.3f", float64(value.Round(time.Microsecond))/float64(time.Millisecond)))
}

// FieldStack ...
func FieldStack(value []byte) Field {
	return ByteString("stack", value)
}
