package market

import (
	"context"

	"github.com/ninja0404/token-radar/internal/model"
)

// Provider 二级市场数据查询接口，补全阶段的外部协作方
type Provider interface {
	// TokenMarket 按地址查询市场数据，查不到返回ErrNotFound
	TokenMarket(ctx context.Context, address string) (*model.Market, error)

	// String 数据提供方名称，会写进enriched_by
	String() string
}
