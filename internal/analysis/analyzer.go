package analysis

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"

	"github.com/ninja0404/token-radar/internal/model"
	"github.com/ninja0404/token-radar/pkg/logger"
)

// Result 单笔签名的深度分析产出
type Result struct {
	Signature string
	// Tokens 从交易里解析出的新代币，可能为空
	Tokens []*model.Token
}

// Analyzer 链上深度分析器。Analyze是同步的，异步产出通过Results回流
type Analyzer interface {
	Analyze(ctx context.Context, signature string) (*Result, error)
	// Results 分析完成后回流的代币，会重新走管道的准入路径
	Results() <-chan *model.Token
}

const analyzerResultBuffer = 256

// ChainAnalyzer 基于Solana RPC交易详情的分析器实现
type ChainAnalyzer struct {
	client  *rpc.Client
	results chan *model.Token
}

// NewChainAnalyzer 创建链上分析器
func NewChainAnalyzer(endpoint string) *ChainAnalyzer {
	if endpoint == "" {
		endpoint = rpc.MainNetBeta_RPC
	}
	return &ChainAnalyzer{
		client:  rpc.New(endpoint),
		results: make(chan *model.Token, analyzerResultBuffer),
	}
}

// Analyze 拉取交易详情，解析其中新出现的mint
func (a *ChainAnalyzer) Analyze(ctx context.Context, signature string) (*Result, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, errors.Wrapf(err, "非法签名: %s", signature)
	}

	maxVersion := uint64(0)
	tx, err := a.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, errors.Wrap(err, "拉取交易详情失败")
	}
	if tx == nil || tx.Meta == nil {
		return &Result{Signature: signature}, nil
	}

	result := &Result{Signature: signature}
	now := time.Now()

	// 交易后余额里首次出现的mint视为新代币线索
	pre := make(map[string]struct{}, len(tx.Meta.PreTokenBalances))
	for _, b := range tx.Meta.PreTokenBalances {
		pre[b.Mint.String()] = struct{}{}
	}
	for _, b := range tx.Meta.PostTokenBalances {
		mint := b.Mint.String()
		if _, ok := pre[mint]; ok {
			continue
		}
		token := &model.Token{
			Address:    mint,
			Source:     model.SourceAnalyzer,
			DetectedAt: now,
		}
		result.Tokens = append(result.Tokens, token)

		select {
		case a.results <- token:
		default:
			logger.Warn("⚠️ 分析回流通道已满，丢弃代币", logger.FieldToken(mint))
		}
	}

	return result, nil
}

// Results 实现Analyzer接口
func (a *ChainAnalyzer) Results() <-chan *model.Token {
	return a.results
}
