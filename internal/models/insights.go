package models

// PortfolioInsights is the composite report produced by the insights service.
// Optional sections are pointers so a missing section stays distinguishable
// from a zero one.
type PortfolioInsights struct {
	RequestedWalletAddress       string                          `json:"requested_wallet_address"`
	DataBasedOnMockUser          string                          `json:"data_based_on_mock_user,omitempty"`
	PortfolioComposition         CompositionDetails              `json:"portfolio_composition"`
	HistoricalPerformanceSummary *PerformanceSummary             `json:"historical_performance_summary,omitempty"`
	InvestmentRecommendations    []string                        `json:"investment_recommendations"`
	GlobalMarketSentiment        *MarketSentiment                `json:"global_market_sentiment,omitempty"`
	AssetSpecificNews            map[string]AssetSpecificInsight `json:"asset_specific_news"`
}

type CompositionDetails struct {
	UserID              string        `json:"user_id"`
	TotalPortfolioValue float64       `json:"total_portfolio_value"`
	AssetComposition    []AssetDetail `json:"asset_composition"`
	CashBalance         float64       `json:"cash_balance"`
	CashPercentage      float64       `json:"cash_percentage"`
	HHIScore            *float64      `json:"hhi_score,omitempty"`
	RiskMetrics         *RiskMetrics  `json:"risk_metrics,omitempty"`
}

type AssetDetail struct {
	AssetID                   string   `json:"asset_id"`
	Name                      string   `json:"name"`
	Quantity                  float64  `json:"quantity"`
	CurrentPrice              *float64 `json:"current_price,omitempty"`
	CurrentValue              *float64 `json:"current_value,omitempty"`
	Percentage                *float64 `json:"percentage,omitempty"`
	CostBasisTotal            *float64 `json:"cost_basis_total,omitempty"`
	UnrealizedGainLossAbs     *float64 `json:"unrealized_gain_loss_abs,omitempty"`
	UnrealizedGainLossPercent *float64 `json:"unrealized_gain_loss_percent,omitempty"`
}

type RiskMetrics struct {
	PortfolioVolatility30d *float64 `json:"portfolio_volatility_30d,omitempty"`
	PortfolioBeta          *float64 `json:"portfolio_beta,omitempty"`
	VaR95Confidence1d      *float64 `json:"var_95_confidence_1d,omitempty"`
}

type PerformanceSummary struct {
	Change24hPercent *float64 `json:"24h_change_percent,omitempty"`
	Change7dPercent  *float64 `json:"7d_change_percent,omitempty"`
	Change30dPercent *float64 `json:"30d_change_percent,omitempty"`
	YTDPnL           *float64 `json:"ytd_pnl,omitempty"`
}

type MarketSentiment struct {
	Score     *float64 `json:"score,omitempty"`
	Sentiment string   `json:"sentiment,omitempty"`
}

type AssetSpecificInsight struct {
	AssetID       string              `json:"asset_id"`
	ProcessedNews []ProcessedNewsItem `json:"processed_news"`
	Error         *string             `json:"error,omitempty"`
}

type ProcessedNewsItem struct {
	OriginalHeadline  string `json:"original_headline"`
	Source            string `json:"source,omitempty"`
	Timestamp         string `json:"timestamp,omitempty"`
	LLMSummary        string `json:"llm_summary"`
	LLMSentimentLabel string `json:"llm_sentiment_label"`
	LLMAnalysis       string `json:"llm_analysis,omitempty"`
}
