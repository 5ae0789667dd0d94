package marketdata

// Asset describes one symbol of the fixed, pre-registered market universe
// with its seed statistics. The universe never changes after feed startup.
type Asset struct {
	Symbol    string
	Name      string
	Price     float64
	Change24h float64
	Volume24h float64
	MarketCap float64
	High24h   float64
	Low24h    float64
}

// QuoteAsset is the cash side of every pair. Deposits and withdrawals move
// this asset; buys and sells settle against it.
const QuoteAsset = "USDT"

// DefaultUniverse returns the built-in trading pairs with their seed stats
func DefaultUniverse() []Asset {
	return []Asset{
		{
			Symbol:    "BTC/USDT",
			Name:      "Bitcoin",
			Price:     43250.00,
			Change24h: 2.45,
			Volume24h: 28500000000,
			MarketCap: 847000000000,
			High24h:   43800.00,
			Low24h:    42100.00,
		},
		{
			Symbol:    "ETH/USDT",
			Name:      "Ethereum",
			Price:     2685.50,
			Change24h: -1.23,
			Volume24h: 15200000000,
			MarketCap: 322000000000,
			High24h:   2750.00,
			Low24h:    2650.00,
		},
		{
			Symbol:    "BNB/USDT",
			Name:      "BNB",
			Price:     315.80,
			Change24h: 3.67,
			Volume24h: 950000000,
			MarketCap: 47000000000,
			High24h:   320.00,
			Low24h:    305.00,
		},
		{
			Symbol:    "SOL/USDT",
			Name:      "Solana",
			Price:     102.45,
			Change24h: 5.23,
			Volume24h: 2100000000,
			MarketCap: 44000000000,
			High24h:   105.00,
			Low24h:    98.50,
		},
		{
			Symbol:    "ADA/USDT",
			Name:      "Cardano",
			Price:     0.485,
			Change24h: -2.18,
			Volume24h: 450000000,
			MarketCap: 17000000000,
			High24h:   0.498,
			Low24h:    0.475,
		},
		{
			Symbol:    "DOT/USDT",
			Name:      "Polkadot",
			Price:     7.32,
			Change24h: 1.87,
			Volume24h: 180000000,
			MarketCap: 9500000000,
			High24h:   7.45,
			Low24h:    7.18,
		},
	}
}
