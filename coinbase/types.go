package coinbase

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Accounts
// -----------------------------------------------------------------------------

// AccountType classifies a Coinbase account.
type AccountType string

const (
	AccountTypeUnspecified AccountType = "ACCOUNT_TYPE_UNSPECIFIED"
	AccountTypeCrypto      AccountType = "ACCOUNT_TYPE_CRYPTO"
	AccountTypeFiat        AccountType = "ACCOUNT_TYPE_FIAT"
	AccountTypeVault       AccountType = "ACCOUNT_TYPE_VAULT"
)

// Balance is an amount of a single currency held in an account.
type Balance struct {
	// Value keeps full precision; the number of decimals is currency
	// dependent and arbitrary.
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// Account represents a Coinbase account (one per currency).
type Account struct {
	UUID             uuid.UUID   `json:"uuid"`
	Name             string      `json:"name"`
	Currency         string      `json:"currency"`
	AvailableBalance Balance     `json:"available_balance"`
	Default          bool        `json:"default"`
	Active           bool        `json:"active"`
	CreatedAt        *time.Time  `json:"created_at"`
	UpdatedAt        *time.Time  `json:"updated_at"`
	DeletedAt        *time.Time  `json:"deleted_at"`
	Type             AccountType `json:"type"`
	Ready            bool        `json:"ready"`
	Hold             Balance     `json:"hold"`
}

// AccountsResponse from GET /brokerage/accounts.
// HasNext and Cursor drive pagination.
type AccountsResponse struct {
	Accounts []Account `json:"accounts"`
	HasNext  bool      `json:"has_next"`
	Cursor   string    `json:"cursor"`
	Size     int       `json:"size"`
}

// SingleAccountResponse from GET /brokerage/accounts/{account_uuid}.
type SingleAccountResponse struct {
	Account Account `json:"account"`
}

// -----------------------------------------------------------------------------
// Products & market data
// -----------------------------------------------------------------------------

// ProductType distinguishes spot from futures products.
type ProductType string

const (
	ProductTypeSpot   ProductType = "SPOT"
	ProductTypeFuture ProductType = "FUTURE"
)

// ContractExpiryType filters futures products by expiry behavior.
type ContractExpiryType string

const (
	ContractExpiryTypeUnknown  ContractExpiryType = "UNKNOWN_CONTRACT_EXPIRY_TYPE"
	ContractExpiryTypeExpiring ContractExpiryType = "EXPIRING"
)

// Granularity is the candle bucket width.
type Granularity string

const (
	GranularityUnknown       Granularity = "UNKNOWN_GRANULARITY"
	GranularityOneMinute     Granularity = "ONE_MINUTE"
	GranularityFiveMinute    Granularity = "FIVE_MINUTE"
	GranularityFifteenMinute Granularity = "FIFTEEN_MINUTE"
	GranularityThirtyMinute  Granularity = "THIRTY_MINUTE"
	GranularityOneHour       Granularity = "ONE_HOUR"
	GranularityTwoHour       Granularity = "TWO_HOUR"
	GranularitySixHour       Granularity = "SIX_HOUR"
	GranularityOneDay        Granularity = "ONE_DAY"
)

// Side is the taker side of a trade or order.
type Side string

const (
	SideUnknown Side = "UNKNOWN_ORDER_SIDE"
	SideBuy     Side = "BUY"
	SideSell    Side = "SELL"
)

// BookLevel is one bid or ask level of a price book.
type BookLevel struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// PriceBook holds the bids and asks for a single product.
type PriceBook struct {
	ProductID string      `json:"product_id"`
	Bids      []BookLevel `json:"bids"`
	Asks      []BookLevel `json:"asks"`
	Time      time.Time   `json:"time"`
}

// PriceBooksResponse from GET /brokerage/best_bid_ask.
type PriceBooksResponse struct {
	PriceBooks []PriceBook `json:"pricebooks"`
}

// PriceBookResponse from GET /brokerage/product_book.
type PriceBookResponse struct {
	PriceBook PriceBook `json:"pricebook"`
}

// FCMTradingSessionDetails describes the trading session of an FCM product.
type FCMTradingSessionDetails struct {
	IsSessionOpen bool       `json:"is_session_open"`
	OpenTime      time.Time  `json:"open_time"`
	CloseTime     *time.Time `json:"close_time"`
}

// PerpetualDetails describes a perpetual futures product.
type PerpetualDetails struct {
	OpenInterest string     `json:"open_interest"`
	FundingRate  string     `json:"funding_rate"`
	FundingTime  *time.Time `json:"funding_time"`
}

// FutureProductDetails describes an expiring futures product.
type FutureProductDetails struct {
	Venue                  string             `json:"venue"`
	ContractCode           string             `json:"contract_code"`
	ContractExpiry         time.Time          `json:"contract_expiry"`
	ContractSize           string             `json:"contract_size"`
	ContractRootUnit       string             `json:"contract_root_unit"`
	GroupDescription       string             `json:"group_description"`
	ContractExpiryTimezone string             `json:"contract_expiry_timezone"`
	GroupShortDescription  string             `json:"group_short_description"`
	RiskManagedBy          string             `json:"risk_managed_by"`
	ContractExpiryType     ContractExpiryType `json:"contract_expiry_type"`
	PerpetualDetails       *PerpetualDetails  `json:"perpetual_details"`
	ContractDisplayName    string             `json:"contract_display_name"`
}

// Product represents a tradeable currency pair.
type Product struct {
	ProductID string `json:"product_id"`

	// Market stats the API reports as "" when no data is available.
	Price                     OptionalDecimal `json:"price"`
	PricePercentageChange24h  OptionalDecimal `json:"price_percentage_change_24h"`
	Volume24h                 OptionalDecimal `json:"volume_24h"`
	VolumePercentageChange24h OptionalDecimal `json:"volume_percentage_change_24h"`

	// Order size and price increments.
	BaseIncrement  decimal.Decimal `json:"base_increment"`
	QuoteIncrement decimal.Decimal `json:"quote_increment"`
	QuoteMinSize   decimal.Decimal `json:"quote_min_size"`
	QuoteMaxSize   decimal.Decimal `json:"quote_max_size"`
	BaseMinSize    decimal.Decimal `json:"base_min_size"`
	BaseMaxSize    decimal.Decimal `json:"base_max_size"`
	PriceIncrement decimal.Decimal `json:"price_increment"`

	BaseName  string `json:"base_name"`
	QuoteName string `json:"quote_name"`
	Watched   bool   `json:"watched"`

	// Trading restrictions.
	IsDisabled      bool   `json:"is_disabled"`
	New             bool   `json:"new"`
	Status          string `json:"status"`
	CancelOnly      bool   `json:"cancel_only"`
	LimitOnly       bool   `json:"limit_only"`
	PostOnly        bool   `json:"post_only"`
	TradingDisabled bool   `json:"trading_disabled"`
	AuctionMode     bool   `json:"auction_mode"`
	ViewOnly        bool   `json:"view_only"`

	ProductType     ProductType `json:"product_type"`
	QuoteCurrencyID string      `json:"quote_currency_id"`
	BaseCurrencyID  string      `json:"base_currency_id"`

	FCMTradingSessionDetails *FCMTradingSessionDetails `json:"fcm_trading_session_details"`
	MidMarketPrice           string                    `json:"mid_market_price"`
	Alias                    string                    `json:"alias"`
	AliasTo                  []string                  `json:"alias_to"`
	BaseDisplaySymbol        string                    `json:"base_display_symbol"`
	QuoteDisplaySymbol       string                    `json:"quote_display_symbol"`
	FutureProductDetails     *FutureProductDetails     `json:"future_product_details"`
}

// ProductsResponse from GET /brokerage/products.
type ProductsResponse struct {
	Products    []Product `json:"products"`
	NumProducts int       `json:"num_products"`
}

// Candle is one price bucket of a product's trade history.
type Candle struct {
	// Start of the bucket, in UNIX seconds (kept as a string, as on the wire).
	Start  string          `json:"start"`
	Low    decimal.Decimal `json:"low"`
	High   decimal.Decimal `json:"high"`
	Open   decimal.Decimal `json:"open"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// StartTime parses the bucket start into a time.Time.
func (c Candle) StartTime() (time.Time, error) {
	secs, err := decimal.NewFromString(c.Start)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs.IntPart(), 0).UTC(), nil
}

// CandlesResponse from GET /brokerage/products/{product_id}/candles.
type CandlesResponse struct {
	Candles []Candle `json:"candles"`
}

// TradeType distinguishes regular fills from adjusted ones.
type TradeType string

const (
	TradeTypeFill       TradeType = "FILL"
	TradeTypeReversal   TradeType = "REVERSAL"
	TradeTypeCorrection TradeType = "CORRECTION"
	TradeTypeSynthetic  TradeType = "SYNTHETIC"
)

// Trade is a single market trade (tick).
type Trade struct {
	TradeID   string          `json:"trade_id"`
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Size      decimal.Decimal `json:"size"`
	Time      time.Time       `json:"time"`
	Side      Side            `json:"side"`
	// Best bid/ask come back as "" on this endpoint; kept raw.
	Bid string `json:"bid"`
	Ask string `json:"ask"`
}

// MarketTrades from GET /brokerage/products/{product_id}/ticker.
type MarketTrades struct {
	Trades  []Trade         `json:"trades"`
	BestBid decimal.Decimal `json:"best_bid"`
	BestAsk decimal.Decimal `json:"best_ask"`
}

// -----------------------------------------------------------------------------
// Orders
// -----------------------------------------------------------------------------

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "OPEN"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusExpired   OrderStatus = "EXPIRED"
	OrderStatusFailed    OrderStatus = "FAILED"
	OrderStatusUnknown   OrderStatus = "UNKNOWN_ORDER_STATUS"
)

// TimeInForce controls how long an order stays on the book.
type TimeInForce string

const (
	TimeInForceUnknown            TimeInForce = "UNKNOWN_TIME_IN_FORCE"
	TimeInForceGoodUntilDateTime  TimeInForce = "GOOD_UNTIL_DATE_TIME"
	TimeInForceGoodUntilCancelled TimeInForce = "GOOD_UNTIL_CANCELLED"
	TimeInForceImmediateOrCancel  TimeInForce = "IMMEDIATE_OR_CANCEL"
	TimeInForceFillOrKill         TimeInForce = "FILL_OR_KILL"
)

// TriggerStatus is the state of a stop order's trigger.
type TriggerStatus string

const (
	TriggerStatusUnknown          TriggerStatus = "UNKNOWN_TRIGGER_STATUS"
	TriggerStatusInvalidOrderType TriggerStatus = "INVALID_ORDER_TYPE"
	TriggerStatusStopPending      TriggerStatus = "STOP_PENDING"
	TriggerStatusStopTriggered    TriggerStatus = "STOP_TRIGGERED"
)

// OrderType is the execution type of an order.
type OrderType string

const (
	OrderTypeUnknown   OrderType = "UNKNOWN_ORDER_TYPE"
	OrderTypeMarket    OrderType = "MARKET"
	OrderTypeLimit     OrderType = "LIMIT"
	OrderTypeStop      OrderType = "STOP"
	OrderTypeStopLimit OrderType = "STOP_LIMIT"
)

// StopDirection is the trigger direction of a stop-limit order.
type StopDirection string

const (
	StopDirectionUnknown StopDirection = "UNKNOWN_STOP_DIRECTION"
	StopDirectionUp      StopDirection = "STOP_DIRECTION_STOP_UP"
	StopDirectionDown    StopDirection = "STOP_DIRECTION_STOP_DOWN"
)

// RejectReason for rejected orders.
type RejectReason string

const (
	RejectReasonUnspecified RejectReason = "REJECT_REASON_UNSPECIFIED"
)

// OrderPlacementSource records which product surface placed the order.
type OrderPlacementSource string

const (
	OrderPlacementSourceRetailSimple   OrderPlacementSource = "RETAIL_SIMPLE"
	OrderPlacementSourceRetailAdvanced OrderPlacementSource = "RETAIL_ADVANCED"
)

// MarketIOC configures a market immediate-or-cancel order.
// QuoteSize is required for BUY orders, BaseSize for SELL orders.
type MarketIOC struct {
	QuoteSize *decimal.Decimal `json:"quote_size,omitempty"`
	BaseSize  *decimal.Decimal `json:"base_size,omitempty"`
}

// LimitOrder configures a limit order. EndTime is only used for
// good-until-date orders.
type LimitOrder struct {
	BaseSize   decimal.Decimal `json:"base_size"`
	LimitPrice decimal.Decimal `json:"limit_price"`
	EndTime    *time.Time      `json:"end_time,omitempty"`
	PostOnly   *bool           `json:"post_only,omitempty"`
}

// StopLimitOrder configures a stop-limit order. The order triggers when the
// last trade price crosses StopPrice in StopDirection. EndTime is only used
// for good-until-date orders.
type StopLimitOrder struct {
	BaseSize      decimal.Decimal `json:"base_size"`
	LimitPrice    decimal.Decimal `json:"limit_price"`
	StopPrice     decimal.Decimal `json:"stop_price"`
	StopDirection StopDirection   `json:"stop_direction"`
	EndTime       *time.Time      `json:"end_time,omitempty"`
}

// OrderConfiguration holds exactly one of the possible order shapes. It is a
// struct rather than a sum type so responses decode directly.
type OrderConfiguration struct {
	MarketMarketIOC       *MarketIOC      `json:"market_market_ioc,omitempty"`
	LimitLimitGTC         *LimitOrder     `json:"limit_limit_gtc,omitempty"`
	LimitLimitGTD         *LimitOrder     `json:"limit_limit_gtd,omitempty"`
	StopLimitStopLimitGTC *StopLimitOrder `json:"stop_limit_stop_limit_gtc,omitempty"`
	StopLimitStopLimitGTD *StopLimitOrder `json:"stop_limit_stop_limit_gtd,omitempty"`
}

// Order represents a historical order.
type Order struct {
	OrderID            string               `json:"order_id"`
	ProductID          string               `json:"product_id"`
	UserID             string               `json:"user_id"`
	OrderConfiguration OrderConfiguration   `json:"order_configuration"`
	Side               Side                 `json:"side"`
	ClientOrderID      string               `json:"client_order_id"`
	Status             OrderStatus          `json:"status"`
	TimeInForce        TimeInForce          `json:"time_in_force"`
	CreatedTime        time.Time            `json:"created_time"`
	CompletionPct      string               `json:"completion_percentage"`
	FilledSize         string               `json:"filled_size"`
	AverageFilledPrice string               `json:"average_filled_price"`
	Fee                string               `json:"fee"`
	NumberOfFills      string               `json:"number_of_fills"`
	FilledValue        string               `json:"filled_value"`
	PendingCancel      bool                 `json:"pending_cancel"`
	SizeInQuote        bool                 `json:"size_in_quote"`
	TotalFees          string               `json:"total_fees"`
	SizeInclusiveFees  bool                 `json:"size_inclusive_of_fees"`
	TotalValueAfterFee string               `json:"total_value_after_fees"`
	TriggerStatus      TriggerStatus        `json:"trigger_status"`
	OrderType          OrderType            `json:"order_type"`
	RejectReason       RejectReason         `json:"reject_reason"`
	Settled            bool                 `json:"settled"`
	ProductType        ProductType          `json:"product_type"`
	RejectMessage      string               `json:"reject_message"`
	CancelMessage      string               `json:"cancel_message"`
	PlacementSource    OrderPlacementSource `json:"order_placement_source"`
	OutstandingHold    string               `json:"outstanding_hold_amount"`
	IsLiquidation      bool                 `json:"is_liquidation"`
}

// SingleOrderResponse from GET /brokerage/orders/historical/{order_id}.
type SingleOrderResponse struct {
	Order Order `json:"order"`
}

// OrdersResponse from GET /brokerage/orders/historical/batch.
type OrdersResponse struct {
	Orders   []Order `json:"orders"`
	Sequence string  `json:"sequence"`
	HasNext  bool    `json:"has_next"`
	Cursor   string  `json:"cursor"`
}

// LiquidityIndicator marks a fill as maker or taker.
type LiquidityIndicator string

const (
	LiquidityIndicatorUnknown LiquidityIndicator = "UNKNOWN_LIQUIDITY_INDICATOR"
	LiquidityIndicatorMaker   LiquidityIndicator = "MAKER"
	LiquidityIndicatorTaker   LiquidityIndicator = "TAKER"
)

// Fill is one execution of an order.
type Fill struct {
	EntryID            string             `json:"entry_id"`
	TradeID            string             `json:"trade_id"`
	OrderID            string             `json:"order_id"`
	TradeTime          time.Time          `json:"trade_time"`
	TradeType          TradeType          `json:"trade_type"`
	Price              string             `json:"price"`
	Size               string             `json:"size"`
	Commission         string             `json:"commission"`
	ProductID          string             `json:"product_id"`
	SequenceTimestamp  time.Time          `json:"sequence_timestamp"`
	LiquidityIndicator LiquidityIndicator `json:"liquidity_indicator"`
	SizeInQuote        bool               `json:"size_in_quote"`
	UserID             string             `json:"user_id"`
	Side               Side               `json:"side"`
}

// FillsResponse from GET /brokerage/orders/historical/fills.
// The endpoint has no has_next; pagination ends when Cursor is empty.
type FillsResponse struct {
	Fills  []Fill `json:"fills"`
	Cursor string `json:"cursor"`
}

// CreateOrderRequest is the body of POST /brokerage/orders.
type CreateOrderRequest struct {
	// ClientOrderID is a caller-chosen unique id for the order.
	ClientOrderID      string             `json:"client_order_id"`
	ProductID          string             `json:"product_id"`
	Side               Side               `json:"side"`
	OrderConfiguration OrderConfiguration `json:"order_configuration"`
}

// CreateOrderFailureReason for rejected order creation.
type CreateOrderFailureReason string

const (
	CreateOrderFailureUnknown                   CreateOrderFailureReason = "UNKNOWN_FAILURE_REASON"
	CreateOrderFailureUnsupportedConfig         CreateOrderFailureReason = "UNSUPPORTED_ORDER_CONFIGURATION"
	CreateOrderFailureInvalidSide               CreateOrderFailureReason = "INVALID_SIDE"
	CreateOrderFailureInvalidProductID          CreateOrderFailureReason = "INVALID_PRODUCT_ID"
	CreateOrderFailureInvalidSizePrecision      CreateOrderFailureReason = "INVALID_SIZE_PRECISION"
	CreateOrderFailureInvalidPricePrecision     CreateOrderFailureReason = "INVALID_PRICE_PRECISION"
	CreateOrderFailureInsufficientFund          CreateOrderFailureReason = "INSUFFICIENT_FUND"
	CreateOrderFailureInvalidLedgerBalance      CreateOrderFailureReason = "INVALID_LEDGER_BALANCE"
	CreateOrderFailureOrderEntryDisabled        CreateOrderFailureReason = "ORDER_ENTRY_DISABLED"
	CreateOrderFailureIneligiblePair            CreateOrderFailureReason = "INELIGIBLE_PAIR"
	CreateOrderFailureInvalidLimitPricePostOnly CreateOrderFailureReason = "INVALID_LIMIT_PRICE_POST_ONLY"
	CreateOrderFailureInvalidLimitPrice         CreateOrderFailureReason = "INVALID_LIMIT_PRICE"
	CreateOrderFailureInvalidNoLiquidity        CreateOrderFailureReason = "INVALID_NO_LIQUIDITY"
	CreateOrderFailureInvalidRequest            CreateOrderFailureReason = "INVALID_REQUEST"
	CreateOrderFailureCommanderRejected         CreateOrderFailureReason = "COMMANDER_REJECTED_NEW_ORDER"
	CreateOrderFailureInsufficientFunds         CreateOrderFailureReason = "INSUFFICIENT_FUNDS"
)

// OrderSuccess is the success payload of a create order response.
type OrderSuccess struct {
	OrderID       string `json:"order_id"`
	ProductID     string `json:"product_id"`
	Side          Side   `json:"side"`
	ClientOrderID string `json:"client_order_id"`
}

// OrderError is the error payload of a create order response.
type OrderError struct {
	Error                 CreateOrderFailureReason `json:"error"`
	Message               string                   `json:"message"`
	ErrorDetails          string                   `json:"error_details"`
	PreviewFailureReason  string                   `json:"preview_failure_reason"`
	NewOrderFailureReason CreateOrderFailureReason `json:"new_order_failure_reason"`
}

// CreateOrderResponse from POST /brokerage/orders.
type CreateOrderResponse struct {
	Success            bool                     `json:"success"`
	FailureReason      CreateOrderFailureReason `json:"failure_reason"`
	OrderID            string                   `json:"order_id"`
	SuccessResponse    *OrderSuccess            `json:"success_response"`
	ErrorResponse      *OrderError              `json:"error_response"`
	OrderConfiguration OrderConfiguration       `json:"order_configuration"`
}

// CancelOrderFailureReason for failed cancel requests.
type CancelOrderFailureReason string

const (
	CancelOrderFailureUnknown           CancelOrderFailureReason = "UNKNOWN_CANCEL_FAILURE_REASON"
	CancelOrderFailureInvalidRequest    CancelOrderFailureReason = "INVALID_CANCEL_REQUEST"
	CancelOrderFailureUnknownOrder      CancelOrderFailureReason = "UNKNOWN_CANCEL_ORDER"
	CancelOrderFailureCommanderRejected CancelOrderFailureReason = "COMMANDER_REJECTED_CANCEL_ORDER"
	CancelOrderFailureDuplicateRequest  CancelOrderFailureReason = "DUPLICATE_CANCEL_REQUEST"
)

// CancelOrderResult is the per-order outcome of a batch cancel.
type CancelOrderResult struct {
	Success       bool                     `json:"success"`
	FailureReason CancelOrderFailureReason `json:"failure_reason"`
	OrderID       string                   `json:"order_id"`
}

// CancelOrdersResponse from POST /brokerage/orders/batch_cancel.
type CancelOrdersResponse struct {
	Results []CancelOrderResult `json:"results"`
}

// -----------------------------------------------------------------------------
// Fees
// -----------------------------------------------------------------------------

// FeeTier is the user's pricing tier, determined by notional USD volume.
// USDFrom/USDTo use comma thousands separators on the wire and stay strings.
type FeeTier struct {
	PricingTier  string          `json:"pricing_tier"`
	USDFrom      string          `json:"usd_from"`
	USDTo        string          `json:"usd_to"`
	TakerFeeRate decimal.Decimal `json:"taker_fee_rate"`
	MakerFeeRate decimal.Decimal `json:"maker_fee_rate"`
}

// MarginRate as a raw string, preserving precision.
type MarginRate struct {
	Value string `json:"value"`
}

// GoodsAndServicesTaxType marks a tax as included in or added to fees.
type GoodsAndServicesTaxType string

const (
	GoodsAndServicesTaxInclusive GoodsAndServicesTaxType = "INCLUSIVE"
	GoodsAndServicesTaxExclusive GoodsAndServicesTaxType = "EXCLUSIVE"
)

// GoodsAndServicesTax applied to fees in some jurisdictions.
type GoodsAndServicesTax struct {
	Rate string                  `json:"rate"`
	Type GoodsAndServicesTaxType `json:"type"`
}

// TransactionsSummary from GET /brokerage/transaction_summary: fee tier,
// volumes and fees across assets, denoted in USD.
type TransactionsSummary struct {
	TotalVolume             float64              `json:"total_volume"`
	TotalFees               float64              `json:"total_fees"`
	FeeTier                 FeeTier              `json:"fee_tier"`
	MarginRate              *MarginRate          `json:"margin_rate"`
	GoodsAndServicesTax     *GoodsAndServicesTax `json:"goods_and_services_tax"`
	AdvancedTradeOnlyVolume float64              `json:"advanced_trade_only_volume"`
	AdvancedTradeOnlyFees   float64              `json:"advanced_trade_only_fees"`
	CoinbaseProVolume       float64              `json:"coinbase_pro_volume"`
	CoinbaseProFees         float64              `json:"coinbase_pro_fees"`
}
