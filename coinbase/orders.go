package coinbase

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListOrdersOptions filter GET /brokerage/orders/historical/batch. The
// zero value returns every historical order.
type ListOrdersOptions struct {
	ProductID            string
	OrderStatus          []OrderStatus
	Limit                int
	StartDate            time.Time
	EndDate              time.Time
	OrderType            OrderType
	OrderSide            Side
	Cursor               string
	ProductType          ProductType
	OrderIDs             []string
	UserNativeCurrency   string
	OrderPlacementSource OrderPlacementSource
	ContractExpiryType   ContractExpiryType
}

// ListOrders fetches a page of historical orders.
func (c *Client) ListOrders(ctx context.Context, opts ListOrdersOptions) (*OrdersResponse, error) {
	query := url.Values{}

	if opts.ProductID != "" {
		query.Set("product_id", opts.ProductID)
	}
	for _, status := range opts.OrderStatus {
		query.Add("order_status", string(status))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if !opts.StartDate.IsZero() {
		query.Set("start_date", opts.StartDate.UTC().Format(time.RFC3339))
	}
	if !opts.EndDate.IsZero() {
		query.Set("end_date", opts.EndDate.UTC().Format(time.RFC3339))
	}
	if opts.OrderType != "" {
		query.Set("order_type", string(opts.OrderType))
	}
	if opts.OrderSide != "" {
		query.Set("order_side", string(opts.OrderSide))
	}
	if opts.Cursor != "" {
		query.Set("cursor", opts.Cursor)
	}
	if opts.ProductType != "" {
		query.Set("product_type", string(opts.ProductType))
	}
	for _, id := range opts.OrderIDs {
		query.Add("order_ids", id)
	}
	if opts.UserNativeCurrency != "" {
		query.Set("user_native_currency", opts.UserNativeCurrency)
	}
	if opts.OrderPlacementSource != "" {
		query.Set("order_placement_source", string(opts.OrderPlacementSource))
	}
	if opts.ContractExpiryType != "" {
		query.Set("contract_expiry_type", string(opts.ContractExpiryType))
	}

	var resp OrdersResponse
	if err := c.get(ctx, "/brokerage/orders/historical/batch", query, &resp); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	return &resp, nil
}

// ListAllOrders fetches every historical order matching opts by paginating
// through results. The Cursor field of opts is ignored.
func (c *Client) ListAllOrders(ctx context.Context, opts ListOrdersOptions) ([]Order, error) {
	ctx, cancel := paginationContext(ctx)
	defer cancel()

	var all []Order
	opts.Cursor = ""
	if opts.Limit == 0 {
		opts.Limit = maxPageSize
	}

	for {
		resp, err := c.ListOrders(ctx, opts)
		if err != nil {
			return nil, err
		}

		all = append(all, resp.Orders...)

		if !resp.HasNext {
			break
		}
		opts.Cursor = resp.Cursor
	}

	return all, nil
}

// GetOrder fetches a single order by its server-assigned ID.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var resp SingleOrderResponse
	if err := c.get(ctx, "/brokerage/orders/historical/"+orderID, nil, &resp); err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return &resp.Order, nil
}

// CreateOrder submits an order. Build the request with NewMarketOrder,
// NewLimitOrderGTC, NewLimitOrderGTD, NewStopLimitOrderGTC or
// NewStopLimitOrderGTD. A nil error only means the request was accepted;
// check Success and ErrorResponse on the returned value.
func (c *Client) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	var resp CreateOrderResponse
	if err := c.post(ctx, "/brokerage/orders", req, &resp); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &resp, nil
}

type batchCancelRequest struct {
	OrderIDs []string `json:"order_ids"`
}

// CancelOrders requests cancellation of up to 100 open orders. Each entry
// in the result carries its own success flag and failure reason.
func (c *Client) CancelOrders(ctx context.Context, orderIDs []string) ([]CancelOrderResult, error) {
	var resp CancelOrdersResponse
	if err := c.post(ctx, "/brokerage/orders/batch_cancel", batchCancelRequest{OrderIDs: orderIDs}, &resp); err != nil {
		return nil, fmt.Errorf("cancel orders: %w", err)
	}
	return resp.Results, nil
}

func newOrderRequest(productID string, side Side) (*CreateOrderRequest, error) {
	if side != SideBuy && side != SideSell {
		return nil, fmt.Errorf("order side must be BUY or SELL, got %q", side)
	}
	return &CreateOrderRequest{
		ClientOrderID: uuid.NewString(),
		ProductID:     productID,
		Side:          side,
	}, nil
}

// NewMarketOrder builds a market order executed immediately at the best
// available price. size is the quote currency amount for a BUY and the
// base currency amount for a SELL.
func NewMarketOrder(productID string, side Side, size decimal.Decimal) (*CreateOrderRequest, error) {
	req, err := newOrderRequest(productID, side)
	if err != nil {
		return nil, err
	}

	ioc := &MarketIOC{}
	if side == SideBuy {
		ioc.QuoteSize = &size
	} else {
		ioc.BaseSize = &size
	}
	req.OrderConfiguration.MarketMarketIOC = ioc

	return req, nil
}

// NewLimitOrderGTC builds a good-til-cancelled limit order.
func NewLimitOrderGTC(productID string, side Side, baseSize, limitPrice decimal.Decimal, postOnly bool) (*CreateOrderRequest, error) {
	req, err := newOrderRequest(productID, side)
	if err != nil {
		return nil, err
	}

	req.OrderConfiguration.LimitLimitGTC = &LimitOrder{
		BaseSize:   baseSize,
		LimitPrice: limitPrice,
		PostOnly:   &postOnly,
	}

	return req, nil
}

// NewLimitOrderGTD builds a limit order that expires at endTime.
func NewLimitOrderGTD(productID string, side Side, baseSize, limitPrice decimal.Decimal, endTime time.Time, postOnly bool) (*CreateOrderRequest, error) {
	req, err := newOrderRequest(productID, side)
	if err != nil {
		return nil, err
	}

	req.OrderConfiguration.LimitLimitGTD = &LimitOrder{
		BaseSize:   baseSize,
		LimitPrice: limitPrice,
		EndTime:    &endTime,
		PostOnly:   &postOnly,
	}

	return req, nil
}

// NewStopLimitOrderGTC builds a good-til-cancelled stop-limit order that
// posts a limit order at limitPrice once stopPrice is crossed in the
// given direction.
func NewStopLimitOrderGTC(productID string, side Side, baseSize, limitPrice, stopPrice decimal.Decimal, direction StopDirection) (*CreateOrderRequest, error) {
	req, err := newOrderRequest(productID, side)
	if err != nil {
		return nil, err
	}

	req.OrderConfiguration.StopLimitStopLimitGTC = &StopLimitOrder{
		BaseSize:      baseSize,
		LimitPrice:    limitPrice,
		StopPrice:     stopPrice,
		StopDirection: direction,
	}

	return req, nil
}

// NewStopLimitOrderGTD builds a stop-limit order that expires at endTime.
func NewStopLimitOrderGTD(productID string, side Side, baseSize, limitPrice, stopPrice decimal.Decimal, direction StopDirection, endTime time.Time) (*CreateOrderRequest, error) {
	req, err := newOrderRequest(productID, side)
	if err != nil {
		return nil, err
	}

	req.OrderConfiguration.StopLimitStopLimitGTD = &StopLimitOrder{
		BaseSize:      baseSize,
		LimitPrice:    limitPrice,
		StopPrice:     stopPrice,
		StopDirection: direction,
		EndTime:       &endTime,
	}

	return req, nil
}
