package coinbase

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ListProductsOptions filter GET /brokerage/products. The zero value
// returns every tradable product.
type ListProductsOptions struct {
	Limit              int
	Offset             int
	ProductType        ProductType
	ProductIDs         []string
	ContractExpiryType ContractExpiryType
}

// ListProducts fetches the products available for trading. Product data
// is public and does not require authentication.
func (c *Client) ListProducts(ctx context.Context, opts ListProductsOptions) (*ProductsResponse, error) {
	query := url.Values{}

	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.ProductType != "" {
		query.Set("product_type", string(opts.ProductType))
	}
	for _, id := range opts.ProductIDs {
		query.Add("product_ids", id)
	}
	if opts.ContractExpiryType != "" {
		query.Set("contract_expiry_type", string(opts.ContractExpiryType))
	}

	var resp ProductsResponse
	if err := c.get(ctx, "/brokerage/products", query, &resp); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return &resp, nil
}

// GetProduct fetches a single product by ID, e.g. "BTC-USD".
func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	var resp Product
	if err := c.get(ctx, "/brokerage/products/"+productID, nil, &resp); err != nil {
		return nil, fmt.Errorf("get product %s: %w", productID, err)
	}
	return &resp, nil
}

// GetBestBidAsk fetches the best bid and ask for the given products.
// An empty slice returns the best bid/ask for all products.
func (c *Client) GetBestBidAsk(ctx context.Context, productIDs []string) ([]PriceBook, error) {
	query := url.Values{}
	for _, id := range productIDs {
		query.Add("product_ids", id)
	}

	var resp PriceBooksResponse
	if err := c.get(ctx, "/brokerage/best_bid_ask", query, &resp); err != nil {
		return nil, fmt.Errorf("get best bid/ask: %w", err)
	}

	return resp.PriceBooks, nil
}

// GetProductBook fetches the order book for a product. limit bounds the
// number of levels per side, 0 for the API default.
func (c *Client) GetProductBook(ctx context.Context, productID string, limit int) (*PriceBook, error) {
	query := url.Values{}
	query.Set("product_id", productID)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp PriceBookResponse
	if err := c.get(ctx, "/brokerage/product_book", query, &resp); err != nil {
		return nil, fmt.Errorf("get product book %s: %w", productID, err)
	}

	return &resp.PriceBook, nil
}

// GetProductCandles fetches OHLCV candles for a product between start and
// end at the given granularity. The API caps the response at 300 candles
// per request.
func (c *Client) GetProductCandles(ctx context.Context, productID string, start, end time.Time, granularity Granularity) ([]Candle, error) {
	query := url.Values{}
	query.Set("start", strconv.FormatInt(start.Unix(), 10))
	query.Set("end", strconv.FormatInt(end.Unix(), 10))
	query.Set("granularity", string(granularity))

	var resp CandlesResponse
	if err := c.get(ctx, "/brokerage/products/"+productID+"/candles", query, &resp); err != nil {
		return nil, fmt.Errorf("get candles %s: %w", productID, err)
	}

	return resp.Candles, nil
}

// GetMarketTrades fetches the latest trades for a product along with the
// current best bid and ask. limit bounds the number of trades returned.
func (c *Client) GetMarketTrades(ctx context.Context, productID string, limit int) (*MarketTrades, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp MarketTrades
	if err := c.get(ctx, "/brokerage/products/"+productID+"/ticker", query, &resp); err != nil {
		return nil, fmt.Errorf("get market trades %s: %w", productID, err)
	}

	return &resp, nil
}
