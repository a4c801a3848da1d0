package coinbase

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ListFillsOptions filter GET /brokerage/orders/historical/fills.
type ListFillsOptions struct {
	OrderID                string
	ProductID              string
	StartSequenceTimestamp time.Time
	EndSequenceTimestamp   time.Time
	Limit                  int
	Cursor                 string
}

// ListFills fetches a page of fills for the authenticated user's orders.
func (c *Client) ListFills(ctx context.Context, opts ListFillsOptions) (*FillsResponse, error) {
	query := url.Values{}

	if opts.OrderID != "" {
		query.Set("order_id", opts.OrderID)
	}
	if opts.ProductID != "" {
		query.Set("product_id", opts.ProductID)
	}
	if !opts.StartSequenceTimestamp.IsZero() {
		query.Set("start_sequence_timestamp", opts.StartSequenceTimestamp.UTC().Format(time.RFC3339))
	}
	if !opts.EndSequenceTimestamp.IsZero() {
		query.Set("end_sequence_timestamp", opts.EndSequenceTimestamp.UTC().Format(time.RFC3339))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Cursor != "" {
		query.Set("cursor", opts.Cursor)
	}

	var resp FillsResponse
	if err := c.get(ctx, "/brokerage/orders/historical/fills", query, &resp); err != nil {
		return nil, fmt.Errorf("list fills: %w", err)
	}

	return &resp, nil
}

// ListAllFills fetches every fill matching opts by paginating until the
// API returns an empty cursor. The Cursor field of opts is ignored.
func (c *Client) ListAllFills(ctx context.Context, opts ListFillsOptions) ([]Fill, error) {
	ctx, cancel := paginationContext(ctx)
	defer cancel()

	var all []Fill
	opts.Cursor = ""
	if opts.Limit == 0 {
		opts.Limit = maxPageSize
	}

	for {
		resp, err := c.ListFills(ctx, opts)
		if err != nil {
			return nil, err
		}

		all = append(all, resp.Fills...)

		if resp.Cursor == "" {
			break
		}
		opts.Cursor = resp.Cursor
	}

	return all, nil
}
