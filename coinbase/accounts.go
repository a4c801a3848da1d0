package coinbase

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// ListAccountsOptions filter GET /brokerage/accounts.
type ListAccountsOptions struct {
	Limit  int    // Accounts per page, 0 for the API default.
	Cursor string // Resume from a previous page's cursor.
}

// ListAccounts fetches a page of the authenticated user's accounts.
func (c *Client) ListAccounts(ctx context.Context, opts ListAccountsOptions) (*AccountsResponse, error) {
	query := url.Values{}

	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Cursor != "" {
		query.Set("cursor", opts.Cursor)
	}

	var resp AccountsResponse
	if err := c.get(ctx, "/brokerage/accounts", query, &resp); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	return &resp, nil
}

// ListAllAccounts fetches every account by paginating through results.
// Uses DefaultPaginationTimeout if the context has no deadline.
func (c *Client) ListAllAccounts(ctx context.Context) ([]Account, error) {
	ctx, cancel := paginationContext(ctx)
	defer cancel()

	var all []Account
	opts := ListAccountsOptions{Limit: maxPageSize}

	for {
		resp, err := c.ListAccounts(ctx, opts)
		if err != nil {
			return nil, err
		}

		all = append(all, resp.Accounts...)

		if !resp.HasNext {
			break
		}
		opts.Cursor = resp.Cursor
	}

	return all, nil
}

// GetAccount fetches a single account by UUID. Valid UUIDs can be obtained
// from ListAccounts.
func (c *Client) GetAccount(ctx context.Context, accountUUID uuid.UUID) (*Account, error) {
	var resp SingleAccountResponse
	if err := c.get(ctx, "/brokerage/accounts/"+accountUUID.String(), nil, &resp); err != nil {
		return nil, fmt.Errorf("get account %s: %w", accountUUID, err)
	}
	return &resp.Account, nil
}
