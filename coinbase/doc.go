// Package coinbase provides a client for the Coinbase Advanced Trade (v3)
// REST API.
//
// Base URL: https://api.coinbase.com/api/v3
//
// Requests are authenticated with an OAuth2 bearer token supplied by an
// oauth2.TokenSource; see the oauth package for a Coinbase-specific provider.
// Endpoints are documented at
// https://docs.cloud.coinbase.com/advanced-trade-api/reference.
package coinbase
