package coinbase

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
)

const accountJSON = `{
	"uuid": "9dd482e4-d8ce-46f7-a261-281843bd2855",
	"name": "SOL Wallet",
	"currency": "SOL",
	"available_balance": { "value": "70.313593992", "currency": "SOL" },
	"default": true,
	"active": true,
	"created_at": "2023-06-07T17:30:40.425Z",
	"deleted_at": null,
	"type": "ACCOUNT_TYPE_CRYPTO",
	"ready": true,
	"hold": { "value": "0", "currency": "SOL" }
}`

// TestListAccounts tests the accounts list endpoint.
func TestListAccounts(t *testing.T) {
	t.Run("decodes response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/brokerage/accounts" {
				t.Errorf("path = %q, want %q", r.URL.Path, "/brokerage/accounts")
			}
			if r.URL.Query().Get("limit") != "50" {
				t.Errorf("limit = %q, want %q", r.URL.Query().Get("limit"), "50")
			}
			fmt.Fprintf(w, `{"accounts": [%s], "has_next": false, "cursor": "", "size": 1}`, accountJSON)
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		resp, err := c.ListAccounts(context.Background(), ListAccountsOptions{Limit: 50})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(resp.Accounts) != 1 {
			t.Fatalf("len(Accounts) = %d, want 1", len(resp.Accounts))
		}
		acct := resp.Accounts[0]
		if acct.UUID != uuid.MustParse("9dd482e4-d8ce-46f7-a261-281843bd2855") {
			t.Errorf("UUID = %s, want 9dd482e4-d8ce-46f7-a261-281843bd2855", acct.UUID)
		}
		if acct.Currency != "SOL" {
			t.Errorf("Currency = %q, want %q", acct.Currency, "SOL")
		}
		if acct.Type != AccountTypeCrypto {
			t.Errorf("Type = %q, want %q", acct.Type, AccountTypeCrypto)
		}
		if acct.AvailableBalance.Value.String() != "70.313593992" {
			t.Errorf("AvailableBalance = %s, want 70.313593992", acct.AvailableBalance.Value)
		}
		if acct.DeletedAt != nil {
			t.Errorf("DeletedAt = %v, want nil", acct.DeletedAt)
		}
		if resp.HasNext {
			t.Error("HasNext should be false")
		}
	})

	t.Run("no cursor param on first page", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Has("cursor") {
				t.Error("cursor should not be set")
			}
			fmt.Fprint(w, `{"accounts": [], "has_next": false, "cursor": "", "size": 0}`)
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		if _, err := c.ListAccounts(context.Background(), ListAccountsOptions{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

// TestListAllAccounts tests cursor pagination across pages.
func TestListAllAccounts(t *testing.T) {
	var pages int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&pages, 1) {
		case 1:
			if r.URL.Query().Has("cursor") {
				t.Error("first request should not carry a cursor")
			}
			fmt.Fprintf(w, `{"accounts": [%s], "has_next": true, "cursor": "page2", "size": 2}`, accountJSON)
		case 2:
			if r.URL.Query().Get("cursor") != "page2" {
				t.Errorf("cursor = %q, want %q", r.URL.Query().Get("cursor"), "page2")
			}
			fmt.Fprintf(w, `{"accounts": [%s], "has_next": false, "cursor": "", "size": 2}`, accountJSON)
		default:
			t.Error("too many pages requested")
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	accounts, err := c.ListAllAccounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 {
		t.Errorf("len(accounts) = %d, want 2", len(accounts))
	}
	if pages != 2 {
		t.Errorf("pages = %d, want 2", pages)
	}
}

// TestGetAccount tests fetching a single account.
func TestGetAccount(t *testing.T) {
	id := uuid.MustParse("9dd482e4-d8ce-46f7-a261-281843bd2855")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := "/brokerage/accounts/" + id.String()
		if r.URL.Path != want {
			t.Errorf("path = %q, want %q", r.URL.Path, want)
		}
		fmt.Fprintf(w, `{"account": %s}`, accountJSON)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	acct, err := c.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.Name != "SOL Wallet" {
		t.Errorf("Name = %q, want %q", acct.Name, "SOL Wallet")
	}
}
