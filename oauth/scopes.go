package oauth

// ValidScopes lists every permission Coinbase accepts during authorization,
// per https://docs.cloud.coinbase.com/sign-in-with-coinbase/docs/permissions-scopes.
var ValidScopes = []string{
	"wallet:accounts:read",
	"wallet:accounts:update",
	"wallet:accounts:create",
	"wallet:accounts:delete",
	"wallet:addresses:read",
	"wallet:addresses:create",
	"wallet:buys:read",
	"wallet:buys:create",
	"wallet:deposits:read",
	"wallet:deposits:create",
	"wallet:notifications:read",
	"wallet:payment-methods:read",
	"wallet:payment-methods:delete",
	"wallet:payment-methods:limits",
	"wallet:sells:read",
	"wallet:sells:create",
	"wallet:transactions:read",
	"wallet:transactions:send",
	"wallet:transactions:request",
	"wallet:transactions:transfer",
	"wallet:user:read",
	"wallet:user:update",
	"wallet:user:email",
	"wallet:withdrawals:read",
	"wallet:withdrawals:create",
}

var validScopeSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(ValidScopes))
	for _, s := range ValidScopes {
		set[s] = struct{}{}
	}
	return set
}()

// IsValidScope reports whether s is a scope Coinbase recognizes.
func IsValidScope(s string) bool {
	_, ok := validScopeSet[s]
	return ok
}
