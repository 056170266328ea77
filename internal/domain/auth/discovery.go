package auth

// DiscoveryDocument holds the provider endpoints needed for the redirect flow.
// It is always derived from a domain via Resolve and never mutated independently.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	RevocationEndpoint    string `json:"revocation_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
}

// Resolve derives the Auth0 endpoints for domain. The domain is not validated;
// a malformed domain yields malformed URLs.
func Resolve(domain string) DiscoveryDocument {
	base := "https://" + domain
	return DiscoveryDocument{
		Issuer:                base + "/",
		AuthorizationEndpoint: base + "/authorize",
		TokenEndpoint:         base + "/oauth/token",
		RevocationEndpoint:    base + "/v2/logout",
		UserinfoEndpoint:      base + "/userinfo",
	}
}
