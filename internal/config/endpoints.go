package config

// Endpoints holds the environment-dependent URLs, resolved once at startup.
type Endpoints struct {
	// CallbackURL is sent to Paystack as callback_url. Empty means it is
	// derived from the inbound request's scheme and host.
	CallbackURL    string
	AllowedOrigins []string
}

var (
	productionOrigins  = []string{"https://payment-platform-two.vercel.app", "https://*.vercel.app"}
	developmentOrigins = []string{"http://localhost:3000"}
)

// Resolve computes the callback URL and CORS origins for the configured environment.
// Explicit PAYGATE_SERVER_CORS_ORIGINS always win over the environment defaults.
func Resolve(cfg *Config) Endpoints {
	var ep Endpoints

	if cfg.IsProduction() {
		ep.CallbackURL = cfg.Primary.PublicURL + VerifyPath
		ep.AllowedOrigins = append([]string(nil), productionOrigins...)
	} else {
		ep.AllowedOrigins = append([]string(nil), developmentOrigins...)
	}

	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		ep.AllowedOrigins = append([]string(nil), cfg.Server.CORSAllowedOrigins...)
	}

	return ep
}
