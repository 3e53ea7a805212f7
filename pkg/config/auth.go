package config

// AuthConfig guards the administrative routes. Both values empty disables
// the check.
type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"`
	APIKeyHash string `yaml:"api_key_hash"`
}

func loadAuthConfig(base AuthConfig) AuthConfig {
	return AuthConfig{
		JWTSecret:  getEnv("AUTH_JWT_SECRET", base.JWTSecret),
		APIKeyHash: getEnv("AUTH_API_KEY_HASH", base.APIKeyHash),
	}
}

// Enabled reports whether any credential check is configured.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != "" || a.APIKeyHash != ""
}
