package config

import (
	"strconv"
	"time"
)

type SecurityConfig interface {
	GetSecretKey() string
	GetTokenIssuer() string
	GetSessionTTL() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetSecretKey() string {
	return GetEnv("SECRET_KEY", "")
}

func (Security) GetTokenIssuer() string {
	return GetEnv("TOKEN_ISSUER", "content-auth")
}

// GetSessionTTL is the access-token lifetime and the TTL used for
// whitelist/blacklist markers, so revocation records expire with the
// tokens they refer to.
func (Security) GetSessionTTL() time.Duration {
	minutes, err := strconv.Atoi(GetEnv("ACCESS_TOKEN_EXPIRE_MINUTES", "30"))
	if err != nil || minutes <= 0 {
		minutes = 30
	}
	return time.Duration(minutes) * time.Minute
}
