package app

import (
	"github.com/dropDatabas3/littlejohn/internal/account"
	jwtx "github.com/dropDatabas3/littlejohn/internal/jwt"
	"github.com/dropDatabas3/littlejohn/internal/store/core"
)

// Container agrupa las dependencias que consumen los handlers.
type Container struct {
	Store     core.Repository
	Keys      *jwtx.Keystore
	Issuer    *jwtx.Issuer
	Verifier  *jwtx.Verifier
	Authn     *account.Authenticator
	Lifecycle *account.Coordinator
}
