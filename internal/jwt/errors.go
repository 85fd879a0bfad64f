package jwt

import "fmt"

// ErrorKind es el set cerrado de fallos de verificación. Cada call site
// maneja el kind en vez de inspeccionar strings.
type ErrorKind int

const (
	KindUnknownKey ErrorKind = iota
	KindBadSignature
	KindExpired
	KindBadIssuer
	KindBadAudience
	KindMalformedClaims
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnknownKey:
		return "unknown_key"
	case KindBadSignature:
		return "bad_signature"
	case KindExpired:
		return "expired"
	case KindBadIssuer:
		return "bad_issuer"
	case KindBadAudience:
		return "bad_audience"
	case KindMalformedClaims:
		return "malformed_claims"
	default:
		return "unknown"
	}
}

// VerificationError es el fallo tipado de Verifier.Verify.
type VerificationError struct {
	Kind ErrorKind
	err  error
}

func (e *VerificationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("token %s: %v", e.Kind, e.err)
	}
	return "token " + e.Kind.String()
}

func (e *VerificationError) Unwrap() error { return e.err }

// AsVerification extrae el *VerificationError de err (o nil).
func AsVerification(err error) *VerificationError {
	for err != nil {
		if ve, ok := err.(*VerificationError); ok {
			return ve
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}
