package jwk

import (
	"fmt"

	"github.com/kentaro-m/jwtx/internal/jsonutils"
	"github.com/kentaro-m/jwtx/jwa"
)

// RFC8037 2. Key Type "OKP"
func parseOKPKey(d *jsonutils.Decoder, key *Key) {
	crv := jwa.EllipticCurve(d.MustString("crv"))
	switch crv {
	case jwa.Ed25519:
		parseEd25519Key(d, key)
	default:
		d.SaveError(fmt.Errorf("jwk: unknown crv: %q", crv))
	}
}
