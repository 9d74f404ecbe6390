package pasetotoken

import (
	"fmt"
	"strings"

	paseto "aidanwoods.dev/go-paseto"
)

type Mode string

const (
	ModeLocal  Mode = "local"  // v4.local, encrypted with a shared key
	ModePublic Mode = "public" // v4.public, signed by the identity provider
)

// Keys is parsed key material. A verify-only deployment in public mode
// carries only Public.
type Keys struct {
	Mode Mode

	Symmetric *paseto.V4SymmetricKey

	Secret *paseto.V4AsymmetricSecretKey
	Public *paseto.V4AsymmetricPublicKey
}

// KeyStrings is the hex form found in configuration.
type KeyStrings struct {
	Mode         Mode
	SymmetricHex string
	SecretHex    string
	PublicHex    string
}

func LoadKeys(in KeyStrings) (Keys, error) {
	switch in.Mode {
	case ModeLocal:
		return loadLocal(strings.TrimSpace(in.SymmetricHex))
	case ModePublic:
		return loadPublic(strings.TrimSpace(in.SecretHex), strings.TrimSpace(in.PublicHex))
	}
	return Keys{}, ErrConfig{Msg: fmt.Sprintf("unknown mode %q (use local|public)", in.Mode)}
}

func loadLocal(symHex string) (Keys, error) {
	if symHex == "" {
		return Keys{}, ErrConfig{Msg: "local mode requires local_key_hex"}
	}
	k, err := paseto.V4SymmetricKeyFromHex(symHex)
	if err != nil {
		return Keys{}, ErrConfig{Msg: "local_key_hex: " + err.Error()}
	}
	return Keys{Mode: ModeLocal, Symmetric: &k}, nil
}

func loadPublic(secHex, pubHex string) (Keys, error) {
	out := Keys{Mode: ModePublic}

	if secHex != "" {
		sk, err := paseto.NewV4AsymmetricSecretKeyFromHex(secHex)
		if err != nil {
			return Keys{}, ErrConfig{Msg: "secret_key_hex: " + err.Error()}
		}
		pk := sk.Public()
		out.Secret, out.Public = &sk, &pk
	}

	if pubHex != "" {
		pk, err := paseto.NewV4AsymmetricPublicKeyFromHex(pubHex)
		if err != nil {
			return Keys{}, ErrConfig{Msg: "public_key_hex: " + err.Error()}
		}
		if out.Public != nil && out.Public.ExportHex() != pk.ExportHex() {
			return Keys{}, ErrConfig{Msg: "public_key_hex does not belong to secret_key_hex"}
		}
		out.Public = &pk
	}

	if out.Public == nil {
		return Keys{}, ErrConfig{Msg: "public mode requires secret_key_hex or public_key_hex"}
	}
	return out, nil
}

func NewLocalKeys() Keys {
	k := paseto.NewV4SymmetricKey()
	return Keys{Mode: ModeLocal, Symmetric: &k}
}

func NewPublicKeys() Keys {
	sk := paseto.NewV4AsymmetricSecretKey()
	pk := sk.Public()
	return Keys{Mode: ModePublic, Secret: &sk, Public: &pk}
}

// Export renders the keys back to their configuration form.
func (k Keys) Export() KeyStrings {
	out := KeyStrings{Mode: k.Mode}
	if k.Symmetric != nil {
		out.SymmetricHex = k.Symmetric.ExportHex()
	}
	if k.Secret != nil {
		out.SecretHex = k.Secret.ExportHex()
	}
	if k.Public != nil {
		out.PublicHex = k.Public.ExportHex()
	}
	return out
}
