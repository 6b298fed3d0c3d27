/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/multiformats/go-multibase"
	"github.com/trustbloc/kms-go/doc/jose/jwk"
	"github.com/trustbloc/kms-go/doc/jose/jwk/jwksupport"
	"github.com/trustbloc/kms-go/spi/kms"
)

// Verification method types.
const (
	JSONWebKey2020        = "JsonWebKey2020"
	EcdsaSecp256k1Key2019 = "EcdsaSecp256k1VerificationKey2019"
	EcdsaSecp256r1Key2019 = "EcdsaSecp256r1VerificationKey2019"
	Bls12381G2Key2020     = "Bls12381G2Key2020"
)

const (
	publicKeyJwkProp       = "publicKeyJwk"
	publicKeyMultibaseProp = "publicKeyMultibase"
	okpKty                 = "OKP"
	ed25519Crv             = "Ed25519"
)

// ErrUnsupportedKeyAlgorithm is returned for key types that cannot be expressed as a verification method.
var ErrUnsupportedKeyAlgorithm = errors.New("unsupported key algorithm")

// nolint: gochecknoglobals
var methodTypes = map[kms.KeyType]string{
	kms.ED25519Type:                 JSONWebKey2020,
	kms.ECDSAP256TypeIEEEP1363:      EcdsaSecp256r1Key2019,
	kms.ECDSASecp256k1TypeIEEEP1363: EcdsaSecp256k1Key2019,
	kms.BLS12381G2Type:              Bls12381G2Key2020,
}

// VerificationMethod is a public key entry of a DID document. It never holds private material.
type VerificationMethod struct {
	ID         DIDURL
	Controller DID
	Type       string
	KeyType    kms.KeyType
	PublicKey  []byte
}

// NewVerificationMethod creates a verification method of the type matching keyType.
func NewVerificationMethod(id DIDURL, controller DID, keyType kms.KeyType, pub []byte) (*VerificationMethod, error) {
	vmType, ok := methodTypes[keyType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKeyAlgorithm, keyType)
	}

	if len(pub) == 0 {
		return nil, errors.New("verification method: public key is empty")
	}

	return &VerificationMethod{
		ID:         id,
		Controller: controller,
		Type:       vmType,
		KeyType:    keyType,
		PublicKey:  bytes.Clone(pub),
	}, nil
}

// Fragment returns the fragment of the method id.
func (vm *VerificationMethod) Fragment() string {
	return vm.ID.Fragment
}

// JWK returns the public key as JWK. Only Ed25519 methods carry their key in JWK form.
func (vm *VerificationMethod) JWK() (*jwk.JWK, error) {
	if vm.KeyType != kms.ED25519Type {
		return nil, fmt.Errorf("%w: no JWK form for %s", ErrUnsupportedKeyAlgorithm, vm.KeyType)
	}

	return jwksupport.PubKeyBytesToJWK(vm.PublicKey, vm.KeyType)
}

func (vm *VerificationMethod) clone() *VerificationMethod {
	cp := *vm
	cp.PublicKey = bytes.Clone(vm.PublicKey)

	return &cp
}

type rawVerificationMethod struct {
	ID                 string          `json:"id"`
	Type               string          `json:"type"`
	Controller         string          `json:"controller"`
	PublicKeyJwk       json.RawMessage `json:"publicKeyJwk,omitempty"`
	PublicKeyMultibase string          `json:"publicKeyMultibase,omitempty"`
}

// MarshalJSON encodes the method in DID Core form.
func (vm *VerificationMethod) MarshalJSON() ([]byte, error) {
	raw := rawVerificationMethod{
		ID:         vm.ID.String(),
		Type:       vm.Type,
		Controller: vm.Controller.String(),
	}

	switch vm.Type {
	case JSONWebKey2020:
		j, err := vm.JWK()
		if err != nil {
			return nil, err
		}

		raw.PublicKeyJwk, err = json.Marshal(j)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", publicKeyJwkProp, err)
		}
	default:
		enc, err := multibase.Encode(multibase.Base58BTC, vm.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", publicKeyMultibaseProp, err)
		}

		raw.PublicKeyMultibase = enc
	}

	return json.Marshal(raw)
}

// UnmarshalJSON decodes the method from DID Core form.
func (vm *VerificationMethod) UnmarshalJSON(data []byte) error {
	var raw rawVerificationMethod

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal verification method: %w", err)
	}

	id, err := ParseDIDURL(raw.ID)
	if err != nil {
		return fmt.Errorf("verification method id: %w", err)
	}

	controller, err := Parse(raw.Controller)
	if err != nil {
		return fmt.Errorf("verification method controller: %w", err)
	}

	keyType, pub, err := decodePublicKey(&raw)
	if err != nil {
		return fmt.Errorf("verification method %s: %w", raw.ID, err)
	}

	*vm = VerificationMethod{
		ID:         id,
		Controller: controller,
		Type:       raw.Type,
		KeyType:    keyType,
		PublicKey:  pub,
	}

	return nil
}

func decodePublicKey(raw *rawVerificationMethod) (kms.KeyType, []byte, error) {
	switch raw.Type {
	case JSONWebKey2020:
		if len(raw.PublicKeyJwk) == 0 {
			return "", nil, fmt.Errorf("missing %s", publicKeyJwkProp)
		}

		var j jwk.JWK

		if err := j.UnmarshalJSON(raw.PublicKeyJwk); err != nil {
			return "", nil, fmt.Errorf("parse %s: %w", publicKeyJwkProp, err)
		}

		if j.Kty != okpKty || j.Crv != ed25519Crv {
			return "", nil, fmt.Errorf("%w: jwk %s/%s", ErrUnsupportedKeyAlgorithm, j.Kty, j.Crv)
		}

		pub, err := j.PublicKeyBytes()
		if err != nil {
			return "", nil, fmt.Errorf("jwk public key bytes: %w", err)
		}

		return kms.ED25519Type, pub, nil
	case EcdsaSecp256r1Key2019, EcdsaSecp256k1Key2019, Bls12381G2Key2020:
		if raw.PublicKeyMultibase == "" {
			return "", nil, fmt.Errorf("missing %s", publicKeyMultibaseProp)
		}

		_, pub, err := multibase.Decode(raw.PublicKeyMultibase)
		if err != nil {
			return "", nil, fmt.Errorf("decode %s: %w", publicKeyMultibaseProp, err)
		}

		for kt, t := range methodTypes {
			if t == raw.Type {
				return kt, pub, nil
			}
		}
	}

	return "", nil, fmt.Errorf("%w: method type %q", ErrUnsupportedKeyAlgorithm, raw.Type)
}
