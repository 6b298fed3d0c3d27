/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/trustbloc/kms-go/doc/jose"

	"github.com/trustbloc/identity-go/did"
	"github.com/trustbloc/identity-go/jwt"
	"github.com/trustbloc/identity-go/keystore"
	"github.com/trustbloc/identity-go/proof/defaults"
	jsonutil "github.com/trustbloc/identity-go/util/json"
)

// JWSSignatureOptions holds optional parameters of a JWS credential or presentation.
type JWSSignatureOptions struct {
	// Typ is the typ header. Defaults to "JWT"; explicit types take the form "<name>+jwt".
	Typ string
	// CustomHeaders are added to the protected header. alg and kid are always set by the signer.
	CustomHeaders jose.Headers
	// Nonce is added as nonce claim.
	Nonce string
	// CustomClaims are added to the payload. Registered and vc/vp claims win over them.
	CustomClaims JSONObject
}

// signClaims signs claims with the key behind the method with the given fragment of doc.
func signClaims(ctx context.Context, claims interface{}, doc *did.Document, storage *keystore.Storage,
	fragment string, opts JWSSignatureOptions) (string, error) {
	signer, err := storage.Signer(ctx, doc, fragment)
	if err != nil {
		return "", err
	}

	payload, err := jsonutil.MergeCustomFields(claims, opts.CustomClaims)
	if err != nil {
		return "", fmt.Errorf("build JWT claims: %w", err)
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal JWT claims: %w", err)
	}

	proofCreator := defaults.NewProofCreator(signer)

	alg, err := proofCreator.JWTAlgByKeyType(signer.KeyType())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedKeyAlgorithm, err)
	}

	headers := jose.Headers{}
	for k, v := range opts.CustomHeaders {
		headers[k] = v
	}

	headers[jose.HeaderType] = jwt.TypeJWT
	if opts.Typ != "" {
		headers[jose.HeaderType] = opts.Typ
	}

	token, err := jwt.NewSigned(payloadBytes, jwt.SignParameters{
		KeyID:             signer.Method().ID.String(),
		JWTAlg:            alg,
		AdditionalHeaders: headers,
	}, proofCreator)
	if err != nil {
		return "", fmt.Errorf("sign JWT: %w", err)
	}

	return token.Serialize()
}

// verifyJWS checks the signature of token against the method of doc named by its kid header, and
// returns the protected headers and the claims.
func verifyJWS(token string, doc *did.Document, scope *did.MethodScope) (jose.Headers, JSONObject, error) {
	headers, err := jwt.DecodeHeaders(token)
	if err != nil {
		return nil, nil, newValidationError(ErrInvalidStructure, err)
	}

	kid, ok := headers.KeyID()
	if !ok {
		return nil, nil, newValidationError(ErrVerificationMethodNotFound, errors.New("missing kid header"))
	}

	vm, err := doc.ResolveMethod(kid, scope)
	if err != nil {
		return nil, nil, newValidationError(ErrVerificationMethodNotFound, err)
	}

	parsed, payload, err := jwt.Parse(token, jwt.WithProofChecker(defaults.NewEmbeddedVMProofChecker(vm)))
	if err != nil {
		return nil, nil, newValidationError(ErrSignatureInvalid, err)
	}

	claims, err := jsonutil.ToMap(payload)
	if err != nil {
		return nil, nil, newValidationError(ErrInvalidStructure, err)
	}

	return parsed.Headers, claims, nil
}
