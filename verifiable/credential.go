/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	util "github.com/trustbloc/did-go/doc/util/time"

	jsonutil "github.com/trustbloc/identity-go/util/json"
)

const (
	jsonFldContext         = "@context"
	jsonFldID              = "id"
	jsonFldType            = "type"
	jsonFldSubject         = "credentialSubject"
	jsonFldIssuer          = "issuer"
	jsonFldIssued          = "issuanceDate"
	jsonFldExpired         = "expirationDate"
	jsonFldNonTransferable = "nonTransferable"

	jsonFldIssuerID  = "id"
	jsonFldSubjectID = "id"

	uuidURNPrefix = "urn:uuid:"
)

var credentialFields = []string{
	jsonFldContext, jsonFldID, jsonFldType, jsonFldSubject, jsonFldIssuer,
	jsonFldIssued, jsonFldExpired, jsonFldNonTransferable,
}

// Issuer of the Verifiable Credential.
type Issuer struct {
	ID string `json:"id,omitempty"`

	CustomFields CustomFields `json:"-"`
}

// IssuerToJSON converts issuer to raw json object.
func IssuerToJSON(issuer Issuer) JSONObject {
	jsonObj := jsonutil.ShallowCopyObj(issuer.CustomFields)

	if issuer.ID != "" {
		jsonObj[jsonFldIssuerID] = issuer.ID
	}

	return jsonObj
}

// IssuerFromJSON creates issuer from raw json object.
func IssuerFromJSON(issuerObj JSONObject) (*Issuer, error) {
	flds, rest := jsonutil.SplitJSONObj(issuerObj, jsonFldIssuerID)

	id, err := parseStringFld(flds, jsonFldIssuerID)
	if err != nil {
		return nil, fmt.Errorf("fill issuer id from raw: %w", err)
	}

	if id == "" {
		return nil, errors.New("issuer ID is not defined")
	}

	return &Issuer{
		ID:           id,
		CustomFields: rest,
	}, nil
}

// parseIssuer parses raw issuer.
//
// Issuer can be defined by:
//
// - a string which is ID of the issuer;
//
// - object with mandatory "id" field and optional other fields.
func parseIssuer(issuerRaw interface{}) (*Issuer, error) {
	if issuerRaw == nil {
		return nil, nil
	}

	switch issuer := issuerRaw.(type) {
	case string:
		if issuer == "" {
			return nil, errors.New("issuer ID is not defined")
		}

		return &Issuer{ID: issuer}, nil
	case map[string]interface{}:
		return IssuerFromJSON(issuer)
	}

	return nil, fmt.Errorf("should be json object or string but got %v", issuerRaw)
}

func serializeIssuer(issuer Issuer) interface{} {
	if len(issuer.CustomFields) == 0 {
		return issuer.ID
	}

	return IssuerToJSON(issuer)
}

// Subject of the Verifiable Credential.
type Subject struct {
	ID string `json:"id,omitempty"`

	CustomFields CustomFields `json:"-"`
}

// SubjectToJSON converts credential subject to json object.
func SubjectToJSON(subject Subject) JSONObject {
	jsonObj := jsonutil.ShallowCopyObj(subject.CustomFields)

	if subject.ID != "" {
		jsonObj[jsonFldSubjectID] = subject.ID
	}

	return jsonObj
}

// SubjectFromJSON creates credential subject form json object.
func SubjectFromJSON(subjectObj JSONObject) (Subject, error) {
	flds, rest := jsonutil.SplitJSONObj(subjectObj, jsonFldSubjectID)

	id, err := parseStringFld(flds, jsonFldSubjectID)
	if err != nil {
		return Subject{}, fmt.Errorf("fill subject id from raw: %w", err)
	}

	return Subject{
		ID:           id,
		CustomFields: rest,
	}, nil
}

// parseSubject parses raw credential subject.
//
// Subject can be defined as a string (subject ID) or single object or array of objects.
func parseSubject(subjectRaw interface{}) ([]Subject, error) {
	if subjectRaw == nil {
		return nil, nil
	}

	switch subject := subjectRaw.(type) {
	case string:
		return []Subject{{ID: subject}}, nil
	case map[string]interface{}:
		parsed, err := SubjectFromJSON(subject)
		if err != nil {
			return nil, fmt.Errorf("parse subject: %w", err)
		}

		return []Subject{parsed}, nil
	case []interface{}:
		subjects := make([]Subject, 0, len(subject))

		for _, raw := range subject {
			sub, ok := raw.(map[string]interface{})
			if !ok {
				return nil, errors.New("verifiable credential subject of unsupported format")
			}

			parsed, err := SubjectFromJSON(sub)
			if err != nil {
				return nil, fmt.Errorf("parse subjects array: %w", err)
			}

			subjects = append(subjects, parsed)
		}

		return subjects, nil
	}

	return nil, errors.New("verifiable credential subject of unsupported format")
}

// SerializeSubject converts subject(s) JSON object or array.
// If the subject is nil no error will be returned.
func SerializeSubject(subject []Subject) interface{} {
	if subject == nil {
		return nil
	}

	if len(subject) == 1 {
		return SubjectToJSON(subject[0])
	}

	out := make([]interface{}, len(subject))
	for i := range subject {
		out[i] = SubjectToJSON(subject[i])
	}

	return out
}

// SubjectID gets ID of single subject if present or
// returns error if there are several subjects or one without ID defined.
func SubjectID(subject []Subject) (string, error) {
	if len(subject) == 0 {
		return "", errors.New("no subject is defined")
	}

	if len(subject) > 1 {
		return "", errors.New("more than one subject is defined")
	}

	if subject[0].ID == "" {
		return "", errors.New("subject id is not defined")
	}

	return subject[0].ID, nil
}

// CredentialContents store credential contents as typed structure.
type CredentialContents struct {
	Context         []string
	ID              string
	Types           []string
	Subject         []Subject
	Issuer          *Issuer
	Issued          *util.TimeWrapper
	Expired         *util.TimeWrapper
	NonTransferable bool
}

// Credential Verifiable Credential definition. It is immutable once created.
type Credential struct {
	credentialJSON     JSONObject
	credentialContents CredentialContents
	customFields       CustomFields
}

// CreateCredential creates vc from CredentialContents. The base context and type are added when missing,
// an empty id is replaced by a random urn:uuid and an empty issuance date by the current time.
func CreateCredential(vcc CredentialContents, customFields CustomFields) (*Credential, error) {
	var err error

	vcc.Context, err = ensureFirst(vcc.Context, BaseContext)
	if err != nil {
		return nil, fmt.Errorf("%w: context: %w", ErrInvalidStructure, err)
	}

	vcc.Types, err = ensureFirst(vcc.Types, VCType)
	if err != nil {
		return nil, fmt.Errorf("%w: type: %w", ErrInvalidStructure, err)
	}

	if vcc.ID == "" {
		vcc.ID = uuidURNPrefix + uuid.NewString()
	}

	if vcc.Issued == nil {
		vcc.Issued = util.NewTime(time.Now().UTC().Truncate(time.Second))
	}

	if err := validateCredentialContents(&vcc); err != nil {
		return nil, err
	}

	for name := range customFields {
		if lo.Contains(credentialFields, name) {
			return nil, fmt.Errorf("%w: custom field %q shadows a credential field", ErrInvalidStructure, name)
		}
	}

	cf := copyCustomFields(customFields)

	vcJSON := jsonutil.DeepCopy(serializeCredentialContents(&vcc)).(JSONObject)
	jsonutil.AddCustomFields(vcJSON, JSONObject(copyCustomFields(cf)))

	return &Credential{
		credentialJSON:     vcJSON,
		credentialContents: vcc,
		customFields:       cf,
	}, nil
}

// ParseCredentialJSON parses Verifiable Credential from a json object.
func ParseCredentialJSON(vcJSON JSONObject) (*Credential, error) {
	return newCredentialFromJSON(vcJSON, true)
}

// newCredentialFromJSON builds a credential from its json object. Disclosure views skip the data model
// validation since concealed claims may leave required fields out.
func newCredentialFromJSON(vcJSON JSONObject, validate bool) (*Credential, error) {
	contents, err := parseCredentialContents(vcJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStructure, err)
	}

	if validate {
		if err := validateCredentialContents(contents); err != nil {
			return nil, err
		}
	}

	return &Credential{
		credentialJSON:     jsonutil.DeepCopy(vcJSON).(JSONObject),
		credentialContents: *contents,
		customFields:       CustomFields(jsonutil.CopyExcept(vcJSON, credentialFields...)),
	}, nil
}

// ParseCredential parses Verifiable Credential from JSON bytes.
func ParseCredential(vcData []byte) (*Credential, error) {
	vcJSON, err := jsonutil.ToMap(vcData)
	if err != nil {
		return nil, fmt.Errorf("%w: unmarshal credential: %w", ErrInvalidStructure, err)
	}

	return ParseCredentialJSON(vcJSON)
}

// Contents returns a copy of the structured contents of the credential.
func (vc *Credential) Contents() CredentialContents {
	c := vc.credentialContents

	c.Context = append([]string(nil), c.Context...)
	c.Types = append([]string(nil), c.Types...)
	c.Subject = append([]Subject(nil), c.Subject...)

	if c.Issuer != nil {
		issuer := *c.Issuer
		c.Issuer = &issuer
	}

	return c
}

// ToRawJSON returns a copy of the json object of the credential.
func (vc *Credential) ToRawJSON() JSONObject {
	return jsonutil.DeepCopy(vc.credentialJSON).(JSONObject)
}

// CustomField returns the value of a custom field.
func (vc *Credential) CustomField(name string) interface{} {
	return vc.customFields[name]
}

// CustomFields returns a copy of the custom fields.
func (vc *Credential) CustomFields() CustomFields {
	return copyCustomFields(vc.customFields)
}

// IssuerID returns the DID of the issuer.
func (vc *Credential) IssuerID() string {
	if vc.credentialContents.Issuer == nil {
		return ""
	}

	return vc.credentialContents.Issuer.ID
}

// DecodeSubject decodes the single credential subject into v. Fields are matched by their json tags.
func (vc *Credential) DecodeSubject(v interface{}) error {
	if len(vc.credentialContents.Subject) != 1 {
		return fmt.Errorf("decode subject: expected one subject, got %d", len(vc.credentialContents.Subject))
	}

	d, err := newClaimsDecoder(v)
	if err != nil {
		return fmt.Errorf("decode subject: %w", err)
	}

	if err := d.Decode(SubjectToJSON(vc.credentialContents.Subject[0])); err != nil {
		return fmt.Errorf("decode subject: %w", err)
	}

	return nil
}

// MarshalJSON converts Verifiable Credential to JSON bytes.
func (vc *Credential) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(vc.credentialJSON)
	if err != nil {
		return nil, fmt.Errorf("JSON marshalling of verifiable credential: %w", err)
	}

	return b, nil
}

// UnmarshalJSON parses a credential from its JSON form.
func (vc *Credential) UnmarshalJSON(data []byte) error {
	parsed, err := ParseCredential(data)
	if err != nil {
		return err
	}

	*vc = *parsed

	return nil
}

func parseCredentialContents(raw JSONObject) (*CredentialContents, error) {
	context, err := decodeContext(raw[jsonFldContext])
	if err != nil {
		return nil, fmt.Errorf("fill credential context from raw: %w", err)
	}

	types, err := decodeType(raw[jsonFldType])
	if err != nil {
		return nil, fmt.Errorf("fill credential types from raw: %w", err)
	}

	issuer, err := parseIssuer(raw[jsonFldIssuer])
	if err != nil {
		return nil, fmt.Errorf("fill credential issuer from raw: %w", err)
	}

	subjects, err := parseSubject(raw[jsonFldSubject])
	if err != nil {
		return nil, fmt.Errorf("fill credential subject from raw: %w", err)
	}

	id, err := parseStringFld(raw, jsonFldID)
	if err != nil {
		return nil, fmt.Errorf("fill credential id from raw: %w", err)
	}

	issued, err := parseTimeFld(raw, jsonFldIssued)
	if err != nil {
		return nil, fmt.Errorf("fill credential issued from raw: %w", err)
	}

	expired, err := parseTimeFld(raw, jsonFldExpired)
	if err != nil {
		return nil, fmt.Errorf("fill credential expired from raw: %w", err)
	}

	nonTransferable, err := parseBoolFld(raw, jsonFldNonTransferable)
	if err != nil {
		return nil, fmt.Errorf("fill credential non transferable from raw: %w", err)
	}

	return &CredentialContents{
		Context:         context,
		ID:              id,
		Types:           types,
		Subject:         subjects,
		Issuer:          issuer,
		Issued:          issued,
		Expired:         expired,
		NonTransferable: nonTransferable,
	}, nil
}

func validateCredentialContents(vcc *CredentialContents) error {
	switch {
	case len(vcc.Context) == 0 || vcc.Context[0] != BaseContext:
		return fmt.Errorf("%w: %q must be the first context", ErrInvalidStructure, BaseContext)
	case !lo.Contains(vcc.Types, VCType):
		return fmt.Errorf("%w: type %q is missing", ErrInvalidStructure, VCType)
	case vcc.Issuer == nil || vcc.Issuer.ID == "":
		return fmt.Errorf("%w: issuer is not defined", ErrInvalidStructure)
	case len(vcc.Subject) == 0:
		return fmt.Errorf("%w: credential has no subject", ErrInvalidStructure)
	case vcc.Issued != nil && vcc.Expired != nil && vcc.Expired.Time.Before(vcc.Issued.Time):
		return fmt.Errorf("%w: expiration date is before issuance date", ErrInvalidStructure)
	}

	return nil
}

func serializeCredentialContents(vcc *CredentialContents) JSONObject {
	vcJSON := JSONObject{
		jsonFldContext: serializeContext(vcc.Context),
		jsonFldType:    serializeTypes(vcc.Types),
		jsonFldSubject: SerializeSubject(vcc.Subject),
		jsonFldIssuer:  serializeIssuer(*vcc.Issuer),
	}

	if vcc.ID != "" {
		vcJSON[jsonFldID] = vcc.ID
	}

	if vcc.Issued != nil {
		vcJSON[jsonFldIssued] = vcc.Issued.FormatToString()
	}

	if vcc.Expired != nil {
		vcJSON[jsonFldExpired] = vcc.Expired.FormatToString()
	}

	if vcc.NonTransferable {
		vcJSON[jsonFldNonTransferable] = true
	}

	return vcJSON
}

func serializeContext(context []string) []interface{} {
	sContext := make([]interface{}, len(context))
	for i := range context {
		sContext[i] = context[i]
	}

	return sContext
}

func copyCustomFields(cf CustomFields) CustomFields {
	if cf == nil {
		return nil
	}

	return CustomFields(jsonutil.DeepCopy(map[string]interface{}(cf)).(map[string]interface{}))
}
