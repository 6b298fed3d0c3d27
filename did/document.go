/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
)

// placeholderTag is the method specific id suffix of documents not yet published.
// nolint: gochecknoglobals
var placeholderTag = "0x" + strings.Repeat("0", 64)

var (
	// ErrFragmentCollision is returned when a method or service fragment is already used in the document.
	ErrFragmentCollision = errors.New("fragment already exists in document")
	// ErrVerificationMethodNotFound is returned when no method matches a query in the requested scope.
	ErrVerificationMethodNotFound = errors.New("verification method not found")
	// ErrServiceNotFound is returned when no service has the requested fragment.
	ErrServiceNotFound = errors.New("service not found")
	// ErrDocumentMismatch is returned when an entry or a new state belongs to a different DID.
	ErrDocumentMismatch = errors.New("DID does not match document")
	// ErrNotPlaceholder is returned when AssignID is called on a document that already has its final DID.
	ErrNotPlaceholder = errors.New("document is not a placeholder")
)

// Metadata holds document lifecycle information.
type Metadata struct {
	Created         *time.Time `json:"created,omitempty"`
	Updated         *time.Time `json:"updated,omitempty"`
	Deactivated     bool       `json:"deactivated,omitempty"`
	PreviousVersion string     `json:"previousVersion,omitempty"`
}

// Document is a DID document. Method fragments are unique across all scopes, relationship references
// always point at methods of the VerificationMethod scope.
type Document struct {
	id          DID
	controllers []DID
	alsoKnownAs []string
	methods     [scopeCount][]*VerificationMethod
	references  [scopeCount][]string
	services    []*Service
	meta        Metadata
}

// NewDocument creates an empty document for id.
func NewDocument(id DID) *Document {
	now := timestamp()

	return &Document{
		id:   id,
		meta: Metadata{Created: &now, Updated: &now},
	}
}

// NewPlaceholder creates a document whose DID is replaced once the document is published on network.
func NewPlaceholder(method, network string) *Document {
	msi := placeholderTag
	if network != "" {
		msi = network + ":" + placeholderTag
	}

	return NewDocument(DID{Method: method, MethodSpecificID: msi})
}

// ID returns the document DID.
func (d *Document) ID() DID {
	return d.id
}

// IsPlaceholder reports whether the document still carries the placeholder DID.
func (d *Document) IsPlaceholder() bool {
	return strings.HasSuffix(d.id.MethodSpecificID, placeholderTag)
}

// AssignID replaces the placeholder DID with the final one in the document and all of its entries.
func (d *Document) AssignID(id DID) error {
	if !d.IsPlaceholder() {
		return fmt.Errorf("%w: %s", ErrNotPlaceholder, d.id)
	}

	old := d.id

	for _, list := range d.methods {
		for _, vm := range list {
			if vm.ID.DID == old {
				vm.ID.DID = id
			}

			if vm.Controller == old {
				vm.Controller = id
			}
		}
	}

	for _, s := range d.services {
		if s.ID.DID == old {
			s.ID.DID = id
		}
	}

	d.id = id

	return nil
}

// Controllers returns the document controllers.
func (d *Document) Controllers() []DID {
	return slices.Clone(d.controllers)
}

// SetControllers replaces the document controllers.
func (d *Document) SetControllers(controllers ...DID) {
	d.controllers = slices.Clone(controllers)
}

// AlsoKnownAs returns the alternative identifiers of the subject.
func (d *Document) AlsoKnownAs() []string {
	return slices.Clone(d.alsoKnownAs)
}

// SetAlsoKnownAs replaces the alternative identifiers of the subject.
func (d *Document) SetAlsoKnownAs(uris ...string) {
	d.alsoKnownAs = slices.Clone(uris)
}

// Metadata returns the document metadata.
func (d *Document) Metadata() Metadata {
	return d.meta
}

// SetMetadata replaces the document metadata.
func (d *Document) SetMetadata(meta Metadata) {
	d.meta = meta
}

// InsertMethod adds vm to the document in the given scope.
func (d *Document) InsertMethod(vm *VerificationMethod, scope MethodScope) error {
	if !scope.valid() {
		return fmt.Errorf("insert method: invalid scope %s", scope)
	}

	if vm.ID.DID != d.id {
		return fmt.Errorf("insert method %s: %w", vm.ID, ErrDocumentMismatch)
	}

	if d.fragmentInUse(vm.Fragment()) {
		return fmt.Errorf("insert method %s: %w", vm.ID, ErrFragmentCollision)
	}

	d.methods[scope] = append(d.methods[scope], vm)

	return nil
}

// RemoveMethod removes the method with the given fragment together with the references to it.
func (d *Document) RemoveMethod(fragment string) (*VerificationMethod, error) {
	fragment = strings.TrimPrefix(fragment, fragmentSeparator)

	for scope, list := range d.methods {
		i := slices.IndexFunc(list, func(vm *VerificationMethod) bool { return vm.Fragment() == fragment })
		if i < 0 {
			continue
		}

		vm := list[i]
		d.methods[scope] = slices.Delete(list, i, i+1)

		if MethodScope(scope) == VerificationMethodScope {
			for rel := range d.references {
				d.references[rel] = lo.Without(d.references[rel], fragment)
			}
		}

		return vm, nil
	}

	return nil, fmt.Errorf("remove method #%s: %w", fragment, ErrVerificationMethodNotFound)
}

// AttachRelationship references the general method with the given fragment from relationship rel.
func (d *Document) AttachRelationship(fragment string, rel MethodScope) error {
	if !rel.IsRelationship() {
		return fmt.Errorf("attach relationship: %s is not a verification relationship", rel)
	}

	fragment = strings.TrimPrefix(fragment, fragmentSeparator)

	if !d.hasGeneralMethod(fragment) {
		return fmt.Errorf("attach %s to #%s: %w", rel, fragment, ErrVerificationMethodNotFound)
	}

	if !slices.Contains(d.references[rel], fragment) {
		d.references[rel] = append(d.references[rel], fragment)
	}

	return nil
}

// DetachRelationship removes the reference to the method with the given fragment from relationship rel.
func (d *Document) DetachRelationship(fragment string, rel MethodScope) error {
	if !rel.IsRelationship() {
		return fmt.Errorf("detach relationship: %s is not a verification relationship", rel)
	}

	fragment = strings.TrimPrefix(fragment, fragmentSeparator)

	if !slices.Contains(d.references[rel], fragment) {
		return fmt.Errorf("detach %s from #%s: %w", rel, fragment, ErrVerificationMethodNotFound)
	}

	d.references[rel] = lo.Without(d.references[rel], fragment)

	return nil
}

// ResolveMethod looks up a method by fragment, "#fragment" or full DID URL.
// A nil scope searches every method of the document. A relationship scope matches methods embedded
// in that relationship and general methods it references.
func (d *Document) ResolveMethod(query string, scope *MethodScope) (*VerificationMethod, error) {
	fragment, err := d.queryFragment(query)
	if err != nil {
		return nil, err
	}

	for _, vm := range d.Methods(scope) {
		if vm.Fragment() == fragment {
			return vm, nil
		}
	}

	if scope != nil {
		return nil, fmt.Errorf("%w: %s in scope %s", ErrVerificationMethodNotFound, query, scope)
	}

	return nil, fmt.Errorf("%w: %s", ErrVerificationMethodNotFound, query)
}

// Methods lists the methods usable in the given scope; a nil scope lists every method.
// Embedded methods of a relationship come before the general methods it references.
func (d *Document) Methods(scope *MethodScope) []*VerificationMethod {
	if scope == nil {
		var all []*VerificationMethod
		for _, list := range d.methods {
			all = append(all, list...)
		}

		return all
	}

	if !scope.valid() {
		return nil
	}

	result := slices.Clone(d.methods[*scope])

	for _, ref := range d.references[*scope] {
		if vm := d.generalMethod(ref); vm != nil {
			result = append(result, vm)
		}
	}

	return result
}

// InsertService adds s to the document.
func (d *Document) InsertService(s *Service) error {
	if s.ID.DID != d.id {
		return fmt.Errorf("insert service %s: %w", s.ID, ErrDocumentMismatch)
	}

	if d.fragmentInUse(s.ID.Fragment) {
		return fmt.Errorf("insert service %s: %w", s.ID, ErrFragmentCollision)
	}

	d.services = append(d.services, s)

	return nil
}

// RemoveService removes the service with the given fragment.
func (d *Document) RemoveService(fragment string) (*Service, error) {
	fragment = strings.TrimPrefix(fragment, fragmentSeparator)

	i := slices.IndexFunc(d.services, func(s *Service) bool { return s.ID.Fragment == fragment })
	if i < 0 {
		return nil, fmt.Errorf("remove service #%s: %w", fragment, ErrServiceNotFound)
	}

	s := d.services[i]
	d.services = slices.Delete(d.services, i, i+1)

	return s, nil
}

// Services returns the document services in insertion order.
func (d *Document) Services() []*Service {
	return slices.Clone(d.services)
}

// ReplaceState replaces the document content with next. Both documents must share the same DID.
// Creation time is kept and the update time is set to now.
func (d *Document) ReplaceState(next *Document) error {
	if next.id != d.id {
		return fmt.Errorf("replace state of %s with %s: %w", d.id, next.id, ErrDocumentMismatch)
	}

	created := d.meta.Created
	now := timestamp()

	*d = *next.Clone()
	d.meta.Created = created
	d.meta.Updated = &now

	return nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	cp := &Document{
		id:          d.id,
		controllers: slices.Clone(d.controllers),
		alsoKnownAs: slices.Clone(d.alsoKnownAs),
		meta:        d.meta,
	}

	for scope, list := range d.methods {
		if list != nil {
			cp.methods[scope] = lo.Map(list, func(vm *VerificationMethod, _ int) *VerificationMethod {
				return vm.clone()
			})
		}

		cp.references[scope] = slices.Clone(d.references[scope])
	}

	if d.services != nil {
		cp.services = lo.Map(d.services, func(s *Service, _ int) *Service {
			sc := *s
			sc.Type = slices.Clone(s.Type)

			return &sc
		})
	}

	if d.meta.Created != nil {
		t := *d.meta.Created
		cp.meta.Created = &t
	}

	if d.meta.Updated != nil {
		t := *d.meta.Updated
		cp.meta.Updated = &t
	}

	return cp
}

func (d *Document) queryFragment(query string) (string, error) {
	if strings.HasPrefix(query, didScheme+":") {
		u, err := ParseDIDURL(query)
		if err != nil {
			return "", err
		}

		if u.DID != d.id {
			return "", fmt.Errorf("%w: %s does not belong to %s", ErrVerificationMethodNotFound, query, d.id)
		}

		return u.Fragment, nil
	}

	return strings.TrimPrefix(query, fragmentSeparator), nil
}

func (d *Document) fragmentInUse(fragment string) bool {
	for _, list := range d.methods {
		if slices.ContainsFunc(list, func(vm *VerificationMethod) bool { return vm.Fragment() == fragment }) {
			return true
		}
	}

	return slices.ContainsFunc(d.services, func(s *Service) bool { return s.ID.Fragment == fragment })
}

func (d *Document) generalMethod(fragment string) *VerificationMethod {
	vm, _ := lo.Find(d.methods[VerificationMethodScope], func(vm *VerificationMethod) bool {
		return vm.Fragment() == fragment
	})

	return vm
}

func (d *Document) hasGeneralMethod(fragment string) bool {
	return d.generalMethod(fragment) != nil
}

func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
