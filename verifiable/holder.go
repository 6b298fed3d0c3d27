/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import "fmt"

// SubjectHolderRelationship declares when the holder of a presentation must be a credential subject.
type SubjectHolderRelationship int

const (
	// AlwaysSubject requires the holder to be the subject of every credential.
	AlwaysSubject SubjectHolderRelationship = iota
	// SubjectOnNonTransferable requires it only for credentials marked nonTransferable.
	SubjectOnNonTransferable
	// Any accepts any holder.
	Any
)

// CheckSubjectHolderRelationship checks that holder may present vc under rel.
func CheckSubjectHolderRelationship(vc *Credential, holder string, rel SubjectHolderRelationship) error {
	switch rel {
	case Any:
		return nil
	case SubjectOnNonTransferable:
		if !vc.credentialContents.NonTransferable {
			return nil
		}
	case AlwaysSubject:
	default:
		return fmt.Errorf("unknown subject holder relationship %d", rel)
	}

	for _, s := range vc.credentialContents.Subject {
		if s.ID != holder {
			return fmt.Errorf("%w: holder %s is not subject %q", ErrSubjectHolderMismatch, holder, s.ID)
		}
	}

	return nil
}
