/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Service is a service endpoint entry of a DID document.
type Service struct {
	ID              DIDURL
	Type            []string
	ServiceEndpoint interface{}
}

type rawService struct {
	ID              string          `json:"id"`
	Type            json.RawMessage `json:"type"`
	ServiceEndpoint interface{}     `json:"serviceEndpoint"`
}

// MarshalJSON encodes the service. A single type is written as a plain string.
func (s *Service) MarshalJSON() ([]byte, error) {
	var (
		typ []byte
		err error
	)

	if len(s.Type) == 1 {
		typ, err = json.Marshal(s.Type[0])
	} else {
		typ, err = json.Marshal(s.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("marshal service type: %w", err)
	}

	return json.Marshal(rawService{ID: s.ID.String(), Type: typ, ServiceEndpoint: s.ServiceEndpoint})
}

// UnmarshalJSON decodes the service.
func (s *Service) UnmarshalJSON(data []byte) error {
	var raw rawService

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal service: %w", err)
	}

	id, err := ParseDIDURL(raw.ID)
	if err != nil {
		return fmt.Errorf("service id: %w", err)
	}

	types, err := stringOrArray(raw.Type)
	if err != nil {
		return fmt.Errorf("service type: %w", err)
	}

	if len(types) == 0 {
		return errors.New("service type is empty")
	}

	if raw.ServiceEndpoint == nil {
		return errors.New("service endpoint is missing")
	}

	*s = Service{ID: id, Type: types, ServiceEndpoint: raw.ServiceEndpoint}

	return nil
}

func stringOrArray(data json.RawMessage) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var single string

	if err := json.Unmarshal(data, &single); err == nil {
		return []string{single}, nil
	}

	var multi []string

	if err := json.Unmarshal(data, &multi); err != nil {
		return nil, err
	}

	return multi, nil
}
