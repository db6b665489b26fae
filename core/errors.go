// Copyright 2026 Caselode
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidEntity indicates a KnowledgeEntity failed validation.
	ErrInvalidEntity = errors.New("invalid knowledge entity")

	// ErrMissingTenant indicates the TenantID field is empty.
	ErrMissingTenant = errors.New("tenant id cannot be empty")

	// ErrMissingDocumentType indicates the DocumentType field is empty.
	ErrMissingDocumentType = errors.New("document type cannot be empty")

	// ErrMissingEntityID indicates the EntityID field is empty.
	ErrMissingEntityID = errors.New("entity id cannot be empty")

	// ErrBodyTooShort indicates the Body is below the minimum length.
	ErrBodyTooShort = errors.New("body below minimum length")

	// ErrInvalidContentKind indicates an unknown ContentKind value.
	ErrInvalidContentKind = errors.New("invalid content kind")

	// ErrInvalidCitationKind indicates an unknown CitationKind value.
	ErrInvalidCitationKind = errors.New("invalid citation kind")

	// ErrInvalidSecurityLevel indicates an unknown SecurityLevel value.
	ErrInvalidSecurityLevel = errors.New("invalid security level")
)
