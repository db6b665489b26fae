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

import "fmt"

// MinBodyLength is the minimum number of characters a record body must
// carry to be eligible for ingestion. Records below the threshold are
// skipped, never persisted.
const MinBodyLength = 50

// ValidateEntity validates a KnowledgeEntity according to domain rules.
//
// Validation rules:
//   - TenantID, DocumentType and EntityID must not be empty
//   - Body must be at least MinBodyLength characters
//   - ContentKind, SecurityLevel and every citation kind must be known values
//
// NOT validated (populated by the store):
//   - Version (0 is valid before the first write)
func ValidateEntity(entity *KnowledgeEntity) error {
	if entity == nil {
		return fmt.Errorf("%w: entity is nil", ErrInvalidEntity)
	}

	if entity.TenantID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, ErrMissingTenant)
	}
	if entity.DocumentType == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, ErrMissingDocumentType)
	}
	if entity.EntityID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, ErrMissingEntityID)
	}

	if len(entity.Body) < MinBodyLength {
		return fmt.Errorf("%w: %w (%d < %d)", ErrInvalidEntity, ErrBodyTooShort, len(entity.Body), MinBodyLength)
	}

	if err := ValidateContentKind(entity.ContentKind); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, err)
	}
	if err := ValidateSecurityLevel(entity.SecurityLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, err)
	}
	for _, citation := range entity.Citations {
		if err := ValidateCitationKind(citation.Kind); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidEntity, err)
		}
	}

	return nil
}

// ValidateContentKind validates that a ContentKind has a known value.
func ValidateContentKind(kind ContentKind) error {
	switch kind {
	case ContentKindJurisprudence, ContentKindRegulation, ContentKindProcedure, ContentKindGuidance:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidContentKind, kind)
}

// ValidateCitationKind validates that a CitationKind has a known value.
func ValidateCitationKind(kind CitationKind) error {
	switch kind {
	case CitationKindStatute, CitationKindRegulation, CitationKindCaseLaw:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidCitationKind, kind)
}

// ValidateSecurityLevel validates that a SecurityLevel has a known value.
func ValidateSecurityLevel(level SecurityLevel) error {
	switch level {
	case SecurityLevelPublic, SecurityLevelRestrictedA, SecurityLevelRestrictedB:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidSecurityLevel, level)
}

// ParseSecurityLevel maps a source-declared classification string to a
// SecurityLevel. Unknown or empty values fall back to the most restrictive
// level so that a missing declaration never widens access.
func ParseSecurityLevel(declared string) SecurityLevel {
	switch SecurityLevel(declared) {
	case SecurityLevelPublic:
		return SecurityLevelPublic
	case SecurityLevelRestrictedA:
		return SecurityLevelRestrictedA
	case SecurityLevelRestrictedB:
		return SecurityLevelRestrictedB
	}
	return SecurityLevelRestrictedB
}
