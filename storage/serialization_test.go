package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/caselode/lexbase/core"
)

func sampleEntity() *core.KnowledgeEntity {
	return &core.KnowledgeEntity{
		TenantID:     "government-canada",
		DocumentType: core.DocumentTypeKnowledgeArticle,
		EntityID:     "ka-042",
		Title:        "Agent Authorization for Appeals",
		Body:         "Authorization requirements under the Employment Insurance Act, s. 29 for agents.",
		ContentKind:  core.ContentKindGuidance,
		Classification: core.Classification{
			IsRelevant: true,
			Categories: []string{"authorization", "appeal"},
			AgentTypes: []string{"legal-representative"},
			Confidence: 0.75,
		},
		Citations: []core.Citation{
			{Kind: core.CitationKindStatute, ReferenceText: "Employment Insurance Act, s. 29"},
			{Kind: core.CitationKindCaseLaw, ReferenceText: "Smith v. Canada (AG), 2023 SST 123"},
		},
		SecurityLevel:  core.SecurityLevelRestrictedB,
		Keywords:       []string{"authorization", "agents", "requirements"},
		SearchableText: "agent authorization for appeals authorization requirements",
		IngestedAt:     time.Date(2026, 8, 2, 10, 30, 0, 0, time.UTC),
		IngestedBy:     "ingestion-pipeline",
		SourceRef:      "articles.xml#a1b2c3d4",
		Version:        3,
	}
}

func TestEntityRoundTrip(t *testing.T) {
	entity := sampleEntity()

	decoded, err := UnmarshalEntity(MarshalEntity(entity))
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded.TenantID != entity.TenantID || decoded.EntityID != entity.EntityID {
		t.Fatalf("identity mismatch: got %s, want %s", decoded, entity)
	}
	if decoded.Version != 3 {
		t.Fatalf("version mismatch: got %d", decoded.Version)
	}
	if !decoded.IngestedAt.Equal(entity.IngestedAt) {
		t.Fatalf("timestamp mismatch: got %v, want %v", decoded.IngestedAt, entity.IngestedAt)
	}
	if len(decoded.Citations) != 2 || decoded.Citations[1].Kind != core.CitationKindCaseLaw {
		t.Fatalf("citations not preserved: %+v", decoded.Citations)
	}
	if decoded.Classification.Confidence != 0.75 {
		t.Fatalf("confidence mismatch: got %v", decoded.Classification.Confidence)
	}
	if len(decoded.Classification.Categories) != 2 {
		t.Fatalf("categories not preserved: %v", decoded.Classification.Categories)
	}
}

func TestEntityRoundTripEmptyCollections(t *testing.T) {
	entity := sampleEntity()
	entity.Citations = nil
	entity.Keywords = nil
	entity.Classification = core.Classification{}

	decoded, err := UnmarshalEntity(MarshalEntity(entity))
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(decoded.Citations) != 0 || len(decoded.Keywords) != 0 {
		t.Fatalf("expected empty collections, got %+v", decoded)
	}
}

func TestUnmarshalEntityTruncated(t *testing.T) {
	data := MarshalEntity(sampleEntity())
	_, err := UnmarshalEntity(data[:len(data)/2])
	if !errors.Is(err, ErrSerializationFailed) {
		t.Fatalf("expected ErrSerializationFailed, got %v", err)
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env := &Envelope{
		ETag:      "7ad9e1f0-6f0f-4f38-9b87-2b3c7d1c9a11",
		ExpiresAt: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Payload:   []byte("payload-bytes"),
	}

	decoded, err := UnmarshalEnvelope(MarshalEnvelope(env))
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.ETag != env.ETag {
		t.Fatalf("etag mismatch: got %q", decoded.ETag)
	}
	if !decoded.ExpiresAt.Equal(env.ExpiresAt) {
		t.Fatalf("expiry mismatch: got %v", decoded.ExpiresAt)
	}
	if string(decoded.Payload) != "payload-bytes" {
		t.Fatalf("payload mismatch: got %q", decoded.Payload)
	}
}

func TestEnvelopeZeroExpiry(t *testing.T) {
	env := &Envelope{ETag: "e1", Payload: []byte{1, 2, 3}}

	decoded, err := UnmarshalEnvelope(MarshalEnvelope(env))
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !decoded.ExpiresAt.IsZero() {
		t.Fatalf("expected zero expiry, got %v", decoded.ExpiresAt)
	}
}
