package core

import "testing"

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("Employment Insurance Act, s. 29")
	b := Fingerprint("Employment Insurance Act, s. 29")
	if a != b {
		t.Fatalf("identical content produced different fingerprints: %d != %d", a, b)
	}
}

func TestFingerprintDistinct(t *testing.T) {
	a := Fingerprint("Employment Insurance Act, s. 29")
	b := Fingerprint("Employment Insurance Act, s. 30")
	if a == b {
		t.Fatalf("distinct content produced the same fingerprint: %d", a)
	}
}

func TestEntityKey(t *testing.T) {
	entity := &KnowledgeEntity{
		TenantID:     "government-canada",
		DocumentType: DocumentTypeKnowledgeArticle,
		EntityID:     "ka-001",
	}
	tenant, category, item := entity.EntityKey()
	if tenant != "government-canada" || category != DocumentTypeKnowledgeArticle || item != "ka-001" {
		t.Fatalf("unexpected key parts: %s/%s/%s", tenant, category, item)
	}
}

func TestEntityVersionRoundTrip(t *testing.T) {
	entity := &KnowledgeEntity{}
	if entity.EntityVersion() != 0 {
		t.Fatalf("expected zero version, got %d", entity.EntityVersion())
	}
	entity.SetEntityVersion(7)
	if entity.EntityVersion() != 7 {
		t.Fatalf("expected version 7, got %d", entity.EntityVersion())
	}
}
