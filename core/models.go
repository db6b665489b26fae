package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// DocumentTypeKnowledgeArticle is the partition category under which
// knowledge entities are stored. It is fixed for this document family.
const DocumentTypeKnowledgeArticle = "knowledge-article"

// Fingerprint generates a deterministic 64-bit content fingerprint using
// BLAKE2b hashing. Identical content always produces identical fingerprints,
// which keeps source references stable across re-ingestion runs.
func Fingerprint(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// ContentKind classifies what kind of legal content an entity carries.
type ContentKind string

const (
	ContentKindJurisprudence ContentKind = "jurisprudence"
	ContentKindRegulation    ContentKind = "regulation"
	ContentKindProcedure     ContentKind = "procedure"
	ContentKindGuidance      ContentKind = "guidance"
)

// CitationKind identifies the family a legal citation belongs to.
type CitationKind string

const (
	CitationKindStatute    CitationKind = "statute"
	CitationKindRegulation CitationKind = "regulation"
	CitationKindCaseLaw    CitationKind = "case-law"
)

// SecurityLevel is the access classification of an entity.
// SecurityLevelRestrictedB is the most restrictive level and is the
// default when the source does not explicitly declare a lower one.
type SecurityLevel string

const (
	SecurityLevelPublic      SecurityLevel = "public"
	SecurityLevelRestrictedA SecurityLevel = "restricted-a"
	SecurityLevelRestrictedB SecurityLevel = "restricted-b"
)

// RawRecord is one source-shaped record as handed over by a parser.
// Fields are loosely typed; anything may be missing. RawRecords are
// ephemeral and exist only inside the ingestion pipeline.
type RawRecord struct {
	ID             string
	Title          string
	Body           string
	Jurisdiction   string
	Date           string
	Classification string
}

// Citation is a single typed legal reference extracted from body text.
// Verified is always false at ingestion time; verification is performed
// by an external collaborator.
type Citation struct {
	Kind          CitationKind
	ReferenceText string
	Verified      bool
}

// Classification is the output of the rule-based relevance classifier.
// Categories and AgentTypes are deduplicated sets kept in match order.
type Classification struct {
	IsRelevant bool
	Categories []string
	AgentTypes []string
	Confidence float64
}

// KnowledgeEntity is the canonical persisted unit of knowledge.
//
// TenantID, DocumentType and EntityID together form the hierarchical
// storage key and are immutable after creation. Version is assigned by the
// store and increments on every upsert of the same EntityID.
type KnowledgeEntity struct {
	TenantID     string
	DocumentType string
	EntityID     string

	Title       string
	Body        string
	ContentKind ContentKind

	Classification Classification
	Citations      []Citation
	SecurityLevel  SecurityLevel

	// Search support, derived at build time.
	Keywords       []string
	SearchableText string

	// Audit metadata.
	IngestedAt time.Time
	IngestedBy string
	SourceRef  string
	Version    uint64
}

// EntityKey returns the three levels of the entity's hierarchical key.
func (e *KnowledgeEntity) EntityKey() (tenantID, category, itemID string) {
	return e.TenantID, e.DocumentType, e.EntityID
}

// EntityVersion returns the stored version of the entity.
func (e *KnowledgeEntity) EntityVersion() uint64 { return e.Version }

// SetEntityVersion records the version assigned by the store.
func (e *KnowledgeEntity) SetEntityVersion(v uint64) { e.Version = v }

// String returns a compact human-readable identity for logging.
func (e *KnowledgeEntity) String() string {
	return fmt.Sprintf("%s/%s/%s@v%d", e.TenantID, e.DocumentType, e.EntityID, e.Version)
}
