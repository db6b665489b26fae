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


package storage

import (
	"fmt"
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/caselode/lexbase/core"
)

// Envelope wraps a serialized entity with store-level metadata. The
// envelope, not the entity, carries the concurrency token and the soft
// delete expiry so that domain types stay free of storage concerns.
type Envelope struct {
	ETag      string
	ExpiresAt time.Time
	Payload   []byte
}

// MarshalEnvelope serializes an Envelope to bytes.
func MarshalEnvelope(env *Envelope) []byte {
	size := ord.String.Size(env.ETag) +
		sizeTime(env.ExpiresAt) +
		varint.Int.Size(len(env.Payload)) + len(env.Payload)

	bs := make([]byte, size)
	n := ord.String.Marshal(env.ETag, bs)
	n += marshalTime(env.ExpiresAt, bs[n:])
	n += varint.Int.Marshal(len(env.Payload), bs[n:])
	copy(bs[n:], env.Payload)
	return bs
}

// UnmarshalEnvelope deserializes an Envelope from bytes.
func UnmarshalEnvelope(bs []byte) (*Envelope, error) {
	env := &Envelope{}

	etag, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		return nil, fmt.Errorf("%w: envelope etag: %v", ErrSerializationFailed, err)
	}
	env.ETag = etag

	expiresAt, n1, err := unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return nil, fmt.Errorf("%w: envelope expiry: %v", ErrSerializationFailed, err)
	}
	env.ExpiresAt = expiresAt

	length, n1, err := varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return nil, fmt.Errorf("%w: envelope payload length: %v", ErrSerializationFailed, err)
	}
	if length < 0 || length > len(bs)-n {
		return nil, fmt.Errorf("%w: envelope payload", ErrTruncatedData)
	}
	env.Payload = make([]byte, length)
	copy(env.Payload, bs[n:n+length])
	return env, nil
}

// MarshalEntity serializes a KnowledgeEntity to bytes.
func MarshalEntity(entity *core.KnowledgeEntity) []byte {
	bs := make([]byte, sizeEntity(entity))
	marshalEntity(entity, bs)
	return bs
}

// UnmarshalEntity deserializes a KnowledgeEntity from bytes.
func UnmarshalEntity(bs []byte) (*core.KnowledgeEntity, error) {
	entity, _, err := unmarshalEntity(bs)
	if err != nil {
		return nil, fmt.Errorf("%w: knowledge entity: %v", ErrSerializationFailed, err)
	}
	return entity, nil
}

// EntityCodec implements Codec for KnowledgeEntity values.
type EntityCodec struct{}

var _ Codec[*core.KnowledgeEntity] = EntityCodec{}

func (EntityCodec) Marshal(entity *core.KnowledgeEntity) ([]byte, error) {
	if entity == nil {
		return nil, fmt.Errorf("%w: nil entity", ErrInvalid)
	}
	return MarshalEntity(entity), nil
}

func (EntityCodec) Unmarshal(data []byte) (*core.KnowledgeEntity, error) {
	return UnmarshalEntity(data)
}

// Hand-written MUS serializers. Field order is part of the stored format
// and must not change without a migration.

func sizeEntity(e *core.KnowledgeEntity) (size int) {
	size = ord.String.Size(e.TenantID)
	size += ord.String.Size(e.DocumentType)
	size += ord.String.Size(e.EntityID)
	size += ord.String.Size(e.Title)
	size += ord.String.Size(e.Body)
	size += ord.String.Size(string(e.ContentKind))
	size += sizeClassification(&e.Classification)
	size += varint.Int.Size(len(e.Citations))
	for i := range e.Citations {
		size += sizeCitation(&e.Citations[i])
	}
	size += ord.String.Size(string(e.SecurityLevel))
	size += sizeStringSlice(e.Keywords)
	size += ord.String.Size(e.SearchableText)
	size += sizeTime(e.IngestedAt)
	size += ord.String.Size(e.IngestedBy)
	size += ord.String.Size(e.SourceRef)
	size += varint.Uint64.Size(e.Version)
	return
}

func marshalEntity(e *core.KnowledgeEntity, bs []byte) (n int) {
	n = ord.String.Marshal(e.TenantID, bs)
	n += ord.String.Marshal(e.DocumentType, bs[n:])
	n += ord.String.Marshal(e.EntityID, bs[n:])
	n += ord.String.Marshal(e.Title, bs[n:])
	n += ord.String.Marshal(e.Body, bs[n:])
	n += ord.String.Marshal(string(e.ContentKind), bs[n:])
	n += marshalClassification(&e.Classification, bs[n:])
	n += varint.Int.Marshal(len(e.Citations), bs[n:])
	for i := range e.Citations {
		n += marshalCitation(&e.Citations[i], bs[n:])
	}
	n += ord.String.Marshal(string(e.SecurityLevel), bs[n:])
	n += marshalStringSlice(e.Keywords, bs[n:])
	n += ord.String.Marshal(e.SearchableText, bs[n:])
	n += marshalTime(e.IngestedAt, bs[n:])
	n += ord.String.Marshal(e.IngestedBy, bs[n:])
	n += ord.String.Marshal(e.SourceRef, bs[n:])
	n += varint.Uint64.Marshal(e.Version, bs[n:])
	return
}

func unmarshalEntity(bs []byte) (e *core.KnowledgeEntity, n int, err error) {
	e = &core.KnowledgeEntity{}
	var n1 int

	if e.TenantID, n1, err = ord.String.Unmarshal(bs); err != nil {
		return nil, n + n1, err
	}
	n += n1
	if e.DocumentType, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return nil, n + n1, err
	}
	n += n1
	if e.EntityID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return nil, n + n1, err
	}
	n += n1
	if e.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return nil, n + n1, err
	}
	n += n1
	if e.Body, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return nil, n + n1, err
	}
	n += n1

	var kind string
	if kind, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return nil, n + n1, err
	}
	n += n1
	e.ContentKind = core.ContentKind(kind)

	if n1, err = unmarshalClassification(&e.Classification, bs[n:]); err != nil {
		return nil, n + n1, err
	}
	n += n1

	var count int
	if count, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return nil, n + n1, err
	}
	n += n1
	if count < 0 || count > len(bs)-n {
		return nil, n, ErrTruncatedData
	}
	if count > 0 {
		e.Citations = make([]core.Citation, count)
		for i := range e.Citations {
			if n1, err = unmarshalCitation(&e.Citations[i], bs[n:]); err != nil {
				return nil, n + n1, err
			}
			n += n1
		}
	}

	var level string
	if level, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return nil, n + n1, err
	}
	n += n1
	e.SecurityLevel = core.SecurityLevel(level)

	if e.Keywords, n1, err = unmarshalStringSlice(bs[n:]); err != nil {
		return nil, n + n1, err
	}
	n += n1
	if e.SearchableText, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return nil, n + n1, err
	}
	n += n1
	if e.IngestedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return nil, n + n1, err
	}
	n += n1
	if e.IngestedBy, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return nil, n + n1, err
	}
	n += n1
	if e.SourceRef, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return nil, n + n1, err
	}
	n += n1
	if e.Version, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return nil, n + n1, err
	}
	n += n1
	return e, n, nil
}

func sizeClassification(c *core.Classification) (size int) {
	size = ord.Bool.Size(c.IsRelevant)
	size += sizeStringSlice(c.Categories)
	size += sizeStringSlice(c.AgentTypes)
	size += varint.Uint64.Size(math.Float64bits(c.Confidence))
	return
}

func marshalClassification(c *core.Classification, bs []byte) (n int) {
	n = ord.Bool.Marshal(c.IsRelevant, bs)
	n += marshalStringSlice(c.Categories, bs[n:])
	n += marshalStringSlice(c.AgentTypes, bs[n:])
	n += varint.Uint64.Marshal(math.Float64bits(c.Confidence), bs[n:])
	return
}

func unmarshalClassification(c *core.Classification, bs []byte) (n int, err error) {
	var n1 int
	if c.IsRelevant, n1, err = ord.Bool.Unmarshal(bs); err != nil {
		return n + n1, err
	}
	n += n1
	if c.Categories, n1, err = unmarshalStringSlice(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if c.AgentTypes, n1, err = unmarshalStringSlice(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1

	var bits uint64
	if bits, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	c.Confidence = math.Float64frombits(bits)
	return n, nil
}

func sizeCitation(c *core.Citation) int {
	return ord.String.Size(string(c.Kind)) +
		ord.String.Size(c.ReferenceText) +
		ord.Bool.Size(c.Verified)
}

func marshalCitation(c *core.Citation, bs []byte) (n int) {
	n = ord.String.Marshal(string(c.Kind), bs)
	n += ord.String.Marshal(c.ReferenceText, bs[n:])
	n += ord.Bool.Marshal(c.Verified, bs[n:])
	return
}

func unmarshalCitation(c *core.Citation, bs []byte) (n int, err error) {
	var (
		kind string
		n1   int
	)
	if kind, n1, err = ord.String.Unmarshal(bs); err != nil {
		return n + n1, err
	}
	n += n1
	c.Kind = core.CitationKind(kind)

	if c.ReferenceText, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if c.Verified, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	return n, nil
}

func sizeStringSlice(vs []string) (size int) {
	size = varint.Int.Size(len(vs))
	for _, v := range vs {
		size += ord.String.Size(v)
	}
	return
}

func marshalStringSlice(vs []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(vs), bs)
	for _, v := range vs {
		n += ord.String.Marshal(v, bs[n:])
	}
	return
}

func unmarshalStringSlice(bs []byte) (vs []string, n int, err error) {
	var count, n1 int
	if count, n1, err = varint.Int.Unmarshal(bs); err != nil {
		return nil, n + n1, err
	}
	n += n1
	if count < 0 || count > len(bs)-n {
		return nil, n, ErrTruncatedData
	}
	if count == 0 {
		return nil, n, nil
	}
	vs = make([]string, count)
	for i := range vs {
		if vs[i], n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return nil, n + n1, err
		}
		n += n1
	}
	return vs, n, nil
}

// Times are stored as UnixMicro. A zero time is stored as 0 so that
// "no expiry" survives round trips.
func sizeTime(t time.Time) int {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Size(micros)
}

func marshalTime(t time.Time, bs []byte) int {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Marshal(micros, bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || micros == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}
