package badger

import (
	"github.com/caselode/lexbase/core"
	"github.com/caselode/lexbase/storage"
)

// EntityRepository stores knowledge entities.
type EntityRepository = Repository[*core.KnowledgeEntity]

var _ storage.Repository[*core.KnowledgeEntity] = (*EntityRepository)(nil)

// NewEntityRepository creates a knowledge entity repository on a backend.
func NewEntityRepository(backend *Backend, opts ...Option[*core.KnowledgeEntity]) (*EntityRepository, error) {
	return NewRepository[*core.KnowledgeEntity](backend, storage.EntityCodec{}, opts...)
}
