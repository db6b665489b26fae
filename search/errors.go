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


package search

import "errors"

var (
	// ErrRepositoryRequired is returned when an entity repository is not provided.
	ErrRepositoryRequired = errors.New("entity repository required")

	// ErrTenantRequired is returned when a search is not scoped to a tenant.
	ErrTenantRequired = errors.New("tenant id required")

	// ErrEmptyQuery is returned when the query contains no searchable words.
	ErrEmptyQuery = errors.New("query has no searchable words")
)
