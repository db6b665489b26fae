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


// Package search provides tenant-scoped keyword search over ingested
// knowledge entities.
//
// The Searcher scans one sub-partition at a time, matching documents
// whose derived searchable text contains every query word after
// stop-word filtering, and ranks hits by keyword overlap with the
// query plus classifier confidence.
package search
