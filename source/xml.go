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


package source

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/caselode/lexbase/core"
	"github.com/caselode/lexbase/ingestion"
)

// XMLParser parses knowledge article XML exports. Articles may appear
// as <article> or <item> elements; the id may be an attribute or a
// child element. Everything is optional; validation happens later in
// the canonicalizer.
type XMLParser struct{}

var _ ingestion.RecordParser = XMLParser{}

type xmlArticle struct {
	IDAttr         string `xml:"id,attr"`
	IDElem         string `xml:"id"`
	Title          string `xml:"title"`
	Body           string `xml:"body"`
	Content        string `xml:"content"`
	Jurisdiction   string `xml:"jurisdiction"`
	Date           string `xml:"date"`
	Classification string `xml:"classification"`
}

type xmlDocument struct {
	Articles []xmlArticle `xml:"article"`
	Items    []xmlArticle `xml:"item"`
}

// Parse converts one XML document into raw records. A document with no
// recognized elements yields an empty slice, not an error.
func (XMLParser) Parse(data []byte) ([]*core.RawRecord, error) {
	var doc xmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding xml: %w", err)
	}

	records := make([]*core.RawRecord, 0, len(doc.Articles)+len(doc.Items))
	for _, article := range doc.Articles {
		records = append(records, article.toRecord())
	}
	for _, item := range doc.Items {
		records = append(records, item.toRecord())
	}
	return records, nil
}

func (a xmlArticle) toRecord() *core.RawRecord {
	id := a.IDAttr
	if id == "" {
		id = strings.TrimSpace(a.IDElem)
	}

	body := a.Body
	if strings.TrimSpace(body) == "" {
		body = a.Content
	}

	return &core.RawRecord{
		ID:             id,
		Title:          a.Title,
		Body:           body,
		Jurisdiction:   a.Jurisdiction,
		Date:           a.Date,
		Classification: a.Classification,
	}
}
