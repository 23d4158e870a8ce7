package catalog

import (
	"encoding/json"
	"fmt"
)

// Page is one decoded page of search results.
type Page struct {
	Start int
	Count int
	Total int
	// Results counts searchResults as returned, null entities included.
	Results int
	// Entities holds each non-empty searchResults[].entity, in order.
	Entities []json.RawMessage
}

type searchPage struct {
	Start         int `json:"start"`
	Count         int `json:"count"`
	Total         int `json:"total"`
	SearchResults []struct {
		Entity json.RawMessage `json:"entity"`
	} `json:"searchResults"`
}

// DecodePage reads data[resultPath] as a search page. A missing or null
// result object decodes to an empty page.
func DecodePage(data json.RawMessage, resultPath string) (Page, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return Page{}, fmt.Errorf("catalog: decode data: %w", err)
	}

	raw, ok := root[resultPath]
	if !ok || isNull(raw) {
		return Page{}, nil
	}

	var sp searchPage
	if err := json.Unmarshal(raw, &sp); err != nil {
		return Page{}, fmt.Errorf("catalog: decode %s: %w", resultPath, err)
	}

	p := Page{Start: sp.Start, Count: sp.Count, Total: sp.Total, Results: len(sp.SearchResults)}
	for _, r := range sp.SearchResults {
		if isNull(r.Entity) || isEmptyObject(r.Entity) {
			continue
		}
		p.Entities = append(p.Entities, r.Entity)
	}
	return p, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func isEmptyObject(raw json.RawMessage) bool {
	var m map[string]json.RawMessage
	return json.Unmarshal(raw, &m) == nil && len(m) == 0
}
