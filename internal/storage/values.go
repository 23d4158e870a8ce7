package storage

import (
	"encoding/json"
	"time"

	"glossaryexport/internal/glossary"
)

// GlossaryValues flattens rows into GlossaryTable insert order. JSON columns
// are marshalled to strings; an empty map or list becomes NULL. created_at is
// converted from epoch milliseconds to a UTC time.
func GlossaryValues(rows []glossary.GlossaryRow) ([][]any, error) {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		props, err := jsonValue(len(r.CustomProperties) > 0, r.CustomProperties)
		if err != nil {
			return nil, err
		}
		owners, err := jsonValue(len(r.Ownership) > 0, r.Ownership)
		if err != nil {
			return nil, err
		}
		out = append(out, []any{
			r.URN,
			str(r.Name),
			r.EntityType,
			str(r.Description),
			str(r.ParentNodeURN),
			str(r.ParentNodeName),
			r.HierarchicalPath,
			str(r.DomainURN),
			str(r.DomainName),
			props,
			owners,
			millis(r.CreatedAt),
		})
	}
	return out, nil
}

// UsageValues flattens rows into UsageTable insert order.
func UsageValues(rows []glossary.UsageRow) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, []any{
			r.GlossaryTermURN,
			r.GlossaryTermName,
			r.EntityURN,
			str(r.EntityName),
			r.EntityType,
			str(r.EntitySubtype),
			str(r.Platform),
			str(r.ContainerURN),
			str(r.ContainerName),
			str(r.DomainURN),
			str(r.DomainName),
		})
	}
	return out
}

func str(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func millis(ms *int64) any {
	if ms == nil {
		return nil
	}
	return time.UnixMilli(*ms).UTC()
}

func jsonValue(present bool, v any) (any, error) {
	if !present {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
