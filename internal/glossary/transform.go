package glossary

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"glossaryexport/internal/logging"
)

// Transformer maps raw catalog entities to rows.
//
// Both Transform methods fail soft: a record that cannot be decoded or that
// trips an unexpected shape is logged and dropped (nil), never returned as an
// error, so one bad record cannot stop an export.
type Transformer struct {
	logger *slog.Logger
}

// NewTransformer returns a Transformer that logs to logger. A nil logger
// discards output.
func NewTransformer(logger *slog.Logger) *Transformer {
	return &Transformer{logger: logging.OrDiscard(logger)}
}

// TransformEntity converts one glossary term or node into a GlossaryRow.
// It returns nil when the entity has no urn or cannot be transformed.
func (t *Transformer) TransformEntity(raw RawEntity) (row *GlossaryRow) {
	urn := ""
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("transform entity failed", "urn", urn, "err", fmt.Sprint(r))
			row = nil
		}
	}()

	var e Entity
	if err := json.Unmarshal(raw, &e); err != nil {
		t.logger.Error("transform entity failed", "urn", peekURN(raw), "err", err)
		return nil
	}
	urn = e.URN
	if urn == "" {
		t.logger.Warn("entity missing urn, skipping")
		return nil
	}

	props := e.Properties
	if props == nil {
		props = &Properties{}
	}

	var createdAt *int64
	if props.CreatedOn != nil {
		createdAt = props.CreatedOn.Time
	}

	parentURN, parentName := firstParent(e.ParentNodes)
	domainURN, domainName := domainFields(e.Domain)

	return &GlossaryRow{
		URN:              urn,
		Name:             props.Name,
		EntityType:       strings.ToLower(e.Type),
		Description:      coalesce(props.Description, props.Definition),
		ParentNodeURN:    parentURN,
		ParentNodeName:   parentName,
		HierarchicalPath: hierarchicalPath(&e, props.Name),
		DomainURN:        domainURN,
		DomainName:       domainName,
		CustomProperties: customPropertiesMap(props.CustomProperties),
		Ownership:        ownersList(e.Ownership),
		CreatedAt:        createdAt,
	}
}

// hierarchicalPath prefers the server-computed hierarchical name (terms only),
// then the path rebuilt from parent nodes, then the entity's own name.
func hierarchicalPath(e *Entity, name *string) string {
	return firstNonEmpty(
		deref(e.HierarchicalName),
		BuildHierarchicalPath(e.ParentNodes),
		deref(name),
	)
}

// TransformUsage converts one usage record into a UsageRow. It returns nil
// when the consuming entity has no urn, when the glossary term urn or name is
// missing, or when the record cannot be transformed.
func (t *Transformer) TransformUsage(rec UsageRecord) (row *UsageRow) {
	urn := ""
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("transform usage record failed",
				"urn", urn, "term_urn", rec.GlossaryTermURN, "err", fmt.Sprint(r))
			row = nil
		}
	}()

	var e Entity
	if len(rec.Entity) > 0 {
		if err := json.Unmarshal(rec.Entity, &e); err != nil {
			t.logger.Error("transform usage record failed",
				"urn", peekURN(rec.Entity), "term_urn", rec.GlossaryTermURN, "err", err)
			return nil
		}
	}
	urn = e.URN
	if urn == "" {
		t.logger.Warn("usage entity missing urn, skipping", "term_urn", rec.GlossaryTermURN)
		return nil
	}
	if rec.GlossaryTermURN == "" || rec.GlossaryTermName == "" {
		t.logger.Warn("usage record missing glossary term info, skipping", "urn", urn)
		return nil
	}

	var name *string
	if e.Properties != nil {
		name = e.Properties.Name
	}
	var platform *string
	if e.Platform != nil {
		platform = e.Platform.Name
	}
	containerURN, containerName := containerFields(e.Container)
	domainURN, domainName := domainFields(e.Domain)

	return &UsageRow{
		GlossaryTermURN:  rec.GlossaryTermURN,
		GlossaryTermName: rec.GlossaryTermName,
		EntityURN:        urn,
		EntityName:       name,
		EntityType:       strings.ToLower(e.Type),
		EntitySubtype:    firstSubtype(e.SubTypes),
		Platform:         platform,
		ContainerURN:     containerURN,
		ContainerName:    containerName,
		DomainURN:        domainURN,
		DomainName:       domainName,
	}
}

// TransformEntities transforms every entity and keeps the rows that survive.
func (t *Transformer) TransformEntities(raws []RawEntity) []GlossaryRow {
	rows := make([]GlossaryRow, 0, len(raws))
	for _, raw := range raws {
		if r := t.TransformEntity(raw); r != nil {
			rows = append(rows, *r)
		}
	}
	return rows
}

// TransformUsages transforms every usage record and keeps the rows that survive.
func (t *Transformer) TransformUsages(recs []UsageRecord) []UsageRow {
	rows := make([]UsageRow, 0, len(recs))
	for _, rec := range recs {
		if r := t.TransformUsage(rec); r != nil {
			rows = append(rows, *r)
		}
	}
	return rows
}

// peekURN pulls just the urn out of a record that failed to decode fully,
// so the failure can still be attributed. It returns "" when even that fails.
func peekURN(raw RawEntity) string {
	var probe struct {
		URN string `json:"urn"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return probe.URN
}
