// Package glossary turns catalog search results for glossary terms, glossary
// nodes and term usages into flat warehouse rows.
package glossary

import "encoding/json"

// RawEntity is one entity exactly as the catalog returned it inside a search
// result. It is decoded lazily so that a malformed record only costs its own row.
type RawEntity = json.RawMessage

// Entity is the union view over every entity type the export reads.
//
// Only the fragments relevant to the concrete Type are populated; the rest stay
// nil. Glossary terms and nodes use Properties, ParentNodes, Domain and
// Ownership. Consumer entities (dashboards, datasets, charts, data jobs) use
// Properties, Platform, SubTypes, Container and Domain.
type Entity struct {
	URN              string       `json:"urn"`
	Type             string       `json:"type"`
	Name             *string      `json:"name"`
	HierarchicalName *string      `json:"hierarchicalName"`
	Properties       *Properties  `json:"properties"`
	ParentNodes      *ParentNodes `json:"parentNodes"`
	Domain           *DomainAssoc `json:"domain"`
	Ownership        *Ownership   `json:"ownership"`
	Platform         *Platform    `json:"platform"`
	SubTypes         *SubTypes    `json:"subTypes"`
	Container        *Container   `json:"container"`
}

type Properties struct {
	Name             *string          `json:"name"`
	Description      *string          `json:"description"`
	Definition       *string          `json:"definition"`
	TermSource       *string          `json:"termSource"`
	CustomProperties []CustomProperty `json:"customProperties"`
	CreatedOn        *AuditStamp      `json:"createdOn"`
}

type CustomProperty struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type AuditStamp struct {
	Time *int64 `json:"time"`
}

// ParentNodes lists the glossary nodes above an entity, root first.
type ParentNodes struct {
	Nodes []ParentNode `json:"nodes"`
}

type ParentNode struct {
	URN        *string     `json:"urn"`
	Properties *NamedProps `json:"properties"`
}

// NamedProps is the properties fragment of entities that are only ever read
// for their display name (parent nodes, domains, containers).
type NamedProps struct {
	Name *string `json:"name"`
}

// DomainAssoc is the association wrapper: entity.domain.domain.
type DomainAssoc struct {
	Domain *Domain `json:"domain"`
}

type Domain struct {
	URN        *string     `json:"urn"`
	Properties *NamedProps `json:"properties"`
}

type Ownership struct {
	Owners []OwnerAssoc `json:"owners"`
}

// OwnerAssoc pairs an owner (user or group) with the ownership type.
type OwnerAssoc struct {
	Owner *OwnerEntity `json:"owner"`
	Type  *string      `json:"type"`
}

// OwnerEntity covers both CorpUser (username) and CorpGroup (name).
type OwnerEntity struct {
	URN      *string `json:"urn"`
	Type     *string `json:"type"`
	Username *string `json:"username"`
	Name     *string `json:"name"`
}

type Platform struct {
	Name *string `json:"name"`
}

type SubTypes struct {
	TypeNames []string `json:"typeNames"`
}

type Container struct {
	URN        *string     `json:"urn"`
	Properties *NamedProps `json:"properties"`
}

// Owner is one flattened ownership entry of a GlossaryRow.
type Owner struct {
	URN      *string `json:"urn"`
	Username *string `json:"username"`
	Type     *string `json:"type"`
}

// GlossaryRow is one glossary term or node. URN is the natural key.
type GlossaryRow struct {
	URN              string
	Name             *string
	EntityType       string
	Description      *string
	ParentNodeURN    *string
	ParentNodeName   *string
	HierarchicalPath string
	DomainURN        *string
	DomainName       *string
	// CustomProperties is nil when the entity recorded none.
	CustomProperties map[string]string
	// Ownership is nil when no entry had an owner.
	Ownership []Owner
	// CreatedAt is epoch milliseconds as reported by the catalog.
	CreatedAt *int64
}

// UsageRow is one (glossary term, consuming entity) association.
// (GlossaryTermURN, EntityURN) is the natural key.
type UsageRow struct {
	GlossaryTermURN  string
	GlossaryTermName string
	EntityURN        string
	EntityName       *string
	EntityType       string
	EntitySubtype    *string
	Platform         *string
	ContainerURN     *string
	ContainerName    *string
	DomainURN        *string
	DomainName       *string
}

// UsageRecord is a consuming entity found for one glossary term.
type UsageRecord struct {
	GlossaryTermURN  string
	GlossaryTermName string
	Entity           RawEntity
}
