package catalog

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Query is one fixed GraphQL document together with the top-level field of
// the response that holds {total, searchResults[].entity}.
type Query struct {
	// Operation is the operation name declared in Document.
	Operation  string
	Document   string
	ResultPath string
}

const ownersFragment = `
        ownership {
          owners {
            owner {
              ... on CorpUser { urn type username }
              ... on CorpGroup { urn type name }
            }
            type
          }
        }`

const domainFragment = `
        domain {
          domain {
            urn
            properties { name }
          }
        }`

const parentNodesFragment = `
        parentNodes {
          nodes {
            urn
            properties { name }
          }
        }`

// consumerFields is the common superset read from every consuming entity type.
const consumerFields = `
        properties { name description }
        platform { name }
        subTypes { typeNames }
        container {
          urn
          properties { name }
        }` + domainFragment

// TermsQuery searches glossary terms. Variables: input{type, query, start, count}.
var TermsQuery = Query{
	Operation:  "searchGlossaryTerms",
	ResultPath: "search",
	Document: `query searchGlossaryTerms($input: SearchInput!) {
  search(input: $input) {
    start
    count
    total
    searchResults {
      entity {
        urn
        type
        ... on GlossaryTerm {
          name
          hierarchicalName
          properties {
            name
            description
            definition
            termSource
            customProperties { key value }
            createdOn { time }
          }` + parentNodesFragment + domainFragment + ownersFragment + `
        }
      }
    }
  }
}`,
}

// NodesQuery searches glossary nodes. Nodes carry no hierarchicalName and no
// domain, so neither is requested.
var NodesQuery = Query{
	Operation:  "searchGlossaryNodes",
	ResultPath: "search",
	Document: `query searchGlossaryNodes($input: SearchInput!) {
  search(input: $input) {
    start
    count
    total
    searchResults {
      entity {
        urn
        type
        ... on GlossaryNode {
          properties {
            name
            description
            customProperties { key value }
            createdOn { time }
          }` + parentNodesFragment + ownersFragment + `
        }
      }
    }
  }
}`,
}

// UsageQuery searches entities of the given types tagged with one glossary
// term. Variables: input{types, query, start, count, filters}.
var UsageQuery = Query{
	Operation:  "getRelatedEntities",
	ResultPath: "searchAcrossEntities",
	Document: `query getRelatedEntities($input: SearchAcrossEntitiesInput!) {
  searchAcrossEntities(input: $input) {
    start
    count
    total
    searchResults {
      entity {
        urn
        type
        ... on Dataset {` + consumerFields + `
        }
        ... on Dashboard {` + consumerFields + `
        }
        ... on Chart {` + consumerFields + `
        }
        ... on DataJob {
          properties { name description }` + domainFragment + `
        }
      }
    }
  }
}`,
}

// Queries lists every document the export sends.
func Queries() []Query {
	return []Query{TermsQuery, NodesQuery, UsageQuery}
}

// ValidateQueries parses every document and checks that it declares exactly
// the expected operation. It needs no server and catches edits that would
// otherwise only fail at runtime.
func ValidateQueries() error {
	for _, q := range Queries() {
		if err := validateQuery(q); err != nil {
			return err
		}
	}
	return nil
}

func validateQuery(q Query) error {
	doc, err := parser.ParseQuery(&ast.Source{Name: q.Operation, Input: q.Document})
	if err != nil {
		return fmt.Errorf("catalog: parse %s: %w", q.Operation, err)
	}
	if len(doc.Operations) != 1 {
		return fmt.Errorf("catalog: %s: expected 1 operation, got %d", q.Operation, len(doc.Operations))
	}
	op := doc.Operations[0]
	if op.Name != q.Operation {
		return fmt.Errorf("catalog: %s: operation is named %q", q.Operation, op.Name)
	}
	if len(op.SelectionSet) != 1 {
		return fmt.Errorf("catalog: %s: expected a single root field", q.Operation)
	}
	if f, ok := op.SelectionSet[0].(*ast.Field); !ok || f.Name != q.ResultPath {
		return fmt.Errorf("catalog: %s: root field does not match result path %q", q.Operation, q.ResultPath)
	}
	return nil
}
