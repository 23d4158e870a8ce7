package glossary

import "strings"

// PathSeparator joins parent node names in a hierarchical path.
const PathSeparator = " > "

// BuildHierarchicalPath joins the names of the given parent nodes in list
// order, e.g. "Root > L1 > L2". Nodes without a name are skipped rather than
// replaced by a placeholder. It returns "" for nil input, an empty list, or a
// list in which no node has a name.
func BuildHierarchicalPath(parents *ParentNodes) string {
	if parents == nil || len(parents.Nodes) == 0 {
		return ""
	}

	parts := make([]string, 0, len(parents.Nodes))
	for _, n := range parents.Nodes {
		if name := nameOf(n.Properties); name != nil && *name != "" {
			parts = append(parts, *name)
		}
	}
	return strings.Join(parts, PathSeparator)
}

// firstNonEmpty returns the first candidate that is non-empty.
func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

// coalesce returns the first candidate holding a non-empty string. When none
// does, the last candidate is returned as is, so an explicit "" survives only
// if nothing after it is set.
func coalesce(candidates ...*string) *string {
	for _, c := range candidates {
		if c != nil && *c != "" {
			return c
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[len(candidates)-1]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nameOf(p *NamedProps) *string {
	if p == nil {
		return nil
	}
	return p.Name
}

// firstParent returns the urn and name of the immediate parent only.
// Later entries in the list never contribute to these two fields.
func firstParent(parents *ParentNodes) (urn, name *string) {
	if parents == nil || len(parents.Nodes) == 0 {
		return nil, nil
	}
	p := parents.Nodes[0]
	return p.URN, nameOf(p.Properties)
}

// domainFields unwraps domain.domain.{urn, properties.name}. A missing
// association or inner domain yields nil for both values.
func domainFields(d *DomainAssoc) (urn, name *string) {
	if d == nil || d.Domain == nil {
		return nil, nil
	}
	return d.Domain.URN, nameOf(d.Domain.Properties)
}

// containerFields unwraps container.{urn, properties.name}.
func containerFields(c *Container) (urn, name *string) {
	if c == nil {
		return nil, nil
	}
	return c.URN, nameOf(c.Properties)
}

// customPropertiesMap rebuilds the key/value list as a map. An absent or
// empty list gives nil, not an empty map.
func customPropertiesMap(props []CustomProperty) map[string]string {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]string, len(props))
	for _, p := range props {
		out[p.Key] = p.Value
	}
	return out
}

// ownersList flattens ownership entries in order. Entries without an owner
// are dropped entirely; groups have no username, so their name is used.
func ownersList(o *Ownership) []Owner {
	if o == nil {
		return nil
	}
	var out []Owner
	for _, assoc := range o.Owners {
		if assoc.Owner == nil {
			continue
		}
		out = append(out, Owner{
			URN:      assoc.Owner.URN,
			Username: coalesce(assoc.Owner.Username, assoc.Owner.Name),
			Type:     assoc.Type,
		})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// firstSubtype keeps only the first subtype name.
func firstSubtype(st *SubTypes) *string {
	if st == nil || len(st.TypeNames) == 0 {
		return nil
	}
	s := st.TypeNames[0]
	return &s
}
