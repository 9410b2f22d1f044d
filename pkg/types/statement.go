// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the channel-evidence pipeline.
// Implements: target selection (GeneRecord), statement retrieval
// (Statement, Evidence, SourceCounts) and the per-gene result mapping
// (GeneStatements, ResultSet).
//
// See docs/ARCHITECTURE.md § Data Structures.
package types

// Evidence is one extraction or citation supporting a Statement, tagged
// with the reader or database it came from.
type Evidence struct {
	// SourceAPI names the originating source (e.g. "reach", "sparser", "medscan").
	SourceAPI string `json:"source_api" yaml:"source_api"`

	// PMID is the PubMed identifier of the supporting article, if known.
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	// Text is the sentence the evidence was extracted from.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// SourceHash identifies the evidence item within the database.
	SourceHash string `json:"source_hash,omitempty" yaml:"source_hash,omitempty"`
}

// Agent is one participant of a Statement.
type Agent struct {
	// Role is the statement field the agent was found under (e.g. "enz", "subj").
	Role string `json:"role" yaml:"role"`

	// Name is the agent's display name, usually an HGNC gene symbol.
	Name string `json:"name" yaml:"name"`

	// DBRefs maps namespaces to identifiers (e.g. "HGNC" → "6218").
	DBRefs map[string]string `json:"db_refs,omitempty" yaml:"db_refs,omitempty"`
}

// Statement asserts a relationship between biological entities and carries
// the evidence backing it.
type Statement struct {
	// Type is the statement class (e.g. "Phosphorylation", "Complex").
	Type string `json:"type" yaml:"type"`

	// Hash is the content-derived matches hash, as a decimal string.
	Hash string `json:"matches_hash" yaml:"matches_hash"`

	// Belief is the database's belief score between 0.0 and 1.0.
	Belief float64 `json:"belief" yaml:"belief"`

	Agents   []Agent    `json:"agents" yaml:"agents"`
	Evidence []Evidence `json:"evidence" yaml:"evidence"`
}

// AgentNames returns the agent names in statement order.
func (s *Statement) AgentNames() []string {
	names := make([]string, 0, len(s.Agents))
	for _, a := range s.Agents {
		names = append(names, a.Name)
	}
	return names
}

// Clone returns a deep copy of the statement.
func (s *Statement) Clone() *Statement {
	c := *s
	c.Agents = make([]Agent, len(s.Agents))
	for i, a := range s.Agents {
		c.Agents[i] = a
		if a.DBRefs != nil {
			refs := make(map[string]string, len(a.DBRefs))
			for k, v := range a.DBRefs {
				refs[k] = v
			}
			c.Agents[i].DBRefs = refs
		}
	}
	c.Evidence = append([]Evidence(nil), s.Evidence...)
	return &c
}

// SourceCounts maps a statement hash to the number of evidence items per
// source, as tallied by the database over the full evidence set.
type SourceCounts map[string]map[string]int

// Subset returns the entries for the given statements' hashes.
func (sc SourceCounts) Subset(stmts []*Statement) SourceCounts {
	out := make(SourceCounts, len(stmts))
	for _, s := range stmts {
		if c, ok := sc[s.Hash]; ok {
			out[s.Hash] = c
		}
	}
	return out
}

// Sources returns the total evidence count per source across all entries.
func (sc SourceCounts) Sources() map[string]int {
	totals := make(map[string]int)
	for _, bySource := range sc {
		for src, n := range bySource {
			totals[src] += n
		}
	}
	return totals
}
