// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package indradb

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/channel-evidence/pkg/types"
)

// agentRoles lists the statement fields that hold agents, in the order
// they are reported. A field holds either one agent object or a list.
var agentRoles = []string{
	"enz", "subj", "agent", "gef", "gap", "sub", "obj", "ras",
	"members", "obj_from", "obj_to",
}

type rawAgent struct {
	Name   string         `json:"name"`
	DBRefs map[string]any `json:"db_refs"`
}

// refs keeps the string-valued grounding entries.
func (a *rawAgent) refs() map[string]string {
	if len(a.DBRefs) == 0 {
		return nil
	}
	out := make(map[string]string, len(a.DBRefs))
	for ns, v := range a.DBRefs {
		if id, ok := v.(string); ok {
			out[ns] = id
		}
	}
	return out
}

type rawEvidence struct {
	SourceAPI  string      `json:"source_api"`
	PMID       string      `json:"pmid"`
	Text       string      `json:"text"`
	SourceHash json.Number `json:"source_hash"`
}

// Hashes are read as json.Number so that 64-bit values sent as bare JSON
// numbers keep every digit.
type rawStatement struct {
	Type        string        `json:"type"`
	MatchesHash json.Number   `json:"matches_hash"`
	Belief      float64       `json:"belief"`
	Evidence    []rawEvidence `json:"evidence"`
}

// decodeStatement converts one statement JSON object. key is the hash the
// response used for it, which stands in when matches_hash is absent.
func decodeStatement(key string, raw json.RawMessage) (*types.Statement, error) {
	var rs rawStatement
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("statement %s: %w", key, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("statement %s: %w", key, err)
	}

	stmt := &types.Statement{
		Type:   rs.Type,
		Hash:   rs.MatchesHash.String(),
		Belief: rs.Belief,
	}
	if stmt.Hash == "" {
		stmt.Hash = key
	}

	for _, role := range agentRoles {
		v, ok := fields[role]
		if !ok {
			continue
		}
		stmt.Agents = append(stmt.Agents, decodeAgents(role, v)...)
	}

	stmt.Evidence = make([]types.Evidence, 0, len(rs.Evidence))
	for _, e := range rs.Evidence {
		stmt.Evidence = append(stmt.Evidence, types.Evidence{
			SourceAPI:  e.SourceAPI,
			PMID:       e.PMID,
			Text:       e.Text,
			SourceHash: e.SourceHash.String(),
		})
	}
	return stmt, nil
}

// decodeAgents reads one agent or a list of agents. Null entries, which
// the database emits for unresolved participants, are skipped.
func decodeAgents(role string, v json.RawMessage) []types.Agent {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return nil
	}

	var list []*rawAgent
	if v[0] == '[' {
		if err := json.Unmarshal(v, &list); err != nil {
			return nil
		}
	} else {
		var one rawAgent
		if err := json.Unmarshal(v, &one); err != nil {
			return nil
		}
		list = []*rawAgent{&one}
	}

	var agents []types.Agent
	for _, a := range list {
		if a == nil || a.Name == "" {
			continue
		}
		agents = append(agents, types.Agent{Role: role, Name: a.Name, DBRefs: a.refs()})
	}
	return agents
}
