package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"memory-graph-mcp/internal/models"
	kgerrors "memory-graph-mcp/pkg/errors"
)

// Record kind discriminators, carried in each line's "type" field.
const (
	recordEntity         = "entity"
	recordRelation       = "relation"
	recordTypeDefinition = "typeDefinition"
)

type entityRecord struct {
	Type string `json:"type"`
	models.Entity
}

type relationRecord struct {
	Type string `json:"type"`
	models.Relation
}

type typeDefinitionRecord struct {
	Type string `json:"type"`
	models.TypeDefinition
}

// graphData is the in-memory form of the store: the full aggregate, loaded
// fresh for every call.
type graphData struct {
	Entities  []models.Entity
	Relations []models.Relation
	Types     []models.TypeDefinition
}

// decodeRecords parses the newline-delimited JSON store. Blank lines are
// skipped; any line that does not parse as one of the three record kinds
// fails the whole load with StorageCorruptError.
func decodeRecords(data []byte) (*graphData, error) {
	g := &graphData{}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			return nil, &kgerrors.StorageCorruptError{Line: lineNo, Err: err}
		}

		switch probe.Type {
		case recordEntity:
			var rec entityRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return nil, &kgerrors.StorageCorruptError{Line: lineNo, Err: err}
			}
			g.Entities = append(g.Entities, rec.Entity)
		case recordRelation:
			var rec relationRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return nil, &kgerrors.StorageCorruptError{Line: lineNo, Err: err}
			}
			g.Relations = append(g.Relations, rec.Relation)
		case recordTypeDefinition:
			var rec typeDefinitionRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return nil, &kgerrors.StorageCorruptError{Line: lineNo, Err: err}
			}
			g.Types = append(g.Types, rec.TypeDefinition)
		default:
			return nil, &kgerrors.StorageCorruptError{
				Line: lineNo,
				Err:  fmt.Errorf("unknown record type %q", probe.Type),
			}
		}
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			// The scanner stops on the line after the last one it returned.
			return nil, &kgerrors.StorageCorruptError{Line: lineNo + 1, Err: err}
		}
		return nil, fmt.Errorf("scan store: %w", err)
	}
	return g, nil
}

// encodeRecords serializes the aggregate back to JSONL. Within each record
// kind insertion order is preserved; relation order determines which of two
// duplicate triples counts as the first occurrence.
func encodeRecords(g *graphData) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	for _, e := range g.Entities {
		if err := enc.Encode(entityRecord{Type: recordEntity, Entity: e}); err != nil {
			return nil, fmt.Errorf("encode entity %q: %w", e.Name, err)
		}
	}
	for _, r := range g.Relations {
		if err := enc.Encode(relationRecord{Type: recordRelation, Relation: r}); err != nil {
			return nil, fmt.Errorf("encode relation %s->%s: %w", r.From, r.To, err)
		}
	}
	for _, td := range g.Types {
		if err := enc.Encode(typeDefinitionRecord{Type: recordTypeDefinition, TypeDefinition: td}); err != nil {
			return nil, fmt.Errorf("encode type definition %q: %w", td.Name, err)
		}
	}
	return buf.Bytes(), nil
}
