package storage

import (
	"errors"
	"strings"
	"testing"

	kgerrors "memory-graph-mcp/pkg/errors"
)

func TestDecodeRecordsMixedKinds(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"entity","id":"e1","name":"Go","entityType":"technology","observations":["compiled"]}`,
		``,
		`{"type":"relation","id":"r1","from":"Go","to":"SQLite","relationType":"uses"}`,
		`{"type":"typeDefinition","id":"t1","name":"technology","objectType":"entityType","description":"tools"}`,
	}, "\n")

	g, err := decodeRecords([]byte(input))
	if err != nil {
		t.Fatalf("decodeRecords: %v", err)
	}
	if len(g.Entities) != 1 || g.Entities[0].Name != "Go" || g.Entities[0].Observations[0] != "compiled" {
		t.Errorf("Entities = %+v", g.Entities)
	}
	if len(g.Relations) != 1 || g.Relations[0].RelationType != "uses" {
		t.Errorf("Relations = %+v", g.Relations)
	}
	if len(g.Types) != 1 || g.Types[0].ObjectType != "entityType" {
		t.Errorf("Types = %+v", g.Types)
	}
}

func TestDecodeRecordsUnknownKind(t *testing.T) {
	_, err := decodeRecords([]byte(`{"type":"widget","name":"x"}`))
	var corrupt *kgerrors.StorageCorruptError
	if !errors.As(err, &corrupt) {
		t.Fatalf("Expected StorageCorruptError, got %v", err)
	}
	if corrupt.Line != 1 {
		t.Errorf("Line = %d, want 1", corrupt.Line)
	}
}

func TestDecodeRecordsBadJSONReportsLine(t *testing.T) {
	input := "{\"type\":\"entity\",\"name\":\"A\"}\n\n{broken\n"
	_, err := decodeRecords([]byte(input))
	var corrupt *kgerrors.StorageCorruptError
	if !errors.As(err, &corrupt) {
		t.Fatalf("Expected StorageCorruptError, got %v", err)
	}
	if corrupt.Line != 3 {
		t.Errorf("Line = %d, want 3", corrupt.Line)
	}
}

func TestDecodeRecordsOversizedLineIsCorruption(t *testing.T) {
	// A single record above the scanner's line cap is corruption like any
	// other unparseable line, with the offending line number attached.
	huge := `{"type":"entity","id":"e1","name":"A","entityType":"Person","observations":["` +
		strings.Repeat("x", 5*1024*1024) + `"]}`
	input := `{"type":"entity","id":"e0","name":"Ok","entityType":"Person","observations":[]}` + "\n" + huge

	_, err := decodeRecords([]byte(input))
	var corrupt *kgerrors.StorageCorruptError
	if !errors.As(err, &corrupt) {
		t.Fatalf("Expected StorageCorruptError, got %v", err)
	}
	if corrupt.Line != 2 {
		t.Errorf("Line = %d, want 2", corrupt.Line)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := "{\"type\":\"entity\",\"id\":\"e1\",\"name\":\"A\",\"entityType\":\"Person\",\"observations\":[]}\n" +
		"{\"type\":\"entity\",\"id\":\"e2\",\"name\":\"B\",\"entityType\":\"Person\",\"observations\":[\"x\"]}\n" +
		"{\"type\":\"relation\",\"id\":\"r1\",\"from\":\"A\",\"to\":\"B\",\"relationType\":\"knows\"}\n"

	g, err := decodeRecords([]byte(original))
	if err != nil {
		t.Fatalf("decodeRecords: %v", err)
	}
	encoded, err := encodeRecords(g)
	if err != nil {
		t.Fatalf("encodeRecords: %v", err)
	}
	again, err := decodeRecords(encoded)
	if err != nil {
		t.Fatalf("decodeRecords (round trip): %v", err)
	}
	if len(again.Entities) != 2 || len(again.Relations) != 1 {
		t.Fatalf("Round trip lost records: %d entities, %d relations", len(again.Entities), len(again.Relations))
	}
	// Insertion order within each kind survives the round trip.
	if again.Entities[0].Name != "A" || again.Entities[1].Name != "B" {
		t.Errorf("Entity order = %q, %q", again.Entities[0].Name, again.Entities[1].Name)
	}
}

func TestDecodeRecordsEmptyInput(t *testing.T) {
	g, err := decodeRecords(nil)
	if err != nil {
		t.Fatalf("decodeRecords: %v", err)
	}
	if len(g.Entities) != 0 || len(g.Relations) != 0 || len(g.Types) != 0 {
		t.Errorf("Expected empty graph, got %+v", g)
	}
}
