package database

import (
	"database/sql"
	"testing"
)

func TestDecodeScores(t *testing.T) {
	scores := decodeScores(sql.NullString{String: `{"AAPL": 0.9, "MSFT": 0.4}`, Valid: true})
	if len(scores) != 2 {
		t.Fatalf("Expected 2 scores, got %d", len(scores))
	}
	if scores["AAPL"] != 0.9 {
		t.Errorf("Expected AAPL score 0.9, got %v", scores["AAPL"])
	}
}

func TestDecodeScores_MalformedDegradesToNil(t *testing.T) {
	if scores := decodeScores(sql.NullString{String: "{not json", Valid: true}); scores != nil {
		t.Errorf("Expected nil for malformed JSON, got %v", scores)
	}
	if scores := decodeScores(sql.NullString{}); scores != nil {
		t.Errorf("Expected nil for NULL column, got %v", scores)
	}
	if scores := decodeScores(sql.NullString{String: "", Valid: true}); scores != nil {
		t.Errorf("Expected nil for empty string, got %v", scores)
	}
}

func TestDecodeStringList(t *testing.T) {
	values := decodeStringList(sql.NullString{String: `["AAPL", "TSLA"]`, Valid: true})
	if len(values) != 2 || values[0] != "AAPL" || values[1] != "TSLA" {
		t.Errorf("Expected [AAPL TSLA], got %v", values)
	}
}

func TestDecodeStringList_MalformedDegradesToNil(t *testing.T) {
	if values := decodeStringList(sql.NullString{String: "[unclosed", Valid: true}); values != nil {
		t.Errorf("Expected nil for malformed JSON, got %v", values)
	}
	if values := decodeStringList(sql.NullString{}); values != nil {
		t.Errorf("Expected nil for NULL column, got %v", values)
	}
}
