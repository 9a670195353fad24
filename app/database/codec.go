package database

import (
	"database/sql"
	"encoding/json"
	"log/slog"
)

// The relevance-score map and matched-ticker/sector/holding sets are stored
// as serialized JSON text. Decoding is an explicit codec step: malformed
// JSON degrades to an empty map/set with a log line, never an error raised
// to read callers.

func decodeScores(raw sql.NullString) map[string]float64 {
	if !raw.Valid || raw.String == "" {
		return nil
	}

	var scores map[string]float64
	if err := json.Unmarshal([]byte(raw.String), &scores); err != nil {
		slog.Warn("Malformed relevance scores JSON, ignoring", "error", err)
		return nil
	}

	return scores
}

func decodeStringList(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}

	var values []string
	if err := json.Unmarshal([]byte(raw.String), &values); err != nil {
		slog.Warn("Malformed string list JSON, ignoring", "error", err)
		return nil
	}

	return values
}
