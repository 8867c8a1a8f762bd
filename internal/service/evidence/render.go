package evidence

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/evidence"
	"github.com/blueharbor/maritime-risk-engine/internal/domain/values"
)

// renderSnapshot serializes a snapshot in the requested export format.
func renderSnapshot(snapshot evidence.Snapshot, format values.ExportFormat) ([]byte, error) {
	switch {
	case format.Equal(values.JSONFormat()):
		return json.MarshalIndent(snapshot, "", "  ")
	case format.Equal(values.CSVFormat()):
		return renderCSV(snapshot)
	default:
		return nil, errors.NewValidationError("UNSUPPORTED_FORMAT",
			fmt.Sprintf("no renderer for format %q", format))
	}
}

var csvHeader = []string{
	"event_id", "event_kind", "subject_vessel",
	"window_start", "window_end",
	"score", "tier",
	"chain_id", "chain_confidence",
	"sanctions_exposed", "owner_clusters",
}

// renderCSV flattens the snapshot into a single row. The chain column stays
// empty for an unresolved vessel.
func renderCSV(snapshot evidence.Snapshot) ([]byte, error) {
	event := snapshot.SourceEvent
	score := snapshot.Score

	chainID := ""
	if snapshot.Chain != nil {
		chainID = snapshot.Chain.ID.String()
	}

	row := []string{
		event.ID.String(),
		string(event.Kind),
		strconv.FormatInt(int64(event.Subject()), 10),
		event.Window.Start().Format(time.RFC3339),
		event.Window.End().Format(time.RFC3339),
		score.Score.String(),
		string(score.Tier),
		chainID,
		strconv.FormatFloat(score.ChainConfidence, 'f', -1, 64),
		strconv.FormatBool(score.SanctionsExposed),
		strconv.Itoa(len(snapshot.Clusters)),
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll([][]string{csvHeader, row}); err != nil {
		return nil, errors.Wrap(err, "render csv")
	}
	return buf.Bytes(), nil
}
