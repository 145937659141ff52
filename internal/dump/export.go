package dump

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/mash-protocol/devlog/pkg/log/file"
)

// Export formats.
const (
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
	FormatCBOR  = "cbor"
)

// ErrUnknownFormat is returned for an unsupported export format.
var ErrUnknownFormat = errors.New("unknown export format")

// jsonRow is the JSON Lines shape of a row.
type jsonRow struct {
	Log       string `json:"log"`
	Index     uint32 `json:"index"`
	Timestamp int64  `json:"ts_us"`
	Time      string `json:"time,omitempty"`
	Module    string `json:"module"`
	Level     string `json:"level"`
	Text      string `json:"text"`
}

// Export writes rows to w in the given format. The cbor format produces a
// stream readable by file.Reader.
func Export(w io.Writer, rows []Row, format string) error {
	switch format {
	case FormatJSONL:
		return exportJSONL(w, rows)
	case FormatCSV:
		return exportCSV(w, rows)
	case FormatCBOR:
		return exportCBOR(w, rows)
	default:
		return errors.Wrapf(ErrUnknownFormat, "%s (supported: jsonl, csv, cbor)", format)
	}
}

func wallTime(r Row) string {
	h := r.Entry.Header
	if !h.WallClock() {
		return ""
	}
	return h.Time().Format("2006-01-02T15:04:05.000000Z")
}

func exportJSONL(w io.Writer, rows []Row) error {
	encoder := json.NewEncoder(w)
	for _, r := range rows {
		h := r.Entry.Header
		if err := encoder.Encode(jsonRow{
			Log:       r.Log,
			Index:     h.Index,
			Timestamp: h.Timestamp,
			Time:      wallTime(r),
			Module:    h.Module.String(),
			Level:     h.Level.String(),
			Text:      string(r.Entry.Payload),
		}); err != nil {
			return errors.Wrap(err, "encode row")
		}
	}
	return nil
}

func exportCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	header := []string{"log", "index", "ts_us", "time", "module", "level", "text"}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, r := range rows {
		h := r.Entry.Header
		row := []string{
			r.Log,
			strconv.FormatUint(uint64(h.Index), 10),
			strconv.FormatInt(h.Timestamp, 10),
			wallTime(r),
			h.Module.String(),
			h.Level.String(),
			string(r.Entry.Payload),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write row")
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportCBOR(w io.Writer, rows []Row) error {
	enc := file.NewEncoder(w)
	for _, r := range rows {
		h := r.Entry.Header
		rec := file.Record{
			Log:       r.Log,
			Timestamp: h.Timestamp,
			Index:     h.Index,
			Module:    h.Module,
			Level:     h.Level,
			Version:   h.Version,
			Payload:   r.Entry.Payload,
		}
		if err := enc.Encode(rec); err != nil {
			return errors.Wrap(err, "encode record")
		}
	}
	return nil
}
