package lpr

import (
	"fmt"
	"strings"
)

// DefaultSeparator is the field separator of the camera firmware
// contract. It is configurable because deployed firmware revisions
// differ; the agent reproduces whatever is configured.
const DefaultSeparator = "|"

// Record is one parsed license-plate message.
type Record struct {
	Camera        string
	Plate         string
	TransactionID string
	ImagePath     string
}

// ParseRecord splits a frame payload into a Record. The first two
// fields (camera type, plate) are mandatory; transaction id and image
// path may be absent on older firmware.
func ParseRecord(frame []byte, sep string) (Record, error) {
	fields := strings.Split(string(frame), sep)
	if len(fields) < 2 {
		return Record{}, fmt.Errorf("record has %d field(s), want at least 2", len(fields))
	}
	if fields[0] == "" || fields[1] == "" {
		return Record{}, fmt.Errorf("record has empty camera type or plate")
	}

	rec := Record{
		Camera: fields[0],
		Plate:  fields[1],
	}
	if len(fields) > 2 {
		rec.TransactionID = fields[2]
	}
	if len(fields) > 3 {
		rec.ImagePath = fields[3]
	}
	return rec, nil
}

// Serialize renders the record back into its wire field layout. This is
// the string payload carried by the LprReceived event.
func (r Record) Serialize(sep string) string {
	return strings.Join([]string{r.Camera, r.Plate, r.TransactionID, r.ImagePath}, sep)
}
