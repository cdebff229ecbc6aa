package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/homefleet/fleetd/internal/errors"
)

// reportSchema validates incoming fleet health documents before they are
// trusted. Hosts run arbitrary reporting scripts, so the daemon treats
// their payloads as untrusted input.
const reportSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["host", "reported_at"],
  "properties": {
    "host": {"type": "string", "minLength": 1},
    "uptime": {"type": "string"},
    "net": {"type": "string"},
    "docker": {"type": "string"},
    "reported_at": {"type": "string", "format": "date-time"}
  },
  "additionalProperties": false
}`

// ParseReport validates raw JSON against the report schema and decodes it.
func ParseReport(data []byte) (Report, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(reportSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %w", errors.ErrReportInvalid, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return Report{}, fmt.Errorf("%w: %s", errors.ErrReportInvalid, strings.Join(details, "; "))
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return Report{}, fmt.Errorf("%w: %w", errors.ErrReportInvalid, err)
	}

	return report, nil
}
