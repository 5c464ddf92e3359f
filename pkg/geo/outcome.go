// Package geo defines the entity, outcome and result map types shared by the
// fetcher, the retry loop and the output stores.
package geo

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Entity is a place name to be geocoded, e.g. "Paris, France".
type Entity = string

// Kind identifies the active case of an Outcome.
type Kind int

const (
	// KindSuccess means the service returned at least one candidate.
	KindSuccess Kind = iota + 1

	// KindNotFound means the query succeeded but matched nothing.
	KindNotFound

	// KindError is a terminal failure, see Outcome.Reason.
	KindError
)

// String returns the lowercase label used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindNotFound:
		return "not_found"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Reasons recorded on error outcomes that are not HTTP statuses.
const (
	ReasonExhausted = "Failed after multiple attempts"
)

// Outcome is the per-entity result of a fetch. Exactly one case is active,
// selected by Kind. Coordinates are kept verbatim as the service sent them.
type Outcome struct {
	Kind      Kind
	Latitude  string
	Longitude string
	Reason    string
}

// Success returns an outcome carrying the first candidate's coordinates.
func Success(lat, lon string) Outcome {
	return Outcome{Kind: KindSuccess, Latitude: lat, Longitude: lon}
}

// NotFound returns the outcome for a query with zero candidates.
func NotFound() Outcome {
	return Outcome{Kind: KindNotFound}
}

// Failure returns a terminal error outcome.
func Failure(reason string) Outcome {
	return Outcome{Kind: KindError, Reason: reason}
}

// HTTPFailure returns the error outcome for a non-retried HTTP status.
func HTTPFailure(status int) Outcome {
	return Failure(fmt.Sprintf("HTTP %d", status))
}

// Valid reports whether exactly one case is populated.
func (o Outcome) Valid() bool {
	switch o.Kind {
	case KindSuccess:
		return o.Reason == ""
	case KindNotFound:
		return o.Latitude == "" && o.Longitude == "" && o.Reason == ""
	case KindError:
		return o.Reason != "" && o.Latitude == "" && o.Longitude == ""
	default:
		return false
	}
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindSuccess:
		return fmt.Sprintf("(%s, %s)", o.Latitude, o.Longitude)
	case KindNotFound:
		return "not found"
	case KindError:
		return "error: " + o.Reason
	default:
		return "invalid outcome"
	}
}

type coordinatesJSON struct {
	Latitude  *string `json:"latitude"`
	Longitude *string `json:"longitude"`
}

type errorJSON struct {
	Error string `json:"error"`
}

// MarshalJSON encodes the outcome in the coordinates document format:
//
//	{"latitude": "48.8566", "longitude": "2.3522"}
//	{"latitude": null, "longitude": null}
//	{"error": "HTTP 500"}
func (o Outcome) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case KindSuccess:
		lat, lon := o.Latitude, o.Longitude
		return json.Marshal(coordinatesJSON{Latitude: &lat, Longitude: &lon})
	case KindNotFound:
		return json.Marshal(coordinatesJSON{})
	case KindError:
		return json.Marshal(errorJSON{Error: o.Reason})
	default:
		return nil, fmt.Errorf("marshal outcome: unknown kind %d", o.Kind)
	}
}

// UnmarshalJSON accepts the three shapes produced by MarshalJSON.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("unmarshal outcome: %w", err)
	}

	if raw, ok := fields["error"]; ok {
		var e string
		if err := json.Unmarshal(raw, &e); err != nil {
			return fmt.Errorf("unmarshal outcome error: %w", err)
		}
		*o = Failure(e)
		return nil
	}

	var c coordinatesJSON
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&c); err != nil {
		return fmt.Errorf("unmarshal outcome coordinates: %w", err)
	}
	if c.Latitude == nil || c.Longitude == nil {
		*o = NotFound()
		return nil
	}
	*o = Success(*c.Latitude, *c.Longitude)
	return nil
}
