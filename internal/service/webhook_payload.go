package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"greengate-back/internal/model"
)

const (
	noCaption          = "No caption"
	unknownValue       = "Unknown"
	unknownMessageType = "Unknown message type"
)

var jsonNull = []byte("null")

// rawList splits an optional JSON array into its elements. Absent or null yields nothing.
func rawList(raw json.RawMessage) ([]json.RawMessage, error) {
	if isAbsent(raw) {
		return nil, nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("expected array: %w", err)
	}

	return list, nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)

	return len(trimmed) == 0 || bytes.Equal(trimmed, jsonNull)
}

// synthesizeBody renders a stored body for every inbound message type.
func synthesizeBody(msg *model.WebhookMessage) string {
	switch msg.Type {
	case model.MessageTypeText:
		return scalarText(objectFields(msg.Text)["body"])
	case model.MessageTypeImage:
		return fmt.Sprintf("[Image: %s]", mediaCaption(msg.Image))
	case model.MessageTypeVideo:
		return fmt.Sprintf("[Video: %s]", mediaCaption(msg.Video))
	case model.MessageTypeAudio:
		return "[Audio message]"
	case model.MessageTypeDocument:
		filename := scalarText(objectFields(msg.Document)["filename"])
		if filename == "" {
			filename = unknownValue
		}

		return fmt.Sprintf("[Document: %s]", filename)
	case model.MessageTypeLocation:
		loc := objectFields(msg.Location)

		lat, latOK := coordinate(loc["latitude"])
		lng, lngOK := coordinate(loc["longitude"])
		if !latOK || !lngOK {
			return fmt.Sprintf("[Location: %s]", unknownValue)
		}

		return fmt.Sprintf("[Location: %s, %s]", lat, lng)
	case model.MessageTypeContacts:
		return "[Contact card]"
	case "":
		return fmt.Sprintf("[%s]", unknownMessageType)
	default:
		return fmt.Sprintf("[%s]", msg.Type)
	}
}

func mediaCaption(raw json.RawMessage) string {
	caption := scalarText(objectFields(raw)["caption"])
	if caption == "" {
		return noCaption
	}

	return caption
}

// objectFields decodes an optional JSON object. Anything else yields no fields.
func objectFields(raw json.RawMessage) map[string]json.RawMessage {
	if isAbsent(raw) {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}

	return fields
}

// scalarText returns a JSON string verbatim and a number or bool as written.
// Objects, arrays, null and absent values yield "".
func scalarText(raw json.RawMessage) string {
	if isAbsent(raw) {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String()
	}

	var flag bool
	if err := json.Unmarshal(raw, &flag); err == nil {
		return strconv.FormatBool(flag)
	}

	return ""
}

// coordinate formats numbers in their shortest form and passes strings through.
func coordinate(raw json.RawMessage) (string, bool) {
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return formatCoordinate(v), true
	}

	text := scalarText(raw)

	return text, text != ""
}

// formatCoordinate uses the shortest representation that round-trips, so 1.23 stays "1.23".
func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseEpoch accepts epoch seconds as a JSON string or number.
func parseEpoch(raw json.RawMessage) (time.Time, bool) {
	if isAbsent(raw) {
		return time.Time{}, false
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		var num json.Number
		if err := json.Unmarshal(raw, &num); err != nil {
			return time.Time{}, false
		}

		text = num.String()
	}

	text = strings.TrimSpace(text)

	if seconds, err := strconv.ParseInt(text, 10, 64); err == nil {
		return time.Unix(seconds, 0).UTC(), true
	}

	seconds, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return time.Time{}, false
	}

	return time.Unix(int64(seconds), 0).UTC(), true
}

// normalizeStatus upper-cases the provider status verbatim and falls back to UNKNOWN.
func normalizeStatus(status string) string {
	status = strings.ToUpper(status)
	if status == "" {
		return model.StatusUnknown
	}

	return status
}
