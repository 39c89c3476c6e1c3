package models

import (
	"encoding/json"
	"strconv"
)

// Question is one entry of a Qualtrics survey definition's Questions map.
// Only the fields the mapping transform consumes are modeled.
type Question struct {
	DataExportTag string                 `json:"DataExportTag"`
	QuestionText  string                 `json:"QuestionText,omitempty"`
	Choices       map[string]Choice      `json:"Choices,omitempty"`
	RecodeValues  map[string]interface{} `json:"RecodeValues,omitempty"`
}

// Choice is a single answer option. Qualtrics emits either an object with a
// Display key or a bare scalar, so unmarshalling accepts both.
type Choice struct {
	Display string `json:"Display"`
}

func (c *Choice) UnmarshalJSON(data []byte) error {
	type alias Choice
	var obj alias
	if err := json.Unmarshal(data, &obj); err == nil {
		*c = Choice(obj)
		return nil
	}

	var scalar interface{}
	if err := json.Unmarshal(data, &scalar); err != nil {
		return err
	}
	c.Display = scalarString(scalar)
	return nil
}

// RecodeValue returns the recode value for a choice key as a string, or ""
// when no recode value exists.
func (q Question) RecodeValue(choiceKey string) string {
	if q.RecodeValues == nil {
		return ""
	}
	value, ok := q.RecodeValues[choiceKey]
	if !ok || value == nil {
		return ""
	}
	return scalarString(value)
}

func scalarString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		// JSON numbers decode to float64; recode values are integers
		return strconv.FormatInt(int64(v), 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
