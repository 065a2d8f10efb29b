package logger

import (
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_InfoLevel(t *testing.T) {
	logger := New("info")
	assert.NotNil(t, logger)
}

func TestNew_DebugLevel(t *testing.T) {
	logger := New("debug")
	assert.NotNil(t, logger)
}

func TestNew_ErrorLevel(t *testing.T) {
	logger := New("error")
	assert.NotNil(t, logger)
}

func TestNew_DefaultLevel(t *testing.T) {
	logger := New("unknown")
	assert.NotNil(t, logger)
}

func TestNewJSON(t *testing.T) {
	logger := NewJSON("info")
	assert.NotNil(t, logger)
}

func TestParseLevel_CaseInsensitive(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{"lowercase debug", "debug", slog.LevelDebug},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"mixed cAsE", "DeBuG", slog.LevelDebug},
		{"lowercase info", "info", slog.LevelInfo},
		{"uppercase INFO", "INFO", slog.LevelInfo},
		{"lowercase error", "error", slog.LevelError},
		{"uppercase ERROR", "ERROR", slog.LevelError},
		{"unknown", "unknown", slog.LevelInfo},
		{"empty", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level := parseLevel(tt.input)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestTruncatePreview_InvalidJSON(t *testing.T) {
	raw := json.RawMessage("not valid json")
	result := TruncatePreview(raw, 100)
	assert.Equal(t, string(raw), result)
}

func TestTruncatePreview_ShortStringUntouched(t *testing.T) {
	raw := json.RawMessage(`{"id":"short"}`)
	result := TruncatePreview(raw, 100)

	var data map[string]interface{}
	assert.NoError(t, json.Unmarshal([]byte(result), &data))
	assert.Equal(t, "short", data["id"].(string))
}

func TestTruncatePreview_LongStringTruncated(t *testing.T) {
	long := strings.Repeat("x", 200)
	raw := json.RawMessage(`{"payload":"` + long + `"}`)

	result := TruncatePreview(raw, 50)

	var data map[string]interface{}
	assert.NoError(t, json.Unmarshal([]byte(result), &data))
	payload := data["payload"].(string)
	assert.True(t, strings.Contains(payload, "truncated"))
	assert.Less(t, len(payload), len(long))
}

func TestTruncatePreview_NestedObject(t *testing.T) {
	raw := json.RawMessage(`{
		"level1": {
			"level2": {
				"field": "` + strings.Repeat("x", 150) + `"
			}
		}
	}`)

	result := TruncatePreview(raw, 100)

	var data map[string]interface{}
	assert.NoError(t, json.Unmarshal([]byte(result), &data))
	level1 := data["level1"].(map[string]interface{})
	level2 := level1["level2"].(map[string]interface{})
	assert.True(t, strings.Contains(level2["field"].(string), "truncated"))
}

func TestTruncatePreview_ArrayOfRecords(t *testing.T) {
	raw := json.RawMessage(`{
		"records": [
			{"data":"` + strings.Repeat("a", 100) + `"},
			{"data":"` + strings.Repeat("b", 100) + `"}
		]
	}`)

	result := TruncatePreview(raw, 50)

	var data map[string]interface{}
	assert.NoError(t, json.Unmarshal([]byte(result), &data))
	records := data["records"].([]interface{})
	assert.Len(t, records, 2)
	first := records[0].(map[string]interface{})
	assert.True(t, strings.Contains(first["data"].(string), "truncated"))
}

func TestTruncatePreview_EmptyObject(t *testing.T) {
	raw := json.RawMessage(`{}`)
	result := TruncatePreview(raw, 100)
	assert.Equal(t, `{}`, result)
}

func TestTruncatePreview_TopLevelArray(t *testing.T) {
	raw := json.RawMessage(`[
		{"data":"` + strings.Repeat("x", 100) + `"},
		{"data":"` + strings.Repeat("y", 100) + `"}
	]`)

	result := TruncatePreview(raw, 50)

	var data []interface{}
	assert.NoError(t, json.Unmarshal([]byte(result), &data))
	assert.Len(t, data, 2)
	first := data[0].(map[string]interface{})
	assert.True(t, strings.Contains(first["data"].(string), "truncated"))
}

func TestTruncatePreview_MultipleFieldsSomeShortSomeLong(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "short",
		"a": "` + strings.Repeat("a", 100) + `",
		"b": "` + strings.Repeat("b", 100) + `"
	}`)

	result := TruncatePreview(raw, 50)

	var data map[string]interface{}
	assert.NoError(t, json.Unmarshal([]byte(result), &data))
	assert.Equal(t, "short", data["id"].(string))
	assert.True(t, strings.Contains(data["a"].(string), "truncated"))
	assert.True(t, strings.Contains(data["b"].(string), "truncated"))
}

func TestTruncatePreview_DifferentLengthsProduceDifferentSizes(t *testing.T) {
	raw := json.RawMessage(`{"field":"` + strings.Repeat("x", 200) + `"}`)

	result1 := TruncatePreview(raw, 50)
	result2 := TruncatePreview(raw, 100)

	var data1, data2 map[string]interface{}
	assert.NoError(t, json.Unmarshal([]byte(result1), &data1))
	assert.NoError(t, json.Unmarshal([]byte(result2), &data2))

	field1 := data1["field"].(string)
	field2 := data2["field"].(string)
	assert.True(t, strings.Contains(field1, "truncated"))
	assert.True(t, strings.Contains(field2, "truncated"))
	assert.Less(t, len(field1), len(field2))
}
