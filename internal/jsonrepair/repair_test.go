package jsonrepair

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairDirectParse(t *testing.T) {
	data, err := Repair(`{"summary":"ok","findings":[]}`)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "ok", out["summary"])
}

func TestRepairStripsProseAndFences(t *testing.T) {
	text := "Here is my review:\n```json\n{\"summary\":\"fine\"}\n```\nHope that helps!"
	var out map[string]string
	require.NoError(t, Unmarshal(text, &out))
	assert.Equal(t, "fine", out["summary"])
}

func TestRepairRemovesTrailingCommas(t *testing.T) {
	text := `{"items":[1,2,3,],"done":true,}`
	var out struct {
		Items []int `json:"items"`
		Done  bool  `json:"done"`
	}
	require.NoError(t, Unmarshal(text, &out))
	assert.Equal(t, []int{1, 2, 3}, out.Items)
	assert.True(t, out.Done)
}

func TestRepairStripsControlCharacters(t *testing.T) {
	text := "{\"a\":\x01\x02 1}"
	var out map[string]int
	require.NoError(t, Unmarshal(text, &out))
	assert.Equal(t, 1, out["a"])
}

func TestRepairEscapesInnerQuotes(t *testing.T) {
	text := `{"comment":"use "errors.Is" instead"}`
	var out map[string]string
	require.NoError(t, Unmarshal(text, &out))
	assert.Equal(t, `use "errors.Is" instead`, out["comment"])
}

func TestRepairEscapesRawNewlinesInStrings(t *testing.T) {
	text := "{\"comment\":\"line one\nline two\"}"
	var out map[string]string
	require.NoError(t, Unmarshal(text, &out))
	assert.Equal(t, "line one\nline two", out["comment"])
}

func TestRepairClosesTruncatedOutput(t *testing.T) {
	text := `{"findings":[{"file":"a.go","line":3,"comment":"unfinished`
	var out struct {
		Findings []struct {
			File    string `json:"file"`
			Line    int    `json:"line"`
			Comment string `json:"comment"`
		} `json:"findings"`
	}
	require.NoError(t, Unmarshal(text, &out))
	require.Len(t, out.Findings, 1)
	assert.Equal(t, "a.go", out.Findings[0].File)
	assert.Equal(t, 3, out.Findings[0].Line)
}

func TestRepairIdempotence(t *testing.T) {
	first, err := Repair(`{"a":[1,2,],"b":"x"}`)
	require.NoError(t, err)

	// Re-serializing the repaired object and repairing again must be a
	// plain direct parse with no semantic drift.
	var obj interface{}
	require.NoError(t, json.Unmarshal(first, &obj))
	reserialized, err := json.Marshal(obj)
	require.NoError(t, err)

	second, err := Repair(string(reserialized))
	require.NoError(t, err)

	var a, b interface{}
	require.NoError(t, json.Unmarshal(first, &a))
	require.NoError(t, json.Unmarshal(second, &b))
	assert.Equal(t, a, b)
}

func TestRepairUnrecoverable(t *testing.T) {
	_, err := Repair("utter nonsense with no json at all")
	require.Error(t, err)

	var pf *ParseFailure
	require.True(t, errors.As(err, &pf))
	assert.NotEmpty(t, pf.Prefix)
	assert.NotNil(t, pf.Err)
}

func TestRepairFailurePrefixIsBounded(t *testing.T) {
	long := make([]byte, 10000)
	for i := range long {
		long[i] = 'x'
	}
	_, err := Repair(string(long))
	var pf *ParseFailure
	require.True(t, errors.As(err, &pf))
	assert.LessOrEqual(t, len(pf.Prefix), maxErrorPrefix)
}
