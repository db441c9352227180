package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name"`
}

func TestParseJSONArrayWithFences(t *testing.T) {
	resp := "```json\n[{\"name\": \"走访\"}, {\"name\": \"演示\"}]\n```"

	items, err := ParseJSON[[]item](resp)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, "走访", items[0].Name)
}

func TestParseJSONObjectWithProse(t *testing.T) {
	resp := "Here you go: {\"name\": \"试点\"} hope it helps"

	got, err := ParseJSON[item](resp)
	require.NoError(t, err)
	assert.Equal(t, "试点", got.Name)
}

func TestParseJSONErrors(t *testing.T) {
	_, err := ParseJSON[[]item]("no json here")
	assert.Error(t, err)

	_, err = ParseJSON[[]item]("[{\"name\": ")
	assert.Error(t, err)

	_, err = ParseJSON[[]item]("{\"name\": \"x\"}")
	assert.Error(t, err, "object is not an array")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "日报", Truncate("日报", 5))
	assert.Equal(t, "日报...", Truncate("日报内容", 2))
}
