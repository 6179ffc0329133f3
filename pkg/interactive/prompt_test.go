package interactive

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prompter(input string) (*Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return NewWith(strings.NewReader(input), &out), &out
}

func TestString(t *testing.T) {
	t.Run("answer returned trimmed", func(t *testing.T) {
		p, _ := prompter("  fm.example.com  \n")
		got, err := p.String("Host", "")
		require.NoError(t, err)
		assert.Equal(t, "fm.example.com", got)
	})

	t.Run("empty answer takes default", func(t *testing.T) {
		p, out := prompter("\n")
		got, err := p.String("Host", "default.example.com")
		require.NoError(t, err)
		assert.Equal(t, "default.example.com", got)
		assert.Contains(t, out.String(), "[default.example.com]")
	})
}

func TestRequiredLoopsUntilAnswered(t *testing.T) {
	p, _ := prompter("\n\napi_user\n")
	got, err := p.Required("Username")
	require.NoError(t, err)
	assert.Equal(t, "api_user", got)
}

func TestYesNo(t *testing.T) {
	p, _ := prompter("maybe\nYES\n")
	got, err := p.YesNo("Generate HTML report")
	require.NoError(t, err)
	assert.True(t, got)

	p, _ = prompter("n\n")
	got, err = p.YesNo("Send email")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestChoiceValue(t *testing.T) {
	options := []string{"Rule Review (id 7)", "Cleanup (id 12) (DISABLED)"}
	ids := []int{7, 12}

	t.Run("list index selects its value", func(t *testing.T) {
		p, out := prompter("0\n99\nx\n2\n")
		got, err := p.ChoiceValue("Select workflow", options, ids)
		require.NoError(t, err)
		assert.Equal(t, 12, got)
		assert.Contains(t, out.String(), "1. Rule Review (id 7)")
	})

	t.Run("raw id is accepted", func(t *testing.T) {
		p, _ := prompter("12\n")
		got, err := p.ChoiceValue("Select workflow", options, ids)
		require.NoError(t, err)
		assert.Equal(t, 12, got)
	})

	t.Run("index wins over an id in list range", func(t *testing.T) {
		p, _ := prompter("2\n")
		got, err := p.ChoiceValue("Select workflow", []string{"a (id 2)", "b (id 1)"}, []int{2, 1})
		require.NoError(t, err)
		assert.Equal(t, 1, got, "2 is a valid index, so it selects the second entry")
	})
}

func TestEOFPropagates(t *testing.T) {
	p, _ := prompter("")
	_, err := p.Required("Username")
	assert.Error(t, err)
}
