package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func TestTable_RendersRows(t *testing.T) {
	var buf bytes.Buffer
	ui := &UI{Out: &buf, ErrOut: &buf}

	table := ui.Table([]string{"ID", "Title"})
	require.NoError(t, table.Append([]string{"1", "Login page bug"}))
	require.NoError(t, table.Render())

	out := buf.String()
	assert.Contains(t, out, "Login page bug")
	assert.Contains(t, strings.ToUpper(out), "TITLE")
}

func TestStatusColor_PlainWhenNoColor(t *testing.T) {
	assert.Equal(t, "open", StatusColor("open"))
	assert.Equal(t, "weird", StatusColor("weird"))
	assert.Equal(t, "critical", PriorityColor("critical"))
}

func TestMessages(t *testing.T) {
	var out, errOut bytes.Buffer
	ui := &UI{Out: &out, ErrOut: &errOut}
	ui.Success("created %d", 3)
	ui.Error("failed")
	assert.Contains(t, out.String(), "created 3")
	assert.Contains(t, errOut.String(), "failed")
}
