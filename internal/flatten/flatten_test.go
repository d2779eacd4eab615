package flatten

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLTableRows(t *testing.T) {
	html := `<html><body>
	<table>
	  <tr><th>Metric</th><th>2023</th><th>2022</th></tr>
	  <tr><td>Total revenue</td><td>$383,285</td><td>$394,328</td></tr>
	  <tr><td>Net income</td><td>96,995</td><td>99,803</td></tr>
	</table>
	</body></html>`

	out, err := HTML(html)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Metric | 2023 | 2022", lines[0])
	assert.Equal(t, "Total revenue | $383,285 | $394,328", lines[1])
	assert.Equal(t, "Net income | 96,995 | 99,803", lines[2])
}

func TestHTMLProseAfterTables(t *testing.T) {
	html := `<html><body>
	<h2>Item 7. Management Discussion</h2>
	<p>Revenue  increased
	   year over year.</p>
	<table><tr><td>Leases</td><td>1,500</td></tr></table>
	</body></html>`

	out, err := HTML(html)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Leases | 1,500", lines[0])
	assert.Equal(t, "Item 7. Management Discussion", lines[1])
	assert.Equal(t, "Revenue increased year over year.", lines[2])
}

func TestHTMLStripsScriptAndStyle(t *testing.T) {
	html := `<html><head><style>td { color: red }</style></head><body>
	<script>var x = "secret";</script>
	<p>Visible text.</p>
	</body></html>`

	out, err := HTML(html)
	require.NoError(t, err)
	assert.Equal(t, "Visible text.", out)
	assert.NotContains(t, out, "secret")
	assert.NotContains(t, out, "color")
}

func TestHTMLFallbackToBodyText(t *testing.T) {
	html := `<html><body><div>Bare <span>text</span> only</div></body></html>`

	out, err := HTML(html)
	require.NoError(t, err)
	assert.Equal(t, "Bare text only", out)
}

func TestHTMLTableCellTextNotDuplicated(t *testing.T) {
	html := `<html><body>
	<table><tr><td><p>Inside cell</p></td></tr></table>
	</body></html>`

	out, err := HTML(html)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "Inside cell"))
}

func TestHTMLEmptyDocument(t *testing.T) {
	out, err := HTML("")
	require.NoError(t, err)
	assert.Empty(t, out)
}
