package imports

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFinmatics(t *testing.T) {
	body := strings.Join([]string{
		`{"document_id":"fd-1","client_id":"fin-10001","document_type":"Eingangsrechnung","status":"processed","filename":"er-001.pdf"}`,
		``,
		`{"document_id":"fd-2","client_id":"fin-10002","status":"failed"}`,
	}, "\n")

	records, err := ParseFinmatics(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "fd-1", records[0].DocumentID)
	assert.Equal(t, "Eingangsrechnung", records[0].Type)
	assert.Equal(t, "fin-10002", records[1].ClientID)
	assert.Empty(t, records[1].Filename)
}

func TestParseFinmaticsMalformedLine(t *testing.T) {
	body := `{"document_id":"fd-1","client_id":"fin-10001"}` + "\n" + `{not json`

	_, err := ParseFinmatics(strings.NewReader(body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseFinmaticsEmpty(t *testing.T) {
	records, err := ParseFinmatics(strings.NewReader("\n\n"))
	require.NoError(t, err)
	assert.Empty(t, records)
}
