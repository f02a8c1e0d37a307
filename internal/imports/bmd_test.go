package imports

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bmdExport builds a Windows-1252 export body. 0xE4 is "ä" in 1252.
func bmdExport(lines ...string) *bytes.Reader {
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return bytes.NewReader(buf.Bytes())
}

func TestParseBMDDecodesWindows1252(t *testing.T) {
	body := []byte("Klientennummer;Belegnummer;Betreff;Beschreibung\n")
	body = append(body, []byte("10001;B-2026-001;Belege pr")...)
	body = append(body, 0xFC) // ü
	body = append(body, []byte("fen;J")...)
	body = append(body, 0xE4) // ä
	body = append(body, []byte("hrlich\n")...)

	rows, err := ParseBMD(bytes.NewReader(body))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "10001", rows[0].ClientNumber)
	assert.Equal(t, "B-2026-001", rows[0].Reference)
	assert.Equal(t, "Belege prüfen", rows[0].Title)
	assert.Equal(t, "Jährlich", rows[0].Description)
}

func TestParseBMDHeaderDrivenColumns(t *testing.T) {
	rows, err := ParseBMD(bmdExport(
		"Betreff;Klientennummer;Belegnummer",
		"UVA Juli;10002;B-77",
	))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "10002", rows[0].ClientNumber)
	assert.Equal(t, "B-77", rows[0].Reference)
	assert.Equal(t, "UVA Juli", rows[0].Title)
	assert.Empty(t, rows[0].Description)
}

func TestParseBMDMissingTitleColumn(t *testing.T) {
	rows, err := ParseBMD(bmdExport(
		"Klientennummer;Belegnummer",
		"10001;B-77",
	))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	// Title must stay empty, not alias the first column.
	assert.Empty(t, rows[0].Title)
	assert.Equal(t, "10001", rows[0].ClientNumber)
}

func TestParseBMDMissingColumn(t *testing.T) {
	_, err := ParseBMD(bmdExport(
		"Belegnummer;Betreff",
		"B-1;UVA",
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "klientennummer")
}

func TestParseBMDShortRow(t *testing.T) {
	rows, err := ParseBMD(bmdExport(
		"Klientennummer;Belegnummer;Betreff",
		"10001",
	))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "10001", rows[0].ClientNumber)
	assert.Empty(t, rows[0].Reference)
}

func TestParseBMDEmptyFile(t *testing.T) {
	rows, err := ParseBMD(bmdExport())
	require.NoError(t, err)
	assert.Empty(t, rows)
}
