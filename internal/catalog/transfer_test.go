package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImportCSVRoundTrip(t *testing.T) {
	src := initialized(t, nil)

	var buf bytes.Buffer
	require.NoError(t, src.mirror.ExportCSV(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "id,name,category,itemType,description,sizes,colors,imageUrl,tags", lines[0])
	assert.Contains(t, buf.String(), "S|M|L|XL")

	dst := initialized(t, nil)
	// fresh store: every exported id is unknown there, so rows are created
	res, err := dst.mirror.ImportCSV(context.Background(), strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)
	assert.Len(t, dst.mirror.Products(), 6)

	found := false
	for _, it := range dst.mirror.ProductsByCategory("hombres") {
		if it.Name == "Camisa Casual Azul" {
			found = true
			assert.Equal(t, []string{"S", "M", "L", "XL"}, it.Sizes)
		}
	}
	assert.True(t, found)
}

func TestImportCSVUpdatesAndSkips(t *testing.T) {
	f := initialized(t, nil)
	it := firstInCategory(t, f.mirror, "ninos")

	in := "id,name,category,itemType,colors\n" +
		it.ID + ",,,,rojo|negro\n" +
		",Gorro,ninos,gorro,\n" +
		",,,,\n" +
		",Zapatilla Luz,ninos,zapatillas,blanco\n"

	res, err := f.mirror.ImportCSV(context.Background(), strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "line 3")

	got, _ := f.mirror.ProductByID(it.ID)
	assert.Equal(t, []string{"rojo", "negro"}, got.Colors)
	assert.Equal(t, it.Name, got.Name)
}

func TestExportJSON(t *testing.T) {
	f := initialized(t, nil)

	var buf bytes.Buffer
	require.NoError(t, f.mirror.ExportJSON(&buf))

	var snap Snapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &snap))
	require.Len(t, snap.Categories, 2)
	assert.Equal(t, "hombres", snap.Categories[0].ID)
	assert.Len(t, snap.Items, 3)
}
