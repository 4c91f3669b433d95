// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

package explorer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServerTest(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	_, store := setupTestStore(t)

	return NewServer(store).Router()
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	router.ServeHTTP(w, req)

	return w
}

func TestGroupsAPI(t *testing.T) {
	router := setupServerTest(t)

	w := get(t, router, "/api/groups")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["Andaman & Nicobar","Assam","Lakshadweep"]`, w.Body.String())
}

func TestIslandsAPI(t *testing.T) {
	router := setupServerTest(t)

	w := get(t, router, "/api/islands?group="+url.QueryEscape("Assam"))
	require.Equal(t, http.StatusOK, w.Code)

	var islands []Island
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &islands))
	require.Len(t, islands, 1)

	majuli := islands[0]
	assert.Equal(t, 3, majuli.Index)
	assert.Equal(t, "Majuli", majuli.Name)
	require.NotNil(t, majuli.Latitude)
	assert.InDelta(t, 26.95, *majuli.Latitude, 1e-9)
	assert.Equal(t, map[string]string{
		"Population":   "167,304",
		"Area (sq km)": "352",
		"Tourism":      "Medium",
	}, majuli.Attributes)
}

func TestIslandsCSVDownload(t *testing.T) {
	router := setupServerTest(t)

	w := get(t, router, "/api/islands.csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "all_islands_data.csv")
	assert.Equal(t, enrichedCSV, w.Body.String())

	w = get(t, router, "/api/islands.csv?group=Lakshadweep")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "filtered_islands_data.csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 3)
}

func TestStatsAPI(t *testing.T) {
	router := setupServerTest(t)

	w := get(t, router, "/api/stats?group=Assam")
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Groups, 1)
	assert.Equal(t, 1, resp.Total.Islands)
	assert.Equal(t, 1, resp.Total.Resolved)
	assert.InDelta(t, 167304, resp.Total.Population, 1e-9)
}

func TestMapAPIExcludesUnresolved(t *testing.T) {
	router := setupServerTest(t)

	w := get(t, router, "/api/map")
	require.Equal(t, http.StatusOK, w.Code)

	var fc FeatureCollection
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 4)

	ross := fc.Features[0]
	assert.Equal(t, "Point", ross.Geometry.Type)
	assert.Equal(t, []float64{92.7621, 11.6768}, ross.Geometry.Coordinates)
	assert.Equal(t, "Ross Island", ross.Properties["name"])
	assert.Equal(t, "High", ross.Properties["Tourism"])
	assert.NotEmpty(t, ross.Properties["geohash"])

	for _, f := range fc.Features {
		assert.NotEqual(t, "Havelock", f.Properties["name"])
	}
}

func TestMissingAPI(t *testing.T) {
	router := setupServerTest(t)

	w := get(t, router, "/api/map/missing")
	require.Equal(t, http.StatusOK, w.Code)

	var islands []Island
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &islands))
	require.Len(t, islands, 2)
	assert.Equal(t, "Havelock", islands[0].Name)
	assert.Nil(t, islands[0].Latitude)
}

func TestCellsAPI(t *testing.T) {
	router := setupServerTest(t)

	w := get(t, router, "/api/map/cells")
	require.Equal(t, http.StatusOK, w.Code)

	var cells []CellCount
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cells))
	assert.Len(t, cells, 3)

	assert.Equal(t, http.StatusBadRequest, get(t, router, "/api/map/cells?res=abc").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, router, "/api/map/cells?res=15").Code)
}
