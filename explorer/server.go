// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

package explorer

import (
	"encoding/csv"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/islands-bharath/islands/dataset"
)

// Server exposes a Store over HTTP.
type Server struct {
	store *Store
}

// NewServer creates a server over a loaded store.
func NewServer(store *Store) *Server {
	return &Server{store: store}
}

// Router registers every route on a new gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	api.GET("/groups", s.listGroups)
	api.GET("/islands", s.listIslands)
	api.GET("/islands.csv", s.downloadIslands)
	api.GET("/stats", s.getStats)
	api.GET("/map", s.getMap)
	api.GET("/map/missing", s.getMissing)
	api.GET("/map/cells", s.getCells)

	return r
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func filterFrom(ctx *gin.Context) Filter {
	return Filter{
		Group:  ctx.Query("group"),
		Island: ctx.Query("island"),
	}
}

// Island is the JSON view of a record.
type Island struct {
	Index      int               `json:"index"`
	Name       string            `json:"name"`
	Region     string            `json:"region"`
	Latitude   *float64          `json:"latitude"`
	Longitude  *float64          `json:"longitude"`
	Attributes map[string]string `json:"attributes"`
}

func islandOf(header []string, rec *dataset.Record) Island {
	island := Island{
		Index:      rec.Index,
		Name:       rec.Name,
		Region:     rec.Region,
		Attributes: make(map[string]string, len(header)),
	}

	if rec.Point != nil {
		lat, lng := rec.Point.Lat, rec.Point.Lng
		island.Latitude, island.Longitude = &lat, &lng
	}

	for i, v := range rec.Values() {
		switch header[i] {
		case dataset.ColumnName, dataset.ColumnRegion, dataset.ColumnLatitude, dataset.ColumnLongitude:
			continue
		}

		island.Attributes[header[i]] = v
	}

	return island
}

func (s *Server) listGroups(ctx *gin.Context) {
	groups, err := s.store.Groups()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, groups)
}

func (s *Server) listIslands(ctx *gin.Context) {
	records, err := s.store.Islands(filterFrom(ctx))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	header := s.store.Dataset().Header
	islands := make([]Island, 0, len(records))

	for _, rec := range records {
		islands = append(islands, islandOf(header, rec))
	}

	ctx.JSON(http.StatusOK, islands)
}

func (s *Server) downloadIslands(ctx *gin.Context) {
	f := filterFrom(ctx)

	records, err := s.store.Islands(f)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	filename := "all_islands_data.csv"
	if f != (Filter{}) {
		filename = "filtered_islands_data.csv"
	}

	ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	ctx.Header("Content-Type", "text/csv; charset=utf-8")
	ctx.Status(http.StatusOK)

	w := csv.NewWriter(ctx.Writer)
	if err := w.Write(s.store.Dataset().Header); err != nil {
		log.Printf("writing csv header: %v", err)

		return
	}

	for _, rec := range records {
		if err := w.Write(rec.Values()); err != nil {
			log.Printf("writing csv row %d: %v", rec.Index+1, err)

			return
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		log.Printf("flushing csv: %v", err)
	}
}

// StatsResponse is the body of /api/stats.
type StatsResponse struct {
	Total  GroupStats   `json:"total"`
	Groups []GroupStats `json:"groups"`
}

func (s *Server) getStats(ctx *gin.Context) {
	stats, err := s.store.Stats(filterFrom(ctx))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, StatsResponse{Total: Total(stats), Groups: stats})
}

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a GeoJSON feature.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry is a GeoJSON point geometry.
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [lng, lat]
}

func (s *Server) getMap(ctx *gin.Context) {
	records, err := s.store.Mappable(filterFrom(ctx))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	header := s.store.Dataset().Header
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(records))}

	for _, rec := range records {
		props := map[string]any{
			"index":   rec.Index,
			"name":    rec.Name,
			"region":  rec.Region,
			"geohash": rec.Point.Geohash(),
		}

		for k, v := range islandOf(header, rec).Attributes {
			if _, taken := props[k]; !taken {
				props[k] = v
			}
		}

		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{rec.Point.Lng, rec.Point.Lat},
			},
			Properties: props,
		})
	}

	ctx.JSON(http.StatusOK, fc)
}

func (s *Server) getMissing(ctx *gin.Context) {
	records, err := s.store.Missing(filterFrom(ctx))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	header := s.store.Dataset().Header
	islands := make([]Island, 0, len(records))

	for _, rec := range records {
		islands = append(islands, islandOf(header, rec))
	}

	ctx.JSON(http.StatusOK, islands)
}

func (s *Server) getCells(ctx *gin.Context) {
	res := 4

	if v := ctx.Query("res"); v != "" {
		var err error
		if res, err = strconv.Atoi(v); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid res parameter"})

			return
		}
	}

	if res < MinCellResolution || res > MaxCellResolution {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "res out of range"})

		return
	}

	cells, err := s.store.Cells(res, filterFrom(ctx))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, cells)
}
