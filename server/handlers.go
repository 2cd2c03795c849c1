package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"energy-scraper/models"
	"energy-scraper/pipeline"
	"energy-scraper/services"
	"energy-scraper/storage"
)

// handleDataset fetches one category over a range
// GET /api/v1/datasets/:category?start=yyyy-mm-dd&end=yyyy-mm-dd&subset=renewable&format=csv
func (s *Server) handleDataset(c *gin.Context) {
	sel, err := pipeline.ParseSelection(c.Param("category"), c.Query("subset"))
	if err != nil {
		s.fail(c, err)
		return
	}
	r, err := models.ParseDateRange(c.Query("start"), c.Query("end"))
	if err != nil {
		s.fail(c, err)
		return
	}
	spec, err := s.fetcher.Spec(sel.Category)
	if err != nil {
		s.fail(c, err)
		return
	}

	ds, err := s.fetcher.Fetch(c.Request.Context(), sel, r)
	if err != nil {
		s.fail(c, err)
		return
	}

	if c.Query("format") == "csv" {
		s.writeCSV(c, ds, spec.ExportFilename(r), s.cfg.Delimiter(spec.DelimiterRune()))
		return
	}
	s.writeDataset(c, ds)
}

// handleCompare fetches two categories over the same range and merges them on Fecha+Hora
// GET /api/v1/compare?a=demand&b=price&a_subset=&b_subset=&start=&end=
func (s *Server) handleCompare(c *gin.Context) {
	a, err := pipeline.ParseSelection(c.Query("a"), c.Query("a_subset"))
	if err != nil {
		s.fail(c, err)
		return
	}
	b, err := pipeline.ParseSelection(c.Query("b"), c.Query("b_subset"))
	if err != nil {
		s.fail(c, err)
		return
	}
	r, err := models.ParseDateRange(c.Query("start"), c.Query("end"))
	if err != nil {
		s.fail(c, err)
		return
	}

	merged, err := s.fetcher.Compare(c.Request.Context(), a, b, r)
	if err != nil {
		s.fail(c, err)
		return
	}

	if c.Query("format") == "csv" {
		name := fmt.Sprintf("%s_%s-%s_%s.csv", a.Category, b.Category, r.StartString(), r.EndString())
		s.writeCSV(c, merged, name, s.cfg.Delimiter(','))
		return
	}
	s.writeDataset(c, merged)
}

// handleSnapshot returns a stored dataset
// GET /api/v1/snapshots/:id?limit=10
func (s *Server) handleSnapshot(c *gin.Context) {
	ds, ok := s.loadSnapshot(c)
	if !ok {
		return
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		ds = ds.Head(n)
	}
	c.JSON(http.StatusOK, datasetBody(ds, c.Param("id")))
}

// handleSnapshotStats computes max/min/mean of one column of a stored dataset
// GET /api/v1/snapshots/:id/stats?column=Real
func (s *Server) handleSnapshotStats(c *gin.Context) {
	column := c.Query("column")
	if column == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "column is required"})
		return
	}
	ds, ok := s.loadSnapshot(c)
	if !ok {
		return
	}
	stats, err := services.ComputeStats(ds, column)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// handleSnapshotExport downloads a stored dataset as CSV
// GET /api/v1/snapshots/:id/export
func (s *Server) handleSnapshotExport(c *gin.Context) {
	ds, ok := s.loadSnapshot(c)
	if !ok {
		return
	}

	delimiter := ','
	name := c.Param("id") + ".csv"
	if spec, err := s.fetcher.Spec(ds.Category); err == nil {
		delimiter = spec.DelimiterRune()
		if r, ok := coveredRange(ds); ok {
			name = spec.ExportFilename(r)
		}
	}
	s.writeCSV(c, ds, name, s.cfg.Delimiter(delimiter))
}

// handleSnapshotDelete drops a stored dataset
// DELETE /api/v1/snapshots/:id
func (s *Server) handleSnapshotDelete(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshots are disabled"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := s.store.Delete(ctx, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) loadSnapshot(c *gin.Context) (models.Dataset, bool) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshots are disabled"})
		return models.Dataset{}, false
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	ds, err := s.store.Load(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return models.Dataset{}, false
	}
	return ds, true
}

// writeDataset answers with the dataset as JSON, saving a snapshot when a store is configured
func (s *Server) writeDataset(c *gin.Context, ds models.Dataset) {
	var id string
	if s.store != nil && !ds.Empty() {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		saved, err := s.store.Save(ctx, ds)
		if err != nil {
			// the data is still served
			s.logger.Warn("Failed to save %s snapshot: %v", ds.Category, err)
		} else {
			id = saved
		}
	}
	c.JSON(http.StatusOK, datasetBody(ds, id))
}

func (s *Server) writeCSV(c *gin.Context, ds models.Dataset, filename string, delimiter rune) {
	var buf bytes.Buffer
	if err := storage.WriteDataset(&buf, ds, delimiter); err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func datasetBody(ds models.Dataset, snapshotID string) gin.H {
	rows := make([]map[string]any, ds.Len())
	for i := range ds.Records {
		rows[i] = ds.Row(i)
	}
	meta := gin.H{
		"count":   ds.Len(),
		"empty":   ds.Empty(),
		"skipped": ds.Skipped,
	}
	if snapshotID != "" {
		meta["snapshot_id"] = snapshotID
	}
	return gin.H{
		"data": gin.H{
			"category": ds.Category,
			"columns":  ds.Columns,
			"rows":     rows,
		},
		"meta": meta,
	}
}

// coveredRange derives the calendar range spanned by a chronologically sorted dataset
func coveredRange(ds models.Dataset) (models.DateRange, bool) {
	if ds.Empty() {
		return models.DateRange{}, false
	}
	first, err := ds.Records[0].Timestamp()
	if err != nil {
		return models.DateRange{}, false
	}
	last, err := ds.Records[ds.Len()-1].Timestamp()
	if err != nil {
		return models.DateRange{}, false
	}
	r, err := models.NewDateRange(first, last)
	if err != nil {
		return models.DateRange{}, false
	}
	return r, true
}
