package main

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/Josep-Roura/Cooked-sub004/internal/tpimport"
)

// maxImportBytes bounds an uploaded workouts CSV.
const maxImportBytes = 20 << 20

// listWorkouts returns stored workouts within [start, end].
// GET /api/workouts?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *Handler) listWorkouts(c *gin.Context) {
	userID := c.GetInt("user_id")
	start, end, ok := parseDateRange(c)
	if !ok {
		return
	}

	workouts, err := queryMany[workout](h.db, c,
		`SELECT * FROM tp_workouts
		 WHERE user_id = @userID AND workout_day >= @start AND workout_day <= @end
		 ORDER BY workout_day, start_time NULLS LAST, id`,
		pgx.NamedArgs{
			"userID": userID,
			"start":  start.Format(time.DateOnly),
			"end":    end.Format(time.DateOnly),
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch workouts")
		return
	}
	if workouts == nil {
		workouts = []workout{}
	}

	c.JSON(http.StatusOK, workouts)
}

// deleteWorkout removes a stored workout. DELETE /api/workouts/:id.
func (h *Handler) deleteWorkout(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	result, err := h.db.Exec(c,
		"DELETE FROM tp_workouts WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to delete workout")
		return
	}
	if result.RowsAffected() == 0 {
		apiError(c, http.StatusNotFound, "workout not found")
		return
	}

	c.Status(http.StatusNoContent)
}

/* ─── Import ─────────────────────────────────────────────────────────── */

// parseImportFile reads the CSV from a multipart "file" field, or from the
// raw request body for any other content type, and parses it. On failure it
// writes the error response and returns ok=false.
func parseImportFile(c *gin.Context) (tpimport.ParseResult, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)

	var r io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		fh, err := c.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				apiError(c, http.StatusRequestEntityTooLarge, "file too large")
			} else {
				apiError(c, http.StatusBadRequest, "file is required")
			}
			return tpimport.ParseResult{}, false
		}
		f, err := fh.Open()
		if err != nil {
			apiError(c, http.StatusBadRequest, "unable to read uploaded file")
			return tpimport.ParseResult{}, false
		}
		defer f.Close()
		r = f
	}

	parsed, err := tpimport.Parse(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, tpimport.ErrEmptyFile), errors.Is(err, tpimport.ErrMissingDayColumn):
			apiError(c, http.StatusBadRequest, err.Error())
		case errors.As(err, &maxErr):
			apiError(c, http.StatusRequestEntityTooLarge, "file too large")
		default:
			apiError(c, http.StatusBadRequest, "invalid csv file")
		}
		return tpimport.ParseResult{}, false
	}
	return parsed, true
}

// classifyImport compares parsed rows with the workouts already stored for
// the file's date range.
func classifyImport(c *gin.Context, q tpimport.Querier, userID int, parsed tpimport.ParseResult) (tpimport.Summary, error) {
	existing := map[tpimport.Key]bool{}
	if start, end, ok := tpimport.DateRange(parsed.Rows); ok {
		keys, err := tpimport.ExistingKeys(c, q, userID, start, end)
		if err != nil {
			return tpimport.Summary{}, err
		}
		existing = keys
	}
	return tpimport.Classify(parsed, existing), nil
}

// previewWorkoutImport reports what an import would do without writing.
// POST /api/workouts/import/preview.
func (h *Handler) previewWorkoutImport(c *gin.Context) {
	userID := c.GetInt("user_id")
	parsed, ok := parseImportFile(c)
	if !ok {
		return
	}

	summary, err := classifyImport(c, h.db, userID, parsed)
	if err != nil {
		log.Printf("[previewWorkoutImport] classify for user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to load existing workouts")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// importWorkouts upserts the file's rows in one transaction. Lines that fail
// to parse are skipped and reported; a file with no valid rows is rejected.
// POST /api/workouts/import.
func (h *Handler) importWorkouts(c *gin.Context) {
	userID := c.GetInt("user_id")
	parsed, ok := parseImportFile(c)
	if !ok {
		return
	}
	if len(parsed.Rows) == 0 {
		apiErrorDetails(c, http.StatusBadRequest, "no valid rows to import", parsed.Errors)
		return
	}

	tx, err := h.db.Begin(c)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to start import")
		return
	}
	defer tx.Rollback(c)

	summary, err := classifyImport(c, tx, userID, parsed)
	if err != nil {
		log.Printf("[importWorkouts] classify for user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to load existing workouts")
		return
	}
	if err := tpimport.Upsert(c, tx, userID, summary.Rows, tpimport.DefaultBatchSize, nil); err != nil {
		log.Printf("[importWorkouts] upsert for user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to import workouts")
		return
	}
	if err := tx.Commit(c); err != nil {
		log.Printf("[importWorkouts] commit for user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to import workouts")
		return
	}

	log.Printf("[importWorkouts] user %d: %d created, %d updated, %d skipped, %d duplicates",
		userID, summary.Created, summary.Updated, summary.Skipped, summary.Duplicates)
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"created":    summary.Created,
		"updated":    summary.Updated,
		"skipped":    summary.Skipped,
		"duplicates": summary.Duplicates,
		"errors":     summary.Errors,
	})
}
