package tpimport

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// DefaultBatchSize is the number of upserts sent per round trip.
const DefaultBatchSize = 500

const upsertWorkoutSQL = `
INSERT INTO tp_workouts (
	user_id, workout_day, title, workout_type, description, start_time,
	planned_hours, actual_hours, planned_km, actual_km, tss, if_factor,
	power_avg, hr_avg, rpe, feeling, coach_comments, athlete_comments, source
) VALUES (
	@userID, @workoutDay, @title, @workoutType, @description, @startTime,
	@plannedHours, @actualHours, @plannedKm, @actualKm, @tss, @ifFactor,
	@powerAvg, @hrAvg, @rpe, @feeling, @coachComments, @athleteComments, @source
)
ON CONFLICT (user_id, workout_day, title, workout_type) DO UPDATE SET
	description      = EXCLUDED.description,
	start_time       = EXCLUDED.start_time,
	planned_hours    = EXCLUDED.planned_hours,
	actual_hours     = EXCLUDED.actual_hours,
	planned_km       = EXCLUDED.planned_km,
	actual_km        = EXCLUDED.actual_km,
	tss              = EXCLUDED.tss,
	if_factor        = EXCLUDED.if_factor,
	power_avg        = EXCLUDED.power_avg,
	hr_avg           = EXCLUDED.hr_avg,
	rpe              = EXCLUDED.rpe,
	feeling          = EXCLUDED.feeling,
	coach_comments   = EXCLUDED.coach_comments,
	athlete_comments = EXCLUDED.athlete_comments,
	source           = EXCLUDED.source,
	updated_at       = now()`

// ExistingKeys loads the composite keys of the user's stored workouts in
// [start, end].
func ExistingKeys(ctx context.Context, q Querier, userID int, start, end time.Time) (map[Key]bool, error) {
	rows, err := q.Query(ctx,
		`SELECT workout_day, title, workout_type FROM tp_workouts
		 WHERE user_id = @userID AND workout_day >= @start AND workout_day <= @end`,
		pgx.NamedArgs{
			"userID": userID,
			"start":  start.Format(time.DateOnly),
			"end":    end.Format(time.DateOnly),
		})
	if err != nil {
		return nil, fmt.Errorf("query existing workouts: %w", err)
	}
	defer rows.Close()

	keys := make(map[Key]bool)
	for rows.Next() {
		var day time.Time
		var title, workoutType string
		if err := rows.Scan(&day, &title, &workoutType); err != nil {
			return nil, fmt.Errorf("scan existing workout: %w", err)
		}
		keys[MakeKey(day, title, workoutType)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read existing workouts: %w", err)
	}
	return keys, nil
}

// Upsert writes rows keyed on (user, day, title, type), batchSize statements
// per round trip. Rows must already be collapsed to one per key (see
// Classify). Callers wanting all-or-nothing pass a pgx.Tx. onBatch, if set,
// is called after each batch with the number of rows written so far.
func Upsert(ctx context.Context, q Querier, userID int, rows []Row, batchSize int, onBatch func(done int)) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		b := &pgx.Batch{}
		for _, r := range rows[start:end] {
			b.Queue(upsertWorkoutSQL, upsertArgs(userID, r))
		}
		if err := sendBatch(ctx, q, b); err != nil {
			return fmt.Errorf("upsert workouts %d-%d: %w", start+1, end, err)
		}
		if onBatch != nil {
			onBatch(end)
		}
	}
	return nil
}

func sendBatch(ctx context.Context, q Querier, b *pgx.Batch) error {
	br := q.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	return br.Close()
}

func upsertArgs(userID int, r Row) pgx.NamedArgs {
	return pgx.NamedArgs{
		"userID":          userID,
		"workoutDay":      r.WorkoutDay.Format(time.DateOnly),
		"title":           r.Title,
		"workoutType":     r.WorkoutType,
		"description":     nullable(r.Description),
		"startTime":       nullable(r.StartTime),
		"plannedHours":    r.PlannedHours,
		"actualHours":     r.ActualHours,
		"plannedKm":       r.PlannedKm,
		"actualKm":        r.ActualKm,
		"tss":             r.TSS,
		"ifFactor":        r.IF,
		"powerAvg":        r.PowerAvg,
		"hrAvg":           r.HRAvg,
		"rpe":             r.RPE,
		"feeling":         r.Feeling,
		"coachComments":   nullable(r.CoachComments),
		"athleteComments": nullable(r.AthleteComments),
		"source":          r.Source,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
