package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/xaenox/pocket-therapy/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

// DatabaseConfig describes the Postgres connection. URL, when set, wins
// over the individual fields.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c DatabaseConfig) ConnString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(ctx context.Context, config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", config.ConnString())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db, logger: logger}

	// Initialize database schema
	if err := storage.initializeSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	logger.Info("Connected to PostgreSQL",
		zap.String("host", config.Host),
		zap.String("dbname", config.DBName))
	return storage, nil
}

func (s *PostgresStorage) initializeSchema(ctx context.Context) error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

// Mood methods

func (s *PostgresStorage) SaveMoodEntry(ctx context.Context, entry *models.MoodEntry) error {
	query := `
		INSERT INTO mood_entries (id, user_id, value, recorded_at, note, triggers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Value,
		entry.Timestamp,
		nullString(entry.Note),
		pq.Array(nonNil(entry.Triggers)),
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error saving mood entry: %w", err)
	}
	return nil
}

const moodColumns = `id, user_id, value, recorded_at, note, triggers, created_at, updated_at`

func scanMood(row interface{ Scan(...any) error }) (*models.MoodEntry, error) {
	e := &models.MoodEntry{}
	var note sql.NullString
	var triggers []string
	if err := row.Scan(&e.ID, &e.UserID, &e.Value, &e.Timestamp, &note, pq.Array(&triggers), &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if note.Valid {
		n := note.String
		e.Note = &n
	}
	if len(triggers) > 0 {
		e.Triggers = triggers
	}
	return e, nil
}

func (s *PostgresStorage) GetMoodEntry(ctx context.Context, id string) (*models.MoodEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+moodColumns+` FROM mood_entries WHERE id = $1`, id)
	e, err := scanMood(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting mood entry: %w", err)
	}
	return e, nil
}

func (s *PostgresStorage) UpdateMoodNote(ctx context.Context, id string, note *string) error {
	query := `
		UPDATE mood_entries
		SET note = $1, updated_at = $2
		WHERE id = $3`

	result, err := s.db.ExecContext(ctx, query, nullString(note), time.Now(), id)
	if err != nil {
		return fmt.Errorf("error updating mood note: %w", err)
	}
	return expectRow(result)
}

func (s *PostgresStorage) ListMoodEntries(ctx context.Context, userID int64, since time.Time, limit int) ([]models.MoodEntry, error) {
	query := `SELECT ` + moodColumns + `
		FROM mood_entries
		WHERE user_id = $1 AND recorded_at >= $2
		ORDER BY recorded_at DESC, id
		LIMIT $3`

	rows, err := s.db.QueryContext(ctx, query, userID, since, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("error querying mood entries: %w", err)
	}
	defer rows.Close()

	var entries []models.MoodEntry
	for rows.Next() {
		e, err := scanMood(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning mood entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *PostgresStorage) DeleteMoodEntriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM mood_entries WHERE recorded_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error deleting mood entries: %w", err)
	}
	return result.RowsAffected()
}

// Session methods

func (s *PostgresStorage) SaveSession(ctx context.Context, session *models.ExerciseSession) error {
	query := `
		INSERT INTO exercise_sessions (id, user_id, exercise_id, started_at, completed_at, completed, rating, notes, mood_at_start, time_of_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.ExerciseID,
		session.StartedAt,
		nullTime(session.CompletedAt),
		session.Completed,
		nullInt(session.Rating),
		session.Notes,
		nullInt(session.MoodAtStart),
		string(session.TimeOfDay),
	)
	if err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}
	return nil
}

const sessionColumns = `id, user_id, exercise_id, started_at, completed_at, completed, rating, notes, mood_at_start, time_of_day`

func scanSession(row interface{ Scan(...any) error }) (*models.ExerciseSession, error) {
	sess := &models.ExerciseSession{}
	var completedAt sql.NullTime
	var rating, mood sql.NullInt64
	var tod string
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.ExerciseID, &sess.StartedAt, &completedAt,
		&sess.Completed, &rating, &sess.Notes, &mood, &tod); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		sess.CompletedAt = &t
	}
	if rating.Valid {
		r := int(rating.Int64)
		sess.Rating = &r
	}
	if mood.Valid {
		m := int(mood.Int64)
		sess.MoodAtStart = &m
	}
	sess.TimeOfDay = models.TimeOfDay(tod)
	return sess, nil
}

func (s *PostgresStorage) GetSession(ctx context.Context, id string) (*models.ExerciseSession, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM exercise_sessions WHERE id = $1`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting session: %w", err)
	}
	return sess, nil
}

func (s *PostgresStorage) CompleteSession(ctx context.Context, id string, completedAt time.Time, rating *int, notes string) error {
	query := `
		UPDATE exercise_sessions
		SET completed = TRUE, completed_at = $1, rating = $2, notes = $3
		WHERE id = $4`

	result, err := s.db.ExecContext(ctx, query, completedAt, nullInt(rating), notes, id)
	if err != nil {
		return fmt.Errorf("error completing session: %w", err)
	}
	return expectRow(result)
}

func (s *PostgresStorage) ListSessions(ctx context.Context, userID int64, limit int) ([]models.ExerciseSession, error) {
	query := `SELECT ` + sessionColumns + `
		FROM exercise_sessions
		WHERE user_id = $1
		ORDER BY started_at DESC, id
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, userID, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("error querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.ExerciseSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// Catalog methods

func (s *PostgresStorage) ReplaceExercises(ctx context.Context, exercises []models.Exercise) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM exercises`); err != nil {
			return fmt.Errorf("error clearing exercises: %w", err)
		}
		query := `
			INSERT INTO exercises (id, title, category, difficulty, duration_seconds, description, instructions, benefits, tags, crisis_appropriate)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
		for _, ex := range exercises {
			_, err := tx.ExecContext(ctx, query,
				ex.ID, ex.Title, string(ex.Category), string(ex.Difficulty), ex.DurationSeconds, ex.Description,
				pq.Array(nonNil(ex.Instructions)), pq.Array(nonNil(ex.Benefits)), pq.Array(nonNil(ex.Tags)),
				ex.CrisisAppropriate)
			if err != nil {
				return fmt.Errorf("error inserting exercise %q: %w", ex.ID, err)
			}
		}
		return nil
	})
}

const exerciseColumns = `id, title, category, difficulty, duration_seconds, description, instructions, benefits, tags, crisis_appropriate`

func scanExercise(row interface{ Scan(...any) error }) (*models.Exercise, error) {
	ex := &models.Exercise{}
	var category, difficulty string
	err := row.Scan(&ex.ID, &ex.Title, &category, &difficulty, &ex.DurationSeconds, &ex.Description,
		pq.Array(&ex.Instructions), pq.Array(&ex.Benefits), pq.Array(&ex.Tags), &ex.CrisisAppropriate)
	if err != nil {
		return nil, err
	}
	ex.Category = models.Category(category)
	ex.Difficulty = models.Difficulty(difficulty)
	return ex, nil
}

func (s *PostgresStorage) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+exerciseColumns+` FROM exercises ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error querying exercises: %w", err)
	}
	defer rows.Close()

	var exercises []models.Exercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning exercise: %w", err)
		}
		exercises = append(exercises, *ex)
	}
	return exercises, rows.Err()
}

func (s *PostgresStorage) GetExercise(ctx context.Context, id string) (*models.Exercise, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id)
	ex, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting exercise: %w", err)
	}
	return ex, nil
}

func (s *PostgresStorage) ReplaceCrisisResources(ctx context.Context, resources []models.CrisisResource) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM crisis_resources`); err != nil {
			return fmt.Errorf("error clearing crisis resources: %w", err)
		}
		query := `
			INSERT INTO crisis_resources (id, name, type, phone, text_number, chat_url, website, region, availability, specializations, languages, last_verified)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
		for _, r := range resources {
			_, err := tx.ExecContext(ctx, query,
				r.ID, r.Name, string(r.Type), r.Phone, r.TextNumber, r.ChatURL, r.Website, r.Region,
				r.Availability, pq.Array(nonNil(r.Specializations)), pq.Array(nonNil(r.Languages)), r.LastVerified)
			if err != nil {
				return fmt.Errorf("error inserting crisis resource %q: %w", r.ID, err)
			}
		}
		return nil
	})
}

func (s *PostgresStorage) ListCrisisResources(ctx context.Context) ([]models.CrisisResource, error) {
	query := `
		SELECT id, name, type, phone, text_number, chat_url, website, region, availability, specializations, languages, last_verified
		FROM crisis_resources
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying crisis resources: %w", err)
	}
	defer rows.Close()

	var resources []models.CrisisResource
	for rows.Next() {
		var r models.CrisisResource
		var typ string
		err := rows.Scan(&r.ID, &r.Name, &typ, &r.Phone, &r.TextNumber, &r.ChatURL, &r.Website, &r.Region,
			&r.Availability, pq.Array(&r.Specializations), pq.Array(&r.Languages), &r.LastVerified)
		if err != nil {
			return nil, fmt.Errorf("error scanning crisis resource: %w", err)
		}
		r.Type = models.ResourceType(typ)
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func (s *PostgresStorage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
		}
		return err
	}
	return tx.Commit()
}

func expectRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// sqlLimit maps "no limit" onto a NULL LIMIT, which Postgres treats as ALL.
func sqlLimit(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
