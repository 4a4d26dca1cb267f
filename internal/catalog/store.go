package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when an addressed row does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Store is the persistence contract consumed by the query engine.
type Store interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListQuestions(ctx context.Context) ([]Question, error)
	SearchQuestions(ctx context.Context, term string) ([]Question, error)
	QuestionsByCategory(ctx context.Context, categoryID int64) ([]Question, error)
	QuestionsExcluding(ctx context.Context, previous []int64, categories []int64) ([]Question, error)
	InsertQuestion(ctx context.Context, params InsertQuestionParams) (int64, error)
	DeleteQuestion(ctx context.Context, id int64) error
}

// PG implements Store over a pgx connection pool.
// The questions.category column carries no foreign key on purpose: the
// engine must tolerate dangling category references rather than fail.
type PG struct {
	pool *pgxpool.Pool
}

var _ Store = (*PG)(nil)

// NewPG wraps a pgx pool with typed catalog queries.
func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

// ListCategories returns every category ordered by id ascending.
func (s *PG) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, type FROM categories ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Type); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ListQuestions returns every question ordered by id ascending.
func (s *PG) ListQuestions(ctx context.Context) ([]Question, error) {
	return s.queryQuestions(ctx,
		`SELECT id, question, answer, category, difficulty FROM questions ORDER BY id ASC`)
}

// SearchQuestions returns questions whose text contains term, case-insensitive.
func (s *PG) SearchQuestions(ctx context.Context, term string) ([]Question, error) {
	return s.queryQuestions(ctx,
		`SELECT id, question, answer, category, difficulty FROM questions
		 WHERE question ILIKE '%' || $1 || '%' ORDER BY id ASC`, term)
}

// QuestionsByCategory returns questions whose category equals the given id.
func (s *PG) QuestionsByCategory(ctx context.Context, categoryID int64) ([]Question, error) {
	return s.queryQuestions(ctx,
		`SELECT id, question, answer, category, difficulty FROM questions
		 WHERE category = $1 ORDER BY id ASC`, categoryID)
}

// QuestionsExcluding returns questions within the given categories whose id
// is not in previous. An empty previous list excludes nothing.
func (s *PG) QuestionsExcluding(ctx context.Context, previous []int64, categories []int64) ([]Question, error) {
	// A nil slice would encode as SQL NULL and ANY(NULL) filters every row.
	if previous == nil {
		previous = []int64{}
	}
	if categories == nil {
		categories = []int64{}
	}
	return s.queryQuestions(ctx,
		`SELECT id, question, answer, category, difficulty FROM questions
		 WHERE category = ANY($1) AND NOT (id = ANY($2)) ORDER BY id ASC`,
		categories, previous)
}

// InsertQuestion stores a new question and returns its assigned id.
func (s *PG) InsertQuestion(ctx context.Context, params InsertQuestionParams) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO questions (question, answer, category, difficulty)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		params.Question, params.Answer, params.Category, params.Difficulty,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert question: %w", err)
	}
	return id, nil
}

// DeleteQuestion removes a question by id, reporting ErrNotFound for
// unknown ids.
func (s *PG) DeleteQuestion(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PG) queryQuestions(ctx context.Context, sql string, args ...any) ([]Question, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	questions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Question, error) {
		var q Question
		err := row.Scan(&q.ID, &q.Question, &q.Answer, &q.Category, &q.Difficulty)
		return q, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan questions: %w", err)
	}
	return questions, nil
}
