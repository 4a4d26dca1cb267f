// Package engine implements the product-level question operations on top
// of the catalog store: paginated listing, substring search, category
// filtering, creation, deletion, and the stateless quiz question picker.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/gokatarajesh/trivia-api/internal/catalog"
)

const (
	// QuestionsPerPage fixes the listing window size.
	QuestionsPerPage = 10

	// QuizLength is the number of questions served before a game ends.
	QuizLength = 5

	// AllCategories is the quiz selector meaning every category.
	AllCategories int64 = 0
)

// Engine composes catalog primitives into query operations. It holds no
// state across calls: pagination and quiz progress are caller-supplied.
type Engine struct {
	store catalog.Store
	pick  func(n int) int
}

// Options tunes engine construction.
type Options struct {
	// Pick returns an index in [0, n) for the quiz selection. Defaults
	// to math/rand/v2; tests inject a deterministic picker.
	Pick func(n int) int
}

func New(store catalog.Store, opts Options) *Engine {
	pick := opts.Pick
	if pick == nil {
		pick = rand.IntN
	}
	return &Engine{store: store, pick: pick}
}

// QuestionPage is the result of a paginated listing.
type QuestionPage struct {
	Questions      []catalog.Question
	TotalQuestions int
	Categories     []string
	// CurrentCategory is nil for operations spanning all categories.
	CurrentCategory *int64
}

// QuestionSet is the result of a search or category filter.
type QuestionSet struct {
	Questions       []catalog.Question
	TotalQuestions  int
	CurrentCategory *int64
}

// NewQuestion carries the content fields for question creation.
type NewQuestion struct {
	Question   string
	Answer     string
	Category   int64
	Difficulty int
}

// Categories returns every category ordered by id, failing with
// ErrEmptyCatalog when there are none.
func (e *Engine) Categories(ctx context.Context) ([]catalog.Category, error) {
	categories, err := e.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if len(categories) == 0 {
		return nil, ErrEmptyCatalog
	}
	return categories, nil
}

// Page slices the id-ordered question listing into the one-based page
// window and reports the unpaginated total plus all category labels.
// An out-of-range page is an error, not an empty success.
func (e *Engine) Page(ctx context.Context, page int) (QuestionPage, error) {
	questions, err := e.store.ListQuestions(ctx)
	if err != nil {
		return QuestionPage{}, fmt.Errorf("list questions: %w", err)
	}

	start := (page - 1) * QuestionsPerPage
	end := start + QuestionsPerPage
	if start < 0 || start >= len(questions) {
		return QuestionPage{}, ErrEmptyPage
	}
	end = min(end, len(questions))

	categories, err := e.store.ListCategories(ctx)
	if err != nil {
		return QuestionPage{}, fmt.Errorf("list categories: %w", err)
	}
	labels := make([]string, 0, len(categories))
	for _, c := range categories {
		labels = append(labels, c.Type)
	}

	return QuestionPage{
		Questions:      questions[start:end],
		TotalQuestions: len(questions),
		Categories:     labels,
	}, nil
}

// Search returns every question whose text contains term in any position,
// case-insensitive. Zero matches is a valid empty result.
func (e *Engine) Search(ctx context.Context, term string) (QuestionSet, error) {
	if strings.TrimSpace(term) == "" {
		return QuestionSet{}, &ValidationError{Fields: []string{"searchTerm"}}
	}
	questions, err := e.store.SearchQuestions(ctx, term)
	if err != nil {
		return QuestionSet{}, fmt.Errorf("search questions: %w", err)
	}
	return QuestionSet{
		Questions:      questions,
		TotalQuestions: len(questions),
	}, nil
}

// ByCategory returns every question in the given category, failing with
// ErrNoMatch when none match. An empty-but-real category is therefore
// indistinguishable from an unknown id; see DESIGN.md.
func (e *Engine) ByCategory(ctx context.Context, categoryID int64) (QuestionSet, error) {
	questions, err := e.store.QuestionsByCategory(ctx, categoryID)
	if err != nil {
		return QuestionSet{}, fmt.Errorf("questions by category: %w", err)
	}
	if len(questions) == 0 {
		return QuestionSet{}, ErrNoMatch
	}
	return QuestionSet{
		Questions:       questions,
		TotalQuestions:  len(questions),
		CurrentCategory: &categoryID,
	}, nil
}

// Create validates the new question and stores it, returning the assigned
// id. Validation failures report every offending field at once.
func (e *Engine) Create(ctx context.Context, input NewQuestion) (int64, error) {
	if verr := input.validate(); verr != nil {
		return 0, verr
	}
	id, err := e.store.InsertQuestion(ctx, catalog.InsertQuestionParams{
		Question:   input.Question,
		Answer:     input.Answer,
		Category:   input.Category,
		Difficulty: input.Difficulty,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return id, nil
}

func (in NewQuestion) validate() *ValidationError {
	var fields []string
	if strings.TrimSpace(in.Question) == "" {
		fields = append(fields, "question")
	}
	if strings.TrimSpace(in.Answer) == "" {
		fields = append(fields, "answer")
	}
	if in.Category <= 0 {
		fields = append(fields, "category")
	}
	if in.Difficulty <= 0 {
		fields = append(fields, "difficulty")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Delete removes a question by id. Unknown ids fail with ErrNotFound; any
// other store failure is wrapped, never propagated raw.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	if err := e.store.DeleteQuestion(ctx, id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// NextQuestion picks one random question from the candidate pool: questions
// in the selected categories not already served. It returns nil with no
// error when the game is over, either because QuizLength questions were
// served or because the pool is exhausted.
func (e *Engine) NextQuestion(ctx context.Context, previous []int64, quizCategory int64) (*catalog.Question, error) {
	if len(previous) >= QuizLength {
		return nil, nil
	}

	categoryIDs, err := e.resolveCategories(ctx, quizCategory)
	if err != nil {
		return nil, err
	}
	if len(categoryIDs) == 0 {
		return nil, nil
	}

	pool, err := e.store.QuestionsExcluding(ctx, previous, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("candidate pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, nil
	}

	question := pool[e.pick(len(pool))]
	return &question, nil
}

// resolveCategories turns the quiz selector into the set of category ids
// to draw from: all of them for the AllCategories sentinel, the singleton
// for an existing category id, nothing for an unknown one.
func (e *Engine) resolveCategories(ctx context.Context, quizCategory int64) ([]int64, error) {
	categories, err := e.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if quizCategory == AllCategories {
		ids := make([]int64, 0, len(categories))
		for _, c := range categories {
			ids = append(ids, c.ID)
		}
		return ids, nil
	}
	exists := slices.ContainsFunc(categories, func(c catalog.Category) bool {
		return c.ID == quizCategory
	})
	if !exists {
		return nil, nil
	}
	return []int64{quizCategory}, nil
}
