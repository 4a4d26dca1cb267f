package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-api/internal/catalog"
	"github.com/gokatarajesh/trivia-api/internal/engine"
	httperrors "github.com/gokatarajesh/trivia-api/pkg/http/errors"
)

// Handlers exposes the catalog and quiz endpoints.
type Handlers struct {
	engine *engine.Engine
	cache  *catalog.CategoryCache
	logger zerolog.Logger
}

// NewHandlers builds the endpoint set. cache may be nil, in which case
// category reads always go to the store.
func NewHandlers(eng *engine.Engine, cache *catalog.CategoryCache, logger zerolog.Logger) *Handlers {
	return &Handlers{
		engine: eng,
		cache:  cache,
		logger: logger.With().Str("component", "http").Logger(),
	}
}

type categoriesResponse struct {
	Success         bool     `json:"success"`
	Categories      []string `json:"categories"`
	TotalCategories int      `json:"total_categories"`
}

type questionsResponse struct {
	Success         bool               `json:"success"`
	Questions       []catalog.Question `json:"questions"`
	TotalQuestions  int                `json:"total_questions"`
	CurrentCategory *int64             `json:"current_category"`
	Categories      []string           `json:"categories,omitempty"`
}

type createResponse struct {
	Success    bool  `json:"success"`
	QuestionID int64 `json:"question_id"`
}

type quizResponse struct {
	Success  bool              `json:"success"`
	Question *catalog.Question `json:"question,omitempty"`
}

// GetCategories lists all category labels.
func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories := h.cachedCategories(r)
	if categories == nil {
		var err error
		categories, err = h.engine.Categories(ctx)
		if err != nil {
			h.respondEngineError(w, err)
			return
		}
		if h.cache != nil {
			if err := h.cache.Set(ctx, categories); err != nil {
				h.logger.Warn().Err(err).Msg("category cache write failed")
			}
		}
	}

	labels := make([]string, 0, len(categories))
	for _, c := range categories {
		labels = append(labels, c.Type)
	}
	h.respondJSON(w, http.StatusOK, categoriesResponse{
		Success:         true,
		Categories:      labels,
		TotalCategories: len(labels),
	})
}

func (h *Handlers) cachedCategories(r *http.Request) []catalog.Category {
	if h.cache == nil {
		return nil
	}
	categories, err := h.cache.Get(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("category cache read failed")
		return nil
	}
	return categories
}

// GetQuestions lists one page of questions with the unpaginated total and
// all category labels. The page query parameter defaults to 1; a value
// that fails to parse also falls back to 1.
func (h *Handlers) GetQuestions(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			page = parsed
		}
	}

	result, err := h.engine.Page(r.Context(), page)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, questionsResponse{
		Success:         true,
		Questions:       nonNil(result.Questions),
		TotalQuestions:  result.TotalQuestions,
		CurrentCategory: result.CurrentCategory,
		Categories:      result.Categories,
	})
}

type postQuestionRequest struct {
	// SearchTerm selects the search operation when the key is present;
	// without it the request is a question creation. A present-but-empty
	// term is a validation error, never a create.
	SearchTerm *string         `json:"searchTerm"`
	Question   string          `json:"question"`
	Answer     string          `json:"answer"`
	Category   json.RawMessage `json:"category"`
	Difficulty json.RawMessage `json:"difficulty"`
}

// PostQuestions routes on the presence of the searchTerm key: search when
// it is supplied, question creation otherwise.
func (h *Handlers) PostQuestions(w http.ResponseWriter, r *http.Request) {
	var req postQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.MsgBadRequest)
		return
	}

	if req.SearchTerm != nil {
		h.searchQuestions(w, r, *req.SearchTerm)
		return
	}
	h.createQuestion(w, r, req)
}

func (h *Handlers) searchQuestions(w http.ResponseWriter, r *http.Request, term string) {
	result, err := h.engine.Search(r.Context(), term)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, questionsResponse{
		Success:         true,
		Questions:       nonNil(result.Questions),
		TotalQuestions:  result.TotalQuestions,
		CurrentCategory: result.CurrentCategory,
	})
}

func (h *Handlers) createQuestion(w http.ResponseWriter, r *http.Request, req postQuestionRequest) {
	// Category and difficulty arrive as numbers or numeric strings
	// depending on the client; a value that coerces to neither is a
	// payload the store could never accept.
	category, ok := coerceInt(req.Category)
	if !ok {
		httperrors.RespondUnprocessable(w, httperrors.MsgUnprocessable)
		return
	}
	difficulty, ok := coerceInt(req.Difficulty)
	if !ok {
		httperrors.RespondUnprocessable(w, httperrors.MsgUnprocessable)
		return
	}

	id, err := h.engine.Create(r.Context(), engine.NewQuestion{
		Question:   req.Question,
		Answer:     req.Answer,
		Category:   category,
		Difficulty: int(difficulty),
	})
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, createResponse{
		Success:    true,
		QuestionID: id,
	})
}

// DeleteQuestion removes a question by id.
func (h *Handlers) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httperrors.RespondNotFound(w, httperrors.MsgNotFound)
		return
	}
	if err := h.engine.Delete(r.Context(), id); err != nil {
		h.respondEngineError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GetCategoryQuestions lists every question in one category.
func (h *Handlers) GetCategoryQuestions(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httperrors.RespondNotFound(w, httperrors.MsgNotFound)
		return
	}
	result, err := h.engine.ByCategory(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, questionsResponse{
		Success:         true,
		Questions:       nonNil(result.Questions),
		TotalQuestions:  result.TotalQuestions,
		CurrentCategory: result.CurrentCategory,
	})
}

type quizRequest struct {
	PreviousQuestions []int64 `json:"previous_questions"`
	QuizCategory      struct {
		ID json.RawMessage `json:"id"`
	} `json:"quiz_category"`
}

// PostQuizzes serves the next quiz question: a random pick from the
// selected categories excluding previously served ids, or a bare success
// once the game is over.
func (h *Handlers) PostQuizzes(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.MsgBadRequest)
		return
	}
	categoryID, ok := coerceInt(req.QuizCategory.ID)
	if !ok {
		httperrors.RespondBadRequest(w, httperrors.MsgBadRequest)
		return
	}

	question, err := h.engine.NextQuestion(r.Context(), req.PreviousQuestions, categoryID)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, quizResponse{
		Success:  true,
		Question: question,
	})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error().Err(err).Msg("response encode failed")
	}
}

func (h *Handlers) respondEngineError(w http.ResponseWriter, err error) {
	var verr *engine.ValidationError
	switch {
	case errors.As(err, &verr):
		httperrors.RespondBadRequest(w, httperrors.MsgBadRequest)
	case errors.Is(err, engine.ErrNotFound),
		errors.Is(err, engine.ErrEmptyPage),
		errors.Is(err, engine.ErrEmptyCatalog),
		errors.Is(err, engine.ErrNoMatch):
		httperrors.RespondNotFound(w, httperrors.MsgNotFound)
	case errors.Is(err, engine.ErrPersistence):
		httperrors.RespondUnprocessable(w, httperrors.MsgUnprocessable)
	default:
		h.logger.Error().Err(err).Msg("engine operation failed")
		httperrors.RespondInternalError(w, httperrors.MsgInternalError)
	}
}

// coerceInt accepts a JSON number or a numeric string. A nil raw value
// (absent field) coerces to zero so the engine can report it as missing.
func coerceInt(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, true
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

func nonNil(questions []catalog.Question) []catalog.Question {
	if questions == nil {
		return []catalog.Question{}
	}
	return questions
}
