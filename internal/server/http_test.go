package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trivia-api/internal/catalog"
	"github.com/gokatarajesh/trivia-api/internal/config"
	"github.com/gokatarajesh/trivia-api/internal/engine"
)

type fixtureStore struct {
	categories []catalog.Category
	questions  []catalog.Question
	nextID     int64
}

var _ catalog.Store = (*fixtureStore)(nil)

func (f *fixtureStore) ListCategories(_ context.Context) ([]catalog.Category, error) {
	return f.categories, nil
}

func (f *fixtureStore) ListQuestions(_ context.Context) ([]catalog.Question, error) {
	return f.questions, nil
}

func (f *fixtureStore) SearchQuestions(_ context.Context, term string) ([]catalog.Question, error) {
	var matches []catalog.Question
	for _, q := range f.questions {
		if strings.Contains(strings.ToLower(q.Question), strings.ToLower(term)) {
			matches = append(matches, q)
		}
	}
	return matches, nil
}

func (f *fixtureStore) QuestionsByCategory(_ context.Context, categoryID int64) ([]catalog.Question, error) {
	var matches []catalog.Question
	for _, q := range f.questions {
		if q.Category == categoryID {
			matches = append(matches, q)
		}
	}
	return matches, nil
}

func (f *fixtureStore) QuestionsExcluding(_ context.Context, previous []int64, categories []int64) ([]catalog.Question, error) {
	var matches []catalog.Question
	for _, q := range f.questions {
		if slices.Contains(categories, q.Category) && !slices.Contains(previous, q.ID) {
			matches = append(matches, q)
		}
	}
	return matches, nil
}

func (f *fixtureStore) InsertQuestion(_ context.Context, params catalog.InsertQuestionParams) (int64, error) {
	f.nextID++
	f.questions = append(f.questions, catalog.Question{
		ID:         f.nextID,
		Question:   params.Question,
		Answer:     params.Answer,
		Category:   params.Category,
		Difficulty: params.Difficulty,
	})
	return f.nextID, nil
}

func (f *fixtureStore) DeleteQuestion(_ context.Context, id int64) error {
	for i, q := range f.questions {
		if q.ID == id {
			f.questions = slices.Delete(f.questions, i, i+1)
			return nil
		}
	}
	return catalog.ErrNotFound
}

func fixture(n int) *fixtureStore {
	store := &fixtureStore{
		categories: []catalog.Category{
			{ID: 1, Type: "Science"},
			{ID: 2, Type: "Art"},
		},
	}
	for i := 1; i <= n; i++ {
		store.questions = append(store.questions, catalog.Question{
			ID:         int64(i),
			Question:   fmt.Sprintf("Question %d", i),
			Answer:     fmt.Sprintf("Answer %d", i),
			Category:   int64(i%2 + 1),
			Difficulty: 2,
		})
	}
	store.nextID = int64(n)
	return store
}

func newTestServer(t *testing.T, store catalog.Store) *httptest.Server {
	t.Helper()
	cfg := &config.App{
		HTTPAddr: "127.0.0.1:0",
		CORS: config.CORS{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         3600,
		},
	}
	eng := engine.New(store, engine.Options{Pick: func(int) int { return 0 }})
	srv := NewHTTPServer(cfg, zerolog.New(io.Discard), eng, nil, nil, nil)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func decodeBody(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	defer res.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body
}

func postJSON(t *testing.T, url string, payload string) *http.Response {
	t.Helper()
	res, err := http.Post(url, "application/json", bytes.NewBufferString(payload))
	require.NoError(t, err)
	return res
}

func TestGetCategories(t *testing.T) {
	ts := newTestServer(t, fixture(3))

	res, err := http.Get(ts.URL + "/categories")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	body := decodeBody(t, res)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []any{"Science", "Art"}, body["categories"])
	assert.Equal(t, float64(2), body["total_categories"])
}

func TestGetCategoriesEmptyCatalog(t *testing.T) {
	ts := newTestServer(t, &fixtureStore{})

	res, err := http.Get(ts.URL + "/categories")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	body := decodeBody(t, res)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(404), body["error"])
	assert.Equal(t, "Not Found", body["message"])
}

func TestGetQuestionsPaginated(t *testing.T) {
	ts := newTestServer(t, fixture(12))

	res, err := http.Get(ts.URL + "/questions?page=2")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	body := decodeBody(t, res)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(12), body["total_questions"])
	assert.Nil(t, body["current_category"])
	questions := body["questions"].([]any)
	require.Len(t, questions, 2)
	first := questions[0].(map[string]any)
	assert.Equal(t, float64(11), first["id"])
}

func TestGetQuestionsBeyondPagination(t *testing.T) {
	ts := newTestServer(t, fixture(12))

	res, err := http.Get(ts.URL + "/questions?page=4444")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, false, decodeBody(t, res)["success"])
}

func TestSearchQuestions(t *testing.T) {
	store := fixture(3)
	store.questions[0].Question = "What was the title of the 1990 fantasy?"
	ts := newTestServer(t, store)

	res := postJSON(t, ts.URL+"/questions", `{"searchTerm":"title"}`)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	body := decodeBody(t, res)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["total_questions"])
	assert.Nil(t, body["current_category"])
	require.Len(t, body["questions"].([]any), 1)
}

func TestSearchQuestionsNoMatches(t *testing.T) {
	ts := newTestServer(t, fixture(3))

	res := postJSON(t, ts.URL+"/questions", `{"searchTerm":"943c34r435"}`)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	body := decodeBody(t, res)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(0), body["total_questions"])
	assert.Empty(t, body["questions"])
}

func TestSearchQuestionsEmptyTerm(t *testing.T) {
	ts := newTestServer(t, fixture(3))

	res := postJSON(t, ts.URL+"/questions", `{"searchTerm":""}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, false, decodeBody(t, res)["success"])
}

func TestCreateQuestion(t *testing.T) {
	ts := newTestServer(t, fixture(3))

	res := postJSON(t, ts.URL+"/questions",
		`{"question":"Is that true?","answer":"It is","category":1,"difficulty":2}`)
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	body := decodeBody(t, res)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(4), body["question_id"])

	listRes, err := http.Get(ts.URL + "/questions")
	require.NoError(t, err)
	assert.Equal(t, float64(4), decodeBody(t, listRes)["total_questions"])
}

func TestCreateQuestionCoercesNumericStrings(t *testing.T) {
	ts := newTestServer(t, fixture(0))

	res := postJSON(t, ts.URL+"/questions",
		`{"question":"Is that true?","answer":"It is","category":"1","difficulty":"2"}`)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
}

func TestCreateQuestionMissingFields(t *testing.T) {
	ts := newTestServer(t, fixture(0))

	res := postJSON(t, ts.URL+"/questions", `{"question":"Q","answer":"A"}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	body := decodeBody(t, res)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(400), body["error"])
}

func TestCreateQuestionUncoercibleDifficulty(t *testing.T) {
	ts := newTestServer(t, fixture(0))

	res := postJSON(t, ts.URL+"/questions",
		`{"question":"Q","answer":"A","category":1,"difficulty":"hard"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Equal(t, float64(422), decodeBody(t, res)["error"])
}

func TestDeleteQuestion(t *testing.T) {
	ts := newTestServer(t, fixture(3))

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/questions/2", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, decodeBody(t, res)["success"])
}

func TestDeleteQuestionUnknownID(t *testing.T) {
	ts := newTestServer(t, fixture(3))

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/questions/99999", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestGetCategoryQuestions(t *testing.T) {
	ts := newTestServer(t, fixture(4))

	res, err := http.Get(ts.URL + "/categories/1/questions")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	body := decodeBody(t, res)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["current_category"])
	assert.Equal(t, float64(2), body["total_questions"])
}

func TestGetCategoryQuestionsNoMatch(t *testing.T) {
	ts := newTestServer(t, fixture(4))

	res, err := http.Get(ts.URL + "/categories/77/questions")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestQuizNextQuestion(t *testing.T) {
	ts := newTestServer(t, fixture(8))

	res := postJSON(t, ts.URL+"/quizzes",
		`{"previous_questions":[1,2],"quiz_category":{"id":0}}`)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	body := decodeBody(t, res)
	assert.Equal(t, true, body["success"])
	question := body["question"].(map[string]any)
	assert.NotContains(t, []float64{1, 2}, question["id"])
}

func TestQuizGameOverAfterFiveQuestions(t *testing.T) {
	ts := newTestServer(t, fixture(20))

	res := postJSON(t, ts.URL+"/quizzes",
		`{"previous_questions":[1,2,3,4,5],"quiz_category":{"id":0}}`)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	body := decodeBody(t, res)
	assert.Equal(t, true, body["success"])
	_, hasQuestion := body["question"]
	assert.False(t, hasQuestion, "game over responses carry no question")
}

func TestQuizStringCategoryID(t *testing.T) {
	ts := newTestServer(t, fixture(8))

	res := postJSON(t, ts.URL+"/quizzes",
		`{"previous_questions":[],"quiz_category":{"id":"2"}}`)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	body := decodeBody(t, res)
	question := body["question"].(map[string]any)
	assert.Equal(t, float64(2), question["category"])
}

func TestQuizMalformedBody(t *testing.T) {
	ts := newTestServer(t, fixture(8))

	res := postJSON(t, ts.URL+"/quizzes", `{"previous_questions":`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, fixture(1))

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/questions", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, res.Header.Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, fixture(1))

	res, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
