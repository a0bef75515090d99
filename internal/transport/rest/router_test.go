package rest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyforge/internal/config"
	"surveyforge/internal/generative"
	"surveyforge/internal/model"
	"surveyforge/internal/repository"
	"surveyforge/internal/result"
	"surveyforge/internal/service"
	"surveyforge/internal/transport/ws"
)

type memSurveys struct {
	mu   sync.Mutex
	seq  int
	data map[string]*model.Survey
}

func (m *memSurveys) Create(ctx context.Context, s *model.Survey) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	s.ID = fmt.Sprintf("s%d", m.seq)
	cp := *s
	m.data[s.ID] = &cp
	return s.ID, nil
}

func (m *memSurveys) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memSurveys) GetByHostID(ctx context.Context, hostID string) ([]*model.Survey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Survey{}
	for _, s := range m.data {
		if s.HostID == hostID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSurveys) Update(ctx context.Context, s *model.Survey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[s.ID]; !ok {
		return repository.ErrNotFound
	}
	m.data[s.ID] = s
	return nil
}

func (m *memSurveys) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

type memResponses struct {
	mu   sync.Mutex
	data []*model.Response
}

func (m *memResponses) Create(ctx context.Context, r *model.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = fmt.Sprintf("r%d", len(m.data)+1)
	m.data = append(m.data, r)
	return nil
}

func (m *memResponses) GetByID(ctx context.Context, id string) (*model.Response, error) {
	return nil, nil
}

func (m *memResponses) ListBySurvey(ctx context.Context, surveyID string) ([]*model.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Response{}
	for _, r := range m.data {
		if r.SurveyID == surveyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memResponses) SetSession(ctx context.Context, id, sessionID string) error {
	return nil
}

type testServer struct {
	handler http.Handler
	results *service.ResultService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{HostUsername: "admin", HostPassword: "pw", JWTSecret: "secret", Result: &config.ResultConfig{SessionTTL: time.Hour}}
	reg := result.DefaultRegistry()
	fake := &generative.FakeClient{TextFunc: func(ctx context.Context, p string) (*generative.TextResult, error) {
		return &generative.TextResult{Content: "You'd thrive as a designer."}, nil
	}}

	hub := ws.NewHub()
	t.Cleanup(hub.Close)

	auth := service.NewAuthService(cfg)
	surveys := service.NewSurveyService(&memSurveys{data: map[string]*model.Survey{}}, reg)
	results := service.NewResultService(reg, result.NewOrchestrator(result.Capabilities{Images: fake, Text: fake}), nil, time.Hour)
	results.SetBroadcaster(hub)
	responses := service.NewResponseService(&memResponses{}, surveys, results, auth)

	return &testServer{
		handler: NewRouter(&Container{
			AuthService:     auth,
			SurveyService:   surveys,
			ResponseService: responses,
			ResultService:   results,
			WSHub:           hub,
			CORSOrigins:     "https://app.example.com",
		}),
		results: results,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		data, err := sonic.Marshal(body)
		require.NoError(t, err)
		buf.Write(data)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	var resp model.LoginResponse
	code := s.do(t, "POST", "/v1/auth/login", "", model.LoginRequest{Username: "admin", Password: "pw"}, &resp)
	require.Equal(t, http.StatusOK, code)
	return resp.Token
}

func surveyBody() map[string]interface{} {
	return map[string]interface{}{
		"title": "Career quiz",
		"questions": []map[string]interface{}{
			{"title": "Favorite subject", "type": "text"},
			{"title": "Pick a tool", "type": "multiple-choice", "options": []map[string]string{{"text": "Pencil", "value": "p"}, {"text": "Laptop", "value": "l"}}},
		},
		"resultExperience": map[string]interface{}{
			"enabled": true,
			"components": []map[string]interface{}{
				{"id": "cta", "type": "cta-button", "order": 3, "config": map[string]interface{}{"url": "https://example.com"}},
				{"id": "advice", "type": "ai-custom", "order": 1, "config": map[string]interface{}{"prompt": "Give career advice"}},
				{"id": "thanks", "type": "custom-message", "order": 2, "config": map[string]interface{}{"message": ""}},
			},
		},
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, "POST", "/v1/auth/login", "", model.LoginRequest{Username: "admin", Password: "bad"}, nil))
	assert.Equal(t, http.StatusUnauthorized, s.do(t, "GET", "/v1/surveys", "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, s.do(t, "GET", "/v1/surveys", "garbage", nil, nil))
	assert.Equal(t, http.StatusOK, s.do(t, "GET", "/v1/surveys", s.login(t), nil, nil))
}

func TestComponentsListing(t *testing.T) {
	s := newTestServer(t)

	var out struct {
		Components []struct {
			Type               string `json:"type"`
			RequiresGeneration bool   `json:"requiresGeneration"`
		} `json:"components"`
	}
	require.Equal(t, http.StatusOK, s.do(t, "GET", "/v1/components", s.login(t), nil, &out))
	require.Len(t, out.Components, 5)
	assert.Equal(t, "ai-avatar", out.Components[0].Type)
	assert.True(t, out.Components[0].RequiresGeneration)
}

func TestCreateSurveyRejectsUnknownComponent(t *testing.T) {
	s := newTestServer(t)
	body := surveyBody()
	body["resultExperience"] = map[string]interface{}{
		"enabled":    true,
		"components": []map[string]interface{}{{"id": "x", "type": "hologram"}},
	}
	assert.Equal(t, http.StatusBadRequest, s.do(t, "POST", "/v1/surveys", s.login(t), body, nil))
}

func TestRespondentFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	var survey model.Survey
	require.Equal(t, http.StatusCreated, s.do(t, "POST", "/v1/surveys", token, surveyBody(), &survey))
	require.NotEmpty(t, survey.ID)
	assert.Equal(t, "q1", survey.Questions[0].ID)

	var public model.PublicSurvey
	require.Equal(t, http.StatusOK, s.do(t, "GET", "/v1/surveys/"+survey.ID+"/public", "", nil, &public))
	assert.Len(t, public.Questions, 2)

	var submitted model.SubmitResponseResult
	code := s.do(t, "POST", "/v1/surveys/"+survey.ID+"/responses", "", map[string]interface{}{
		"answers": map[string]interface{}{"0": "Art", "1": "l"},
	}, &submitted)
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, submitted.SessionID)
	require.NotEmpty(t, submitted.Token)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.results.Wait(ctx, submitted.SessionID))

	resultPath := "/v1/results/" + submitted.SessionID
	assert.Equal(t, http.StatusUnauthorized, s.do(t, "GET", resultPath, "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, s.do(t, "GET", resultPath, token, nil, nil))
	assert.Equal(t, http.StatusForbidden, s.do(t, "GET", "/v1/results/someone-else", submitted.Token, nil, nil))

	var snap model.ResultSnapshot
	require.Equal(t, http.StatusOK, s.do(t, "GET", resultPath, submitted.Token, nil, &snap))
	assert.True(t, snap.Done)
	require.Len(t, snap.Components, 3)
	assert.Equal(t, []string{"advice", "thanks", "cta"}, []string{
		snap.Components[0].ComponentID, snap.Components[1].ComponentID, snap.Components[2].ComponentID,
	})
	assert.Equal(t, "You'd thrive as a designer.", snap.Components[0].Text.Content)
	assert.Equal(t, result.DefaultMessage, snap.Components[1].Notice.Message)
	assert.Equal(t, result.DefaultCTALabel, snap.Components[2].CTA.Label)

	var listed struct {
		Responses []model.Response `json:"responses"`
	}
	require.Equal(t, http.StatusOK, s.do(t, "GET", "/v1/surveys/"+survey.ID+"/responses", token, nil, &listed))
	require.Len(t, listed.Responses, 1)
	assert.Equal(t, "l", listed.Responses[0].Answers[1])

	assert.Equal(t, http.StatusNoContent, s.do(t, "DELETE", resultPath, submitted.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", resultPath, submitted.Token, nil, nil))
}

func TestSubmitToMissingSurvey(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, s.do(t, "POST", "/v1/surveys/nope/responses", "", map[string]interface{}{"answers": map[string]string{}}, nil))
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/v1/surveys", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("OPTIONS", "/v1/surveys", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
