package result

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyforge/internal/generative"
	"surveyforge/internal/model"
	"surveyforge/internal/prompt"
)

func testContext() Context {
	return Context{
		Questions: []model.Question{
			{ID: "q1", Title: "Favorite color", Type: model.QuestionTypeText},
			{ID: "q2", Title: "Weekend plans", Type: model.QuestionTypeText},
		},
		Answers: model.AnswerSet{0: "Blue", 1: "Hiking"},
	}
}

func newStore(t *testing.T, raw ...model.ResultComponent) *Store {
	t.Helper()
	comps, err := Prepare(DefaultRegistry(), raw)
	require.NoError(t, err)
	return NewStore(comps)
}

func run(t *testing.T, fake *generative.FakeClient, store *Store, opts ...Option) {
	t.Helper()
	o := NewOrchestrator(Capabilities{Images: fake, Text: fake}, opts...)
	require.NoError(t, o.Run(context.Background(), store, testContext()))
}

func TestCustomAI_Ready(t *testing.T) {
	fake := &generative.FakeClient{TextFunc: func(ctx context.Context, p string) (*generative.TextResult, error) {
		return &generative.TextResult{Content: "You'd thrive as a designer."}, nil
	}}
	store := newStore(t, model.ResultComponent{
		ID: "advice", Type: model.ComponentAICustom, Order: 1,
		Config: map[string]interface{}{"title": "Career", "prompt": "Give career advice", "sections": []interface{}{"work"}},
	})

	run(t, fake, store)

	st, ok := store.Get("advice")
	require.True(t, ok)
	require.Equal(t, model.StatusReady, st.Status)
	assert.Equal(t, model.CustomAIPayload{Content: "You'd thrive as a designer.", Title: "Career", Sections: []string{"work"}}, st.Payload)

	calls := fake.TextCalls()
	require.Len(t, calls, 1)
	assert.True(t, strings.HasPrefix(calls[0], "Give career advice\n\n"))
	assert.Contains(t, calls[0], "Q: Favorite color\nA: Blue")
	assert.Empty(t, fake.ImageCalls())
}

func avatarComponent(id string, order int, instructions string) model.ResultComponent {
	return model.ResultComponent{
		ID: id, Type: model.ComponentAIAvatar, Order: order,
		Config: map[string]interface{}{"title": "Meet your avatar", "aiInstructions": instructions},
	}
}

func TestAvatar_ReadyWithGeneratedName(t *testing.T) {
	fake := &generative.FakeClient{
		ImageFunc: func(ctx context.Context, p string) (*generative.ImageResult, error) {
			return &generative.ImageResult{URLs: []string{"https://x/img.png"}}, nil
		},
		TextFunc: func(ctx context.Context, p string) (*generative.TextResult, error) {
			return &generative.TextResult{Content: "Bold Falcon"}, nil
		},
	}
	store := newStore(t, avatarComponent("av", 0, "Draw a bird"))

	run(t, fake, store)

	st, _ := store.Get("av")
	require.Equal(t, model.StatusReady, st.Status)
	p := st.Payload.(model.AvatarPayload)
	assert.Equal(t, "https://x/img.png", p.ImageURL)
	assert.Equal(t, "Bold Falcon", p.AvatarName)
	assert.Equal(t, fake.ImageCalls()[0], p.Prompt)

	// the name prompt refers to the same description as the image
	require.Len(t, fake.TextCalls(), 1)
	assert.Contains(t, fake.TextCalls()[0], p.Prompt)
}

func TestAvatar_NameFailureFallsBack(t *testing.T) {
	cases := map[string]func(ctx context.Context, p string) (*generative.TextResult, error){
		"error": func(ctx context.Context, p string) (*generative.TextResult, error) {
			return nil, errors.New("quota exceeded")
		},
		"unparsable": func(ctx context.Context, p string) (*generative.TextResult, error) {
			return &generative.TextResult{Content: "Here are some ideas for names you might like to consider today"}, nil
		},
		"panic": func(ctx context.Context, p string) (*generative.TextResult, error) {
			panic("boom")
		},
	}
	for name, textFn := range cases {
		t.Run(name, func(t *testing.T) {
			fake := &generative.FakeClient{
				ImageFunc: func(ctx context.Context, p string) (*generative.ImageResult, error) {
					return &generative.ImageResult{URLs: []string{"https://x/img.png"}}, nil
				},
				TextFunc: textFn,
			}
			store := newStore(t, avatarComponent("av", 0, "Draw a bird"))

			run(t, fake, store)

			st, _ := store.Get("av")
			require.Equal(t, model.StatusReady, st.Status)
			p := st.Payload.(model.AvatarPayload)
			assert.Equal(t, "https://x/img.png", p.ImageURL)
			assert.Equal(t, prompt.DefaultAvatarName, p.AvatarName)
		})
	}
}

func TestAvatar_ImageFailureSkipsNameCall(t *testing.T) {
	fake := &generative.FakeClient{
		ImageFunc: func(ctx context.Context, p string) (*generative.ImageResult, error) {
			return nil, &generative.UpstreamError{Status: 503, Message: "image service unavailable"}
		},
	}
	store := newStore(t, avatarComponent("av", 0, "Draw a bird"))

	run(t, fake, store)

	st, _ := store.Get("av")
	assert.Equal(t, model.Failed("image service unavailable"), st)
	assert.Len(t, fake.ImageCalls(), 1)
	assert.Empty(t, fake.TextCalls())
}

func TestAvatar_NoImageURL(t *testing.T) {
	fake := &generative.FakeClient{
		ImageFunc: func(ctx context.Context, p string) (*generative.ImageResult, error) {
			return &generative.ImageResult{URLs: []string{"  "}}, nil
		},
	}
	store := newStore(t, avatarComponent("av", 0, "Draw a bird"))

	run(t, fake, store)

	st, _ := store.Get("av")
	assert.Equal(t, model.StatusFailed, st.Status)
	assert.Equal(t, ErrNoImageURL.Error(), st.Error)
	assert.Empty(t, fake.TextCalls())
}

func TestUpstreamErrorWithoutMessageUsesFallback(t *testing.T) {
	fake := &generative.FakeClient{TextFunc: func(ctx context.Context, p string) (*generative.TextResult, error) {
		return nil, &generative.UpstreamError{Status: 500}
	}}
	store := newStore(t, model.ResultComponent{ID: "c", Type: model.ComponentAICustom})

	run(t, fake, store)

	st, _ := store.Get("c")
	assert.Equal(t, model.Failed(customAIVariant().FailureMessage), st)
}

func TestFailureIsolation(t *testing.T) {
	for _, policy := range []Policy{PolicySequential, PolicyParallel} {
		t.Run(string(policy), func(t *testing.T) {
			fake := &generative.FakeClient{
				ImageFunc: func(ctx context.Context, p string) (*generative.ImageResult, error) {
					if strings.Contains(p, "broken") {
						return nil, errors.New("image generation failed")
					}
					return &generative.ImageResult{URLs: []string{"https://x/ok.png"}}, nil
				},
				TextFunc: func(ctx context.Context, p string) (*generative.TextResult, error) {
					return &generative.TextResult{Content: "Calm Otter"}, nil
				},
			}
			store := newStore(t,
				avatarComponent("a", 1, "broken"),
				avatarComponent("b", 2, "working"),
				model.ResultComponent{ID: "d", Type: model.ComponentDiscountCode, Order: 3},
			)

			run(t, fake, store, WithPolicy(policy))

			a, _ := store.Get("a")
			b, _ := store.Get("b")
			assert.Equal(t, model.StatusFailed, a.Status)
			assert.Equal(t, model.StatusReady, b.Status)
			assert.Equal(t, "Calm Otter", b.Payload.(model.AvatarPayload).AvatarName)

			views := store.Snapshot()
			require.Len(t, views, 3)
			assert.Equal(t, model.ViewError, views[0].Kind)
			assert.Equal(t, model.ViewReady, views[1].Kind)
			assert.Equal(t, model.ViewReady, views[2].Kind)
		})
	}
}

func TestRecipePanicBecomesFailed(t *testing.T) {
	fake := &generative.FakeClient{
		ImageFunc: func(ctx context.Context, p string) (*generative.ImageResult, error) {
			panic("nil pointer somewhere")
		},
		TextFunc: func(ctx context.Context, p string) (*generative.TextResult, error) {
			return &generative.TextResult{Content: "still here"}, nil
		},
	}
	store := newStore(t,
		avatarComponent("av", 1, "Draw"),
		model.ResultComponent{ID: "txt", Type: model.ComponentAICustom, Order: 2, Config: map[string]interface{}{"prompt": "Say hi"}},
	)

	run(t, fake, store)

	av, _ := store.Get("av")
	txt, _ := store.Get("txt")
	assert.Equal(t, model.StatusFailed, av.Status)
	assert.Contains(t, av.Error, "nil pointer somewhere")
	assert.Equal(t, model.StatusReady, txt.Status)
}

func TestMalformedConfigFailsWithoutCalls(t *testing.T) {
	fake := &generative.FakeClient{}
	store := newStore(t, model.ResultComponent{
		ID: "c", Type: model.ComponentAICustom, Config: map[string]interface{}{"prompt": 42},
	})

	run(t, fake, store)

	st, _ := store.Get("c")
	assert.Equal(t, model.StatusFailed, st.Status)
	assert.Contains(t, st.Error, "invalid ai-custom config")
	assert.Empty(t, fake.TextCalls())
}

func TestBlankPromptUsesDefault(t *testing.T) {
	fake := &generative.FakeClient{}
	store := newStore(t, model.ResultComponent{ID: "c", Type: model.ComponentAICustom})

	run(t, fake, store)

	st, _ := store.Get("c")
	assert.Equal(t, model.StatusReady, st.Status)
	require.Len(t, fake.TextCalls(), 1)
	assert.True(t, strings.HasPrefix(fake.TextCalls()[0], DefaultCustomPrompt))
}

func TestCallTimeout(t *testing.T) {
	fake := &generative.FakeClient{TextFunc: func(ctx context.Context, p string) (*generative.TextResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	store := newStore(t, model.ResultComponent{ID: "c", Type: model.ComponentAICustom})

	run(t, fake, store, WithCallTimeout(20*time.Millisecond))

	st, _ := store.Get("c")
	assert.Equal(t, model.Failed("Generation timed out"), st)
}

func TestCloseDiscardsLateResults(t *testing.T) {
	var store *Store
	fake := &generative.FakeClient{TextFunc: func(ctx context.Context, p string) (*generative.TextResult, error) {
		store.Close()
		return &generative.TextResult{Content: "too late"}, nil
	}}
	store = newStore(t,
		model.ResultComponent{ID: "a", Type: model.ComponentAICustom, Order: 1},
		model.ResultComponent{ID: "b", Type: model.ComponentAICustom, Order: 2},
	)

	o := NewOrchestrator(Capabilities{Images: fake, Text: fake})
	err := o.Run(context.Background(), store, testContext())
	assert.ErrorIs(t, err, ErrStoreClosed)

	a, _ := store.Get("a")
	b, _ := store.Get("b")
	assert.Equal(t, model.StatusGenerating, a.Status)
	assert.Equal(t, model.StatusIdle, b.Status)
	assert.Len(t, fake.TextCalls(), 1)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	fake := &generative.FakeClient{}
	store := newStore(t, model.ResultComponent{ID: "a", Type: model.ComponentAICustom})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewOrchestrator(Capabilities{Images: fake, Text: fake}).Run(ctx, store, testContext())
	assert.ErrorIs(t, err, context.Canceled)
	st, _ := store.Get("a")
	assert.Equal(t, model.StatusIdle, st.Status)
}

func TestParallelCompletionKeepsRenderOrder(t *testing.T) {
	fastReady := make(chan struct{})
	fake := &generative.FakeClient{TextFunc: func(ctx context.Context, p string) (*generative.TextResult, error) {
		if strings.HasPrefix(p, "slow") {
			select {
			case <-fastReady:
			case <-time.After(2 * time.Second):
			}
			return &generative.TextResult{Content: "slow result"}, nil
		}
		return &generative.TextResult{Content: "fast result"}, nil
	}}
	store := newStore(t,
		model.ResultComponent{ID: "slow", Type: model.ComponentAICustom, Order: 1, Config: map[string]interface{}{"prompt": "slow"}},
		model.ResultComponent{ID: "fast", Type: model.ComponentAICustom, Order: 2, Config: map[string]interface{}{"prompt": "fast"}},
	)

	var mu sync.Mutex
	var readyOrder []string
	store.Subscribe(func(u Update) {
		if u.State.Status != model.StatusReady {
			return
		}
		mu.Lock()
		readyOrder = append(readyOrder, u.ComponentID)
		mu.Unlock()
		if u.ComponentID == "fast" {
			close(fastReady)
		}
	})

	run(t, fake, store, WithPolicy(PolicyParallel), WithMaxParallel(2))

	assert.Equal(t, []string{"fast", "slow"}, readyOrder)
	views := store.Snapshot()
	require.Len(t, views, 2)
	assert.Equal(t, "slow", views[0].ComponentID)
	assert.Equal(t, "fast", views[1].ComponentID)
	assert.True(t, store.Done())
}

type quizScore struct {
	Label string `json:"label"`
}

func (quizScore) ComponentType() model.ComponentType { return "quiz-score" }

type scorePayload struct{ Score string }

func (scorePayload) PayloadType() model.ComponentType { return "quiz-score" }

func TestRegistryDrivenDispatch(t *testing.T) {
	reg := DefaultRegistry()
	reg.Register(&Variant{
		Type:          "quiz-score",
		Kind:          KindSingleCall,
		DefaultConfig: func() model.ComponentConfig { return quizScore{Label: "Score"} },
		Decoder:       decodeAs[quizScore],
		Generate: func(ctx context.Context, caps Capabilities, cfg model.ComponentConfig, qc Context) (model.Payload, error) {
			res, err := caps.Text.GenerateText(ctx, "score: "+qc.Answers[0])
			if err != nil {
				return nil, err
			}
			return scorePayload{Score: res.Content}, nil
		},
		View: func(cfg model.ComponentConfig, payload model.Payload, vm *model.ViewModel) error {
			vm.Notice = &model.NoticeView{Title: cfg.(quizScore).Label, Message: payload.(scorePayload).Score}
			return nil
		},
	})

	fake := &generative.FakeClient{TextFunc: func(ctx context.Context, p string) (*generative.TextResult, error) {
		return &generative.TextResult{Content: "9/10"}, nil
	}}
	comps, err := Prepare(reg, []model.ResultComponent{{ID: "q", Type: "quiz-score", Config: map[string]interface{}{"label": "Your score"}}})
	require.NoError(t, err)
	store := NewStore(comps)

	run(t, fake, store)

	views := store.Snapshot()
	require.Len(t, views, 1)
	assert.Equal(t, model.ViewReady, views[0].Kind)
	assert.Equal(t, &model.NoticeView{Title: "Your score", Message: "9/10"}, views[0].Notice)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	reg := DefaultRegistry()
	assert.Panics(t, func() { reg.Register(messageVariant()) })
}

func TestRegistry_Variants(t *testing.T) {
	reg := DefaultRegistry()
	infos := reg.Variants()
	require.Len(t, infos, 5)
	assert.Equal(t, model.ComponentAIAvatar, infos[0].Type)

	assert.True(t, reg.RequiresGeneration(model.ComponentAIAvatar))
	assert.True(t, reg.RequiresGeneration(model.ComponentAICustom))
	assert.False(t, reg.RequiresGeneration(model.ComponentDiscountCode))
	assert.False(t, reg.RequiresGeneration("nope"))

	v, _ := reg.Lookup(model.ComponentAIAvatar)
	assert.Equal(t, KindChainedCall, v.Kind)
	v, _ = reg.Lookup(model.ComponentAICustom)
	assert.Equal(t, KindSingleCall, v.Kind)
	v, _ = reg.Lookup(model.ComponentCTAButton)
	assert.Equal(t, KindNone, v.Kind)

	cfg, ok := reg.DefaultConfig(model.ComponentCTAButton)
	require.True(t, ok)
	assert.Equal(t, DefaultCTALabel, cfg.(model.CTAConfig).Label)
}
