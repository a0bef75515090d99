package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyforge/internal/model"
	"surveyforge/internal/prompt"
)

func prepared(t *testing.T, raw ...model.ResultComponent) []Component {
	t.Helper()
	comps, err := Prepare(DefaultRegistry(), raw)
	require.NoError(t, err)
	return comps
}

func TestPrepare_OrdersByOrderThenPosition(t *testing.T) {
	comps := prepared(t,
		model.ResultComponent{ID: "second", Type: model.ComponentCustomMessage, Order: 2},
		model.ResultComponent{ID: "first", Type: model.ComponentCustomMessage, Order: 1},
		model.ResultComponent{ID: "tie-a", Type: model.ComponentCTAButton, Order: 3},
		model.ResultComponent{ID: "tie-b", Type: model.ComponentCTAButton, Order: 3},
	)

	views := RenderAll(comps, nil)
	ids := make([]string, len(views))
	for i, v := range views {
		ids[i] = v.ComponentID
	}
	assert.Equal(t, []string{"first", "second", "tie-a", "tie-b"}, ids)
}

func TestPrepare_Errors(t *testing.T) {
	_, err := Prepare(DefaultRegistry(), nil)
	assert.ErrorIs(t, err, ErrNoComponents)

	_, err = Prepare(DefaultRegistry(), []model.ResultComponent{
		{ID: "x", Type: model.ComponentCTAButton},
		{ID: "x", Type: model.ComponentCustomMessage},
	})
	assert.ErrorIs(t, err, ErrDuplicateComponent)
}

func TestPrepare_FillsMissingIDs(t *testing.T) {
	comps := prepared(t,
		model.ResultComponent{Type: model.ComponentCTAButton},
		model.ResultComponent{Type: model.ComponentCTAButton},
	)
	assert.Equal(t, "cta-button-0", comps[0].ID)
	assert.Equal(t, "cta-button-1", comps[1].ID)
}

func TestValidate(t *testing.T) {
	reg := DefaultRegistry()
	assert.NoError(t, Validate(reg, nil))
	assert.NoError(t, Validate(reg, []model.ResultComponent{{ID: "a", Type: model.ComponentAIAvatar}}))
	assert.Error(t, Validate(reg, []model.ResultComponent{{ID: "a", Type: "hologram"}}))
	assert.Error(t, Validate(reg, []model.ResultComponent{{ID: "a", Type: model.ComponentDiscountCode, Config: map[string]interface{}{"code": true}}}))
}

func TestRender_GenerationStates(t *testing.T) {
	c := prepared(t, model.ResultComponent{ID: "av", Type: model.ComponentAIAvatar, Order: 4})[0]

	assert.Equal(t, model.ViewLoading, Render(c, nil).Kind)
	idle := model.Idle()
	assert.Equal(t, model.ViewLoading, Render(c, &idle).Kind)
	gen := model.Generating()
	assert.Equal(t, model.ViewLoading, Render(c, &gen).Kind)

	failed := model.Failed("quota exceeded")
	vm := Render(c, &failed)
	assert.Equal(t, model.ViewError, vm.Kind)
	assert.Equal(t, "quota exceeded", vm.Message)
	assert.Nil(t, vm.Avatar)

	ready := model.Ready(model.AvatarPayload{ImageURL: "https://x/img.png"})
	vm = Render(c, &ready)
	assert.Equal(t, model.ViewReady, vm.Kind)
	assert.Equal(t, "av", vm.ComponentID)
	assert.Equal(t, 4, vm.Order)
	assert.Equal(t, &model.AvatarView{Title: DefaultAvatarTitle, ImageURL: "https://x/img.png", AvatarName: prompt.DefaultAvatarName}, vm.Avatar)
}

func TestRender_ReadyWithWrongPayloadIsError(t *testing.T) {
	c := prepared(t, model.ResultComponent{ID: "txt", Type: model.ComponentAICustom})[0]
	ready := model.Ready(model.AvatarPayload{ImageURL: "https://x"})
	assert.Equal(t, model.ViewError, Render(c, &ready).Kind)
}

func TestRender_CustomAI(t *testing.T) {
	c := prepared(t, model.ResultComponent{ID: "txt", Type: model.ComponentAICustom, Config: map[string]interface{}{"title": "Insight"}})[0]
	ready := model.Ready(model.CustomAIPayload{Content: "Go hiking", Sections: []string{"tips"}})

	vm := Render(c, &ready)
	assert.Equal(t, &model.TextView{Title: "Insight", Content: "Go hiking", Sections: []string{"tips"}}, vm.Text)
}

func TestRender_StaticDefaults(t *testing.T) {
	comps := prepared(t,
		model.ResultComponent{ID: "msg", Type: model.ComponentCustomMessage, Order: 1, Config: map[string]interface{}{"message": ""}},
		model.ResultComponent{ID: "disc", Type: model.ComponentDiscountCode, Order: 2, Config: map[string]interface{}{"code": ""}},
		model.ResultComponent{ID: "cta", Type: model.ComponentCTAButton, Order: 3, Config: map[string]interface{}{"url": "https://example.com"}},
	)
	views := RenderAll(comps, nil)
	require.Len(t, views, 3)

	for _, v := range views {
		assert.Equal(t, model.ViewReady, v.Kind)
	}
	assert.Equal(t, DefaultMessage, views[0].Notice.Message)
	assert.Equal(t, DefaultMessageTitle, views[0].Notice.Title)
	assert.Equal(t, &model.DiscountView{Title: DefaultDiscountTitle, Code: DefaultDiscountCode, Message: DefaultDiscountMessage}, views[1].Discount)
	assert.Equal(t, &model.CTAView{Label: DefaultCTALabel, URL: "https://example.com"}, views[2].CTA)
}

func TestRender_StaticWithAuthoredValues(t *testing.T) {
	c := prepared(t, model.ResultComponent{ID: "disc", Type: model.ComponentDiscountCode, Config: map[string]interface{}{
		"title": "Gift", "code": "SAVE20", "message": "20% off",
	}})[0]
	vm := Render(c, nil)
	assert.Equal(t, &model.DiscountView{Title: "Gift", Code: "SAVE20", Message: "20% off"}, vm.Discount)
}

func TestRender_MalformedStaticConfigUsesDefaults(t *testing.T) {
	c := prepared(t, model.ResultComponent{ID: "msg", Type: model.ComponentCustomMessage, Config: map[string]interface{}{"message": 12}})[0]
	vm := Render(c, nil)
	assert.Equal(t, model.ViewReady, vm.Kind)
	assert.Equal(t, DefaultMessage, vm.Notice.Message)
}

func TestRender_UnsupportedType(t *testing.T) {
	c := prepared(t, model.ResultComponent{ID: "holo", Type: "hologram"})[0]
	vm := Render(c, nil)
	assert.Equal(t, model.ViewError, vm.Kind)
	assert.Contains(t, vm.Message, "unsupported component type")
}
