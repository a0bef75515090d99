package result

import (
	"fmt"
	"strings"

	"surveyforge/internal/model"
	"surveyforge/internal/prompt"
)

// RenderAll renders components in the order given. states holds the
// generation state of generating components; others render from config.
func RenderAll(components []Component, states map[string]model.GenerationState) []model.ViewModel {
	out := make([]model.ViewModel, 0, len(components))
	for _, c := range components {
		var st *model.GenerationState
		if s, ok := states[c.ID]; ok {
			st = &s
		}
		out = append(out, Render(c, st))
	}
	return out
}

// Render maps one component and its optional state to a view model
func Render(c Component, state *model.GenerationState) model.ViewModel {
	vm := model.ViewModel{ComponentID: c.ID, Type: c.Type, Order: c.Order}

	v := c.Variant()
	if v == nil {
		return errorView(vm, c.ConfigErr, "Unsupported component")
	}

	if !v.RequiresGeneration() {
		cfg := c.Config
		if c.ConfigErr != nil || cfg == nil {
			cfg = v.DefaultConfig()
		}
		if err := v.View(cfg, nil, &vm); err != nil {
			return errorView(vm, err, v.FailureMessage)
		}
		vm.Kind = model.ViewReady
		return vm
	}

	if state == nil {
		vm.Kind = model.ViewLoading
		return vm
	}
	switch state.Status {
	case model.StatusFailed:
		vm.Kind = model.ViewError
		vm.Message = state.Error
		if strings.TrimSpace(vm.Message) == "" {
			vm.Message = v.FailureMessage
		}
	case model.StatusReady:
		if err := v.View(c.Config, state.Payload, &vm); err != nil {
			return errorView(vm, err, v.FailureMessage)
		}
		vm.Kind = model.ViewReady
	default:
		vm.Kind = model.ViewLoading
	}
	return vm
}

func errorView(vm model.ViewModel, err error, fallback string) model.ViewModel {
	vm.Kind = model.ViewError
	vm.Message = fallback
	if err != nil {
		vm.Message = err.Error()
	}
	return vm
}

func viewAvatar(cfg model.ComponentConfig, payload model.Payload, vm *model.ViewModel) error {
	p, ok := payload.(model.AvatarPayload)
	if !ok {
		return fmt.Errorf("ai-avatar has %T payload", payload)
	}
	if p.ImageURL == "" {
		return ErrNoImageURL
	}
	c, _ := cfg.(model.AvatarConfig)
	vm.Avatar = &model.AvatarView{
		Title:      orDefault(c.Title, DefaultAvatarTitle),
		ImageURL:   p.ImageURL,
		AvatarName: orDefault(p.AvatarName, prompt.DefaultAvatarName),
	}
	return nil
}

func viewCustom(cfg model.ComponentConfig, payload model.Payload, vm *model.ViewModel) error {
	p, ok := payload.(model.CustomAIPayload)
	if !ok {
		return fmt.Errorf("ai-custom has %T payload", payload)
	}
	c, _ := cfg.(model.CustomAIConfig)
	title := p.Title
	if strings.TrimSpace(title) == "" {
		title = orDefault(c.Title, DefaultCustomTitle)
	}
	vm.Text = &model.TextView{Title: title, Content: p.Content, Sections: p.Sections}
	return nil
}

func viewMessage(cfg model.ComponentConfig, _ model.Payload, vm *model.ViewModel) error {
	c, _ := cfg.(model.MessageConfig)
	vm.Notice = &model.NoticeView{
		Title:   orDefault(c.Title, DefaultMessageTitle),
		Message: orDefault(c.Message, DefaultMessage),
	}
	return nil
}

func viewDiscount(cfg model.ComponentConfig, _ model.Payload, vm *model.ViewModel) error {
	c, _ := cfg.(model.DiscountConfig)
	vm.Discount = &model.DiscountView{
		Title:   orDefault(c.Title, DefaultDiscountTitle),
		Code:    orDefault(c.Code, DefaultDiscountCode),
		Message: orDefault(c.Message, DefaultDiscountMessage),
	}
	return nil
}

func viewCTA(cfg model.ComponentConfig, _ model.Payload, vm *model.ViewModel) error {
	c, _ := cfg.(model.CTAConfig)
	vm.CTA = &model.CTAView{
		Title: c.Title,
		Label: orDefault(c.Label, DefaultCTALabel),
		URL:   orDefault(c.URL, DefaultCTAURL),
	}
	return nil
}
