package pipelines

import (
	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/chative-router/server/internal/pipeline/classifier"
	"github.com/chative-router/server/internal/pipeline/handlers"
	"github.com/chative-router/server/internal/pipeline/model"
	"github.com/chative-router/server/internal/pipeline/prompts"
	"github.com/chative-router/server/internal/pipeline/router"
)

const (
	FeedbackRouter = "feedback"
	ContentRouter  = "content"
)

// Models are the two model roles of a router: one classifies, one answers.
type Models struct {
	Classifier     einomodel.BaseChatModel
	ClassifierName string
	Handler        einomodel.BaseChatModel
	HandlerName    string
}

func (m Models) newClassifier(tpl *prompts.Template, inputKey string) (*classifier.Classifier, error) {
	return classifier.New(classifier.Config{
		Name:      tpl.Name(),
		Template:  tpl,
		Model:     m.Classifier,
		ModelName: m.ClassifierName,
		InputKey:  inputKey,
	})
}

func (m Models) newHandler(tpl *prompts.Template, inputKey string) (*handlers.TemplateHandler, error) {
	return handlers.NewTemplate(handlers.TemplateConfig{
		Template:  tpl,
		Model:     m.Handler,
		ModelName: m.HandlerName,
		InputKeys: []string{inputKey},
	})
}

// NewFeedbackRouter routes customer feedback to a positive, negative or
// neutral reply and escalates everything else.
func NewFeedbackRouter(m Models, rc model.RouterConfig) (*router.Router, error) {
	c, err := m.newClassifier(prompts.FeedbackClassification(), prompts.KeyFeedback)
	if err != nil {
		return nil, err
	}

	escalate, err := m.newHandler(prompts.EscalateFeedback(), prompts.KeyFeedback)
	if err != nil {
		return nil, err
	}
	var branches []router.Branch
	for _, b := range []struct {
		label string
		tpl   *prompts.Template
	}{
		{"positive", prompts.PositiveFeedback()},
		{"negative", prompts.NegativeFeedback()},
		{"neutral", prompts.NeutralFeedback()},
	} {
		h, err := m.newHandler(b.tpl, prompts.KeyFeedback)
		if err != nil {
			return nil, err
		}
		branches = append(branches, router.Branch{
			Name:      b.label,
			Predicate: router.ForMode(rc.MatchMode, b.label),
			Handler:   h,
		})
	}

	return router.New(FeedbackRouter, c, router.Branch{Name: "escalate", Handler: escalate}, branches...)
}

// NewContentRouter answers automobile FAQs and writes a social media post for
// anything else.
func NewContentRouter(m Models, rc model.RouterConfig) (*router.Router, error) {
	c, err := m.newClassifier(prompts.ContentClassification(), prompts.KeyPrompt)
	if err != nil {
		return nil, err
	}
	faq, err := m.newHandler(prompts.FAQ(), prompts.KeyPrompt)
	if err != nil {
		return nil, err
	}
	content, err := m.newHandler(prompts.ContentGeneration(), prompts.KeyPrompt)
	if err != nil {
		return nil, err
	}

	return router.New(ContentRouter, c,
		router.Branch{Name: "content_generation", Handler: content},
		router.Branch{Name: "faq", Predicate: router.ForMode(rc.MatchMode, "FAQ"), Handler: faq},
	)
}
