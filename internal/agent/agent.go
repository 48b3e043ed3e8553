package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/seenimoa/marketlyst/internal/logger"
	"github.com/seenimoa/marketlyst/internal/nlu"
)

const (
	emptyRequestMessage = "Будь ласка, напишіть ваш запит."
	timeoutMessage      = "⏰ Запит займає більше часу, ніж очікувалося. Спробуйте пізніше або запитайте щось простіше."
)

// EntityResolver resolves raw text into a financial entity.
type EntityResolver interface {
	Resolve(ctx context.Context, text string) nlu.EntityInfo
}

// IntentClassifier labels raw text with a coarse intent.
type IntentClassifier interface {
	Classify(ctx context.Context, text string) nlu.Intent
}

// Reply is the pipeline output: the rendered text plus the intent label
// used for diagnostics and per-intent statistics.
type Reply struct {
	Text   string
	Intent nlu.Intent
}

// Agent wires the full request pipeline: resolve, plan, execute, format.
// One instance serves every front end concurrently; per-request state
// lives in the plan and the result bag.
type Agent struct {
	resolver   EntityResolver
	classifier IntentClassifier
	planner    *Planner
	executor   *Executor
	formatter  *Formatter
	timeout    time.Duration
}

// New creates an agent. classifier may be nil; it is only consulted for
// a diagnostic intent label when the keyword planner matched nothing.
func New(resolver EntityResolver, classifier IntentClassifier, executor *Executor, timeout time.Duration) *Agent {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Agent{
		resolver:   resolver,
		classifier: classifier,
		planner:    NewPlanner(),
		executor:   executor,
		formatter:  NewFormatter(),
		timeout:    timeout,
	}
}

// Handle runs one utterance through the pipeline. It never returns an
// error: failures render as complete, friendly sentences.
func (a *Agent) Handle(ctx context.Context, text string) Reply {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{Text: emptyRequestMessage, Intent: nlu.IntentFallback}
	}

	if reply, ok := nlu.GeneralChatReply(text); ok {
		return Reply{Text: reply, Intent: nlu.IntentGeneralChat}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	log := logger.WithComponent("agent")
	log.Infof("handling request: %.80s", text)

	info := a.resolver.Resolve(ctx, text)
	plan := a.planner.Plan(text, info)
	bag := a.executor.Execute(ctx, plan)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Warn("request exceeded time budget")
		return Reply{Text: timeoutMessage, Intent: a.deriveIntent(ctx, text, plan)}
	}

	reply := a.formatter.Format(text, info, bag)
	intent := a.deriveIntent(ctx, text, plan)
	log.WithField("intent", intent).Infof("request done, %d actions ran", len(plan.Actions))

	return Reply{Text: reply, Intent: intent}
}

// deriveIntent labels the request from the plan's shape. An empty plan
// falls back to the LLM classifier when one is configured.
func (a *Agent) deriveIntent(ctx context.Context, text string, plan ActionPlan) nlu.Intent {
	if plan.IsEmpty() {
		if a.classifier != nil {
			return a.classifier.Classify(ctx, text)
		}
		return nlu.IntentFallback
	}

	hasAdvice := false
	hasNews := false
	for _, action := range plan.Actions {
		switch action.Kind {
		case ActionGenerateAdvice:
			hasAdvice = true
		case ActionGetNewsGeneral, ActionGetNewsTargeted, ActionAnalyzeSentiment:
			hasNews = true
		}
	}
	switch {
	case hasAdvice:
		return nlu.IntentInvestmentAdvice
	case hasNews:
		return nlu.IntentAnalyzeNews
	}
	return nlu.IntentGetPrice
}
