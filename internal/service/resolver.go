package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tripflow/internal/ai"
	"tripflow/internal/embedding"
	"tripflow/internal/enrich"
	"tripflow/internal/extract"
	"tripflow/internal/intent"
	"tripflow/internal/log"
	"tripflow/internal/modules/aiusage"
	"tripflow/internal/modules/conversation"
	"tripflow/internal/modules/intentcache"
	"tripflow/internal/modules/patterns"
	"tripflow/internal/predict"
	"tripflow/internal/seqcontext"
)

// DefaultAITimeout bounds the model fallback when no timeout is configured.
const DefaultAITimeout = 8 * time.Second

// modelConfidence is attached to every field the fallback supplies. It sits
// below deterministic extraction on purpose; rank already keeps the model
// from overriding anything, this only shapes the overall score.
const modelConfidence = 0.6

// Quota caps model-fallback calls per session. Implementations report an
// exhausted allowance with aiusage.ErrQuotaExhausted.
type Quota interface {
	Consume(ctx context.Context, sessionID string) error
}

// Deps carries everything a Resolver needs. Extractor, Enricher, Completer
// and Cache are required; the rest degrade to "layer skipped" when nil.
type Deps struct {
	Extractor  *extract.Extractor
	Enricher   *enrich.Enricher
	Completer  *predict.Completer
	Cache      intentcache.Cache
	Patterns   *patterns.Service
	Provider   ai.CompletionProvider
	Similarity *embedding.Resolver
	Sequence   *seqcontext.Model
	Sessions   *conversation.Store
	Quota      Quota
	AITimeout  time.Duration
	Now        func() time.Time
}

// Resolver turns one utterance plus the serialized conversation context into
// a reply, an updated intent, and the next state. It holds no per-session
// state itself; everything lives in the context token the caller carries.
type Resolver struct {
	extractor  *extract.Extractor
	enricher   *enrich.Enricher
	completer  *predict.Completer
	cache      intentcache.Cache
	patterns   *patterns.Service
	provider   ai.CompletionProvider
	similarity *embedding.Resolver
	sequence   *seqcontext.Model
	sessions   *conversation.Store
	quota      Quota
	aiTimeout  time.Duration
	now        func() time.Time
}

// NewResolver wires the cascade together.
func NewResolver(d Deps) (*Resolver, error) {
	if d.Extractor == nil || d.Enricher == nil || d.Completer == nil || d.Cache == nil {
		return nil, fmt.Errorf("resolver: extractor, enricher, completer and cache are required")
	}
	if d.AITimeout <= 0 {
		d.AITimeout = DefaultAITimeout
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Resolver{
		extractor:  d.Extractor,
		enricher:   d.Enricher,
		completer:  d.Completer,
		cache:      d.Cache,
		patterns:   d.Patterns,
		provider:   d.Provider,
		similarity: d.Similarity,
		sequence:   d.Sequence,
		sessions:   d.Sessions,
		quota:      d.Quota,
		aiTimeout:  d.AITimeout,
		now:        d.Now,
	}, nil
}

// Resolution is one turn's complete answer to the caller.
type Resolution struct {
	Message           string             `json:"message"`
	Intent            *intent.TripIntent `json:"intent"`
	MissingFields     []intent.Field     `json:"missingFields"`
	CanGenerate       bool               `json:"canGenerate"`
	SerializedContext string             `json:"serializedContext"`
	SessionID         string             `json:"sessionId"`
	State             conversation.State `json:"state"`
	Confidence        intent.Confidence  `json:"confidence"`
}

// Resolve processes one turn. It never fails outward: malformed input gets a
// clarifying prompt, a corrupt context token gets a fresh session with a
// notice, unavailable layers are skipped, and an unexpected fault answers
// with a generic retry message in the ERROR state.
func (r *Resolver) Resolve(ctx context.Context, utterance, serialized string) *Resolution {
	now := r.now()

	// 1. Restore the conversation, or start over when the token is unusable.
	cctx, recovered := r.restoreContext(serialized, now)

	// 2. Reject empty input before any layer runs.
	if strings.TrimSpace(utterance) == "" {
		msg := conversation.ClarifyPrompt()
		if recovered {
			msg = conversation.RecoveryNotice() + " " + msg
		}
		return r.respond(ctx, cctx, msg)
	}

	return r.resolveTurn(ctx, cctx, utterance, recovered, now)
}

// resolveTurn runs the cascade for a non-empty utterance. A panic anywhere
// in the layers lands the session in the ERROR state with a polite reply
// instead of propagating.
func (r *Resolver) resolveTurn(ctx context.Context, cctx *conversation.Context, utterance string, recovered bool, now time.Time) (res *Resolution) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("resolver: pipeline fault in session %s: %v", cctx.SessionID, rec)
			cctx.State = conversation.StateError
			res = r.respond(ctx, cctx, conversation.ErrorReply())
		}
	}()

	// Capture what earlier turns established before this one mutates anything.
	prior := cctx.UserTexts()
	acc := cctx.Intent.Clone()
	prevState := cctx.State
	prevSignature := patterns.SignatureKey(patterns.SignatureOf(acc))
	cctx.AppendUser(utterance, now)

	// 3. Resolve references against what we already know, then extract.
	rewritten, _ := enrich.ResolveAnaphora(utterance, acc)
	intent.Merge(acc, r.extractTurn(ctx, rewritten))

	// 4. Borrow fields from earlier turns that this utterance left unstated.
	intent.Merge(acc, r.enricher.Enrich(acc, prior))

	// 5. Bias remaining gaps toward previously successful interpretations.
	if r.patterns != nil {
		intent.Merge(acc, r.patterns.Apply(ctx, acc))
	}

	// 6. Heuristic completion from what is known so far.
	intent.Merge(acc, r.completer.Complete(acc))

	// 7. Expensive layers. Only the required-field gate and availability
	// decide whether each one runs; their outputs can only fill gaps.
	scores := []intent.LayerScore{
		{Layer: intent.LayerDeterministic, Score: acc.MeanClaimConfidence()},
	}
	scores = append(scores, r.runAssistLayers(ctx, cctx, acc, rewritten)...)

	// 8. Derive the date window, split days across stops, score the result.
	acc.Dates = acc.Dates.Resolved()
	acc.AllocateDays()
	acc.Confidence = intent.ConfidenceFromScore(intent.CombineConfidence(scores))

	// 9. Let the state machine decide: one question, or ready.
	next, missing := conversation.Evaluate(acc)
	if !conversation.CanTransition(cctx.State, next) {
		// Only the error state refuses a direct jump to ready. Ask for a
		// restatement once; the next turn takes the normal path.
		next = conversation.StateCollectingDestination
		missing = []intent.Field{intent.FieldDestination}
	}

	var msg string
	switch {
	case next == conversation.StateReadyToGenerate:
		msg = conversation.Summary(acc)
	default:
		msg = conversation.QuestionFor(missing[0], acc)
	}
	if recovered {
		msg = conversation.RecoveryNotice() + " " + msg
	}

	cctx.Intent = acc
	cctx.State = next

	// 10. A session reaching ready is a confirmed resolution worth learning
	// from. Re-record when later turns refine what it looks like.
	if next == conversation.StateReadyToGenerate && r.patterns != nil {
		sig := patterns.SignatureKey(patterns.SignatureOf(acc))
		if prevState != conversation.StateReadyToGenerate || sig != prevSignature {
			r.patterns.RecordConfirmed(cctx.SessionID, acc)
		}
	}

	return r.respond(ctx, cctx, msg)
}

// restoreContext decodes the caller's token. Corruption yields a brand-new
// session and a true second return, never a failed turn.
func (r *Resolver) restoreContext(serialized string, now time.Time) (*conversation.Context, bool) {
	if strings.TrimSpace(serialized) == "" {
		return conversation.NewContext(now), false
	}
	cctx, err := conversation.Decode(serialized)
	if err != nil {
		log.Warnf("resolver: context token rejected: %v", err)
		return conversation.NewContext(now), true
	}
	return cctx, false
}

// extractTurn runs the lexical extractor behind the cache. Cache trouble is
// logged and bypassed; extraction itself is cheap enough to redo.
func (r *Resolver) extractTurn(ctx context.Context, rewritten string) *intent.TripIntent {
	key := intentcache.Key(extract.Normalize(rewritten))

	if hit, ok, err := r.cache.Get(ctx, key); err != nil {
		log.Warnf("resolver: intent cache read: %v", err)
	} else if ok {
		return hit
	}

	out := r.extractor.Extract(rewritten)
	if err := r.cache.Put(ctx, key, out); err != nil {
		log.Warnf("resolver: intent cache write: %v", err)
	}
	return out
}

// runAssistLayers runs the similarity resolver, the sequence-context model
// and the language-model fallback concurrently, then merges their partial
// intents behind every deterministic claim. Each layer gets its own timeout
// and degrades to nothing on error.
func (r *Resolver) runAssistLayers(ctx context.Context, cctx *conversation.Context, acc *intent.TripIntent, rewritten string) []intent.LayerScore {
	missing := acc.MissingRequired()

	useModel := len(missing) > 0 && r.provider != nil && r.provider.IsAvailable()
	useEmbed := r.similarity != nil && r.similarity.IsAvailable() && !acc.HasDestination()
	useSeq := r.sequence != nil && r.sequence.IsAvailable()

	if useModel && r.quota != nil {
		switch err := r.quota.Consume(ctx, cctx.SessionID); {
		case err == nil:
		case errors.Is(err, aiusage.ErrQuotaExhausted):
			log.Debugf("resolver: model quota exhausted for %s", cctx.SessionID)
			useModel = false
		default:
			// Quota bookkeeping trouble must not block the layer.
			log.Warnf("resolver: model quota check: %v", err)
		}
	}

	if !useModel && !useEmbed && !useSeq {
		return nil
	}

	var (
		wg           sync.WaitGroup
		modelPartial *intent.TripIntent
		embedPartial *intent.TripIntent
		embedScore   float64
		seqSignal    *seqcontext.Signal
	)

	if useModel {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer recoverLayer("model")
			mctx, cancel := context.WithTimeout(ctx, r.aiTimeout)
			defer cancel()

			history := providerTurns(cctx.Messages[:len(cctx.Messages)-1])
			fields, err := r.provider.ExtractTripFields(mctx, rewritten, history, r.knownFields(acc))
			if err != nil {
				log.Warnf("resolver: model fallback skipped: %v", err)
				return
			}
			modelPartial = sanitizeFallback(fields)
		}()
	}

	if useEmbed {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer recoverLayer("similarity")
			ectx, cancel := context.WithTimeout(ctx, r.aiTimeout)
			defer cancel()

			match, alternates, err := r.similarity.Resolve(ectx, rewritten)
			if err != nil {
				log.Warnf("resolver: similarity layer skipped: %v", err)
				return
			}
			if match == nil {
				return
			}
			part := intent.New()
			part.AddDestination(intent.Destination{City: match.City, Confidence: match.Score})
			part.Claim(intent.FieldDestination, intent.SourceModel, match.Score)
			for _, alt := range alternates {
				part.AddSuggestion(fmt.Sprintf("Did you mean %s?", alt))
			}
			embedPartial = part
			embedScore = match.Score
		}()
	}

	if useSeq {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer recoverLayer("sequence")
			sctx, cancel := context.WithTimeout(ctx, r.aiTimeout)
			defer cancel()

			sig, err := r.sequence.Evaluate(sctx, providerTurns(cctx.Messages))
			if err != nil {
				log.Warnf("resolver: sequence layer skipped: %v", err)
				return
			}
			seqSignal = sig
		}()
	}

	wg.Wait()

	// Merge order puts the similarity match first; both carry model-rank
	// claims, and for the destination field union semantics apply anyway.
	intent.Merge(acc, embedPartial)
	intent.Merge(acc, modelPartial)

	var scores []intent.LayerScore
	if modelPartial != nil && len(modelPartial.Provenance) > 0 {
		scores = append(scores, intent.LayerScore{Layer: intent.LayerModel, Score: modelConfidence})
	}
	if embedPartial != nil {
		scores = append(scores, intent.LayerScore{Layer: intent.LayerEmbedding, Score: embedScore})
	}
	if seqSignal != nil {
		log.Debugf("resolver: sequence summary for %s: %s", cctx.SessionID, seqSignal.Summary)
		scores = append(scores, intent.LayerScore{Layer: intent.LayerSequence, Score: seqSignal.Confidence})
	}
	return scores
}

// recoverLayer keeps a fault inside an assist goroutine from taking the
// process down; the layer just contributes nothing this turn.
func recoverLayer(name string) {
	if rec := recover(); rec != nil {
		log.Warnf("resolver: %s layer fault: %v", name, rec)
	}
}

// respond finalizes the turn: transcript, token, session mirror, payload.
func (r *Resolver) respond(ctx context.Context, cctx *conversation.Context, msg string) *Resolution {
	now := r.now()
	cctx.AppendAssistant(msg, now)

	token, err := conversation.Encode(cctx)
	if err != nil {
		// Unexpected with these types; answer safely rather than fail.
		log.Errorf("resolver: context encode failed for %s: %v", cctx.SessionID, err)
		cctx.State = conversation.StateError
		msg = conversation.ErrorReply()
		token = ""
	}

	if r.sessions != nil {
		if err := r.sessions.Save(ctx, cctx); err != nil {
			log.Warnf("resolver: session mirror save: %v", err)
		}
	}

	missing := cctx.Intent.MissingRequired()
	return &Resolution{
		Message:           msg,
		Intent:            cctx.Intent,
		MissingFields:     missing,
		CanGenerate:       cctx.State == conversation.StateReadyToGenerate && len(missing) == 0,
		SerializedContext: token,
		SessionID:         cctx.SessionID,
		State:             cctx.State,
		Confidence:        cctx.Intent.Confidence,
	}
}

// knownFields renders already-stated fields for the model prompt, so the
// provider answers only for true gaps.
func (r *Resolver) knownFields(acc *intent.TripIntent) map[string]string {
	known := map[string]string{}
	if acc.HasStated(intent.FieldDestination) && acc.HasDestination() {
		known["destination"] = strings.Join(acc.DestinationNames(), ", ")
	}
	if acc.HasStated(intent.FieldOrigin) && acc.Origin != "" {
		known["origin"] = acc.Origin
	}
	if start := acc.Dates.Resolved().Start; acc.HasStated(intent.FieldStartDate) && start != nil {
		known["startDate"] = start.Format("2006-01-02")
	}
	if acc.HasStated(intent.FieldDuration) && acc.Dates.Duration() > 0 {
		known["duration"] = fmt.Sprintf("%d days", acc.Dates.Duration())
	}
	if acc.HasStated(intent.FieldTravelers) && acc.Travelers > 0 {
		known["travelers"] = fmt.Sprintf("%d", acc.Travelers)
	}
	if acc.HasStated(intent.FieldBudget) && acc.Budget != nil {
		switch {
		case !acc.Budget.Money.IsZero():
			known["budget"] = fmt.Sprintf("%d %s", acc.Budget.Money.Amount, acc.Budget.Money.Currency)
		case acc.Budget.Tier != "":
			known["budget"] = acc.Budget.Tier
		}
	}
	if acc.HasStated(intent.FieldTripType) && acc.TripType != "" {
		known["tripType"] = string(acc.TripType)
	}
	return known
}

// sanitizeFallback converts the provider's output into a partial intent,
// applying the same plausibility bounds as lexical extraction. Implausible
// values are dropped so the field stays missing.
func sanitizeFallback(f *ai.FallbackFields) *intent.TripIntent {
	out := intent.New()
	if f.Empty() {
		return out
	}

	for _, name := range f.Destinations {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out.AddDestination(intent.Destination{City: name, Confidence: modelConfidence})
	}
	if len(out.Destinations) > 0 {
		out.Claim(intent.FieldDestination, intent.SourceModel, modelConfidence)
	}

	if f.Origin != nil && strings.TrimSpace(*f.Origin) != "" {
		out.Origin = strings.TrimSpace(*f.Origin)
		out.Claim(intent.FieldOrigin, intent.SourceModel, modelConfidence)
	}

	if f.StartDate != nil {
		if t, err := time.Parse("2006-01-02", *f.StartDate); err == nil {
			out.Dates.Start = &t
			out.Claim(intent.FieldStartDate, intent.SourceModel, modelConfidence)
		}
	}

	if f.DurationDays != nil && intent.ValidTripDays(*f.DurationDays) {
		out.Dates.DurationDays = *f.DurationDays
		out.Claim(intent.FieldDuration, intent.SourceModel, modelConfidence)
	}

	if f.Travelers != nil && intent.ValidTravelers(*f.Travelers) {
		out.Travelers = *f.Travelers
		out.Claim(intent.FieldTravelers, intent.SourceModel, modelConfidence)
	}

	if budget := fallbackBudget(f); budget != nil {
		out.Budget = budget
		out.Claim(intent.FieldBudget, intent.SourceModel, modelConfidence)
	}

	if f.TripType != nil && intent.ValidTripType(*f.TripType) {
		out.TripType = intent.TripType(*f.TripType)
		out.Claim(intent.FieldTripType, intent.SourceModel, modelConfidence)
	}

	for _, tag := range f.Interests {
		out.AddInterest(tag)
	}
	if len(out.Interests) > 0 {
		out.Claim(intent.FieldInterests, intent.SourceModel, modelConfidence)
	}

	return out
}

var fallbackTiers = map[string]bool{"budget": true, "mid-range": true, "luxury": true}

func fallbackBudget(f *ai.FallbackFields) *intent.Budget {
	b := &intent.Budget{}
	if f.BudgetAmount != nil {
		amount := int64(*f.BudgetAmount)
		if !intent.ValidBudgetAmount(amount) {
			return nil
		}
		currency := "USD"
		if f.BudgetCurrency != nil && *f.BudgetCurrency != "" {
			currency = strings.ToUpper(strings.TrimSpace(*f.BudgetCurrency))
		}
		b.Money.Amount = amount
		b.Money.Currency = currency
		if f.BudgetPerPerson != nil {
			b.PerPerson = *f.BudgetPerPerson
		}
	}
	if f.BudgetTier != nil && fallbackTiers[*f.BudgetTier] {
		b.Tier = *f.BudgetTier
	}
	if b.Money.IsZero() && b.Tier == "" {
		return nil
	}
	return b
}

// providerTurns converts transcript messages to the provider contract.
func providerTurns(msgs []conversation.Message) []ai.Turn {
	turns := make([]ai.Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, ai.Turn{Role: string(m.Role), Text: m.Text})
	}
	return turns
}
