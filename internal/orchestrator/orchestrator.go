// Package orchestrator is the single entry point for advisory requests. It
// validates input, owns one lifecycle slot per actor and advisory kind, and merges
// curated first-aid content with generated content for emergencies.
package orchestrator

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mediguide-lk/mediguide/internal/advisory"
)

// Gateway is the generative backend the orchestrator dispatches to.
type Gateway interface {
	MedicineDetails(ctx context.Context, name string, lang advisory.Language) (*advisory.MedicineInfo, error)
	AnalyzeSymptoms(ctx context.Context, symptoms string, lang advisory.Language) (*advisory.SymptomAnalysis, error)
	EmergencyInstructions(ctx context.Context, situation string, lang advisory.Language) (*advisory.EmergencyInfo, error)
	CheckInteractions(ctx context.Context, medicines []string, lang advisory.Language) (*advisory.InteractionResult, error)
	DosageSchedule(ctx context.Context, medicines []string, lang advisory.Language) (*advisory.DosageSchedule, error)
	IdentifyMedicine(ctx context.Context, image string) (string, error)
	NearbyPharmacies(ctx context.Context, lat, lng float64) ([]advisory.PharmacyLocation, error)
}

// Status is the lifecycle state of a slot.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Snapshot is a copy of one slot's state.
type Snapshot struct {
	Kind       advisory.Kind    `json:"kind"`
	Status     Status           `json:"status"`
	Generation uint64           `json:"generation"`
	Result     *advisory.Result `json:"result,omitempty"`
	Error      string           `json:"error,omitempty"`
	UpdatedAt  time.Time        `json:"updatedAt,omitempty"`
}

// Event describes one settled request.
type Event struct {
	Request    advisory.Request
	Actor      string
	Generation uint64
	Duration   time.Duration
	Result     *advisory.Result
	Err        error
	// Stale is set when a newer request of the same kind was issued before
	// this one settled; its outcome did not reach the slot.
	Stale bool
}

// Observer is notified of every settled request, and of requests rejected
// by validation (Generation zero).
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }

type slot struct {
	issued    uint64
	status    Status
	result    *advisory.Result
	err       error
	updatedAt time.Time
}

// Orchestrator dispatches advisory requests. One instance serves the whole
// process and is safe for concurrent use. Slots and generations are kept per
// actor, so one user's requests never supersede or expose another's.
type Orchestrator struct {
	gateway   Gateway
	observers []Observer
	now       func() time.Time

	mu    sync.Mutex
	slots map[slotKey]*slot
}

type slotKey struct {
	actor string
	kind  advisory.Kind
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver adds observers that see every settled request.
func WithObserver(obs ...Observer) Option {
	return func(o *Orchestrator) { o.observers = append(o.observers, obs...) }
}

// New creates an Orchestrator dispatching to gw.
func New(gw Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gateway: gw,
		now:     time.Now,
		slots:   make(map[slotKey]*slot),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type actorKey struct{}

// WithActor tags ctx with the id of the user issuing requests. The id selects
// the user's slots and is reported to observers. Untagged requests share the
// empty actor, as the CLI and MCP server do.
func WithActor(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, actorKey{}, id)
}

func actorFrom(ctx context.Context) string {
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}

// Submit validates req, dispatches it and records the outcome in the kind's
// slot. Invalid requests fail with a ValidationError without touching the
// slot or the gateway. The caller always receives its own outcome, even when
// a newer request has since superseded it in the slot.
func (o *Orchestrator) Submit(ctx context.Context, req advisory.Request) (*advisory.Result, error) {
	req, err := normalize(req)
	if err != nil {
		o.notify(ctx, Event{Request: req, Actor: actorFrom(ctx), Err: err})
		return nil, err
	}

	actor := actorFrom(ctx)
	key := slotKey{actor: actor, kind: req.Kind}
	gen := o.begin(key)
	start := o.now()
	res, err := o.dispatch(ctx, req)
	if res != nil {
		res.Kind = req.Kind
		res.Language = req.Language
		res.Query = req.Describe()
		res.Generation = gen
		res.CompletedAt = o.now()
	}
	stale := !o.settle(key, gen, res, err)

	ev := Event{
		Request:    req,
		Actor:      actor,
		Generation: gen,
		Duration:   o.now().Sub(start),
		Result:     res,
		Err:        err,
		Stale:      stale,
	}
	o.notify(ctx, ev)
	return res, err
}

func (o *Orchestrator) notify(ctx context.Context, ev Event) {
	for _, obs := range o.observers {
		obs.Observe(ctx, ev)
	}
}

// State returns a snapshot of actor's slot for kind.
func (o *Orchestrator) State(actor string, kind advisory.Kind) Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.slots[slotKey{actor: actor, kind: kind}]
	if !ok {
		return Snapshot{Kind: kind, Status: StatusIdle}
	}
	snap := Snapshot{
		Kind:       kind,
		Status:     s.status,
		Generation: s.issued,
		Result:     s.result,
		UpdatedAt:  s.updatedAt,
	}
	if s.err != nil {
		snap.Error = advisory.UserMessage(s.err)
	}
	return snap
}

// States returns snapshots of every slot of actor in kind order.
func (o *Orchestrator) States(actor string) []Snapshot {
	out := make([]Snapshot, 0, len(advisory.Kinds))
	for _, k := range advisory.Kinds {
		out = append(out, o.State(actor, k))
	}
	return out
}

func (o *Orchestrator) begin(key slotKey) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.slots[key]
	if !ok {
		s = &slot{status: StatusIdle}
		o.slots[key] = s
	}
	s.issued++
	s.status = StatusLoading
	s.updatedAt = o.now()
	return s.issued
}

// settle writes the outcome into the slot if gen is still the newest
// generation issued for key. It reports whether the write happened.
func (o *Orchestrator) settle(key slotKey, gen uint64, res *advisory.Result, err error) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.slots[key]
	if gen != s.issued {
		log.Printf("orchestrator: discarding stale %s response (generation %d, newest %d)", key.kind, gen, s.issued)
		return false
	}
	s.updatedAt = o.now()
	if err != nil {
		s.status = StatusFailed
		s.err = err
		// Keep the last good result visible; curated emergency content in
		// particular must not disappear because a later call failed.
		return true
	}
	s.status = StatusSuccess
	s.result = res
	s.err = nil
	return true
}

func (o *Orchestrator) dispatch(ctx context.Context, req advisory.Request) (*advisory.Result, error) {
	switch req.Kind {
	case advisory.KindMedicineLookup:
		v, err := o.gateway.MedicineDetails(ctx, req.Text, req.Language)
		if err != nil {
			return nil, err
		}
		return &advisory.Result{Medicine: v}, nil
	case advisory.KindSymptomAnalysis:
		v, err := o.gateway.AnalyzeSymptoms(ctx, req.Text, req.Language)
		if err != nil {
			return nil, err
		}
		return &advisory.Result{Symptoms: v}, nil
	case advisory.KindEmergencyAid:
		v, err := o.emergency(ctx, req.Text, req.Language)
		if err != nil {
			return nil, err
		}
		return &advisory.Result{Emergency: v}, nil
	case advisory.KindInteractionCheck:
		v, err := o.gateway.CheckInteractions(ctx, req.Medicines, req.Language)
		if err != nil {
			return nil, err
		}
		return &advisory.Result{Interaction: v}, nil
	case advisory.KindDosageSchedule:
		v, err := o.gateway.DosageSchedule(ctx, req.Medicines, req.Language)
		if err != nil {
			return nil, err
		}
		return &advisory.Result{Schedule: v}, nil
	case advisory.KindImageIdentify:
		v, err := o.gateway.IdentifyMedicine(ctx, req.Image)
		if err != nil {
			return nil, err
		}
		return &advisory.Result{Identified: v}, nil
	case advisory.KindPharmacyLookup:
		v, err := o.gateway.NearbyPharmacies(ctx, req.Location.Lat, req.Location.Lng)
		if err != nil {
			return nil, err
		}
		if v == nil {
			v = []advisory.PharmacyLocation{}
		}
		return &advisory.Result{Pharmacies: v}, nil
	}
	return nil, advisory.NewValidationError(req.Kind, "Unknown request type.")
}

// LookupMedicine describes a medicine.
func (o *Orchestrator) LookupMedicine(ctx context.Context, name string, lang advisory.Language) (*advisory.MedicineInfo, error) {
	res, err := o.Submit(ctx, advisory.Request{Kind: advisory.KindMedicineLookup, Text: name, Language: lang})
	if err != nil {
		return nil, err
	}
	return res.Medicine, nil
}

// AnalyzeSymptoms triages a symptom description.
func (o *Orchestrator) AnalyzeSymptoms(ctx context.Context, symptoms string, lang advisory.Language) (*advisory.SymptomAnalysis, error) {
	res, err := o.Submit(ctx, advisory.Request{Kind: advisory.KindSymptomAnalysis, Text: symptoms, Language: lang})
	if err != nil {
		return nil, err
	}
	return res.Symptoms, nil
}

// EmergencyAid returns merged first-aid guidance for a situation label.
func (o *Orchestrator) EmergencyAid(ctx context.Context, situation string, lang advisory.Language) (*advisory.EmergencyView, error) {
	res, err := o.Submit(ctx, advisory.Request{Kind: advisory.KindEmergencyAid, Text: situation, Language: lang})
	if err != nil {
		return nil, err
	}
	return res.Emergency, nil
}

// CheckInteractions grades the interaction risk between medicines.
func (o *Orchestrator) CheckInteractions(ctx context.Context, medicines []string, lang advisory.Language) (*advisory.InteractionResult, error) {
	res, err := o.Submit(ctx, advisory.Request{Kind: advisory.KindInteractionCheck, Medicines: medicines, Language: lang})
	if err != nil {
		return nil, err
	}
	return res.Interaction, nil
}

// ScheduleDosage builds a daily schedule for medicines.
func (o *Orchestrator) ScheduleDosage(ctx context.Context, medicines []string, lang advisory.Language) (*advisory.DosageSchedule, error) {
	res, err := o.Submit(ctx, advisory.Request{Kind: advisory.KindDosageSchedule, Medicines: medicines, Language: lang})
	if err != nil {
		return nil, err
	}
	return res.Schedule, nil
}

// IdentifyMedicine names the medicine in an image.
func (o *Orchestrator) IdentifyMedicine(ctx context.Context, image string) (string, error) {
	res, err := o.Submit(ctx, advisory.Request{Kind: advisory.KindImageIdentify, Image: image})
	if err != nil {
		return "", err
	}
	return res.Identified, nil
}

// FindPharmacies lists pharmacies near a point.
func (o *Orchestrator) FindPharmacies(ctx context.Context, lat, lng float64) ([]advisory.PharmacyLocation, error) {
	res, err := o.Submit(ctx, advisory.Request{Kind: advisory.KindPharmacyLookup, Location: advisory.Coordinates{Lat: lat, Lng: lng}})
	if err != nil {
		return nil, err
	}
	return res.Pharmacies, nil
}
