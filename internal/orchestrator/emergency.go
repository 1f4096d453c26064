package orchestrator

import (
	"context"
	"log"

	"github.com/mediguide-lk/mediguide/internal/advisory"
	"github.com/mediguide-lk/mediguide/internal/curated"
)

// emergency merges curated guidance with the gateway's answer. Curated
// actions, avoid list and tip always win when an entry exists; the gateway
// fills whatever is missing. A gateway failure is only surfaced when there
// is no curated entry to fall back on.
func (o *Orchestrator) emergency(ctx context.Context, label string, lang advisory.Language) (*advisory.EmergencyView, error) {
	situation, known := curated.ParseSituation(label)
	var entry curated.Entry
	hasCurated := false
	if known {
		entry, hasCurated = curated.Lookup(situation, lang)
		label = curated.Label(situation, lang)
	}

	info, gwErr := o.gateway.EmergencyInstructions(ctx, label, lang)
	if gwErr != nil {
		if !hasCurated {
			return nil, &advisory.AdvisoryError{
				Kind:     advisory.EmergencyFallbackExhausted,
				Advisory: advisory.KindEmergencyAid,
				Message:  advisory.FailureMessage(advisory.KindEmergencyAid),
				Cause:    gwErr,
			}
		}
		log.Printf("orchestrator: emergency lookup for %q failed, using curated content: %v", label, gwErr)
		info = nil
	}

	view := merge(label, entry, hasCurated, info)
	if known {
		view.Key = string(situation)
	}
	if view.Avoid == nil {
		view.Avoid = []string{}
	}
	if len(view.Actions) == 0 {
		return nil, &advisory.AdvisoryError{
			Kind:     advisory.EmergencyFallbackExhausted,
			Advisory: advisory.KindEmergencyAid,
			Message:  advisory.FailureMessage(advisory.KindEmergencyAid),
		}
	}
	return view, nil
}

func merge(label string, c curated.Entry, hasCurated bool, g *advisory.EmergencyInfo) *advisory.EmergencyView {
	view := &advisory.EmergencyView{
		Situation:        label,
		EmergencyContact: advisory.EmergencyNumber,
	}

	switch {
	case hasCurated && g != nil:
		view.Source = advisory.SourceCuratedAI
	case hasCurated:
		view.Source = advisory.SourceCurated
	default:
		view.Source = advisory.SourceAI
	}

	if hasCurated {
		view.Actions = c.Actions
		view.Avoid = c.Avoid
		view.Tip = c.Tip
		view.ImageRef = c.ImageRef
	}
	if g == nil {
		return view
	}

	if len(view.Actions) == 0 {
		view.Actions = g.ImmediateActions
	}
	if len(view.Avoid) == 0 {
		view.Avoid = g.ThingsToAvoid
	}
	if view.Tip == "" {
		view.Tip = g.ProfessionalAdvice
	}
	if g.EmergencyContact != "" {
		view.EmergencyContact = g.EmergencyContact
	}
	view.ProfessionalAdvice = g.ProfessionalAdvice
	return view
}
