package testutil

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/agentjury/core"
	"github.com/hupe1980/agentjury/model"
)

// Script describes the structured outputs a MockModel returns during a debate.
// Outputs are routed by request label (e.g. "jurorB", "critiqueC").
type Script struct {
	Baseline   core.Baseline
	Positions  core.Positions
	Critiques  core.Critiques
	Rebuttals  core.Rebuttals
	Revisions  core.Revisions
	Verdict    core.Verdict
	Evaluation core.Evaluation
	// Fail makes the worker with the given label return the error.
	Fail map[string]error
}

// DefaultScript returns a script whose jurors agree with high confidence.
func DefaultScript() Script {
	return Script{
		Baseline:   Baseline(core.StanceSupport, "Baseline says yes."),
		Positions:  UniformPositions(core.StanceSupport, 0.8),
		Critiques:  RoundRobinCritiques(core.SeverityMinor),
		Rebuttals:  core.Rebuttals{},
		Revisions:  core.Revisions{},
		Verdict:    Verdict("The jury supports the proposal."),
		Evaluation: Evaluation(core.WinnerJury),
	}
}

// Install registers handlers for every debate schema on m.
func (s Script) Install(m *model.MockModel) {
	m.Handle("baseline", s.handler(func(string) any { return s.Baseline }))
	m.Handle("position", s.handler(func(label string) any { return s.Positions[participant(label)] }))
	m.Handle("critique_list", s.handler(func(label string) any {
		list := s.Critiques[participant(label)]
		if list == nil {
			list = []core.Critique{}
		}
		return map[string]any{"critiques": list}
	}))
	m.Handle("rebuttal", s.handler(func(label string) any { return s.rebuttal(participant(label)) }))
	m.Handle("revised_position", s.handler(func(label string) any { return s.revision(participant(label)) }))
	m.Handle("verdict", s.handler(func(string) any { return s.Verdict }))
	m.Handle("evaluation", s.handler(func(string) any { return s.Evaluation }))
}

func (s Script) rebuttal(p core.ParticipantID) core.Rebuttal {
	if r, ok := s.Rebuttals[p]; ok {
		return r
	}
	stance := s.Positions[p].Stance
	return Rebuttal(stance, "Juror "+string(p)+" stands firm.")
}

func (s Script) revision(p core.ParticipantID) core.RevisedPosition {
	if r, ok := s.Revisions[p]; ok {
		return r
	}
	stance := s.Positions[p].Stance
	return Revision(stance, stance, "Juror "+string(p)+" revised summary.")
}

func (s Script) handler(output func(label string) any) model.MockHandler {
	return func(req model.Request) (string, error) {
		if err, ok := s.Fail[req.Label]; ok {
			return "", err
		}
		b, err := json.Marshal(output(req.Label))
		if err != nil {
			return "", fmt.Errorf("script %s: %w", req.Label, err)
		}
		return string(b), nil
	}
}

// participant derives the participant from labels such as "critiqueB".
func participant(label string) core.ParticipantID {
	if label == "" {
		return ""
	}
	p, _ := core.ParseParticipant(strings.ToUpper(label[len(label)-1:]))
	return p
}
