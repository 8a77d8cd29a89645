package dsl

import (
	"testing"

	"github.com/meshflow/mediator/model"
	"github.com/stretchr/testify/require"
)

func TestResolve_Success(t *testing.T) {
	steps := map[string]model.StepState{
		"S1": {
			Name:   "S1",
			Status: model.StepSuccess,
			Payload: &model.EventPayload{
				Output: map[string]any{"v": 42},
			},
		},
	}
	out, err := NewResolver().Resolve(map[string]string{"k": "{{S1.v}}"}, steps)
	require.NoError(t, err)
	require.Equal(t, 42, out["k"])
}

func TestResolve_WhitespaceTolerant(t *testing.T) {
	steps := map[string]model.StepState{
		"S1": {Payload: &model.EventPayload{Output: map[string]any{"v": "ok"}}},
	}
	out, err := NewResolver().Resolve(map[string]string{"k": "{{  S1.v  }}"}, steps)
	require.NoError(t, err)
	require.Equal(t, "ok", out["k"])
}

func TestResolve_UnknownStep(t *testing.T) {
	_, err := NewResolver().Resolve(map[string]string{"k": "{{S1.v}}"}, map[string]model.StepState{})
	require.Error(t, err)
	var terr *TemplateError
	require.ErrorAs(t, err, &terr)
}

func TestResolve_MissingField(t *testing.T) {
	steps := map[string]model.StepState{
		"S1": {Payload: &model.EventPayload{Output: map[string]any{"v": 1}}},
	}
	_, err := NewResolver().Resolve(map[string]string{"k": "{{S1.missing}}"}, steps)
	require.Error(t, err)
}

func TestResolve_NoPayloadYet(t *testing.T) {
	steps := map[string]model.StepState{"S1": {Status: model.StepOngoing}}
	_, err := NewResolver().Resolve(map[string]string{"k": "{{S1.v}}"}, steps)
	require.Error(t, err)
}
