package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConditional(t *testing.T) {
	assert.NotNil(t, GetConditional(ConditionalExpression{Language: ""}))
	assert.NotNil(t, GetConditional(ConditionalExpression{Language: "simple"}))
	assert.Nil(t, GetConditional(ConditionalExpression{Language: "javascript"}))
}

func TestSimpleConditionalInterpreter_Evaluate(t *testing.T) {
	interpreter := SimpleConditionalInterpreter{}

	tests := []struct {
		name    string
		input   any
		want    bool
		wantErr bool
	}{
		{name: "nil_holds", input: nil, want: true},
		{name: "bool_true", input: true, want: true},
		{name: "bool_false", input: false, want: false},
		{name: "string_true", input: "true", want: true},
		{name: "string_false", input: "false", want: false},
		{name: "empty_string_holds", input: "", want: true},
		{name: "nonzero_int", input: 7, want: true},
		{name: "zero_int", input: 0, want: false},
		{name: "nonzero_int64", input: int64(7), want: true},
		{name: "nonzero_int32", input: int32(7), want: true},
		{name: "nonzero_float", input: 0.5, want: true},
		{name: "zero_float", input: 0.0, want: false},
		{name: "nonzero_float32", input: float32(0.5), want: true},
		{name: "unparseable_string", input: "maybe", wantErr: true},
		{name: "unsupported_type", input: []string{"x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := interpreter.Evaluate(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNotBoolean)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
