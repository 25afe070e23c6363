package tokensource_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/cursorswitch/internal/adapter/driven/tokensource"
)

type fakeCandidates struct {
	values []string
	err    error
}

func (f fakeCandidates) TokenCandidates(context.Context) ([]string, error) {
	return f.values, f.err
}

func TestStateDB_Token(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{
			name:   "long value returned directly",
			values: []string{"short", "a-very-long-access-token-value"},
			want:   "a-very-long-access-token-value",
		},
		{
			name:   "short JSON object with token field",
			values: []string{`{"token":"t1"}`},
			want:   "t1",
		},
		{
			name:   "long JSON text is returned verbatim",
			values: []string{`{"token":"inner-token-value"}`},
			want:   `{"token":"inner-token-value"}`,
		},
		{
			name:   "non-string token field skipped",
			values: []string{`{"token":42}`, `{"token":"ok"}`},
			want:   "ok",
		},
		{
			name:   "nothing usable",
			values: []string{"abc", "[1,2]", `{"x":"y"}`, ""},
			want:   "",
		},
		{
			name:   "exactly twenty characters is not enough",
			values: []string{"12345678901234567890"},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := tokensource.NewStateDB(fakeCandidates{values: tt.values})

			tok, err := src.Token(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, tok)
		})
	}
}

func TestStateDB_StoreErrorIsReturned(t *testing.T) {
	forced := errors.New("not connected")
	src := tokensource.NewStateDB(fakeCandidates{err: forced})

	tok, err := src.Token(context.Background())
	assert.ErrorIs(t, err, forced)
	assert.Empty(t, tok)
}
