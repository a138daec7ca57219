package brief

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestOrFallback(t *testing.T) {
	tests := []struct {
		name string
		text string
		err  error
		want string
	}{
		{"success passes through", "OpenClaw shipped v2, doubling throughput.", nil, "OpenClaw shipped v2, doubling throughput."},
		{"error falls back", "", eris.New("api down"), "Summary pending."},
		{"blank falls back", "   ", nil, "Summary pending."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrFallback(tt.text, tt.err))
		})
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	s := New("key", Config{})
	impl, ok := s.(*sdkSummarizer)
	assert.True(t, ok)
	assert.Equal(t, "claude-haiku-4-5-20251001", impl.cfg.Model)
	assert.Equal(t, int64(256), impl.cfg.MaxTokens)
}
