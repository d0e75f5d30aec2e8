package sanitizer

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizer(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		policy   PolicyPreset
		expected string
	}{
		{
			name:     "raw passes through",
			input:    "hello\x00world\n",
			policy:   PolicyRaw,
			expected: "hello\x00world\n",
		},
		{
			name:     "txt hex encodes null byte",
			input:    "test\x00data",
			policy:   PolicyTxt,
			expected: "test<00>data",
		},
		{
			name:     "txt hex encodes control chars",
			input:    "bell\x07tab\x09form\x0c",
			policy:   PolicyTxt,
			expected: "bell<07>tab<09>form<0c>",
		},
		{
			name:     "txt preserves printable",
			input:    "Hello World 123!@#",
			policy:   PolicyTxt,
			expected: "Hello World 123!@#",
		},
		{
			name:     "txt encodes multi-byte control",
			input:    "line1\u0085line2",
			policy:   PolicyTxt,
			expected: "line1<c285>line2",
		},
		{
			name:     "txt preserves UTF-8",
			input:    "Hello 世界 ✓",
			policy:   PolicyTxt,
			expected: "Hello 世界 ✓",
		},
		{
			name:     "single folds line breaks",
			input:    "first\nsecond\r\nthird",
			policy:   PolicySingle,
			expected: "first second  third",
		},
		{
			name:     "single strips other controls",
			input:    "a\x00b\x07c",
			policy:   PolicySingle,
			expected: "abc",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := New().Policy(tc.policy)
			assert.Equal(t, tc.expected, s.Sanitize(tc.input))
		})
	}
}

func TestSanitizerRules(t *testing.T) {
	t.Run("first matching rule wins", func(t *testing.T) {
		s := New().
			Rule(FilterLineBreak, TransformStrip).
			Rule(FilterNonPrintable, TransformHexEncode)
		assert.Equal(t, "ab<09>c", s.Sanitize("a\nb\tc"))
	})

	t.Run("unknown policy adds nothing", func(t *testing.T) {
		s := New().Policy("unknown")
		assert.Equal(t, "x\x00y", s.Sanitize("x\x00y"))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", New().Policy(PolicyTxt).Sanitize(""))
	})
}

func TestSanitizerConcurrent(t *testing.T) {
	s := New().Policy(PolicyTxt)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				assert.Equal(t, "a<00>b", s.Sanitize("a\x00b"))
			}
		}()
	}
	wg.Wait()
}

func BenchmarkSanitizer(b *testing.B) {
	input := strings.Repeat("normal text\x00\n\t", 100)

	for _, policy := range []PolicyPreset{PolicyRaw, PolicyTxt, PolicySingle} {
		b.Run(string(policy), func(b *testing.B) {
			s := New().Policy(policy)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = s.Sanitize(input)
			}
		})
	}
}
