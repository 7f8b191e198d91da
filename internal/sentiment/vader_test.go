package sentiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVADERClassifier(t *testing.T) {
	classifier := NewVADERClassifier()

	cases := []struct {
		text string
		want string
	}{
		{"this is a wonderful and amazing day i love it", LabelPositive},
		{"this is terrible awful and i hate it", LabelNegative},
		{"", LabelPositive},
	}

	for _, tc := range cases {
		got, err := classifier.ClassifySentiment(context.Background(), tc.text)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.Sentiment, "text %q", tc.text)
		assert.GreaterOrEqual(t, got.Confidence, 0.5)
		assert.LessOrEqual(t, got.Confidence, 1.0)
	}
}
