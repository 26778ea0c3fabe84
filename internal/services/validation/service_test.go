package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/interfaces"
)

// MockQuoteProvider is a mock implementation of QuoteProvider
type MockQuoteProvider struct {
	mock.Mock
}

func (m *MockQuoteProvider) GetQuote(ctx context.Context, symbol string) (map[string]any, error) {
	args := m.Called(ctx, symbol)
	if payload, ok := args.Get(0).(map[string]any); ok {
		return payload, args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestService(t *testing.T, quotes *MockQuoteProvider) *Service {
	t.Helper()
	var provider interfaces.QuoteProvider
	if quotes != nil {
		provider = quotes
	}
	svc, err := NewService(provider, arbor.NewLogger())
	require.NoError(t, err)
	return svc
}

func TestNewService_LoadsKnownList(t *testing.T) {
	svc := newTestService(t, nil)

	assert.GreaterOrEqual(t, svc.KnownCount(), 80)
	assert.True(t, svc.IsKnown("aapl"))
	assert.False(t, svc.IsKnown("ZZZZZ"))
}

func TestValidate_FormatStage(t *testing.T) {
	quotes := new(MockQuoteProvider)
	svc := newTestService(t, quotes)

	for _, input := range []string{"1A", "", "TOOLONG", "AA-B", "BRK.B", "A1"} {
		t.Run(input, func(t *testing.T) {
			result := svc.Validate(context.Background(), input)
			assert.False(t, result.IsValid)
			assert.Equal(t, "format", string(result.Method))
			assert.Equal(t, ReasonInvalidFormat, result.Reason)
		})
	}

	quotes.AssertNotCalled(t, "GetQuote", mock.Anything, mock.Anything)
}

func TestValidate_KnownListStage(t *testing.T) {
	quotes := new(MockQuoteProvider)
	svc := newTestService(t, quotes)

	for _, input := range []string{"AAPL", " msft ", "spy"} {
		result := svc.Validate(context.Background(), input)
		assert.True(t, result.IsValid, input)
		assert.Equal(t, "known_list", string(result.Method), input)
		assert.Nil(t, result.Price)
	}

	quotes.AssertNotCalled(t, "GetQuote", mock.Anything, mock.Anything)
}

func TestValidate_LiveLookupStage(t *testing.T) {
	tests := []struct {
		name       string
		payload    map[string]any
		err        error
		wantValid  bool
		wantReason string
		wantPrice  float64
	}{
		{
			name:      "price present",
			payload:   map[string]any{"code": "ZZZZZ.US", "close": 12.34},
			wantValid: true,
			wantPrice: 12.34,
		},
		{
			name:      "price as string",
			payload:   map[string]any{"code": "ZZZZZ.US", "close": "8.5"},
			wantValid: true,
			wantPrice: 8.5,
		},
		{
			name:       "no price",
			payload:    map[string]any{"code": "ZZZZZ.US", "close": "NA"},
			wantReason: ReasonNotFound,
		},
		{
			name:       "zero price",
			payload:    map[string]any{"code": "ZZZZZ.US", "close": 0.0},
			wantReason: ReasonNotFound,
		},
		{
			name:       "transport failure",
			err:        errors.New("connection refused"),
			wantReason: ReasonLookupFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotes := new(MockQuoteProvider)
			quotes.On("GetQuote", mock.Anything, "ZZZZZ").Return(tt.payload, tt.err).Once()
			svc := newTestService(t, quotes)

			result := svc.Validate(context.Background(), "zzzzz")

			assert.Equal(t, "live_lookup", string(result.Method))
			assert.Equal(t, "ZZZZZ", result.Symbol)
			assert.Equal(t, tt.wantValid, result.IsValid)
			assert.Equal(t, tt.wantReason, result.Reason)
			if tt.wantValid {
				require.NotNil(t, result.Price)
				assert.InDelta(t, tt.wantPrice, *result.Price, 1e-9)
			}
			quotes.AssertExpectations(t)
		})
	}
}

func TestValidate_NoQuoteProvider(t *testing.T) {
	svc := newTestService(t, nil)

	result := svc.Validate(context.Background(), "ZZZZZ")
	assert.False(t, result.IsValid)
	assert.Equal(t, "live_lookup", string(result.Method))
	assert.Equal(t, ReasonLookupFailed, result.Reason)
}

func TestSuggestions(t *testing.T) {
	svc := newTestService(t, nil)

	tests := []struct {
		input   string
		want    []string
		contain string
	}{
		{input: "ZZZZZ", want: []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA"}},
		{input: "", want: []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA"}},
		{input: "googx", contain: "GOOG"},
		{input: "nvd", contain: "NVDA"},
		{input: "A", contain: "AAPL"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := svc.Suggestions(tt.input)
			assert.GreaterOrEqual(t, len(got), 1)
			assert.LessOrEqual(t, len(got), MaxSuggestions)
			if tt.want != nil {
				assert.Equal(t, tt.want, got)
			}
			if tt.contain != "" {
				assert.Contains(t, got, tt.contain)
			}
		})
	}
}

func TestSuggestions_Bound(t *testing.T) {
	svc := newTestService(t, nil)

	for _, input := range []string{"A", "M", "S", "T", "C", "ABCDEFGHIJ", "!!", "aapl"} {
		got := svc.Suggestions(input)
		assert.GreaterOrEqual(t, len(got), 1, input)
		assert.LessOrEqual(t, len(got), MaxSuggestions, input)
	}
}

func TestSuggestions_ReturnsCopy(t *testing.T) {
	svc := newTestService(t, nil)

	first := svc.Suggestions("ZZZZZ")
	first[0] = "MUTATED"

	assert.Equal(t, "AAPL", svc.Suggestions("ZZZZZ")[0])
}
