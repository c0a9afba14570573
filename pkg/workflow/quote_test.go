package workflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteDraftTotalFollowsEveryEdit(t *testing.T) {
	d := NewQuoteDraft()
	require.NoError(t, d.SetServiceLine(0, "Diagnóstico", "100"))
	assert.Equal(t, 100.0, d.Total())

	d.AddServiceLine("Reparación", "100")
	assert.Equal(t, 200.0, d.Total())

	d.SetTransportFee("50")
	assert.Equal(t, 250.0, d.Total())

	require.NoError(t, d.SetServiceLine(1, "Reparación", "80,50"))
	assert.Equal(t, 230.5, d.Total())

	require.NoError(t, d.RemoveServiceLine(0))
	assert.Equal(t, 130.5, d.Total())

	d.SetTransportFee("")
	assert.Equal(t, 80.5, d.Total())
}

func TestQuoteDraftInvalidAmountsContributeZero(t *testing.T) {
	d := NewQuoteDraft()
	require.NoError(t, d.SetServiceLine(0, "Cambio de aceite", "abc"))
	d.AddServiceLine("Filtro", "")
	d.AddServiceLine("Frenos", "-20")
	d.AddServiceLine("Bujías", "15.25")
	d.SetTransportFee("x")
	assert.Equal(t, 15.25, d.Total())
}

func TestQuoteDraftKeepsOneLine(t *testing.T) {
	d := NewQuoteDraft()
	err := d.RemoveServiceLine(0)
	require.ErrorIs(t, err, ErrValidation)
	assert.Len(t, d.Lines, 1)

	require.ErrorIs(t, d.RemoveServiceLine(3), ErrValidation)
	require.ErrorIs(t, d.SetServiceLine(-1, "a", "1"), ErrValidation)
}

func TestQuoteDraftBuild(t *testing.T) {
	tests := []struct {
		name    string
		lines   []DraftLine
		fee     string
		eta     string
		wantErr bool
		want    float64
		wantN   int
	}{
		{"all blank", []DraftLine{{}, {}}, "", "2 horas", true, 0, 0},
		{"unparsable price", []DraftLine{{Description: "Grúa", Price: "mucho"}}, "", "2 horas", true, 0, 0},
		{"description missing", []DraftLine{{Price: "40"}}, "", "2 horas", true, 0, 0},
		{"blank estimated time", []DraftLine{{Description: "Grúa", Price: "40"}}, "", "  ", true, 0, 0},
		{"bad fee", []DraftLine{{Description: "Grúa", Price: "40"}}, "gratis", "1 hora", true, 0, 0},
		{"one valid line", []DraftLine{{Description: "Grúa", Price: "40"}}, "10", "1 hora", false, 50, 1},
		{"mixed lines keep valid ones", []DraftLine{{Description: "Grúa", Price: "40"}, {Description: "Extra", Price: "?"}, {}}, "", "1 hora", false, 40, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &QuoteDraft{Lines: tt.lines, TransportFee: tt.fee, EstimatedTime: tt.eta}
			q, err := d.Build(7, "worker-1", "client-1")
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.TotalPrice)
			assert.Len(t, q.Services, tt.wantN)
			assert.Equal(t, uint64(7), q.RequestID)
		})
	}
}

func TestNewQuoteValidate(t *testing.T) {
	base := func() NewQuote {
		return NewQuote{
			RequestID:     1,
			WorkerID:      "w",
			Services:      []ServiceLine{{Description: "Diagnóstico", Price: 100}, {Description: "Reparación", Price: 100}},
			TransportFee:  50,
			EstimatedTime: "3 horas",
		}
	}

	q := base()
	require.NoError(t, q.Validate())
	assert.Equal(t, 250.0, QuoteTotal(q.Services, q.TransportFee))

	q = base()
	q.TotalPrice = 250
	require.NoError(t, q.Validate())

	q = base()
	q.TotalPrice = 240
	require.ErrorIs(t, q.Validate(), ErrValidation)

	q = base()
	q.Services[0].Price = -1
	require.ErrorIs(t, q.Validate(), ErrValidation)

	q = base()
	q.TransportFee = -5
	require.ErrorIs(t, q.Validate(), ErrValidation)

	q = base()
	q.Services = []ServiceLine{{Description: "Revisión", Price: 0}}
	require.ErrorIs(t, q.Validate(), ErrValidation)

	q = base()
	q.Services = []ServiceLine{{Description: "", Price: 15}, {Description: "  ", Price: 0}}
	require.ErrorIs(t, q.Validate(), ErrValidation)

	q = base()
	q.Services = append(q.Services, ServiceLine{Description: "", Price: 0}, ServiceLine{Description: "Lavado", Price: 0})
	q.TotalPrice = 250
	require.NoError(t, q.Validate())
	assert.Equal(t, []ServiceLine{{Description: "Diagnóstico", Price: 100}, {Description: "Reparación", Price: 100}}, q.Services)
	assert.Equal(t, 250.0, QuoteTotal(q.Services, q.TransportFee))

	q = base()
	q.Services = append(q.Services, ServiceLine{Description: "", Price: -3})
	require.ErrorIs(t, q.Validate(), ErrValidation)

	q = base()
	q.Notes = strings.Repeat("ñ", MaxNotesLength)
	require.NoError(t, q.Validate())

	q = base()
	q.Notes = strings.Repeat("a", MaxNotesLength+1)
	require.ErrorIs(t, q.Validate(), ErrValidation)
}

func TestCheckQuoteTransition(t *testing.T) {
	assert.NoError(t, CheckQuoteTransition(QuotePending, QuoteAccepted, RoleClient))
	assert.NoError(t, CheckQuoteTransition(QuotePending, QuoteRejected, RoleClient))
	assert.NoError(t, CheckQuoteTransition(QuoteAccepted, QuotePaid, RoleSystem))
	assert.ErrorIs(t, CheckQuoteTransition(QuoteAccepted, QuoteRejected, RoleClient), ErrInvalidTransition)
	assert.ErrorIs(t, CheckQuoteTransition(QuotePending, QuoteAccepted, RoleWorker), ErrInvalidTransition)
	assert.ErrorIs(t, CheckQuoteTransition(QuotePaid, QuoteRejected, RoleSystem), ErrInvalidTransition)
}

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(1025), ToCents(10.25))
	assert.Equal(t, int64(30), ToCents(0.1+0.2))
	assert.Equal(t, int64(0), ToCents(0))
}

func TestParseAmount(t *testing.T) {
	v, ok := ParseAmount(" 12,50 ")
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	for _, in := range []string{"", "  ", "abc", "-1", "NaN"} {
		_, ok := ParseAmount(in)
		assert.False(t, ok, in)
	}
}
