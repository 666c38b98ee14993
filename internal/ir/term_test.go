package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermString(t *testing.T) {
	tests := []struct {
		name string
		term Term
		want string
	}{
		{"iri", IRI(ex + "Lecturer"), "<http://example.org/Lecturer>"},
		{"plain literal", Literal("SW"), `"SW"`},
		{"escaped literal", Literal("a \"b\"\n"), `"a \"b\"\n"`},
		{"typed literal", Integer(46), `"46"^^<http://www.w3.org/2001/XMLSchema#integer>`},
		{"lang literal", LangLiteral("chat", "FR"), `"chat"@fr`},
		{"variable", Var("?p"), "?p"},
		{"erased", Erased("_t3_o"), "?_t3_o"},
		{"blank", Blank("_:b0"), "_:b0"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.term.String())
		})
	}
}

func TestTermPredicates(t *testing.T) {
	assert.True(t, IRI(ex+"x").IsConstant())
	assert.True(t, Literal("x").IsConstant())
	assert.False(t, Blank("b").IsConstant())
	assert.True(t, Var("x").IsVariable())
	assert.True(t, Erased("x").IsVariable())
	assert.True(t, Integer(3).IsNumeric())
	assert.False(t, Literal("3").IsNumeric())
	assert.True(t, Term{}.IsZero())
}

func TestLiteralNormalization(t *testing.T) {
	assert.Equal(t, Literal("caf\u00E9"), Literal("cafe\u0301"))
	assert.Equal(t, Literal("x"), TypedLiteral("x", XSDString), "xsd:string folds into plain literals")
	assert.NotEqual(t, Literal("46"), Integer(46))
}

func TestTermJSON(t *testing.T) {
	terms := []Term{
		IRI(ex + "s1"),
		Literal("SW"),
		Integer(46),
		LangLiteral("hello", "en"),
		Blank("b1"),
	}
	for _, term := range terms {
		term := term
		t.Run(term.String(), func(t *testing.T) {
			data, err := json.Marshal(term)
			require.NoError(t, err)

			var got Term
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, term, got)
		})
	}
}

func TestTermJSONDecodesEndpointShapes(t *testing.T) {
	var typed Term
	require.NoError(t, json.Unmarshal([]byte(`{"type":"typed-literal","value":"46","datatype":"http://www.w3.org/2001/XMLSchema#integer"}`), &typed))
	assert.Equal(t, Integer(46), typed)

	var lang Term
	require.NoError(t, json.Unmarshal([]byte(`{"type":"literal","value":"x","xml:lang":"EN"}`), &lang))
	assert.Equal(t, LangLiteral("x", "en"), lang)

	var bad Term
	require.Error(t, json.Unmarshal([]byte(`{"type":"triple","value":"x"}`), &bad))
}
