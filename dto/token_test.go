package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestBoxUnmarshalLenient(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Box
	}{
		{name: "four points", json: `[[0,0],[10,0],[10,4],[0,4]]`, want: Box{{0, 0}, {10, 0}, {10, 4}, {0, 4}}},
		{name: "float coordinates", json: `[[1.5,2.25]]`, want: Box{{1.5, 2.25}}},
		{name: "extra coordinates ignored", json: `[[1,2,3]]`, want: Box{{1, 2}}},
		{name: "short point voids box", json: `[[230,100],[9]]`, want: nil},
		{name: "non-numeric point voids box", json: `[[1,2],"x",[3,4]]`, want: nil},
		{name: "null point voids box", json: `[[3,4],null]`, want: nil},
		{name: "not a list", json: `"abc"`, want: nil},
		{name: "null", json: `null`, want: nil},
		{name: "all malformed", json: `[["a","b"]]`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Box
			require.NoError(t, json.Unmarshal([]byte(tt.json), &b))
			assert.Equal(t, tt.want, b)
		})
	}
}

func TestTokenDecodeWithBadGeometry(t *testing.T) {
	var tokens []Token
	err := json.Unmarshal([]byte(`[{"text":"Amount","box":{"x":1}},{"text":"20,000","box":[[5,5],[9,5]],"conf":0.8}]`), &tokens)
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	_, ok := tokens[0].Centroid()
	assert.False(t, ok)

	c, ok := tokens[1].Centroid()
	require.True(t, ok)
	assert.Equal(t, Point{X: 7, Y: 5}, c)
	require.NotNil(t, tokens[1].Conf)
	assert.Equal(t, 0.8, *tokens[1].Conf)
}

func TestRectBoxCentroid(t *testing.T) {
	c, ok := Token{Text: "x", Box: RectBox(10, 20, 30, 40)}.Centroid()
	require.True(t, ok)
	assert.Equal(t, Point{X: 25, Y: 40}, c)
}

func TestBoxMarshalRoundsTripShape(t *testing.T) {
	out, err := json.Marshal(Token{Text: "Rs", Box: RectBox(0, 0, 2, 1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"Rs","box":[[0,0],[2,0],[2,1],[0,1]]}`, string(out))

	y, err := yaml.Marshal(Token{Text: "Rs", Box: Box{{1, 2}}})
	require.NoError(t, err)
	assert.Contains(t, string(y), "text: Rs")
	assert.Contains(t, string(y), "- - 1")
}

func TestVerdictMarshalEmpty(t *testing.T) {
	out, err := json.Marshal(Verdict{Label: LabelPossible, Score: 0.5, Evidence: []string{"no_text_detected"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"POSSIBLE","score":0.5,"fields":{},"evidence":["no_text_detected"]}`, string(out))

	out, err = json.Marshal(Verdict{Label: LabelClean, Score: 0.1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"CLEAN","score":0.1,"fields":{},"evidence":[]}`, string(out))
}

func TestVerdictMarshalFields(t *testing.T) {
	account := "123456789"
	out, err := json.Marshal(Verdict{
		Label:  LabelClean,
		Score:  0.1,
		Fields: &FieldRecord{Account: &account, Amounts: []int64{20000}, RawText: "Account:\n123456789"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"CLEAN","score":0.1,"evidence":[],
		"fields":{"name":null,"account":"123456789","amounts":[20000],"raw_text":"Account:\n123456789"}}`, string(out))
}

func TestIsSupportedFile(t *testing.T) {
	assert.True(t, IsSupportedFile("scan.PNG"))
	assert.True(t, IsSupportedFile("a/b/statement.pdf"))
	assert.True(t, IsSupportedFile("x.jpeg"))
	assert.False(t, IsSupportedFile("notes.txt"))
	assert.False(t, IsSupportedFile("pdf"))
	assert.True(t, IsPDF("X.PDF"))
	assert.False(t, IsPDF("x.png"))
}

func TestAnalyzeFileRequestValidate(t *testing.T) {
	assert.ErrorIs(t, (&AnalyzeFileRequest{}).Validate(), ErrNoFile)
}
