package core

import (
	"strings"
	"testing"

	"github.com/JonMunkholm/therafind/internal/dataset"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Fixtures
// ============================================================================

func cdxRow(tumor, test, gene, therapy string) dataset.Row {
	return dataset.NewRow(
		ColumnTumorType, tumor,
		ColumnTest, test,
		ColumnGeneMutations, gene,
		ColumnTherapy, therapy,
	)
}

func sampleTable() *dataset.Table {
	return &dataset.Table{
		Columns: BaseColumns(),
		Rows: []dataset.Row{
			cdxRow("Lung Cancer", "FoundationOne CDx", "NTRK1/2/3", "ROZLYTREK"),
			cdxRow("Lung Cancer", "FoundationOne CDx", "NTRK1/2/3", "VITRAKVI"),
			cdxRow("Breast Cancer", "therascreen PIK3CA RGQ PCR Kit", "PIK3CA", "PIQRAY"),
			cdxRow("Non-Small Cell Lung Cancer", "cobas EGFR Mutation Test v2", "EGFR exon 19 deletion", "TAGRISSO"),
			cdxRow("Breast Cancer", "Ventana ALK (D5F3)", "ALK", "XALKORI"),
			cdxRow("Melanoma", "THxID BRAF Kit", "BRAF V600E", "TAFINLAR"),
		},
	}
}

func therapies(res *SearchResult) []string {
	out := make([]string, len(res.Rows))
	for i, row := range res.Rows {
		out[i] = row.Value(ColumnTherapy)
	}
	return out
}

// ============================================================================
// Filter Tests
// ============================================================================

func TestFilter_NoTermsPassesThrough(t *testing.T) {
	table := sampleTable()

	for _, req := range []SearchRequest{
		nil,
		{},
		{KeyTumorType: "", KeyTherapy: ""},
		{KeyTest: "   "},
		{"unknown_field": "lung"},
	} {
		res := Filter(table, req)
		assert.Equal(t, table.Rows, res.Rows)
		assert.Equal(t, res.TotalRows, res.MatchedRows)
		assert.Equal(t, len(table.Rows), res.TotalRows)
	}
}

func TestFilter_CaseInsensitiveSubstring(t *testing.T) {
	table := sampleTable()

	tests := []struct {
		name string
		req  SearchRequest
		want []string
	}{
		{
			name: "lowercase term matches mixed case value",
			req:  SearchRequest{KeyTumorType: "lung"},
			want: []string{"ROZLYTREK", "VITRAKVI", "TAGRISSO"},
		},
		{
			name: "uppercase term matches",
			req:  SearchRequest{KeyTumorType: "MELANOMA"},
			want: []string{"TAFINLAR"},
		},
		{
			name: "term in the middle of value",
			req:  SearchRequest{KeyTest: "pcr"},
			want: []string{"PIQRAY"},
		},
		{
			name: "surrounding whitespace ignored",
			req:  SearchRequest{KeyTherapy: "  piqray "},
			want: []string{"PIQRAY"},
		},
		{
			name: "no match",
			req:  SearchRequest{KeyTherapy: "keytruda"},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Filter(table, tt.req)
			assert.Equal(t, tt.want, therapies(res))
			assert.Equal(t, len(tt.want), res.MatchedRows)
			assert.Equal(t, 6, res.TotalRows)
		})
	}
}

func TestFilter_TermsOnlyMatchTheirOwnColumn(t *testing.T) {
	table := &dataset.Table{
		Columns: BaseColumns(),
		Rows: []dataset.Row{
			cdxRow("Breast Cancer", "ALK assay", "HER2", "HERCEPTIN"),
			cdxRow("Lung Cancer", "Ventana", "ALK", "XALKORI"),
		},
	}

	res := Filter(table, SearchRequest{KeyGeneMutations: "alk"})
	assert.Equal(t, []string{"XALKORI"}, therapies(res))
}

func TestFilter_AllTermsMustMatch(t *testing.T) {
	table := sampleTable()

	res := Filter(table, SearchRequest{KeyTumorType: "breast", KeyGeneMutations: "alk"})
	assert.Equal(t, []string{"XALKORI"}, therapies(res))

	res = Filter(table, SearchRequest{KeyTumorType: "melanoma", KeyGeneMutations: "alk"})
	assert.Empty(t, res.Rows)
	assert.NotNil(t, res.Rows)

	// Every returned row satisfies every predicate independently.
	req := SearchRequest{KeyTumorType: "lung", KeyTest: "cdx"}
	res = Filter(table, req)
	for _, row := range res.Rows {
		assert.Contains(t, strings.ToLower(row.Value(ColumnTumorType)), "lung")
		assert.Contains(t, strings.ToLower(row.Value(ColumnTest)), "cdx")
	}
	assert.Equal(t, 2, res.MatchedRows)
}

func TestFilter_GeneIsoformPrefix(t *testing.T) {
	table := &dataset.Table{
		Columns: BaseColumns(),
		Rows: []dataset.Row{
			cdxRow("Lung Cancer", "FoundationOne CDx", "NTRK1/2/3", "ROZLYTREK"),
			cdxRow("Breast Cancer", "Ventana", "ALK", "XALKORI"),
		},
	}

	res := Filter(table, SearchRequest{KeyGeneMutations: "NTRK"})
	assert.Equal(t, []string{"ROZLYTREK"}, therapies(res))

	res = Filter(table, SearchRequest{KeyGeneMutations: "ntrk"})
	assert.Equal(t, []string{"ROZLYTREK"}, therapies(res))
}

func TestGenePattern(t *testing.T) {
	gene, ok := FieldByKey(KeyGeneMutations)
	require.True(t, ok)

	tests := []struct {
		term  string
		value string
		want  bool
	}{
		{"NTRK", "NTRK1/2/3", true},
		{"ntrk", "NTRK1/2/3", true},
		{"NTRK", "NTRK fusion", true},
		{"NTRK", "ROS1, NTRK2", true},
		{"NTRK", "PANTRK", false},
		{"NTRK", "NTRKB", false},
		{"BRAF", "BRAF V600E", true},
		{"KRAS", "KRAS G12C", true},
		{"ALK", "TALK1", false},
	}

	for _, tt := range tests {
		t.Run(tt.term+"/"+tt.value, func(t *testing.T) {
			p := newPredicate(gene, tt.term)
			require.NotNil(t, p.gene)
			assert.Equal(t, tt.want, p.gene.MatchString(tt.value))
		})
	}
}

func TestFilter_KeepsDuplicateLikeRows(t *testing.T) {
	res := Filter(sampleTable(), SearchRequest{KeyTumorType: "lung cancer", KeyGeneMutations: "NTRK"})

	assert.Equal(t, []string{"ROZLYTREK", "VITRAKVI"}, therapies(res))
}

func TestFilter_SkipsRowsMissingBaseColumns(t *testing.T) {
	partial := dataset.NewRow(ColumnTumorType, "Lung Cancer", ColumnTest, "PCR", ColumnGeneMutations, "EGFR")
	table := &dataset.Table{
		Columns: BaseColumns(),
		Rows: []dataset.Row{
			partial,
			cdxRow("Lung Cancer", "PCR", "EGFR", "TAGRISSO"),
		},
	}

	res := Filter(table, SearchRequest{KeyTumorType: "lung"})
	assert.Equal(t, []string{"TAGRISSO"}, therapies(res))
	assert.Equal(t, 2, res.TotalRows)

	res = Filter(table, nil)
	assert.Equal(t, 1, res.MatchedRows)
}

func TestFilter_RaggedRowsStillCount(t *testing.T) {
	table, err := dataset.Parse([]byte("Tumor Type,Test,Gene mutations,Therapy\n" +
		"Lung Cancer,FoundationOne,NTRK1/2/3,ROZLYTREK\n" +
		"Breast Cancer,PCR,ALK\n"))
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	res := Filter(table, nil)
	assert.Equal(t, 2, res.MatchedRows)
	assert.Equal(t, res.TotalRows, res.MatchedRows)
	assert.Equal(t, "", res.Rows[1].Value(ColumnTherapy))

	res = Filter(table, SearchRequest{KeyTumorType: "breast"})
	assert.Equal(t, 1, res.MatchedRows)

	res = Filter(table, SearchRequest{KeyTherapy: "rozly"})
	assert.Equal(t, []string{"ROZLYTREK"}, therapies(res))
}

func TestFilter_OptionalColumns(t *testing.T) {
	withCompany := func(tumor, therapy, company, year string) dataset.Row {
		row := cdxRow(tumor, "Test", "EGFR", therapy)
		row.Set(ColumnDrugCompany, company)
		row.Set(ColumnApprovalYear, year)
		return row
	}

	t.Run("checked when present and queried", func(t *testing.T) {
		table := &dataset.Table{Rows: []dataset.Row{
			withCompany("Lung", "TAGRISSO", "AstraZeneca", "2015"),
			withCompany("Lung", "GILOTRIF", "Boehringer Ingelheim", "2013"),
		}}

		res := Filter(table, SearchRequest{KeyDrugCompany: "astra"})
		assert.Equal(t, []string{"TAGRISSO"}, therapies(res))

		res = Filter(table, SearchRequest{KeyApprovalYear: "2013"})
		assert.Equal(t, []string{"GILOTRIF"}, therapies(res))
	})

	t.Run("not checked when absent from row", func(t *testing.T) {
		table := &dataset.Table{Rows: []dataset.Row{cdxRow("Lung", "Test", "EGFR", "TAGRISSO")}}

		res := Filter(table, SearchRequest{KeyDrugCompany: "astra"})
		assert.Equal(t, []string{"TAGRISSO"}, therapies(res))
	})

	t.Run("columns extended only when present", func(t *testing.T) {
		table := &dataset.Table{Rows: []dataset.Row{
			withCompany("Lung", "TAGRISSO", "AstraZeneca", "2015"),
			cdxRow("Breast", "Test", "HER2", "HERCEPTIN"),
		}}

		res := Filter(table, nil)
		assert.Equal(t, append(BaseColumns(), ColumnDrugCompany, ColumnApprovalYear), res.Columns)

		res = Filter(table, SearchRequest{KeyTumorType: "breast"})
		assert.Equal(t, BaseColumns(), res.Columns)
	})

	t.Run("no results yields base columns", func(t *testing.T) {
		table := &dataset.Table{Rows: []dataset.Row{withCompany("Lung", "TAGRISSO", "AstraZeneca", "2015")}}

		res := Filter(table, SearchRequest{KeyTumorType: "melanoma"})
		assert.Equal(t, BaseColumns(), res.Columns)
		assert.Equal(t, 0, res.MatchedRows)
	})
}

func TestFilter_EmptyTable(t *testing.T) {
	res := Filter(&dataset.Table{}, SearchRequest{KeyTumorType: "lung"})
	assert.Equal(t, 0, res.MatchedRows)
	assert.Equal(t, 0, res.TotalRows)
	assert.Equal(t, BaseColumns(), res.Columns)

	res = Filter(nil, nil)
	assert.Equal(t, 0, res.TotalRows)
}

func TestFilter_Idempotent(t *testing.T) {
	table := sampleTable()
	req := SearchRequest{KeyTumorType: "cancer", KeyGeneMutations: "a"}

	first := Filter(table, req)
	second := Filter(table, req)
	assert.Equal(t, first, second)
}

func TestFilter_ResultJSON(t *testing.T) {
	table := &dataset.Table{Rows: []dataset.Row{cdxRow("Lung Cancer", "PCR", "EGFR", "TAGRISSO")}}
	res := Filter(table, nil)

	data, err := jsoniter.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"columns": ["Tumor Type", "Test", "Gene mutations", "Therapy"],
		"results": [{"Tumor Type": "Lung Cancer", "Test": "PCR", "Gene mutations": "EGFR", "Therapy": "TAGRISSO"}],
		"matched_rows": 1,
		"total_rows": 1
	}`, string(data))
}

// ============================================================================
// SearchRequest Tests
// ============================================================================

func TestSearchRequest(t *testing.T) {
	req := SearchRequest{KeyTherapy: " vitrakvi ", KeyTumorType: "lung", KeyTest: " ", "bogus": "x"}

	assert.Equal(t, "vitrakvi", req.Term(KeyTherapy))
	assert.Equal(t, map[string]string{KeyTherapy: "vitrakvi", KeyTumorType: "lung"}, req.Active())
	assert.Equal(t, "therapy=vitrakvi&tumor_type=lung", req.String())
	assert.False(t, req.IsEmpty())
	assert.True(t, SearchRequest{KeyTest: ""}.IsEmpty())
}

func TestFields(t *testing.T) {
	assert.Equal(t, []string{ColumnTumorType, ColumnTest, ColumnGeneMutations, ColumnTherapy}, BaseColumns())
	assert.Equal(t, []string{ColumnDrugCompany, ColumnApprovalYear}, OptionalColumns())

	f, ok := FieldByKey(KeyGeneMutations)
	require.True(t, ok)
	assert.True(t, f.GenePrefix)

	_, ok = FieldByKey("nope")
	assert.False(t, ok)

	all := Fields()
	all[0].Column = "changed"
	assert.Equal(t, ColumnTumorType, Fields()[0].Column)
}
