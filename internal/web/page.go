package web

import (
	"github.com/JonMunkholm/therafind/internal/core"
	"github.com/JonMunkholm/therafind/internal/web/templates"
)

// searchPageView builds the search page view model. errMsg, when set, is
// shown instead of the result.
func searchPageView(req core.SearchRequest, result *core.SearchResult, errMsg string) templates.SearchPageData {
	fields := core.Fields()
	data := templates.SearchPageData{
		Fields: make([]templates.FieldInput, len(fields)),
		Error:  errMsg,
	}
	for i, f := range fields {
		data.Fields[i] = templates.FieldInput{Key: f.Key, Label: f.Label, Value: req[f.Key]}
	}

	if errMsg == "" && result != nil {
		data.Result = resultView(req, result)
	}
	return data
}

func resultView(req core.SearchRequest, result *core.SearchResult) *templates.ResultData {
	rows := make([][]string, len(result.Rows))
	for i, row := range result.Rows {
		cells := make([]string, len(result.Columns))
		for j, col := range result.Columns {
			cells[j] = row.Value(col)
		}
		rows[i] = cells
	}

	return &templates.ResultData{
		Columns:   result.Columns,
		Rows:      rows,
		Matched:   result.MatchedRows,
		Total:     result.TotalRows,
		ExportURL: "/search/export?" + req.Query(),
	}
}
