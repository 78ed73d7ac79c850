package core

// Dataset column names. These must match the normalized CSV header exactly.
const (
	ColumnTumorType     = "Tumor Type"
	ColumnTest          = "Test"
	ColumnGeneMutations = "Gene mutations"
	ColumnTherapy       = "Therapy"
	ColumnDrugCompany   = "Drug Company"
	ColumnApprovalYear  = "FDA Approved Year"
)

// Search keys accepted from callers.
const (
	KeyTumorType     = "tumor_type"
	KeyTest          = "test"
	KeyGeneMutations = "gene_mutations"
	KeyTherapy       = "therapy"
	KeyDrugCompany   = "drug_company"
	KeyApprovalYear  = "approval_year"
)

// Field binds a search key to the column it filters.
type Field struct {
	Key    string // query key, e.g. "tumor_type"
	Column string // dataset column, e.g. "Tumor Type"
	Label  string // form label for the HTML page

	// Optional columns are only present in some dataset variants.
	Optional bool

	// GenePrefix enables isoform-aware matching, so "NTRK" also matches
	// "NTRK1/2/3".
	GenePrefix bool
}

// fields is the canonical, ordered set of searchable columns.
var fields = []Field{
	{Key: KeyTumorType, Column: ColumnTumorType, Label: "Tumor type"},
	{Key: KeyTest, Column: ColumnTest, Label: "Test"},
	{Key: KeyGeneMutations, Column: ColumnGeneMutations, Label: "Gene mutations", GenePrefix: true},
	{Key: KeyTherapy, Column: ColumnTherapy, Label: "Therapy"},
	{Key: KeyDrugCompany, Column: ColumnDrugCompany, Label: "Drug company", Optional: true},
	{Key: KeyApprovalYear, Column: ColumnApprovalYear, Label: "FDA approved year", Optional: true},
}

// Fields returns the searchable fields in canonical order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// FieldByKey looks up a field by its search key.
func FieldByKey(key string) (Field, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// BaseColumns returns the core columns every row must carry, in display order.
func BaseColumns() []string {
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		if !f.Optional {
			cols = append(cols, f.Column)
		}
	}
	return cols
}

// OptionalColumns returns the extended columns in display order.
func OptionalColumns() []string {
	var cols []string
	for _, f := range fields {
		if f.Optional {
			cols = append(cols, f.Column)
		}
	}
	return cols
}
