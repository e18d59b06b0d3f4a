package request

import (
	"slices"
	"strings"

	"github.com/usegalaxy-au/galaxy_web/internal/form"
)

// Resource types accepted by ResourceForm. Each names a mail template.
const (
	ResourceTool    = "tool"
	ResourceDataset = "dataset"
)

var ResourceForm = form.MustSchema("resource", []form.Field{
	{Name: "name", Kind: form.KindText, Required: true},
	{Name: "email", Kind: form.KindEmail, Required: true},
	{Name: "resource_type", Kind: form.KindChoice, Required: true, Choices: []form.Choice{
		{Value: ResourceTool, Label: "Tool"},
		{Value: ResourceDataset, Label: "Dataset"},
	}},
	{Name: "resource_name_version", Label: "Resource name and version", Kind: form.KindText, Required: true},
	{Name: "resource_url", Label: "Resource URL", Kind: form.KindURL},
	{Name: "resource_justification", Label: "Justification", Kind: form.KindTextarea},
	{Name: "tool_toolshed_available", Label: "Available in the Galaxy ToolShed", Kind: form.KindBool},
	{Name: "tool_toolshed_url", Label: "ToolShed URL", Kind: form.KindURL},
	{Name: "tool_test_data", Label: "Test data available", Kind: form.KindBool},
})

var QuotaForm = form.MustSchema("quota",
	[]form.Field{
		{Name: "name", Kind: form.KindText, Required: true},
		{Name: "email", Kind: form.KindEmail, Required: true},
		{Name: "start_date", Kind: form.KindDate, Required: true, Help: "YYYY-MM-DD"},
		{Name: "duration_months", Label: "Duration (months)", Kind: form.KindInt, Required: true},
		{Name: "disk_tb", Label: "Disk space (TB)", Kind: form.KindInt, Required: true,
			Help: "Enter 0 to specify another amount."},
		{Name: "disk_tb_other", Label: "Other disk space (TB)", Kind: form.KindInt},
		{Name: "description", Kind: form.KindTextarea, Required: true},
		{Name: "accepted_terms", Label: "I accept the terms of service", Kind: form.KindBool, Required: true},
	},
	form.OtherField{Field: "disk_tb", Other: "disk_tb_other", Required: true},
)

var SupportForm = form.MustSchema("support", []form.Field{
	{Name: "name", Kind: form.KindText, Required: true},
	{Name: "email", Kind: form.KindEmail, Required: true},
	{Name: "message", Kind: form.KindTextarea, Required: true},
})

var alphafoldForm = form.MustSchema("alphafold", []form.Field{
	{Name: "name", Kind: form.KindText, Required: true},
	{Name: "email", Kind: form.KindEmail, Required: true},
	{Name: "institution", Kind: form.KindText, Required: true},
	{Name: "species", Kind: form.KindText},
	{Name: "domain", Label: "Domain of study", Kind: form.KindText},
	{Name: "proteins", Label: "Target proteins", Kind: form.KindText},
	{Name: "size_aa", Label: "Size (AA)", Kind: form.KindInt},
	{Name: "count_aa", Label: "Total count (AA)", Kind: form.KindInt},
})

var fgeneshForm = form.MustSchema("fgenesh",
	[]form.Field{
		{Name: "name", Kind: form.KindText, Required: true},
		{Name: "email", Kind: form.KindEmail, Required: true},
		{Name: "institution", Kind: form.KindText, Required: true},
		{Name: "agree_terms", Label: "I agree to the Fgenesh++ terms of use", Kind: form.KindBool, Required: true},
		{Name: "agree_acknowledge", Label: "I will acknowledge Fgenesh++ in publications", Kind: form.KindBool, Required: true},
		{Name: "species", Kind: form.KindChoice, Required: true, Choices: []form.Choice{
			{Value: "1", Label: "Caenorhabditis elegans (Non-redundant database)"},
			{Value: "2", Label: "Gallus gallus domesticus (Non-redundant database)"},
			{Value: "3", Label: "Gene matrix (522 species)"},
			{Value: "0", Label: "Other, please specify"},
		}},
		{Name: "species_other", Label: "Other species", Kind: form.KindText},
	},
	form.OtherField{Field: "species", Other: "species_other", Required: true},
)

// AccessForm is a restricted resource users apply for.
type AccessForm struct {
	Key    string
	Name   string
	Schema *form.Schema
}

// AccessForms is keyed by the URL segment of /request/access/:resource.
var AccessForms = map[string]AccessForm{
	"alphafold": {Key: "alphafold", Name: "AlphaFold", Schema: alphafoldForm},
	"fgenesh":   {Key: "fgenesh", Name: "Fgenesh++", Schema: fgeneshForm},
}

func LookupAccessForm(key string) (AccessForm, bool) {
	f, ok := AccessForms[key]
	return f, ok
}

// AccessFormList returns the registry sorted by name.
func AccessFormList() []AccessForm {
	out := make([]AccessForm, 0, len(AccessForms))
	for _, f := range AccessForms {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b AccessForm) int { return strings.Compare(a.Name, b.Name) })
	return out
}
