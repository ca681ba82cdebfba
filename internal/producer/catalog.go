package producer

import (
	"text/template"

	"go-batch-generator/internal/model"
)

// Category is one kind of document a phase can produce
type Category struct {
	Name string
	// Formats are the output formats the category can be rendered as
	Formats []string
	// NeedsPatient binds the item to a patient record of the pool
	NeedsPatient bool
	tmpl         *template.Template
}

func category(name string, needsPatient bool, formats []string, body string) Category {
	return Category{
		Name:         name,
		Formats:      formats,
		NeedsPatient: needsPatient,
		tmpl:         template.Must(template.New(name).Option("missingkey=zero").Parse(header + body)),
	}
}

const header = `{{.Title}}
Reference: {{.Reference}}
Date: {{.Date}}
Classification: {{.Classification}}

`

var catalog = map[string]map[model.Phase][]Category{
	model.CorpusPHI: {
		model.PhasePositive: {
			category("ProgressNote", true, []string{"docx", "pdf", "txt", "md", "html"}, `Patient: {{.Patient.Name}} (MRN {{index .Patient.Attributes "mrn"}}, DOB {{index .Patient.Attributes "dob"}})
Provider: {{.Provider.Name}}, {{index .Provider.Attributes "specialty"}}
Facility: {{.Facility.Name}}

Subjective: patient seen for follow-up visit.
Assessment: condition stable, continue current plan.
Plan: return in {{.Weeks}} weeks.
`),
			category("LabResult", true, []string{"pdf", "docx", "xlsx", "csv", "json"}, `Patient: {{.Patient.Name}} (MRN {{index .Patient.Attributes "mrn"}})
Ordering provider: {{.Provider.Name}} (NPI {{index .Provider.Attributes "npi"}})
Performing lab: {{.Facility.Name}}

Test,Result,Units
Glucose,{{.Value}},mg/dL
`),
			category("ProviderEmail", true, []string{"eml", "txt", "html"}, `From: {{.Provider.Name}}
To: {{.Peer.Name}}
Subject: Consult regarding {{.Patient.Name}}

Please review the chart for MRN {{index .Patient.Attributes "mrn"}} before the next visit at {{.Facility.Name}}.
`),
			category("CaseStudy", true, []string{"pptx", "pdf", "md"}, `Case presentation by {{.Provider.Name}}
Patient: {{.Patient.Name}}, DOB {{index .Patient.Attributes "dob"}}
Setting: {{.Facility.Name}}, {{index .Facility.Attributes "city"}}
`),
		},
		model.PhaseNegative: {
			category("Policy", false, []string{"pdf", "docx", "md", "html", "txt"}, `{{.Facility.Name}} policy {{.Reference}}
This policy applies to all staff and takes effect immediately.
`),
			category("Announcement", false, []string{"eml", "html", "txt"}, `To: All staff, {{.Facility.Name}}
Subject: Office update

The front desk will open at {{.Hour}}:00 starting next week.
`),
			category("Education", false, []string{"pptx", "pdf", "md"}, `Staff education module {{.Reference}}
Topic: hand hygiene and infection control at {{.Facility.Name}}.
`),
			category("BlankForm", false, []string{"docx", "pdf", "xlsx", "csv"}, `{{.Facility.Name}} intake form
Name: ____________
Date of birth: ____________
Reason for visit: ____________
`),
		},
	},
	model.CorpusCUI: {
		model.PhasePositive: {
			category("FinancialReport", false, []string{"xlsx", "pdf", "csv", "json"}, `CUI//SP-FNC
Prepared by {{.Provider.Name}} for {{.Facility.Name}}
Quarter total: {{.Value}}000 USD
`),
			category("LegalMemo", false, []string{"docx", "pdf", "txt", "md"}, `CUI//SP-PRVCY
Memorandum from {{.Provider.Name}}
Matter {{.Reference}} concerning {{.Facility.Name}}
`),
			category("TaxRecord", false, []string{"pdf", "xlsx", "csv"}, `CUI//SP-TAX
Taxpayer: {{.Provider.Name}}
Filing office: {{.Facility.Name}}, {{index .Facility.Attributes "state"}}
`),
			category("ProcurementNotice", false, []string{"docx", "eml", "pdf", "html"}, `CUI//SP-PROCURE
Solicitation {{.Reference}} issued by {{.Facility.Name}}
Point of contact: {{.Provider.Name}}
`),
		},
		model.PhaseNegative: {
			category("PublicNotice", false, []string{"pdf", "html", "txt", "md"}, `Public notice {{.Reference}}
{{.Facility.Name}} will hold an open meeting at {{.Hour}}:00.
`),
			category("PressRelease", false, []string{"docx", "eml", "html"}, `FOR IMMEDIATE RELEASE
{{.Facility.Name}} announces extended service hours.
`),
			category("Newsletter", false, []string{"pptx", "pdf", "html", "md"}, `Community newsletter from {{.Facility.Name}}, {{index .Facility.Attributes "city"}}
`),
			category("BlankForm", false, []string{"docx", "pdf", "xlsx", "csv", "json"}, `Request form {{.Reference}}
Name: ____________
Organization: ____________
`),
		},
	},
}
