package policy

import (
	"regexp"
	"strings"
)

// Template types. Static templates render as-is; patient-specific ones need a
// patient id; dynamic ones take arbitrary context values.
const (
	TypeStatic          = "static"
	TypePatientSpecific = "patient_specific"
	TypeDynamic         = "dynamic"
)

// PatientIDPlaceholder is substituted with the target patient's id when a
// patient-specific or dynamic template is rendered.
const PatientIDPlaceholder = "{{PATIENT_ID}}"

var placeholderRe = regexp.MustCompile(`\{\{([A-Z0-9_]+)\}\}`)

// Template is a reusable policy text with {{NAME}} placeholders.
type Template struct {
	Name string
	Text string
	Type string
}

// Render substitutes placeholders and returns the policy text ready for
// parsing or encryption. Static templates ignore both arguments. Placeholders
// with no matching context value are left verbatim; downstream they behave as
// attributes nobody holds, so an incomplete rendering locks rather than
// opens.
func (t Template) Render(patientID string, context map[string]string) string {
	if t.Type == TypeStatic {
		return t.Text
	}
	out := strings.ReplaceAll(t.Text, PatientIDPlaceholder, patientID)
	for key, val := range context {
		out = strings.ReplaceAll(out, "{{"+strings.ToUpper(key)+"}}", val)
	}
	return out
}

// IsApplicable reports whether the template can be rendered with the
// information at hand. Static templates always are; the other types need a
// patient id.
func (t Template) IsApplicable(patientID string) bool {
	if (t.Type == TypePatientSpecific || t.Type == TypeDynamic) && patientID == "" {
		return false
	}
	return true
}

// RequiredPlaceholders lists the distinct placeholder names appearing in the
// template text, in order of first appearance.
func (t Template) RequiredPlaceholders() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range placeholderRe.FindAllStringSubmatch(t.Text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// FamilyPolicy is the canonical template granting a patient's family, their
// doctor, or qualified hospital staff access to a record.
var FamilyPolicy = Template{
	Name: "family_and_care_team",
	Type: TypePatientSpecific,
	Text: "family_members:{{PATIENT_ID}} OR doctor OR ((hospital_1 OR hospital_2) AND (sanatorium OR nurse OR physician) AND healthcare_staff AND (researcher OR md_degree OR (health_science_centre OR medicine_institute)))",
}
