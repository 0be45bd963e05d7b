package agenda

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules drives the extraction heuristics. Label sets are matched against the
// uppercased flat form of each row, so entries here should be uppercase;
// accented variants must be listed explicitly.
type Rules struct {
	DoctorLabels     []string `yaml:"doctor_labels"`
	SpecialtyLabels  []string `yaml:"specialty_labels"`
	DateLabels       []string `yaml:"date_labels"`
	RecordLabels     []string `yaml:"record_labels"`
	HeaderLabels     []string `yaml:"header_labels"`
	NameExclusions   []string `yaml:"name_exclusions"`
	TimeColumnWindow int      `yaml:"time_column_window"`
	RecordLookahead  int      `yaml:"record_lookahead"`
	MinNameLength    int      `yaml:"min_name_length"`
}

func DefaultRules() Rules {
	return Rules{
		DoctorLabels:    []string{"PROFISSIONAL", "MEDICO", "DR.", "DOUTOR"},
		SpecialtyLabels: []string{"ESPECIALIDADE"},
		DateLabels:      []string{"DATA", "DIA:"},
		RecordLabels: []string{
			"PRONTUÁRIO", "PRONTUARIO", "PRONT",
			"CÓDIGO", "CODIGO",
			"MATRÍCULA", "MATRICULA",
		},
		HeaderLabels:     []string{"HORÁRIO", "HORARIO"},
		NameExclusions:   []string{"AGENDAMENTO", "RETORNO"},
		TimeColumnWindow: 6,
		RecordLookahead:  2,
		MinNameLength:    5,
	}
}

// LoadRules reads a rule catalog from YAML, falling back to the defaults
// when no path is configured. Missing numeric fields inherit the defaults so
// a catalog can override only the label sets.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultRules(), err
	}
	var rules Rules
	if err := yaml.Unmarshal(content, &rules); err != nil {
		return Rules{}, err
	}

	defaults := DefaultRules()
	if len(rules.DoctorLabels) == 0 {
		rules.DoctorLabels = defaults.DoctorLabels
	}
	if len(rules.SpecialtyLabels) == 0 {
		rules.SpecialtyLabels = defaults.SpecialtyLabels
	}
	if len(rules.DateLabels) == 0 {
		rules.DateLabels = defaults.DateLabels
	}
	if len(rules.RecordLabels) == 0 {
		rules.RecordLabels = defaults.RecordLabels
	}
	if len(rules.HeaderLabels) == 0 {
		rules.HeaderLabels = defaults.HeaderLabels
	}
	if len(rules.NameExclusions) == 0 {
		rules.NameExclusions = defaults.NameExclusions
	}
	if rules.TimeColumnWindow <= 0 {
		rules.TimeColumnWindow = defaults.TimeColumnWindow
	}
	if rules.RecordLookahead < 0 {
		rules.RecordLookahead = defaults.RecordLookahead
	}
	if rules.MinNameLength <= 0 {
		rules.MinNameLength = defaults.MinNameLength
	}
	return rules, nil
}

type compiledRules struct {
	rules       Rules
	timeRe      *regexp.Regexp
	dateRe      *regexp.Regexp
	recordRe    *regexp.Regexp
	doctorRe    *regexp.Regexp
	specialtyRe *regexp.Regexp
	ageRe       *regexp.Regexp
}

func (r Rules) compile() (*compiledRules, error) {
	if len(r.RecordLabels) == 0 {
		return nil, fmt.Errorf("record labels required")
	}

	recordRe, err := regexp.Compile(`(?:` + alternation(r.RecordLabels) + `)\s*[:.]?\s*(\d+)`)
	if err != nil {
		return nil, fmt.Errorf("compiling record number pattern: %w", err)
	}
	// Value patterns run against the source casing, so they match
	// case-insensitively while labels are checked on the uppercased flat
	// form.
	doctorRe, err := regexp.Compile(`(?i)(?:` + alternation(r.DoctorLabels) + `)[\s:.\-]*(.*)`)
	if err != nil {
		return nil, fmt.Errorf("compiling doctor pattern: %w", err)
	}
	specialtyRe, err := regexp.Compile(`(?i)(?:` + alternation(r.SpecialtyLabels) + `)[\s:.\-]*(.*)`)
	if err != nil {
		return nil, fmt.Errorf("compiling specialty pattern: %w", err)
	}

	return &compiledRules{
		rules:       r,
		timeRe:      regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?$`),
		dateRe:      regexp.MustCompile(`(\d{2}[-/]\d{2}[-/]\d{2,4})`),
		recordRe:    recordRe,
		doctorRe:    doctorRe,
		specialtyRe: specialtyRe,
		ageRe:       regexp.MustCompile(`(\d+)\s*(ANOS?|MESES?|DIAS?)`),
	}, nil
}

func alternation(labels []string) string {
	quoted := make([]string, 0, len(labels))
	for _, label := range labels {
		if label = strings.TrimSpace(label); label != "" {
			quoted = append(quoted, regexp.QuoteMeta(label))
		}
	}
	return strings.Join(quoted, "|")
}

func containsAny(text string, labels []string) bool {
	for _, label := range labels {
		if label != "" && strings.Contains(text, label) {
			return true
		}
	}
	return false
}
