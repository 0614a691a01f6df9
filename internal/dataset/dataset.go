// Package dataset loads NHANES-style survey extracts from CSV and recodes
// the raw variable codes into labels usable by the analysis layer.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
)

// Person is one survey record. Continuous measures use NaN for missing;
// categorical codes use 0 for missing.
type Person struct {
	SEQN      int64
	Sex       int // RIAGENDR code
	Age       int // RIDAGEYR, years (top-coded at 80 by NHANES)
	Education int // DMDEDUC2 code
	Marital   int // DMDMARTL code
	Height    float64
	Weight    float64
	BMI       float64
	Smoker    SmokeStatus
}

// SexLabel returns "Male"/"Female", or "" when missing.
func (p Person) SexLabel() string { return sexLabels[p.Sex] }

// EducationLabel returns the decoded education level, or "" when missing.
func (p Person) EducationLabel() string { return educationLabels[p.Education] }

// MaritalLabel returns the decoded marital status, or "" when missing.
func (p Person) MaritalLabel() string { return maritalLabels[p.Marital] }

// columns maps header names we need to their required presence.
var requiredColumns = []string{"SEQN", VarSex, VarAge}

// ReadCSV parses an NHANES extract. The header row determines column
// positions; unknown columns are ignored, empty cells are missing.
func ReadCSV(r io.Reader) ([]Person, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := pos[name]; !ok {
			return nil, fmt.Errorf("missing required column %s", name)
		}
	}

	// Cell accessors tolerant of absent columns and empty cells.
	cell := func(rec []string, name string) string {
		i, ok := pos[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}
	intCell := func(rec []string, name string) (int, error) {
		s := cell(rec, name)
		if s == "" {
			return 0, nil
		}
		// NHANES exports integers as "2.0".
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return int(f), nil
	}
	floatCell := func(rec []string, name string) (float64, error) {
		s := cell(rec, name)
		if s == "" {
			return math.NaN(), nil
		}
		return strconv.ParseFloat(s, 64)
	}

	var persons []Person
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		var p Person
		if p.SEQN, err = parseSEQN(cell(rec, "SEQN")); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if p.Sex, err = intCell(rec, VarSex); err != nil {
			return nil, fmt.Errorf("line %d: parse %s: %w", line, VarSex, err)
		}
		if p.Age, err = intCell(rec, VarAge); err != nil {
			return nil, fmt.Errorf("line %d: parse %s: %w", line, VarAge, err)
		}
		if p.Education, err = intCell(rec, VarEducation); err != nil {
			return nil, fmt.Errorf("line %d: parse %s: %w", line, VarEducation, err)
		}
		if p.Marital, err = intCell(rec, VarMarital); err != nil {
			return nil, fmt.Errorf("line %d: parse %s: %w", line, VarMarital, err)
		}
		if p.Height, err = floatCell(rec, VarHeight); err != nil {
			return nil, fmt.Errorf("line %d: parse %s: %w", line, VarHeight, err)
		}
		if p.Weight, err = floatCell(rec, VarWeight); err != nil {
			return nil, fmt.Errorf("line %d: parse %s: %w", line, VarWeight, err)
		}
		if p.BMI, err = floatCell(rec, VarBMI); err != nil {
			return nil, fmt.Errorf("line %d: parse %s: %w", line, VarBMI, err)
		}
		smq, err := intCell(rec, VarSmoker)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse %s: %w", line, VarSmoker, err)
		}
		p.Smoker = smokeStatus(smq)

		persons = append(persons, p)
	}

	if len(persons) == 0 {
		return nil, fmt.Errorf("no records in input")
	}
	return persons, nil
}

func parseSEQN(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("missing SEQN")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse SEQN: %w", err)
	}
	return int64(f), nil
}

// LoadFile reads an NHANES CSV from disk.
func LoadFile(path string) ([]Person, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// Values extracts the named continuous variable as a float slice, with NaN
// marking missing observations.
func Values(persons []Person, variable string) ([]float64, error) {
	get, err := numericAccessor(variable)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(persons))
	for i, p := range persons {
		values[i] = get(p)
	}
	return values, nil
}

func numericAccessor(variable string) (func(Person) float64, error) {
	switch variable {
	case VarAge:
		return func(p Person) float64 { return float64(p.Age) }, nil
	case VarHeight:
		return func(p Person) float64 { return p.Height }, nil
	case VarWeight:
		return func(p Person) float64 { return p.Weight }, nil
	case VarBMI:
		return func(p Person) float64 { return p.BMI }, nil
	default:
		return nil, fmt.Errorf("unknown numeric variable %q (want one of %v)", variable, NumericVars)
	}
}

// Binary counts successes and valid observations for a yes/no variable,
// excluding refused/don't-know/missing records.
func Binary(persons []Person, variable string) (successes, n int64, err error) {
	if variable != VarSmoker {
		return 0, 0, fmt.Errorf("unknown binary variable %q (want one of %v)", variable, BinaryVars)
	}
	for _, p := range persons {
		switch p.Smoker {
		case SmokeYes:
			successes++
			n++
		case SmokeNo:
			n++
		}
	}
	if n == 0 {
		return 0, 0, fmt.Errorf("no valid observations for %s", variable)
	}
	return successes, n, nil
}

// BinaryValues returns the yes/no variable as 0/1 values with invalid
// records dropped, for use by the subsampling simulation.
func BinaryValues(persons []Person, variable string) ([]float64, error) {
	if variable != VarSmoker {
		return nil, fmt.Errorf("unknown binary variable %q (want one of %v)", variable, BinaryVars)
	}
	var values []float64
	for _, p := range persons {
		switch p.Smoker {
		case SmokeYes:
			values = append(values, 1)
		case SmokeNo:
			values = append(values, 0)
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no valid observations for %s", variable)
	}
	return values, nil
}

// Group is a named subset of records.
type Group struct {
	Label   string
	Persons []Person
}

// GroupBy partitions records by a categorical variable (RIAGENDR, DMDEDUC2
// or DMDMARTL). Records with a missing code are excluded. Groups come back
// sorted by label for deterministic output.
func GroupBy(persons []Person, variable string) ([]Group, error) {
	var label func(Person) string
	switch variable {
	case VarSex:
		label = Person.SexLabel
	case VarEducation:
		label = Person.EducationLabel
	case VarMarital:
		label = Person.MaritalLabel
	default:
		return nil, fmt.Errorf("unknown grouping variable %q", variable)
	}

	byLabel := make(map[string][]Person)
	for _, p := range persons {
		l := label(p)
		if l == "" {
			continue
		}
		byLabel[l] = append(byLabel[l], p)
	}
	if len(byLabel) == 0 {
		return nil, fmt.Errorf("no valid observations for grouping %s", variable)
	}

	groups := make([]Group, 0, len(byLabel))
	for l, ps := range byLabel {
		groups = append(groups, Group{Label: l, Persons: ps})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Label < groups[j].Label })
	return groups, nil
}

// FindGroup returns the group with the given label, or an error naming
// the labels that do exist.
func FindGroup(groups []Group, label string) (Group, error) {
	labels := make([]string, 0, len(groups))
	for _, g := range groups {
		if g.Label == label {
			return g, nil
		}
		labels = append(labels, g.Label)
	}
	return Group{}, fmt.Errorf("no group %q (have %v)", label, labels)
}

// AgeBands partitions adult records into the ten-year bands
// (18,28], (28,38], ... (78,88]. Records outside 19-88 are excluded.
func AgeBands(persons []Person) []Group {
	const lo, width, bands = 18, 10, 7

	groups := make([]Group, bands)
	for i := range groups {
		groups[i].Label = fmt.Sprintf("(%d, %d]", lo+i*width, lo+(i+1)*width)
	}
	for _, p := range persons {
		if p.Age <= lo || p.Age > lo+bands*width {
			continue
		}
		i := (p.Age - lo - 1) / width
		groups[i].Persons = append(groups[i].Persons, p)
	}
	return groups
}
