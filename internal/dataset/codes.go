package dataset

// NHANES variable names understood by the analysis commands.
const (
	VarSex       = "RIAGENDR"
	VarAge       = "RIDAGEYR"
	VarEducation = "DMDEDUC2"
	VarMarital   = "DMDMARTL"
	VarHeight    = "BMXHT"
	VarWeight    = "BMXWT"
	VarBMI       = "BMXBMI"
	VarSmoker    = "SMQ020"
)

// NumericVars are the continuous variables usable with describe/mean/compare.
var NumericVars = []string{VarAge, VarHeight, VarWeight, VarBMI}

// BinaryVars are the yes/no variables usable with proportion analyses.
var BinaryVars = []string{VarSmoker}

// sexLabels decodes RIAGENDR.
var sexLabels = map[int]string{
	1: "Male",
	2: "Female",
}

// educationLabels decodes DMDEDUC2. Codes 7 and 9 are refused/don't know
// and are treated as missing.
var educationLabels = map[int]string{
	1: "<9",
	2: "9-11",
	3: "HS/GED",
	4: "Some college/AA",
	5: "College",
}

// maritalLabels decodes DMDMARTL, same missing convention.
var maritalLabels = map[int]string{
	1: "Married",
	2: "Widowed",
	3: "Divorced",
	4: "Separated",
	5: "Never married",
	6: "Living w/partner",
}

// Smoking status from SMQ020 ("smoked at least 100 cigarettes in life").
type SmokeStatus int

const (
	SmokeUnknown SmokeStatus = iota
	SmokeYes
	SmokeNo
)

func smokeStatus(code int) SmokeStatus {
	switch code {
	case 1:
		return SmokeYes
	case 2:
		return SmokeNo
	default:
		// 7=refused, 9=don't know, 0=missing
		return SmokeUnknown
	}
}
