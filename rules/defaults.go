package rules

import "github.com/cypilot/cypilot/artifact"

// Defaults returns the built-in rule registry, used when no constraints
// payload is supplied. The table mirrors testdata/constraints.json.
func Defaults() *Registry {
	reg, err := NewRegistry(defaultSets(), defaultCoverage())
	if err != nil {
		// The built-in table is compiled in; a defect here is a bug,
		// not a runtime condition.
		panic(err)
	}
	return reg
}

func defaultSets() []*RuleSet {
	return []*RuleSet{
		{
			Artifact: artifact.KindPRD,
			Headings: []HeadingRule{
				{Title: "", Level: 1, Required: true, Repeatable: true},
				{Title: "Actors", Level: 2, Required: true},
				{Title: "Functional Requirements", Level: 2, Required: true},
				{Title: "Non-Functional Requirements", Level: 2, Required: true},
			},
			IDs: []IDRule{
				{Kind: artifact.IDActor, Required: true, Task: PolicyProhibited, Priority: PolicyProhibited, Heading: "Actors"},
				{Kind: artifact.IDFR, Required: true, Checkbox: true, Task: PolicyRequired, Priority: PolicyRequired, Heading: "Functional Requirements"},
				{Kind: artifact.IDNFR, Required: true, Checkbox: true, Task: PolicyRequired, Priority: PolicyRequired, Heading: "Non-Functional Requirements"},
			},
		},
		{
			Artifact: artifact.KindADR,
			Headings: []HeadingRule{
				{Title: "", Level: 1, Required: true, Repeatable: true},
				{Title: "Context", Level: 2, Required: true},
				{Title: "Decision Outcome", Level: 2, Required: true},
				{Title: "Consequences", Level: 3, Parent: "Decision Outcome", Required: true},
			},
			IDs: []IDRule{
				{Kind: artifact.IDADR, Required: true, Unique: true, Task: PolicyProhibited, Priority: PolicyProhibited},
			},
			FrontMatter: []string{"status", "date"},
		},
		{
			Artifact: artifact.KindDesign,
			Headings: []HeadingRule{
				{Title: "", Level: 1, Required: true, Repeatable: true},
				{Title: "Overview", Level: 2, Required: true},
				{Title: "Architecture Drivers", Level: 3, Parent: "Overview", Required: true},
				{Title: "Components", Level: 2, Required: true},
				{Title: "Key Decisions", Level: 3, Required: true},
			},
			IDs: []IDRule{
				{Kind: artifact.IDComponent, Required: true, Task: PolicyProhibited, Priority: PolicyProhibited, Heading: "Components"},
			},
		},
		{
			Artifact: artifact.KindDecomposition,
			Headings: []HeadingRule{
				{Title: "", Level: 1, Required: true, Repeatable: true},
				{Title: "Features", Level: 2, Required: true},
			},
			IDs: []IDRule{
				{Kind: artifact.IDFeature, Required: true, Checkbox: true, Task: PolicyRequired, Priority: PolicyRequired, Heading: "Features"},
			},
		},
		{
			Artifact: artifact.KindFeature,
			Headings: []HeadingRule{
				{Title: "", Level: 1, Required: true, Repeatable: true},
				{Title: "Flows", Level: 2, Required: true},
				{Title: "", Level: 3, Parent: "Flows", Repeatable: true},
				{Title: "Algorithms", Level: 2},
				{Title: "States", Level: 2},
				{Title: "Definition of Done", Level: 2, Required: true},
			},
			IDs: []IDRule{
				{Kind: artifact.IDFeatStatus, Required: true, Unique: true, Checkbox: true, Task: PolicyRequired, Priority: PolicyProhibited},
				{Kind: artifact.IDFlow, Checkbox: true, Task: PolicyRequired, Priority: PolicyRequired, Heading: "Flows", Traceable: true},
				{Kind: artifact.IDAlgo, Checkbox: true, Task: PolicyRequired, Priority: PolicyRequired, Heading: "Algorithms", Traceable: true},
				{Kind: artifact.IDState, Checkbox: true, Task: PolicyRequired, Priority: PolicyRequired, Heading: "States", Traceable: true},
				{Kind: artifact.IDDoD, Required: true, Checkbox: true, Task: PolicyRequired, Priority: PolicyRequired, Heading: "Definition of Done", Traceable: true},
			},
		},
	}
}

func defaultCoverage() []CoverageRule {
	return []CoverageRule{
		{SourceKind: artifact.IDFR, SourceArtifact: artifact.KindPRD, TargetArtifact: artifact.KindDesign, Level: CoverageRequired, TargetHeading: "Architecture Drivers"},
		{SourceKind: artifact.IDNFR, SourceArtifact: artifact.KindPRD, TargetArtifact: artifact.KindDesign, Level: CoverageRequired, TargetHeading: "Architecture Drivers"},
		{SourceKind: artifact.IDADR, SourceArtifact: artifact.KindADR, TargetArtifact: artifact.KindDesign, Level: CoverageRequired, TargetHeading: "Key Decisions"},
		{SourceKind: artifact.IDComponent, SourceArtifact: artifact.KindDesign, TargetArtifact: artifact.KindDecomposition, Level: CoverageRequired, TargetHeading: "Features"},
		{SourceKind: artifact.IDFeature, SourceArtifact: artifact.KindDecomposition, TargetArtifact: artifact.KindFeature, Level: CoverageRequired},
		{SourceKind: artifact.IDActor, SourceArtifact: artifact.KindPRD, TargetArtifact: artifact.KindDesign, Level: CoverageOptional},
		{SourceKind: artifact.IDADR, SourceArtifact: artifact.KindADR, TargetArtifact: artifact.KindFeature, Level: CoverageProhibited},
		{SourceKind: artifact.IDFR, SourceArtifact: artifact.KindPRD, TargetArtifact: artifact.KindFeature, Level: CoverageProhibited},
	}
}
